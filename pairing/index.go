// Package pairing finds geometric correspondences between boundary point
// sets: periodic node partners and candidate contact boundary pairs. It
// indexes arbitrary point collections with a KD-tree without copying them.
package pairing

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultLeafSize is the cloud size below which a linear scan replaces the tree
const DefaultLeafSize = 10

const medianSamples = 100

// PointCloud exposes a point-like collection by index
type PointCloud interface {
	Len() int
	Point(i int) r3.Vec
}

// Points adapts a plain slice
type Points []r3.Vec

func (p Points) Len() int           { return len(p) }
func (p Points) Point(i int) r3.Vec { return p[i] }

// Match is one radius search hit, Dist2 is the squared distance
type Match struct {
	Index int
	Dist2 float64
}

// Index is a spatial index over a PointCloud
type Index struct {
	cloud    PointCloud
	tree     *kdtree.Tree
	leafSize int
}

func NewIndex(cloud PointCloud, leafSize int) (ix *Index) {
	if leafSize <= 0 {
		leafSize = DefaultLeafSize
	}
	ix = &Index{cloud: cloud, leafSize: leafSize}
	if cloud.Len() > leafSize {
		perm := make([]int, cloud.Len())
		for i := range perm {
			perm[i] = i
		}
		ix.tree = kdtree.New(cloudSet{cloud: cloud, perm: perm}, false)
	}
	return
}

func (ix *Index) Len() int { return ix.cloud.Len() }

// RadiusSearch returns every point within radius of q, sorted by index
func (ix *Index) RadiusSearch(q r3.Vec, radius float64) (matches []Match) {
	r2 := radius * radius
	if ix.tree == nil {
		for i := 0; i < ix.cloud.Len(); i++ {
			if d2 := r3.Norm2(r3.Sub(ix.cloud.Point(i), q)); d2 <= r2 {
				matches = append(matches, Match{i, d2})
			}
		}
		return
	}
	keeper := kdtree.NewDistKeeper(r2)
	ix.tree.NearestSet(keeper, queryPoint(q))
	for _, cd := range keeper.Heap {
		if cd.Comparable == nil { // sentinel left when nothing is in range
			continue
		}
		matches = append(matches, Match{cd.Comparable.(cloudPoint).idx, cd.Dist})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Index < matches[j].Index })
	return
}

// Nearest returns the closest point to q, or -1 for an empty cloud
func (ix *Index) Nearest(q r3.Vec) (idx int, dist2 float64) {
	idx, dist2 = -1, math.Inf(1)
	if ix.tree == nil {
		for i := 0; i < ix.cloud.Len(); i++ {
			if d2 := r3.Norm2(r3.Sub(ix.cloud.Point(i), q)); d2 < dist2 {
				idx, dist2 = i, d2
			}
		}
		return
	}
	c, d := ix.tree.Nearest(queryPoint(q))
	if c != nil {
		idx, dist2 = c.(cloudPoint).idx, d
	}
	return
}

func coord(p r3.Vec, d kdtree.Dim) float64 {
	switch d {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

func position(c kdtree.Comparable) r3.Vec {
	switch p := c.(type) {
	case cloudPoint:
		return p.cloud.Point(p.idx)
	case queryPoint:
		return r3.Vec(p)
	default:
		panic("unknown comparable in point index")
	}
}

// cloudPoint refers to a cloud entry by index
type cloudPoint struct {
	cloud PointCloud
	idx   int
}

func (p cloudPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return coord(p.cloud.Point(p.idx), d) - coord(position(c), d)
}
func (p cloudPoint) Dims() int { return 3 }
func (p cloudPoint) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(p.cloud.Point(p.idx), position(c)))
}

type queryPoint r3.Vec

func (q queryPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return coord(r3.Vec(q), d) - coord(position(c), d)
}
func (q queryPoint) Dims() int { return 3 }
func (q queryPoint) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(r3.Vec(q), position(c)))
}

// cloudSet is the kdtree.Interface over a permutation of the cloud
type cloudSet struct {
	cloud PointCloud
	perm  []int
}

func (s cloudSet) Index(i int) kdtree.Comparable { return cloudPoint{s.cloud, s.perm[i]} }
func (s cloudSet) Len() int                      { return len(s.perm) }
func (s cloudSet) Slice(start, end int) kdtree.Interface {
	return cloudSet{cloud: s.cloud, perm: s.perm[start:end]}
}
func (s cloudSet) Pivot(d kdtree.Dim) int {
	p := plane{cloudSet: s, dim: d}
	return kdtree.Partition(p, kdtree.MedianOfRandoms(p, medianSamples))
}

// plane orders a cloudSet along one dimension
type plane struct {
	cloudSet
	dim kdtree.Dim
}

func (p plane) Less(i, j int) bool {
	return coord(p.cloud.Point(p.perm[i]), p.dim) < coord(p.cloud.Point(p.perm[j]), p.dim)
}
func (p plane) Swap(i, j int) { p.perm[i], p.perm[j] = p.perm[j], p.perm[i] }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{cloudSet: cloudSet{cloud: p.cloud, perm: p.perm[start:end]}, dim: p.dim}
}
