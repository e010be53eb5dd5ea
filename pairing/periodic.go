package pairing

import (
	"fmt"
	"log"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/mesh"
	"github.com/notargets/gocontact/utils"
)

// BoundaryNode is a node tagged with one boundary it lies on. A node on
// several boundaries yields several records.
type BoundaryNode struct {
	Node, Boundary int
}

// BoundaryNodeCloud indexes boundary node records by the mesh coordinates
type BoundaryNodeCloud struct {
	Mesh    *mesh.Mesh
	Records []BoundaryNode
}

func NewBoundaryNodeCloud(m *mesh.Mesh, bids []int) (bc *BoundaryNodeCloud) {
	bc = &BoundaryNodeCloud{Mesh: m}
	for _, bid := range bids {
		for _, n := range m.BoundaryNodes(bid) {
			bc.Records = append(bc.Records, BoundaryNode{Node: n, Boundary: bid})
		}
	}
	return
}

func (bc *BoundaryNodeCloud) Len() int           { return len(bc.Records) }
func (bc *BoundaryNodeCloud) Point(i int) r3.Vec { return bc.Mesh.Vertices[bc.Records[i].Node] }

// PeriodicBoundary maps the Primary boundary onto Paired through Transform
type PeriodicBoundary struct {
	Primary, Paired int
	Transform       func(p r3.Vec) r3.Vec
}

// NewTranslation is the common periodic transform p -> p + t
func NewTranslation(primary, paired int, t r3.Vec) PeriodicBoundary {
	return PeriodicBoundary{
		Primary:   primary,
		Paired:    paired,
		Transform: func(p r3.Vec) r3.Vec { return r3.Add(p, t) },
	}
}

// Inverse returns the paired to primary mapping of a translation
func (pb PeriodicBoundary) Inverse() PeriodicBoundary {
	fwd := pb.Transform
	// only exact for translations, shift = T(0)
	shift := fwd(r3.Vec{})
	return PeriodicBoundary{
		Primary:   pb.Paired,
		Paired:    pb.Primary,
		Transform: func(p r3.Vec) r3.Vec { return r3.Sub(p, shift) },
	}
}

// NodePair is a periodic correspondence from a primary node to its partner
type NodePair struct {
	Node, Partner int
}

// PeriodicNodeMap holds every node correspondence, sorted by node then partner
type PeriodicNodeMap []NodePair

// Partners returns the recorded partners of node
func (pm PeriodicNodeMap) Partners(node int) (partners []int) {
	i := sort.Search(len(pm), func(i int) bool { return pm[i].Node >= node })
	for ; i < len(pm) && pm[i].Node == node; i++ {
		partners = append(partners, pm[i].Partner)
	}
	return
}

// BuildPeriodicNodeMap finds, for every node on each periodic primary
// boundary, the nodes of the paired boundary sitting at the transformed
// location within tol. The search needs every boundary node, so the mesh
// must be replicated.
func BuildPeriodicNodeMap(m *mesh.Mesh, pbs []PeriodicBoundary, tol float64) (pm PeriodicNodeMap, err error) {
	if err = m.RequireReplicated("periodic node map"); err != nil {
		return
	}
	if tol <= 0 {
		tol = utils.NODETOL
	}
	var bids []int
	seen := make(map[int]bool)
	for _, pb := range pbs {
		if pb.Transform == nil {
			err = utils.NewConfigError("periodic", "boundary %d has no transform", pb.Primary)
			return
		}
		for _, b := range []int{pb.Primary, pb.Paired} {
			if len(m.BoundaryNodes(b)) == 0 {
				err = utils.NewConfigError("periodic", "boundary %d has no nodes", b)
				return
			}
			if !seen[b] {
				seen[b] = true
				bids = append(bids, b)
			}
		}
	}
	cloud := NewBoundaryNodeCloud(m, bids)
	ix := NewIndex(cloud, DefaultLeafSize)
	have := make(map[NodePair]bool)
	for _, pb := range pbs {
		for _, n := range m.BoundaryNodes(pb.Primary) {
			target := pb.Transform(m.Vertices[n])
			for _, match := range ix.RadiusSearch(target, tol) {
				rec := cloud.Records[match.Index]
				if rec.Boundary != pb.Paired {
					continue
				}
				np := NodePair{Node: n, Partner: rec.Node}
				if !have[np] {
					have[np] = true
					pm = append(pm, np)
				}
			}
		}
	}
	sort.Slice(pm, func(i, j int) bool {
		if pm[i].Node != pm[j].Node {
			return pm[i].Node < pm[j].Node
		}
		return pm[i].Partner < pm[j].Partner
	})
	log.Printf("periodic node map: %d correspondences over %d boundaries\n", len(pm), len(bids))
	return
}

func (np NodePair) String() string { return fmt.Sprintf("%d->%d", np.Node, np.Partner) }
