package mesh

import (
	"fmt"
	"log"
	"sort"

	"github.com/notargets/gocontact/types"
	"github.com/notargets/gocontact/utils"
)

// Partition assigns elements to np ranks by splitting the elements, ordered
// by centroid coordinates, into contiguous buckets. A node is owned by the
// lowest rank among the elements touching it.
func (m *Mesh) Partition(np int) error {
	if np < 1 {
		return utils.NewConfigError("num_ranks", "must be at least 1, have %d", np)
	}
	if np > m.NumElements {
		return utils.NewConfigError("num_ranks",
			"%d ranks exceed the %d elements of the mesh", np, m.NumElements)
	}
	order := make([]int, m.NumElements)
	centroids := make([][3]float64, m.NumElements)
	for k := range order {
		order[k] = k
		c := m.ElementCentroid(k)
		centroids[k] = [3]float64{c.X, c.Y, c.Z}
	}
	sort.SliceStable(order, func(i, j int) bool {
		ci, cj := centroids[order[i]], centroids[order[j]]
		for d := 0; d < 3; d++ {
			if ci[d] != cj[d] {
				return ci[d] < cj[d]
			}
		}
		return order[i] < order[j]
	})
	pm := utils.NewPartitionMap(np, m.NumElements)
	m.EToP = make([]int, m.NumElements)
	for pos, k := range order {
		bn, _, _ := pm.GetBucket(pos)
		m.EToP[k] = bn
	}
	m.NToP = make([]int, m.NumVertices)
	for n := range m.NToP {
		m.NToP[n] = np
	}
	for k, verts := range m.Elements {
		for _, v := range verts {
			if m.EToP[k] < m.NToP[v] {
				m.NToP[v] = m.EToP[k]
			}
		}
	}
	for n, p := range m.NToP {
		if p == np { // orphan vertex, not referenced by any element
			m.NToP[n] = 0
		}
	}
	m.NumPartitions = np
	log.Printf("Partitioned mesh with %d elements into %d parts", m.NumElements, np)
	return nil
}

// Distribute marks the mesh as distributed: each rank is assumed to hold
// only its local view. Algorithms that need every boundary entity refuse to
// run afterwards.
func (m *Mesh) Distribute() { m.distributed = true }

func (m *Mesh) IsReplicated() bool { return !m.distributed }

// LocalView is what one rank knows of the mesh: the elements it owns plus
// one layer of ghost elements sharing a node with them, and their nodes.
type LocalView struct {
	Rank  int
	mesh  *Mesh
	elems map[int]bool
	nodes map[int]bool
}

func (m *Mesh) LocalView(rank int) (lv *LocalView) {
	lv = &LocalView{
		Rank:  rank,
		mesh:  m,
		elems: make(map[int]bool),
		nodes: make(map[int]bool),
	}
	ownedNodes := make(map[int]bool)
	for k := range m.Elements {
		if m.elemOwner(k) == rank {
			for _, v := range m.Elements[k] {
				ownedNodes[v] = true
			}
		}
	}
	for k, verts := range m.Elements {
		if m.elemOwner(k) == rank {
			lv.elems[k] = true
			continue
		}
		for _, v := range verts {
			if ownedNodes[v] {
				lv.elems[k] = true
				break
			}
		}
	}
	for k := range lv.elems {
		for _, v := range m.Elements[k] {
			lv.nodes[v] = true
		}
	}
	return
}

func (lv *LocalView) HasElem(id int) bool { return lv.elems[id] }
func (lv *LocalView) HasNode(id int) bool { return lv.nodes[id] }

// Resolve turns a communicated (kind, id) back into a local DofObject.
func (lv *LocalView) Resolve(kind types.DofKind, id int) (d types.DofObject, err error) {
	switch kind {
	case types.NodeDof:
		if !lv.nodes[id] {
			err = utils.NewTopologyError("rank %d cannot resolve node %d", lv.Rank, id)
			return
		}
		d = lv.mesh.NodeDof(id)
	case types.ElemDof:
		if !lv.elems[id] {
			err = utils.NewTopologyError("rank %d cannot resolve element %d", lv.Rank, id)
			return
		}
		d = lv.mesh.ElemDof(id)
	default:
		err = fmt.Errorf("unknown dof kind %d", kind)
	}
	return
}

// OwnedElements returns the sorted elements owned by the view's rank
func (lv *LocalView) OwnedElements() (elems []int) {
	for k := range lv.elems {
		if lv.mesh.elemOwner(k) == lv.Rank {
			elems = append(elems, k)
		}
	}
	sort.Ints(elems)
	return
}
