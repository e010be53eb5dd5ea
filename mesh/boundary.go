package mesh

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/utils"
)

func (m *Mesh) BoundaryIDs() (ids []int) {
	for bid := range m.SideSets {
		ids = append(ids, bid)
	}
	for bid := range m.NodeSets {
		if _, ok := m.SideSets[bid]; !ok {
			ids = append(ids, bid)
		}
	}
	sort.Ints(ids)
	return
}

// AssignBoundaries puts every exterior side into the side set classify picks
// from its outward normal. Sides classify rejects stay unassigned.
func (m *Mesh) AssignBoundaries(classify func(normal r3.Vec) (bid int, ok bool)) {
	for _, s := range m.ExteriorSides() {
		_, _, n := m.SideGeometry(s)
		if bid, ok := classify(n); ok {
			m.AddSide(bid, s)
		}
	}
}

// AxisBoundary classifies a side by the first of the unit normals, in
// boundary id order, it is aligned with
func AxisBoundary(normals ...r3.Vec) func(r3.Vec) (int, bool) {
	return func(n r3.Vec) (int, bool) {
		for bid, a := range normals {
			if r3.Dot(a, n) > 1-utils.TOLERANCE {
				return bid, true
			}
		}
		return 0, false
	}
}

// CheckExterior fails when a side of boundary bid has a neighbor across it
func (m *Mesh) CheckExterior(bid int) error {
	for _, s := range m.SideSets[bid] {
		if nbr := m.EToE[s.Elem][s.LocalSide]; nbr >= 0 {
			return utils.NewTopologyError("side %d of element %d in boundary %d is shared with element %d",
				s.LocalSide, s.Elem, bid, nbr)
		}
	}
	return nil
}

func (m *Mesh) BoundaryNodes(bid int) []int { return m.NodeSets[bid] }
func (m *Mesh) BoundarySides(bid int) []Side { return m.SideSets[bid] }

// BoundaryByName returns the id of a named boundary
func (m *Mesh) BoundaryByName(name string) (bid int, ok bool) {
	for id, nm := range m.BoundaryNames {
		if nm == name {
			return id, true
		}
	}
	return -1, false
}

// NodeBoundaries returns, for every node, the sorted boundary ids it lies on
func (m *Mesh) NodeBoundaries() (nb map[int][]int) {
	nb = make(map[int][]int)
	for _, bid := range m.BoundaryIDs() {
		for _, n := range m.NodeSets[bid] {
			nb[n] = append(nb[n], bid)
		}
	}
	return
}

// BoundaryCentroid is the area weighted centroid of a side set. It visits
// every side of the boundary and so needs the full mesh on this process.
func (m *Mesh) BoundaryCentroid(bid int) (centroid r3.Vec, area float64, err error) {
	if err = m.RequireReplicated("boundary centroid"); err != nil {
		return
	}
	sides, ok := m.SideSets[bid]
	if !ok || len(sides) == 0 {
		err = utils.NewConfigError("boundary", "boundary %d has no sides", bid)
		return
	}
	for _, s := range sides {
		c, a, _ := m.SideGeometry(s)
		centroid = r3.Add(centroid, r3.Scale(a, c))
		area += a
	}
	centroid = r3.Scale(1./area, centroid)
	return
}

// RequireReplicated fails when the mesh has been distributed, for algorithms
// that must see every boundary entity.
func (m *Mesh) RequireReplicated(what string) error {
	if m.distributed {
		return utils.NewConfigError("parallel_type",
			"%s requires a replicated mesh, this mesh is distributed", what)
	}
	return nil
}

// Displaced returns a copy of the geometry with vertex i moved by u(i). The
// connectivity, boundary info and ownership are shared with the receiver.
func (m *Mesh) Displaced(u func(node int) r3.Vec) *Mesh {
	dm := *m
	dm.Vertices = make([]r3.Vec, len(m.Vertices))
	for i, v := range m.Vertices {
		dm.Vertices[i] = r3.Add(v, u(i))
	}
	return &dm
}
