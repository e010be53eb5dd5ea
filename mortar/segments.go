package mortar

import (
	"log"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/mesh"
	"github.com/notargets/gocontact/types"
	"github.com/notargets/gocontact/utils"
)

// Segment is a piece of one secondary side that faces a single primary side.
// Xi is the covered range of the secondary side's parametric coordinate.
type Segment struct {
	Secondary      mesh.Side
	SecondaryNodes [2]int
	Primary        mesh.Side // Elem is -1 when nothing faces the segment
	PrimaryNodes   [2]int
	Xi             [2]float64
	Owner          int
}

func (s Segment) HasPrimary() bool { return s.Primary.Elem >= 0 }

// SegmentMesh is the mortar integration mesh of one secondary/primary pair
type SegmentMesh struct {
	Geometry             *mesh.Mesh
	Secondary, Primary   int
	Segments             []Segment
	Frames               map[int]NodalFrame
	SecondaryNodes       []int
	primarySides         []mesh.Side
	sideFrames           map[int]NodalFrame // secondary element -> side frame
	numProjected, numGap int
}

// Generate builds the 2D mortar segments on geometry, which is normally the
// displaced mesh. Primary nodes are projected onto the secondary sides along
// the interpolated secondary normal field and every secondary side is split
// at the projections. Each piece is then matched with the primary side hit by
// the normal ray from its midpoint.
func Generate(geometry *mesh.Mesh, secondary, primary int, requirePrimary bool) (sm *SegmentMesh, err error) {
	if geometry.Dim != 2 {
		err = utils.NewConfigError("mesh", "mortar segment generation supports 2D meshes, got %dD", geometry.Dim)
		return
	}
	if secondary == primary {
		err = utils.NewConfigError("primary_boundary",
			"secondary and primary boundary are both %d", secondary)
		return
	}
	for _, b := range []struct {
		name string
		id   int
	}{{"secondary_boundary", secondary}, {"primary_boundary", primary}} {
		if len(geometry.BoundarySides(b.id)) == 0 {
			err = utils.NewConfigError(b.name, "boundary %d has no sides", b.id)
			return
		}
		if err = geometry.CheckExterior(b.id); err != nil {
			return
		}
	}
	sm = &SegmentMesh{
		Geometry:       geometry,
		Secondary:      secondary,
		Primary:        primary,
		Frames:         NodalFrames(geometry, secondary),
		SecondaryNodes: geometry.BoundaryNodes(secondary),
		primarySides:   geometry.BoundarySides(primary),
		sideFrames:     make(map[int]NodalFrame),
	}
	primaryNodes := geometry.BoundaryNodes(primary)
	for _, side := range geometry.BoundarySides(secondary) {
		sn := geometry.SideNodes(side)
		_, _, sideNormal := geometry.SideGeometry(side)
		sm.sideFrames[side.Elem] = FrameFromNormal(sideNormal, geometry.Dim)
		breaks := []float64{-1, 1}
		for _, p := range primaryNodes {
			if xi, ok := sm.projectOntoSecondary(geometry.Vertices[p], sn); ok {
				breaks = append(breaks, xi)
			}
		}
		sort.Float64s(breaks)
		owner := geometry.ElemDof(side.Elem).Owner
		for i := 0; i < len(breaks)-1; i++ {
			a, b := breaks[i], breaks[i+1]
			if b-a < utils.TOLERANCE {
				continue
			}
			seg := Segment{
				Secondary:      side,
				SecondaryNodes: [2]int{sn[0], sn[1]},
				Primary:        mesh.Side{Elem: -1},
				PrimaryNodes:   [2]int{-1, -1},
				Xi:             [2]float64{a, b},
				Owner:          owner,
			}
			x, n := sm.secondaryPoint(seg.SecondaryNodes, 0.5*(a+b))
			if ps, pn, _, ok := sm.findPrimary(x, n); ok {
				seg.Primary, seg.PrimaryNodes = ps, pn
			} else {
				sm.numGap++
				if requirePrimary {
					err = utils.NewTopologyError("secondary side %v has no primary projection at xi=%g",
						side, 0.5*(a+b))
					return
				}
			}
			sm.Segments = append(sm.Segments, seg)
		}
	}
	log.Printf("mortar: %d segments between boundaries %d and %d, %d projected primary nodes, %d unpaired\n",
		len(sm.Segments), secondary, primary, sm.numProjected, sm.numGap)
	return
}

// secondaryPoint interpolates position and normal on a secondary side
func (sm *SegmentMesh) secondaryPoint(nodes [2]int, xi float64) (x, n r3.Vec) {
	phi := [2]float64{0.5 * (1 - xi), 0.5 * (1 + xi)}
	for i, node := range nodes {
		x = r3.Add(x, r3.Scale(phi[i], sm.Geometry.Vertices[node]))
		n = r3.Add(n, r3.Scale(phi[i], sm.Frames[node].Normal))
	}
	n = r3.Unit(n)
	return
}

// projectOntoSecondary solves cross(p - x(xi), n(xi)) = 0 by Newton. Only
// projections strictly inside the side are returned, endpoints are already
// break points.
func (sm *SegmentMesh) projectOntoSecondary(p r3.Vec, sn []int) (xi float64, ok bool) {
	nodes := [2]int{sn[0], sn[1]}
	var (
		x0, x1 = sm.Geometry.Vertices[sn[0]], sm.Geometry.Vertices[sn[1]]
		n0, n1 = sm.Frames[sn[0]].Normal, sm.Frames[sn[1]].Normal
		dx     = r3.Scale(0.5, r3.Sub(x1, x0))
		dn     = r3.Scale(0.5, r3.Sub(n1, n0))
	)
	cross := func(a, b r3.Vec) float64 { return a.X*b.Y - a.Y*b.X }
	for iter := 0; iter < 25; iter++ {
		x, _ := sm.secondaryPoint(nodes, xi)
		n := r3.Add(r3.Scale(0.5*(1-xi), n0), r3.Scale(0.5*(1+xi), n1))
		f := cross(r3.Sub(p, x), n)
		df := cross(r3.Scale(-1, dx), n) + cross(r3.Sub(p, x), dn)
		if df == 0 {
			return 0, false
		}
		step := f / df
		xi -= step
		if math.Abs(step) < utils.NODETOL {
			break
		}
	}
	if math.IsNaN(xi) || xi <= -1+utils.TOLERANCE || xi >= 1-utils.TOLERANCE {
		return 0, false
	}
	sm.numProjected++
	return xi, true
}

// findPrimary intersects the ray x + t*n with every primary side and keeps
// the hit closest to x. eta is the primary parametric coordinate in [0,1].
func (sm *SegmentMesh) findPrimary(x, n r3.Vec) (side mesh.Side, nodes [2]int, eta float64, ok bool) {
	best := math.Inf(1)
	for _, ps := range sm.primarySides {
		pn := sm.Geometry.SideNodes(ps)
		p0, p1 := sm.Geometry.Vertices[pn[0]], sm.Geometry.Vertices[pn[1]]
		t, e, hit := intersect(x, n, p0, p1)
		if !hit || e < -utils.TOLERANCE || e > 1+utils.TOLERANCE {
			continue
		}
		if math.Abs(t) < best {
			best = math.Abs(t)
			side, nodes, eta, ok = ps, [2]int{pn[0], pn[1]}, math.Max(0, math.Min(1, e)), true
		}
	}
	return
}

// intersect solves x + t*n = p0 + eta*(p1-p0)
func intersect(x, n, p0, p1 r3.Vec) (t, eta float64, ok bool) {
	d := r3.Sub(p1, p0)
	det := d.X*n.Y - n.X*d.Y
	if math.Abs(det) < utils.NODETOL*r3.Norm(d) {
		return
	}
	r := r3.Sub(p0, x)
	t = (d.X*r.Y - r.X*d.Y) / det
	eta = (n.X*r.Y - n.Y*r.X) / det
	return t, eta, true
}

// DofFrame is the frame a test dof projects onto: the nodal frame for node
// dofs and the side frame for element dofs.
func (sm *SegmentMesh) DofFrame(d types.DofObject) NodalFrame {
	if d.Kind == types.ElemDof {
		return sm.sideFrames[d.ID]
	}
	return sm.Frames[d.ID]
}

// LocalSegments returns the segments integrated by rank
func (sm *SegmentMesh) LocalSegments(rank int) (segs []int) {
	for i, s := range sm.Segments {
		if s.Owner == rank {
			segs = append(segs, i)
		}
	}
	return
}

// SecondaryDofs returns the node dofs of the secondary boundary in id order
func (sm *SegmentMesh) SecondaryDofs() (dofs []types.DofObject) {
	for _, n := range sm.SecondaryNodes {
		dofs = append(dofs, sm.Geometry.NodeDof(n))
	}
	return
}
