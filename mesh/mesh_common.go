// Package mesh is the in-process mesh collaborator for the contact layer:
// element connectivity, side sets and node sets, ownership after
// partitioning, and the per-rank view used to resolve communicated ids.
package mesh

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/types"
)

// ElementType represents different element types
type ElementType int

const (
	Line ElementType = iota
	Triangle
	Quad
	Tet
	Hex
)

func (e ElementType) String() string {
	return [...]string{"Line", "Triangle", "Quad", "Tet", "Hex"}[e]
}

// Face represents a side shared by one or two elements
type Face struct {
	Vertices []int // Sorted vertex indices
	Element  int   // First parent element
	LocalID  int   // Local side ID within the first parent
}

// Side is an element side, the unit of a side set
type Side struct {
	Elem, LocalSide int
}

// Mesh represents an unstructured mesh with connectivity and boundary info
type Mesh struct {
	Dim int

	// Geometry
	Vertices []r3.Vec

	// Element data
	Elements     [][]int       // Element to vertex connectivity [nelems][nverts_per_elem]
	ElementTypes []ElementType // Element type for each element

	// Connectivity (built during initialization)
	EToE [][]int // Element to element connectivity [nelems][nsides_per_elem]
	EToF [][]int // Element to face connectivity [nelems][nsides_per_elem]

	// Face data
	Faces   []Face         // All unique faces in mesh
	FaceMap map[string]int // Map from sorted vertex string to face ID

	// Boundary info
	SideSets      map[int][]Side // Boundary id -> sides
	NodeSets      map[int][]int  // Boundary id -> sorted unique nodes
	BoundaryNames map[int]string

	// Ownership (set after partitioning)
	EToP          []int // Element to owning rank
	NToP          []int // Node to owning rank
	NumPartitions int
	distributed   bool

	// Mesh statistics
	NumElements int
	NumVertices int
	NumFaces    int
}

// NewMesh creates an empty replicated mesh of the given dimension
func NewMesh(dim int) *Mesh {
	return &Mesh{
		Dim:           dim,
		FaceMap:       make(map[string]int),
		SideSets:      make(map[int][]Side),
		NodeSets:      make(map[int][]int),
		BoundaryNames: make(map[int]string),
		NumPartitions: 1,
	}
}

func (m *Mesh) AddVertex(p r3.Vec) (id int) {
	id = len(m.Vertices)
	m.Vertices = append(m.Vertices, p)
	m.NumVertices = len(m.Vertices)
	return
}

func (m *Mesh) AddElement(et ElementType, verts []int) (id int) {
	id = len(m.Elements)
	m.Elements = append(m.Elements, verts)
	m.ElementTypes = append(m.ElementTypes, et)
	m.NumElements = len(m.Elements)
	return
}

// AddSide records a side in a side set and its nodes in the matching node set
func (m *Mesh) AddSide(boundaryID int, s Side) {
	m.SideSets[boundaryID] = append(m.SideSets[boundaryID], s)
	m.NodeSets[boundaryID] = mergeSorted(m.NodeSets[boundaryID], m.SideNodes(s))
}

// BuildConnectivity builds element-to-element and face connectivity
func (m *Mesh) BuildConnectivity() {
	m.EToE = make([][]int, m.NumElements)
	m.EToF = make([][]int, m.NumElements)
	m.Faces = m.Faces[:0]
	m.FaceMap = make(map[string]int)

	for elemID := 0; elemID < m.NumElements; elemID++ {
		faceVertices := GetElementFaces(m.ElementTypes[elemID], m.Elements[elemID])

		m.EToE[elemID] = make([]int, len(faceVertices))
		m.EToF[elemID] = make([]int, len(faceVertices))

		// Initialize to -1 (boundary)
		for i := range m.EToE[elemID] {
			m.EToE[elemID][i] = -1
			m.EToF[elemID][i] = -1
		}

		for localFaceID, faceVerts := range faceVertices {
			sorted := make([]int, len(faceVerts))
			copy(sorted, faceVerts)
			sort.Ints(sorted)
			key := fmt.Sprintf("%v", sorted)

			if faceID, exists := m.FaceMap[key]; exists {
				// Interior face
				face := &m.Faces[faceID]
				m.EToE[elemID][localFaceID] = face.Element
				m.EToE[face.Element][face.LocalID] = elemID
				m.EToF[elemID][localFaceID] = faceID
			} else {
				faceID := len(m.Faces)
				m.Faces = append(m.Faces, Face{
					Vertices: sorted,
					Element:  elemID,
					LocalID:  localFaceID,
				})
				m.FaceMap[key] = faceID
				m.EToF[elemID][localFaceID] = faceID
			}
		}
	}
	m.NumFaces = len(m.Faces)
}

// ExteriorSides returns every side without a neighbor
func (m *Mesh) ExteriorSides() (sides []Side) {
	for k, nbrs := range m.EToE {
		for s, nbr := range nbrs {
			if nbr == -1 {
				sides = append(sides, Side{k, s})
			}
		}
	}
	return
}

// GetElementFaces returns the side vertices for each element type, ordered
// so that the side normal computed from them points out of the element.
func GetElementFaces(elemType ElementType, v []int) [][]int {
	switch elemType {
	case Line:
		return [][]int{{v[0]}, {v[1]}}
	case Triangle:
		return [][]int{{v[0], v[1]}, {v[1], v[2]}, {v[2], v[0]}}
	case Quad:
		return [][]int{{v[0], v[1]}, {v[1], v[2]}, {v[2], v[3]}, {v[3], v[0]}}
	case Tet:
		return [][]int{
			{v[0], v[2], v[1]},
			{v[0], v[1], v[3]},
			{v[1], v[2], v[3]},
			{v[0], v[3], v[2]},
		}
	case Hex:
		return [][]int{
			{v[0], v[3], v[2], v[1]}, // back
			{v[0], v[1], v[5], v[4]}, // bottom
			{v[1], v[2], v[6], v[5]}, // right
			{v[2], v[3], v[7], v[6]}, // top
			{v[3], v[0], v[4], v[7]}, // left
			{v[4], v[5], v[6], v[7]}, // front
		}
	default:
		return [][]int{}
	}
}

func (m *Mesh) SideNodes(s Side) []int {
	return GetElementFaces(m.ElementTypes[s.Elem], m.Elements[s.Elem])[s.LocalSide]
}

func (m *Mesh) ElementCentroid(k int) (c r3.Vec) {
	for _, v := range m.Elements[k] {
		c = r3.Add(c, m.Vertices[v])
	}
	return r3.Scale(1./float64(len(m.Elements[k])), c)
}

// SideGeometry returns the centroid, measure (length or area) and outward
// unit normal of a side.
func (m *Mesh) SideGeometry(s Side) (centroid r3.Vec, measure float64, normal r3.Vec) {
	nodes := m.SideNodes(s)
	pts := make([]r3.Vec, len(nodes))
	for i, n := range nodes {
		pts[i] = m.Vertices[n]
		centroid = r3.Add(centroid, pts[i])
	}
	centroid = r3.Scale(1./float64(len(pts)), centroid)
	switch len(pts) {
	case 1:
		measure = 1
		normal = r3.Unit(r3.Sub(pts[0], m.ElementCentroid(s.Elem)))
	case 2:
		d := r3.Sub(pts[1], pts[0])
		measure = r3.Norm(d)
		// sides of 2D elements are counter-clockwise, the outward normal is to the right
		normal = r3.Unit(r3.Vec{X: d.Y, Y: -d.X})
	default:
		// Newell's method, exact for planar polygons
		var area r3.Vec
		for i := range pts {
			area = r3.Add(area, r3.Cross(pts[i], pts[(i+1)%len(pts)]))
		}
		measure = 0.5 * r3.Norm(area)
		normal = r3.Unit(area)
	}
	return
}

// Indexer maps DofObjects onto dense indices for this mesh
func (m *Mesh) Indexer() types.DofIndexer {
	return types.DofIndexer{NumNodes: m.NumVertices, NumElems: m.NumElements}
}

func (m *Mesh) NodeDof(id int) types.DofObject {
	return types.NewNodeDof(id, m.nodeOwner(id))
}

func (m *Mesh) ElemDof(id int) types.DofObject {
	return types.NewElemDof(id, m.elemOwner(id))
}

func (m *Mesh) nodeOwner(id int) int {
	if len(m.NToP) == 0 {
		return 0
	}
	return m.NToP[id]
}

func (m *Mesh) elemOwner(id int) int {
	if len(m.EToP) == 0 {
		return 0
	}
	return m.EToP[id]
}

// PrintStatistics prints mesh statistics
func (m *Mesh) PrintStatistics() {
	fmt.Printf("Mesh Statistics:\n")
	fmt.Printf("  Dimension: %d\n", m.Dim)
	fmt.Printf("  Vertices: %d\n", m.NumVertices)
	fmt.Printf("  Elements: %d\n", m.NumElements)
	fmt.Printf("  Faces: %d\n", m.NumFaces)
	fmt.Printf("  Partitions: %d\n", m.NumPartitions)
	for _, bid := range m.BoundaryIDs() {
		fmt.Printf("  Boundary %d (%s): %d sides, %d nodes\n", bid,
			m.BoundaryNames[bid], len(m.SideSets[bid]), len(m.NodeSets[bid]))
	}
}

func mergeSorted(a, b []int) []int {
	seen := make(map[int]bool, len(a)+len(b))
	out := make([]int, 0, len(a)+len(b))
	for _, list := range [][]int{a, b} {
		for _, v := range list {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	sort.Ints(out)
	return out
}
