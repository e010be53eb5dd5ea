package types

import "fmt"

type DofKind uint8

const (
	NodeDof DofKind = iota
	ElemDof
)

func (k DofKind) String() string {
	return [...]string{"Node", "Elem"}[k]
}

// DofObject identifies a mesh node or element that carries degrees of
// freedom. ID is the globally stable id, Owner the owning rank.
type DofObject struct {
	Kind  DofKind
	ID    int
	Owner int
}

func NewNodeDof(id, owner int) DofObject { return DofObject{NodeDof, id, owner} }
func NewElemDof(id, owner int) DofObject { return DofObject{ElemDof, id, owner} }

func (d DofObject) String() string {
	return fmt.Sprintf("%s[%d]@%d", d.Kind, d.ID, d.Owner)
}

// DofIndexer maps a DofObject onto a dense, partition independent index:
// nodes occupy [0, NumNodes) and elements follow.
type DofIndexer struct {
	NumNodes, NumElems int
}

func (di DofIndexer) Len() int { return di.NumNodes + di.NumElems }

func (di DofIndexer) Index(d DofObject) int {
	if d.Kind == ElemDof {
		return di.NumNodes + d.ID
	}
	return d.ID
}

// KindAndID inverts Index
func (di DofIndexer) KindAndID(index int) (kind DofKind, id int) {
	if index >= di.NumNodes {
		return ElemDof, index - di.NumNodes
	}
	return NodeDof, index
}
