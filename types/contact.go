package types

import "strings"

type ContactModel uint8

const (
	Frictionless ContactModel = iota
	Coulomb
	Glued
	Cohesive
)

var ContactModelNameMap = map[string]ContactModel{
	"frictionless": Frictionless,
	"coulomb":      Coulomb,
	"friction":     Coulomb,
	"glued":        Glued,
	"cohesive":     Cohesive,
	"czm":          Cohesive,
}

func (cm ContactModel) String() string {
	return [...]string{"Frictionless", "Coulomb", "Glued", "Cohesive"}[cm]
}

// Formulation selects how the contact constraint is enforced
type Formulation uint8

const (
	LagrangeMultiplier Formulation = iota
	Penalty
	AugmentedLagrange
)

var FormulationNameMap = map[string]Formulation{
	"mortar":             LagrangeMultiplier,
	"lm":                 LagrangeMultiplier,
	"lagrange":           LagrangeMultiplier,
	"penalty":            Penalty,
	"augmented_lagrange": AugmentedLagrange,
	"al":                 AugmentedLagrange,
}

func (f Formulation) String() string {
	return [...]string{"LagrangeMultiplier", "Penalty", "AugmentedLagrange"}[f]
}

// NCPType is the nonlinear complementarity function used for the normal and
// frictional constraints
type NCPType uint8

const (
	NCPMin NCPType = iota
	NCPFischerBurmeister
)

var NCPNameMap = map[string]NCPType{
	"min":                NCPMin,
	"fb":                 NCPFischerBurmeister,
	"fischer_burmeister": NCPFischerBurmeister,
}

func (n NCPType) String() string {
	return [...]string{"min", "fischer_burmeister"}[n]
}

type CoordSystem uint8

const (
	Cartesian CoordSystem = iota
	Axisymmetric
	Spherical
)

var CoordSystemNameMap = map[string]CoordSystem{
	"xyz":          Cartesian,
	"cartesian":    Cartesian,
	"rz":           Axisymmetric,
	"axisymmetric": Axisymmetric,
	"rspherical":   Spherical,
	"spherical":    Spherical,
}

func (cs CoordSystem) String() string {
	return [...]string{"XYZ", "RZ", "RSPHERICAL"}[cs]
}

// PairingMethod selects how automatic contact pairs are detected
type PairingMethod uint8

const (
	NodeProximity PairingMethod = iota
	CentroidProximity
)

var PairingMethodNameMap = map[string]PairingMethod{
	"node":     NodeProximity,
	"centroid": CentroidProximity,
}

func (pm PairingMethod) String() string {
	return [...]string{"NODE", "CENTROID"}[pm]
}

// LookupName resolves a user token against one of the name maps above,
// ignoring case. ok is false for unknown tokens.
func LookupName[T any](nameMap map[string]T, token string) (val T, ok bool) {
	val, ok = nameMap[strings.ToLower(strings.TrimSpace(token))]
	return
}
