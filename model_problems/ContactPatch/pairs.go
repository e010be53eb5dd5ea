package ContactPatch

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/InputParameters"
	"github.com/notargets/gocontact/pairing"
)

const (
	lowerLeft, lowerRight = 3, 1
	upperLeft, upperRight = lowerLeft + upperBoundaryOffset, lowerRight + upperBoundaryOffset
)

type NamedPair struct {
	Name string
	pairing.BoundaryPair
}

// DetectPairs runs automatic pairing over the configured boundaries, all of
// them when none are listed, and names every candidate
func (p *Patch) DetectPairs() (pairs []NamedPair, err error) {
	var (
		ip        = p.ip
		bids      = ip.AutomaticPairingBoundaries
		method, _ = ip.PairingMethod()
		found     []pairing.BoundaryPair
		names     = InputParameters.NameRegistry{}
	)
	if len(bids) == 0 {
		bids = p.Mesh.BoundaryIDs()
	}
	if found, err = pairing.DetectContactPairs(p.Mesh, bids, method, ip.AutomaticPairingDistance,
		ip.LeafSize); err != nil {
		return
	}
	for _, bp := range found {
		pairs = append(pairs, NamedPair{Name: names.Next("contact_pair"), BoundaryPair: bp})
	}
	return
}

// PeriodicNodes pairs the left and right sides of each block across the width
func (p *Patch) PeriodicNodes() (pairing.PeriodicNodeMap, error) {
	shift := r3.Vec{X: p.ip.Width}
	return pairing.BuildPeriodicNodeMap(p.Mesh, []pairing.PeriodicBoundary{
		pairing.NewTranslation(lowerLeft, lowerRight, shift),
		pairing.NewTranslation(upperLeft, upperRight, shift),
	}, 0)
}
