package pairing

import (
	"log"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/mesh"
	"github.com/notargets/gocontact/types"
	"github.com/notargets/gocontact/utils"
)

// BoundaryPair is an unordered candidate contact pair, stored with First < Second
type BoundaryPair struct {
	First, Second int
}

func newBoundaryPair(a, b int) BoundaryPair {
	if a > b {
		a, b = b, a
	}
	return BoundaryPair{a, b}
}

// DetectContactPairs proposes boundary pairs that lie within distance of one
// another. Mirrored pairs are collapsed and the result is sorted. A leafSize
// of zero uses DefaultLeafSize.
func DetectContactPairs(m *mesh.Mesh, bids []int, method types.PairingMethod,
	distance float64, leafSize int) (pairs []BoundaryPair, err error) {
	if err = m.RequireReplicated("automatic contact pairing"); err != nil {
		return
	}
	if distance <= 0 || math.IsNaN(distance) {
		err = utils.NewConfigError("automatic_pairing_distance",
			"must be positive, got %g", distance)
		return
	}
	if len(bids) < 2 {
		err = utils.NewConfigError("automatic_pairing_boundaries",
			"need at least two boundaries, got %d", len(bids))
		return
	}
	found := make(map[BoundaryPair]bool)
	switch method {
	case types.NodeProximity:
		cloud := NewBoundaryNodeCloud(m, bids)
		ix := NewIndex(cloud, leafSize)
		for _, rec := range cloud.Records {
			for _, match := range ix.RadiusSearch(m.Vertices[rec.Node], distance) {
				other := cloud.Records[match.Index]
				// a node shared by two boundaries is an edge, not a contact
				if other.Boundary == rec.Boundary || other.Node == rec.Node {
					continue
				}
				found[newBoundaryPair(rec.Boundary, other.Boundary)] = true
			}
		}
	case types.CentroidProximity:
		var centroids []r3.Vec
		if centroids, err = BoundaryCentroids(m, bids); err != nil {
			return
		}
		ix := NewIndex(Points(centroids), leafSize)
		for i := range bids {
			for _, match := range ix.RadiusSearch(centroids[i], distance) {
				if j := match.Index; bids[j] != bids[i] {
					found[newBoundaryPair(bids[i], bids[j])] = true
				}
			}
		}
	default:
		err = utils.NewConfigError("automatic_pairing_method", "unknown method %d", method)
		return
	}
	for bp := range found {
		pairs = append(pairs, bp)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].First != pairs[j].First {
			return pairs[i].First < pairs[j].First
		}
		return pairs[i].Second < pairs[j].Second
	})
	log.Printf("automatic pairing (%s): %d candidate pairs\n", method, len(pairs))
	return
}

// BoundaryCentroids returns the area weighted centroid of each boundary
func BoundaryCentroids(m *mesh.Mesh, bids []int) (c []r3.Vec, err error) {
	c = make([]r3.Vec, len(bids))
	for i, bid := range bids {
		if c[i], _, err = m.BoundaryCentroid(bid); err != nil {
			return
		}
	}
	return
}
