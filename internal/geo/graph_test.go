package geo

import (
	"math"
	"testing"

	"fieldline/internal/domain"
)

func TestDistanceKnownPair(t *testing.T) {
	// Manila to Baguio is roughly 210 km great-circle.
	d := Distance(14.5995, 120.9842, 16.4023, 120.5960)
	if d < 195 || d > 225 {
		t.Fatalf("distance = %.1f km, want ~210", d)
	}
}

func TestDistanceZeroForSamePoint(t *testing.T) {
	if d := Distance(15.93, 120.35, 15.93, 120.35); d != 0 {
		t.Fatalf("distance = %v, want 0", d)
	}
}

func TestGraphEdgesAreSymmetric(t *testing.T) {
	nodes := []domain.CoordinateNode{
		{NodeID: "A1", Latitude: 15.9280, Longitude: 120.3480},
		{NodeID: "A2", Latitude: 15.9290, Longitude: 120.3490},
		{NodeID: "A3", Latitude: 15.9300, Longitude: 120.3500},
	}
	g := Graph(nodes)
	for from, edges := range g {
		for to, w := range edges {
			back, ok := g[to][from]
			if !ok {
				t.Fatalf("edge %s->%s has no reverse", from, to)
			}
			if math.Abs(back-w) > 1e-9 {
				t.Fatalf("edge %s<->%s asymmetric: %v vs %v", from, to, w, back)
			}
			if w < 0 {
				t.Fatalf("edge %s->%s negative weight %v", from, to, w)
			}
		}
	}
}

func TestGraphSkipsNodesWithoutCoordinates(t *testing.T) {
	// A2 is adjacent to A1 and A3 in the street map; with only A1 known
	// there is nothing to connect.
	g := Graph([]domain.CoordinateNode{{NodeID: "A1", Latitude: 15.9280, Longitude: 120.3480}})
	if len(g) != 0 {
		t.Fatalf("graph with one known node = %v, want empty", g)
	}
}
