// Package geo materializes pairwise distances over a hand-authored street
// adjacency table. It serves a read-only lookup endpoint; no pathfinding
// happens here.
package geo

import (
	"math"

	"fieldline/internal/domain"
)

const earthRadiusKm = 6371

// adjacency is the static street graph. Edges are listed one-way here and
// mirrored when the graph is built.
var adjacency = map[string][]string{
	"A1":  {"A2", "A3", "GCC"},
	"A2":  {"B1", "A1", "A4"},
	"A3":  {"A1", "Paborito", "A7", "B10"},
	"A4":  {"A2", "A5", "B6"},
	"A5":  {"A4", "A6", "7/11", "LCC"},
	"A6":  {"A5", "A7"},
	"A7":  {"A3", "A8", "A6", "C4"},
	"A8":  {"A7", "A9", "jolibee", "Grace"},
	"A9":  {"A8", "Prime 1", "Solid Metal", "C9"},
	"A10": {"Prime 1", "B6", "LCC", "D4"},

	"B1":  {"Isang Cusina", "B3", "A2", "B2"},
	"B2":  {"B1", "Paborito", "C2"},
	"B3":  {"B5", "St Paul", "B1"},
	"B4":  {"St Paul", "E2", "B6", "B7"},
	"B5":  {"F10", "B3"},
	"B6":  {"B4", "A4", "A10", "B8"},
	"B7":  {"B9", "B4", "Central"},
	"B8":  {"Central", "B6", "D4", "D7"},
	"B9":  {"G1", "B7"},
	"B10": {"A3", "C4", "C1"},

	"C1":  {"C2", "C3", "B10"},
	"C2":  {"B2", "C1"},
	"C3":  {"C1"},
	"C4":  {"A7", "B10", "C6", "C5"},
	"C5":  {"C4", "Doña", "C7", "C9"},
	"C6":  {"C4", "C7"},
	"C7":  {"C5", "C6", "C8"},
	"C8":  {"C7", "H1"},
	"C9":  {"C5", "C10", "A9"},
	"C10": {"C9", "101", "D3"},

	"D1":  {"101", "Solid Metal", "D2", "D4"},
	"D2":  {"D5", "D1", "D3"},
	"D3":  {"C10", "D2", "G10"},
	"D4":  {"A10", "B8", "Motortrade", "D1"},
	"D5":  {"Motortrade", "D6", "D2"},
	"D6":  {"D5", "D7"},
	"D7":  {"D6", "D8", "B8"},
	"D8":  {"D7", "D9", "G4"},
	"D9":  {"D8", "D10", "G3"},
	"D10": {"D9", "E1"},

	"E1":  {"D10", "E2", "G1", "PSU", "p1"},
	"E2":  {"F9", "E1", "B4"},
	"E3":  {"F5", "F10", "F9"},
	"E4":  {"E5", "F5", "E7"},
	"E5":  {"E4", "E6"},
	"E6":  {"E5", "E7", "E8"},
	"E7":  {"E4", "E6", "E9"},
	"E8":  {"E6", "E9", "E10"},
	"E9":  {"E7", "E8", "F1"},
	"E10": {"E8", "F1", "F2"},

	"F1":  {"E10", "E9", "F3"},
	"F2":  {"E10", "F3"},
	"F3":  {"F2", "F1", "7-Eleven"},
	"F5":  {"E4", "E3"},
	"F9":  {"E2", "E3"},
	"F10": {"E3", "B5"},

	"G1":  {"E1", "B9", "G2"},
	"G2":  {"G1"},
	"G3":  {"D9"},
	"G4":  {"D8", "G5"},
	"G5":  {"G4", "G6"},
	"G6":  {"G5", "G7"},
	"G7":  {"G6", "G8"},
	"G8":  {"G7", "G9"},
	"G9":  {"G8", "G10"},
	"G10": {"D3", "G9"},

	"H1": {"C8"},
	"p1": {"E1", "PSU"},

	"GCC":          {"A1", "Paborito"},
	"LCC":          {"A5", "A10"},
	"Paborito":     {"B2", "A3", "GCC"},
	"Grace":        {"A8", "Doña"},
	"Doña":         {"Grace", "C5"},
	"Prime 1":      {"A9", "A10"},
	"Isang Cusina": {"B1"},
	"jolibee":      {"A8", "7/11"},
	"7/11":         {"jolibee", "A5"},
	"St Paul":      {"B3", "B4"},
	"Central":      {"B8", "B7"},
	"Solid Metal":  {"D1", "A9"},
	"101":          {"D1", "C10"},
	"Motortrade":   {"D5", "D4"},
	"PSU":          {"p1", "E1", "7-Eleven"},
	"7-Eleven":     {"PSU", "F3"},
}

// Distance returns the great-circle distance in kilometers.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// Graph builds the bidirectional weighted edge map for the given node
// coordinates. Edges whose endpoints lack coordinates are skipped.
func Graph(nodes []domain.CoordinateNode) map[string]map[string]float64 {
	coords := make(map[string]domain.CoordinateNode, len(nodes))
	for _, n := range nodes {
		coords[n.NodeID] = n
	}
	graph := map[string]map[string]float64{}
	connect := func(from, to string) {
		a, okA := coords[from]
		b, okB := coords[to]
		if !okA || !okB {
			return
		}
		if graph[from] == nil {
			graph[from] = map[string]float64{}
		}
		graph[from][to] = Distance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
	}
	for node, neighbors := range adjacency {
		for _, neighbor := range neighbors {
			connect(node, neighbor)
			connect(neighbor, node)
		}
	}
	return graph
}
