package model

// UnknownDistance is used for building pairs with no recorded distance.
const UnknownDistance = 1_000_000.0

type BuildingPair struct {
	From int64
	To   int64
}

// DistanceTable holds directed building-to-building distances in metres.
type DistanceTable map[BuildingPair]float64

// Between returns the distance from a to b. A building is at distance 0 from
// itself; missing pairs fall back to UnknownDistance.
func (t DistanceTable) Between(a, b int64) float64 {
	if a == b {
		return 0
	}
	if d, ok := t[BuildingPair{From: a, To: b}]; ok {
		return d
	}
	return UnknownDistance
}

// Merge copies every entry of other into t.
func (t DistanceTable) Merge(other DistanceTable) {
	for k, v := range other {
		t[k] = v
	}
}
