// Package distance computes and caches building-to-building distances.
package distance

import (
	"github.com/golang/geo/s2"

	"github.com/Freeeeeet/room_booking/internal/model"
)

const earthRadius = 6_371_000.0 // metres

// Haversine returns the great-circle distance in metres between two points
// given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * earthRadius
}

// Rows builds the distance rows for b against every other building of its
// city: both directions per pair plus b's own zero row.
func Rows(b model.Building, others []model.Building) model.DistanceTable {
	table := model.DistanceTable{{From: b.ID, To: b.ID}: 0}
	for _, o := range others {
		if o.ID == b.ID || o.CityID != b.CityID {
			continue
		}
		d := Haversine(b.Lat, b.Lon, o.Lat, o.Lon)
		table[model.BuildingPair{From: b.ID, To: o.ID}] = d
		table[model.BuildingPair{From: o.ID, To: b.ID}] = d
	}
	return table
}
