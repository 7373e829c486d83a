// Package grouping splits a flat attendee list into room-sized groups that
// keep people from the same building together.
package grouping

import (
	"sort"

	"github.com/Freeeeeet/room_booking/internal/model"
)

// Cluster is every attendee sharing one home building.
type Cluster struct {
	BuildingID int64
	Floor      int      // most common floor among members
	Members    []string // emails, ordered by floor
	// Closest lists the other clusters' buildings, nearest first.
	Closest []int64
}

func (c *Cluster) Size() int {
	return len(c.Members)
}

// BuildClusters groups attendees by building. Clusters come back largest
// first; among equal sizes the first attendee's building leads, then
// buildings keep the order in which they were first seen.
func BuildClusters(attendees []model.User, distances model.DistanceTable) []Cluster {
	if len(attendees) == 0 {
		return nil
	}
	anchor := attendees[0].BuildingID

	var order []int64
	byBuilding := make(map[int64][]model.User)
	for _, a := range attendees {
		if _, ok := byBuilding[a.BuildingID]; !ok {
			order = append(order, a.BuildingID)
		}
		byBuilding[a.BuildingID] = append(byBuilding[a.BuildingID], a)
	}

	clusters := make([]Cluster, 0, len(order))
	for _, buildingID := range order {
		users := byBuilding[buildingID]
		sorted := append([]model.User(nil), users...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Floor < sorted[j].Floor })

		members := make([]string, len(sorted))
		for i, u := range sorted {
			members[i] = u.Email
		}
		clusters = append(clusters, Cluster{
			BuildingID: buildingID,
			Floor:      dominantFloor(users),
			Members:    members,
		})
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		if clusters[i].Size() != clusters[j].Size() {
			return clusters[i].Size() > clusters[j].Size()
		}
		return clusters[i].BuildingID == anchor && clusters[j].BuildingID != anchor
	})

	for i := range clusters {
		from := clusters[i].BuildingID
		closest := make([]int64, 0, len(clusters)-1)
		for _, other := range clusters {
			if other.BuildingID != from {
				closest = append(closest, other.BuildingID)
			}
		}
		sort.SliceStable(closest, func(a, b int) bool {
			da, db := distances.Between(from, closest[a]), distances.Between(from, closest[b])
			if da != db {
				return da < db
			}
			return closest[a] == anchor && closest[b] != anchor
		})
		clusters[i].Closest = closest
	}
	return clusters
}

// dominantFloor returns the most frequent floor, the earliest seen on ties.
func dominantFloor(users []model.User) int {
	counts := make(map[int]int)
	var floors []int
	for _, u := range users {
		if counts[u.Floor] == 0 {
			floors = append(floors, u.Floor)
		}
		counts[u.Floor]++
	}
	best := floors[0]
	for _, f := range floors[1:] {
		if counts[f] > counts[best] {
			best = f
		}
	}
	return best
}
