package grouping

import (
	"fmt"
	"sort"

	"github.com/Freeeeeet/room_booking/internal/apperror"
	"github.com/Freeeeeet/room_booking/internal/model"
)

// Group is one room's worth of attendees with the building it is anchored to.
type Group struct {
	BuildingID int64
	Floor      int
	Members    []string
}

// Split partitions attendees into exactly k groups. With more rooms than
// buildings the larger clusters are split ("grouping up"); otherwise the
// smallest clusters are merged into their nearest neighbours ("grouping
// down"). The result depends only on the input order and distances.
func Split(attendees []model.User, k int, distances model.DistanceTable) ([]Group, error) {
	if k < 1 {
		return nil, apperror.BadRequest("room count must be at least 1")
	}
	if k > len(attendees) {
		return nil, apperror.BadRequest("Number of rooms cannot be greater than the number of attendees")
	}

	clusters := BuildClusters(attendees, distances)

	var groups []Group
	switch {
	case k == 1:
		members := make([]string, len(attendees))
		for i, a := range attendees {
			members[i] = a.Email
		}
		groups = []Group{{BuildingID: clusters[0].BuildingID, Floor: clusters[0].Floor, Members: members}}
	case k > len(clusters):
		groups = groupUp(clusters, k, len(attendees))
	default:
		groups = groupDown(clusters, k)
	}

	total := 0
	for _, g := range groups {
		total += len(g.Members)
	}
	if total != len(attendees) || len(groups) != k {
		return nil, apperror.Internal(fmt.Errorf("grouping produced %d groups with %d attendees, want %d and %d",
			len(groups), total, k, len(attendees)))
	}
	return groups, nil
}

// Allocate decides how many rooms each cluster gets when there are more rooms
// than clusters. A cluster's share is size*k/total rooms: shares below one
// still get a room, the rest are floored, and leftover rooms go to the largest
// fractional remainders, earliest cluster first.
func Allocate(sizes []int, k int) []int {
	total := 0
	for _, s := range sizes {
		total += s
	}

	alloc := make([]int, len(sizes))
	// remainders share the denominator total, so numerators compare directly
	remainder := make([]int, len(sizes))
	sum := 0
	for i, size := range sizes {
		share := size * k
		if share < total {
			alloc[i] = 1
		} else {
			alloc[i] = share / total
			remainder[i] = share % total
		}
		sum += alloc[i]
	}

	// rooms handed to sub-share clusters can overshoot k
	for sum > k {
		j := -1
		for i, a := range alloc {
			if a > 1 && (j == -1 || a > alloc[j]) {
				j = i
			}
		}
		if j == -1 {
			break
		}
		alloc[j]--
		sum--
	}

	for sum < k {
		j := 0
		for i := range remainder {
			if remainder[i] > remainder[j] {
				j = i
			}
		}
		if remainder[j] == 0 {
			j = mostCrowded(sizes, alloc)
		}
		remainder[j] = 0
		alloc[j]++
		sum++
	}
	return alloc
}

// mostCrowded returns the cluster with the most members per room that can
// still take another room.
func mostCrowded(sizes, alloc []int) int {
	best := -1
	for i := range sizes {
		if alloc[i] >= sizes[i] {
			continue
		}
		if best == -1 || sizes[i]*alloc[best] > sizes[best]*alloc[i] {
			best = i
		}
	}
	if best == -1 {
		return 0
	}
	return best
}

func groupUp(clusters []Cluster, k, total int) []Group {
	sizes := make([]int, len(clusters))
	for i, c := range clusters {
		sizes[i] = c.Size()
	}
	alloc := Allocate(sizes, k)

	var groups []Group
	for i, c := range clusters {
		for _, chunk := range chunk(c.Members, alloc[i]) {
			groups = append(groups, Group{BuildingID: c.BuildingID, Floor: c.Floor, Members: chunk})
		}
	}
	return groups
}

// chunk cuts members into n contiguous runs whose sizes differ by at most
// one, the longer runs first.
func chunk(members []string, n int) [][]string {
	if n <= 1 {
		return [][]string{members}
	}
	size := len(members) / n
	extra := len(members) % n
	out := make([][]string, 0, n)
	start := 0
	for i := 0; i < n; i++ {
		end := start + size
		if i < extra {
			end++
		}
		out = append(out, members[start:end])
		start = end
	}
	return out
}

func groupDown(clusters []Cluster, k int) []Group {
	working := make([]Cluster, len(clusters))
	remaining := make(map[int64]bool, len(clusters))
	for i, c := range clusters {
		c.Members = append([]string(nil), c.Members...)
		working[i] = c
		remaining[c.BuildingID] = true
	}

	for len(working) > k {
		smallest := working[len(working)-1]
		working = working[:len(working)-1]
		delete(remaining, smallest.BuildingID)

		target := 0
		for _, buildingID := range smallest.Closest {
			if !remaining[buildingID] {
				continue
			}
			if i := indexOf(working, buildingID); i != -1 {
				target = i
				break
			}
		}
		working[target].Members = append(working[target].Members, smallest.Members...)
		sort.SliceStable(working, func(i, j int) bool { return working[i].Size() > working[j].Size() })
	}

	groups := make([]Group, len(working))
	for i, c := range working {
		groups[i] = Group{BuildingID: c.BuildingID, Floor: c.Floor, Members: c.Members}
	}
	return groups
}

func indexOf(clusters []Cluster, buildingID int64) int {
	for i, c := range clusters {
		if c.BuildingID == buildingID {
			return i
		}
	}
	return -1
}
