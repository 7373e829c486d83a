// Package ranking orders candidate rooms for one attendee group.
package ranking

import (
	"cmp"
	"fmt"
	"sort"
	"strings"

	"github.com/Freeeeeet/room_booking/internal/apperror"
	"github.com/Freeeeeet/room_booking/internal/model"
)

// Anchor is the building and floor distances are measured from.
type Anchor struct {
	BuildingID int64
	Floor      int
}

// Criteria describes what a group needs from a room.
type Criteria struct {
	Anchor    Anchor
	GroupSize int
	Equipment []model.Equipment
	Priority  []model.Priority
}

// ValidatePriority requires priority to name distance, seats and equipments
// exactly once each.
func ValidatePriority(priority []model.Priority) error {
	seen := make(map[model.Priority]bool, len(priority))
	for _, p := range priority {
		switch p {
		case model.PriorityDistance, model.PrioritySeats, model.PriorityEquipments:
		default:
			return apperror.BadRequest(fmt.Sprintf("unknown priority %q", p))
		}
		if seen[p] {
			return apperror.BadRequest(fmt.Sprintf("priority %q listed more than once", p))
		}
		seen[p] = true
	}
	if len(seen) != 3 {
		return apperror.BadRequest("priority must list distance, seats and equipments")
	}
	return nil
}

// ValidateEquipment rejects unknown or repeated equipment tags.
func ValidateEquipment(equipment []model.Equipment) error {
	seen := make(map[model.Equipment]bool, len(equipment))
	for _, e := range equipment {
		if !e.Valid() {
			return apperror.BadRequest(fmt.Sprintf("unknown equipment %q", e))
		}
		if seen[e] {
			return apperror.BadRequest(fmt.Sprintf("equipment %q listed more than once", e))
		}
		seen[e] = true
	}
	return nil
}

// Rank annotates every room and sorts them by c.Priority. Nothing is filtered
// out: rooms that do not fit the group are only marked as not recommended.
func Rank(rooms []model.Room, c Criteria, distances model.DistanceTable) []model.RankedRoom {
	ranked := make([]model.RankedRoom, len(rooms))
	for i := range rooms {
		r := &rooms[i]
		ranked[i] = model.RankedRoom{
			RoomID:       r.ID,
			CityID:       r.CityID,
			BuildingID:   r.BuildingID,
			BuildingCode: r.BuildingCode,
			Floor:        r.Floor,
			RoomCode:     r.Code,
			RoomName:     r.Name,
			Seats:        r.Seats,
			Distance:     distances.Between(c.Anchor.BuildingID, r.BuildingID),
			HasAV:        r.HasEquipment(model.EquipmentAV),
			HasVC:        r.HasEquipment(model.EquipmentVC),
			IsBigEnough:  r.Seats >= c.GroupSize,
		}
		ranked[i].Recommended = Recommended(ranked[i], c.Equipment)
	}

	keys := make([]compareFunc, 0, len(c.Priority)+1)
	for _, p := range c.Priority {
		switch p {
		case model.PriorityDistance:
			keys = append(keys, byDistance(c.Anchor))
		case model.PrioritySeats:
			keys = append(keys, bySeats)
		case model.PriorityEquipments:
			keys = append(keys, byEquipment(c.Equipment))
		}
	}
	keys = append(keys, byRoomID)

	sort.SliceStable(ranked, func(i, j int) bool {
		for _, compare := range keys {
			if d := compare(&ranked[i], &ranked[j]); d != 0 {
				return d < 0
			}
		}
		return false
	})
	return ranked
}

// Recommended reports whether the room seats the whole group and carries every
// requested tag.
func Recommended(r model.RankedRoom, equipment []model.Equipment) bool {
	if !r.IsBigEnough {
		return false
	}
	for _, e := range equipment {
		if !hasTag(r, e) {
			return false
		}
	}
	return true
}

// Describe renders a priority list for logs, e.g. "distance>seats>equipments".
func Describe(priority []model.Priority) string {
	parts := make([]string, len(priority))
	for i, p := range priority {
		parts[i] = string(p)
	}
	return strings.Join(parts, ">")
}

type compareFunc func(a, b *model.RankedRoom) int

func byDistance(anchor Anchor) compareFunc {
	return func(a, b *model.RankedRoom) int {
		if d := cmp.Compare(a.Distance, b.Distance); d != 0 {
			return d
		}
		// rooms in the anchor building come first, closest floor first
		aHome, bHome := a.BuildingID == anchor.BuildingID, b.BuildingID == anchor.BuildingID
		switch {
		case aHome && bHome:
			if d := cmp.Compare(abs(a.Floor-anchor.Floor), abs(b.Floor-anchor.Floor)); d != 0 {
				return d
			}
		case aHome:
			return -1
		case bHome:
			return 1
		}
		return cmp.Compare(a.Floor, b.Floor)
	}
}

func bySeats(a, b *model.RankedRoom) int {
	return cmp.Compare(a.Seats, b.Seats)
}

func byEquipment(equipment []model.Equipment) compareFunc {
	return func(a, b *model.RankedRoom) int {
		for _, e := range equipment {
			ha, hb := hasTag(*a, e), hasTag(*b, e)
			if ha != hb {
				if ha {
					return -1
				}
				return 1
			}
		}
		return 0
	}
}

func byRoomID(a, b *model.RankedRoom) int {
	return cmp.Compare(a.RoomID, b.RoomID)
}

func hasTag(r model.RankedRoom, e model.Equipment) bool {
	switch e {
	case model.EquipmentAV:
		return r.HasAV
	case model.EquipmentVC:
		return r.HasVC
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
