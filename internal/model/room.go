package model

import "fmt"

type Equipment string

const (
	EquipmentAV Equipment = "AV" // audio/visual
	EquipmentVC Equipment = "VC" // video conference
)

// Valid reports whether e is a known equipment tag.
func (e Equipment) Valid() bool {
	return e == EquipmentAV || e == EquipmentVC
}

type Room struct {
	ID         int64       `json:"id"`
	BuildingID int64       `json:"building_id"`
	Floor      int         `json:"floor"`
	Code       string      `json:"code"`
	Name       string      `json:"name"`
	Seats      int         `json:"seats"`
	IsActive   bool        `json:"is_active"`
	Equipment  []Equipment `json:"equipment"`

	// Joined from the owning building
	CityID         string `json:"city_id"`
	BuildingCode   string `json:"building_code"`
	BuildingActive bool   `json:"building_active"`
}

// DisplayCode renders a room as users know it, e.g. "YVR32 4.410 Maple".
func (r *Room) DisplayCode() string {
	return fmt.Sprintf("%s%s %d.%s %s", r.CityID, r.BuildingCode, r.Floor, r.Code, r.Name)
}

// HasEquipment reports whether the room carries tag e.
func (r *Room) HasEquipment(e Equipment) bool {
	for _, have := range r.Equipment {
		if have == e {
			return true
		}
	}
	return false
}
