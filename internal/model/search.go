package model

// Priority is one room ordering criterion.
type Priority string

const (
	PriorityDistance   Priority = "distance"
	PrioritySeats      Priority = "seats"
	PriorityEquipments Priority = "equipments"
)

// RankedRoom is a candidate room annotated for one attendee group.
type RankedRoom struct {
	RoomID       int64   `json:"room_id"`
	CityID       string  `json:"city_id"`
	BuildingID   int64   `json:"building_id"`
	BuildingCode string  `json:"building_code"`
	Floor        int     `json:"floor"`
	RoomCode     string  `json:"room_code"`
	RoomName     string  `json:"room_name"`
	Seats        int     `json:"seats"`
	Distance     float64 `json:"distance"`
	HasAV        bool    `json:"has_av"`
	HasVC        bool    `json:"has_vc"`
	IsBigEnough  bool    `json:"is_big_enough"`
	Recommended  bool    `json:"recommended"`
}

// GroupRooms is the search result for one attendee group.
type GroupRooms struct {
	Attendees []Attendee   `json:"attendees"`
	Rooms     []RankedRoom `json:"rooms"`
}
