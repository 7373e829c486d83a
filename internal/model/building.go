package model

import "time"

type City struct {
	ID   string `json:"id"` // three-letter code, e.g. YVR
	Name string `json:"name"`
}

type Building struct {
	ID        int64     `json:"id"`
	CityID    string    `json:"city_id"`
	Code      string    `json:"code"` // unique per city
	Address   string    `json:"address"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
