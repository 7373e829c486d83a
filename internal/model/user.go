package model

import (
	"fmt"
	"time"
)

type User struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	BuildingID int64     `json:"building_id"`
	CityID     string    `json:"city_id"` // city of the user's building
	Floor      int       `json:"floor"`
	IsActive   bool      `json:"is_active"`
	IsAdmin    bool      `json:"is_admin"`
	CreatedAt  time.Time `json:"created_at"`
}

// DisplayName is how a user is named in availability messages.
func (u *User) DisplayName() string {
	return fmt.Sprintf("%s %s (%s)", u.FirstName, u.LastName, u.Email)
}

// Attendee is the display identity returned with room search results.
type Attendee struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (u *User) Attendee() Attendee {
	return Attendee{UserID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

// Caller is the already authenticated identity performing an operation.
type Caller struct {
	UserID  int64
	IsAdmin bool
}
