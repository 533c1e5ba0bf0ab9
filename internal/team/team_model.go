// team/team_model.go
package team

import (
	"gorm.io/gorm"
)

// Request lifecycle. Pending is the initial state; approved and rejected are
// terminal, no transition leads out of them.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Rating bounds. Stored ratings start at RatingDefault; the display value is
// clamped to [RatingFloor, RatingCeiling].
const (
	RatingDefault = 1500
	RatingFloor   = 800
	RatingCeiling = 3000
)

// Team is a recreational side. Latitude/Longitude are nil until the location
// has been geocoded.
type Team struct {
	gorm.Model
	Name        string   `json:"name" gorm:"uniqueIndex;not null"`
	Location    string   `json:"location"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	HomeColor   string   `json:"home_color"`
	AwayColor   string   `json:"away_color"`
	Rating      int      `json:"rating" gorm:"default:1500"`
	CreatedByID uint     `json:"created_by_id" gorm:"index"`
}

// DisplayRating clamps the stored rating into the presentable band.
func (t *Team) DisplayRating() int {
	if t.Rating < RatingFloor {
		return RatingFloor
	}
	if t.Rating > RatingCeiling {
		return RatingCeiling
	}
	return t.Rating
}

// CoordinatorRequest is a user's ask to join a team as its coordinator.
// UserEmail and TeamName are denormalized snapshots taken at request time.
// At most one pending request exists per (UserID, TeamID) pair.
type CoordinatorRequest struct {
	gorm.Model
	UserID    uint   `json:"user_id" gorm:"index"`
	UserEmail string `json:"user_email"`
	TeamID    uint   `json:"team_id" gorm:"index"`
	TeamName  string `json:"team_name"`
	Status    string `json:"status" gorm:"default:'pending';index"`
}
