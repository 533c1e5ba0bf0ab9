// game/game_model.go
package game

import (
	"time"

	"gorm.io/gorm"
)

// GameType says which side hosts, or that the slot is open for requests.
type GameType string

const (
	TypeHome GameType = "home"
	TypeAway GameType = "away"
	TypeOpen GameType = "open"
)

// Request lifecycle, mirrored from the coordinator-request state machine:
// pending is initial, approved and rejected are terminal.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// RecurrenceFreq is how a recurring availability template repeats.
type RecurrenceFreq string

const (
	FreqWeekly  RecurrenceFreq = "weekly"
	FreqMonthly RecurrenceFreq = "monthly"
)

// Game is a single fixture or availability slot. Recurring templates are
// expanded into sibling Game rows at creation time and never re-evaluated.
// Latitude/Longitude are nil when the slot inherits its team's location.
type Game struct {
	gorm.Model
	TeamID      uint      `json:"team_id" gorm:"index;not null"`
	Title       string    `json:"title" gorm:"not null"`
	Type        GameType  `json:"type" gorm:"index;not null;default:'open'"`
	StartAt     time.Time `json:"start_at" gorm:"index;not null"`
	Location    string    `json:"location"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	KitColor    string    `json:"kit_color"`
	CreatedByID uint      `json:"created_by_id" gorm:"index"`
}

// GameRequest is team B asking to play team A's open slot. Both team names
// are denormalized snapshots taken at request time.
type GameRequest struct {
	gorm.Model
	GameID             uint      `json:"game_id" gorm:"index;not null"`
	RequestingTeamID   uint      `json:"requesting_team_id" gorm:"index;not null"`
	RequestingTeamName string    `json:"requesting_team_name"`
	HomeTeamID         uint      `json:"home_team_id" gorm:"index;not null"`
	HomeTeamName       string    `json:"home_team_name"`
	Title              string    `json:"title"`
	StartAt            time.Time `json:"start_at"`
	Status             string    `json:"status" gorm:"default:'pending';index"`
	RequestedByID      uint      `json:"requested_by_id"`
}
