package user

import (
	"time"

	"gorm.io/gorm"
)

// User is a player account. A user belongs to at most one team at a time;
// IsCoordinator is only ever true while TeamID is set.
type User struct {
	gorm.Model
	Name          string `json:"name" gorm:"not null"`
	Email         string `gorm:"unique;not null" json:"email"`
	Password      string `json:"-"`
	TeamID        *uint  `json:"team_id" gorm:"index"`
	IsCoordinator bool   `json:"is_coordinator" gorm:"default:false"`
}

// RefreshToken is a persisted refresh-token session for a user.
type RefreshToken struct {
	gorm.Model
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	Token     string    `json:"-" gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Revoked   bool      `json:"revoked" gorm:"default:false"`
}
