package models

import "time"

// User represents the user model in the database. Deleting a user is a
// soft delete (gorm DeletedAt); the row stays resolvable for ownership
// checks on historical data.
type User struct {
	Base
	Email               string      `gorm:"uniqueIndex;not null" json:"email"`
	Password            string      `gorm:"not null" json:"-"`
	FirstName           string      `json:"first_name"`
	LastName            string      `json:"last_name"`
	IsActive            bool        `gorm:"default:true" json:"is_active"`
	RefreshTokenHash    string      `gorm:"size:64" json:"-"`
	FailedLoginAttempts int         `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time  `json:"-"`
	LastLoginAt         *time.Time  `json:"last_login_at,omitempty"`
	Watchlists          []Watchlist `gorm:"foreignKey:UserID" json:"watchlists,omitempty"`
}
