package demo

import "time"

// User is the demo persistence model. gorm maps it onto the users table.
type User struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Username   string    `gorm:"uniqueIndex" json:"username"`
	Email      string    `json:"email"`
	LastSeenAt time.Time `json:"last_seen_at"`
}
