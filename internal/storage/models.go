package storage

import "time"

// Subscriber is one row of the subscribers table.
type Subscriber struct {
	ID        uint      `json:"-" gorm:"primaryKey;column:id"`
	Email     string    `json:"email" gorm:"column:email;not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
}
