package models

import "time"

// Notification represents a message targeted at a specific user, usually fanned
// out to every member of a group after a review action.
type Notification struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	RecipientID   uint      `gorm:"not null;index" json:"recipient_id"`
	RecipientType string    `gorm:"size:32;not null;default:student" json:"recipient_type"`
	GroupID       *uint     `gorm:"index" json:"group_id"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Message       string    `gorm:"type:text" json:"message"`
	Type          string    `gorm:"size:64;default:generic" json:"type"`
	Read          bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
