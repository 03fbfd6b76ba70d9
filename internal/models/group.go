package models

import "time"

// Group represents a thesis group supervised by a single advisor.
type Group struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Name      string        `gorm:"size:255;not null" json:"name"`
	AdvisorID uint          `gorm:"not null;index" json:"advisor_id"`
	Members   []GroupMember `json:"members"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// AdvisedBy reports whether the given advisor supervises the group.
func (g Group) AdvisedBy(advisorID uint) bool {
	return g.AdvisorID != 0 && g.AdvisorID == advisorID
}

// GroupMember links a student identity to a group.
type GroupMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GroupID   uint      `gorm:"not null;index" json:"group_id"`
	StudentID uint      `gorm:"not null;index" json:"student_id"`
	FullName  string    `gorm:"size:255" json:"full_name"`
	Email     string    `gorm:"size:255" json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
