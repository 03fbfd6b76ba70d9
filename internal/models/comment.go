package models

import "time"

const (
	// CommenterTypeAdvisor marks a comment written by the supervising advisor.
	CommenterTypeAdvisor = "advisor"
	// CommenterTypeStudent marks a comment written by a group member.
	CommenterTypeStudent = "student"
)

// Comment is an advisor or student remark attached to a chapter version.
type Comment struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ChapterVersionID uint      `gorm:"not null;index" json:"chapter_version_id"`
	AuthorID         uint      `gorm:"not null;index" json:"author_id"`
	AuthorType       string    `gorm:"size:32;not null" json:"author_type"`
	Text             string    `gorm:"type:text;not null" json:"text"`
	Resolved         bool      `gorm:"not null;default:false" json:"resolved"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// EditableBy reports whether the given user may modify the comment.
// Only the original author can edit.
func (c Comment) EditableBy(userID uint) bool {
	return c.AuthorID == userID
}
