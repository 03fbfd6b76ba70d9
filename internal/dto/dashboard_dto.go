package dto

import "time"

// ChapterProgress summarizes the current version of one chapter slot.
type ChapterProgress struct {
	ChapterNumber int        `json:"chapter_number"`
	Status        string     `json:"status"`
	StatusDisplay string     `json:"status_display"`
	Version       int        `json:"version"`
	ReviewScore   *float64   `json:"review_score"`
	UploadedAt    *time.Time `json:"uploaded_at"`
}

// GroupDashboardResponse is the per-group progress view.
type GroupDashboardResponse struct {
	GroupID        uint              `json:"group_id"`
	GroupName      string            `json:"group_name"`
	Chapters       []ChapterProgress `json:"chapters"`
	Approved       int               `json:"approved"`
	PendingReview  int               `json:"pending_review"`
	NeedsRevision  int               `json:"needs_revision"`
	NotUploaded    int               `json:"not_uploaded"`
	AverageScore   float64           `json:"average_score"`
	CompletionRate float64           `json:"completion_rate"`
	CacheHit       bool              `json:"cache_hit"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

// AdvisorQueueItem is one chapter version awaiting advisor action.
type AdvisorQueueItem struct {
	ChapterID     uint      `json:"chapter_id"`
	GroupID       uint      `json:"group_id"`
	GroupName     string    `json:"group_name"`
	ChapterNumber int       `json:"chapter_number"`
	Version       int       `json:"version"`
	Status        string    `json:"status"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// AdvisorQueueResponse lists pending reviews across the advisor's groups.
type AdvisorQueueResponse struct {
	Items []AdvisorQueueItem `json:"items"`
	Total int                `json:"total"`
}
