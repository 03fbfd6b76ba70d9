package dto

import (
	"time"

	"github.com/thesistrack/thesistrack-api/internal/models"
)

// ChapterUploadRequest describes the multipart payload for a chapter upload.
type ChapterUploadRequest struct {
	GroupID       uint `form:"group_id" validate:"required,gt=0"`
	ChapterNumber int  `form:"chapter_number" validate:"required,gte=1,lte=5"`
}

// ChapterUploadResponse is returned after a successful upload.
type ChapterUploadResponse struct {
	ID       uint   `json:"id"`
	Version  int    `json:"version"`
	FilePath string `json:"file_path"`
}

// ChapterDeleteResponse is returned after a version is removed.
type ChapterDeleteResponse struct {
	ID       uint   `json:"id"`
	Filename string `json:"filename"`
}

// ChapterFileResponse carries the resolved location of a stored document.
type ChapterFileResponse struct {
	AbsolutePath     string `json:"-"`
	OriginalFilename string `json:"original_filename"`
	MimeType         string `json:"mime_type"`
	Size             int64  `json:"size"`
}

// ChapterVersionResponse serializes one chapter version for listings.
type ChapterVersionResponse struct {
	ID               uint       `json:"id"`
	GroupID          uint       `json:"group_id"`
	ChapterNumber    int        `json:"chapter_number"`
	Version          int        `json:"version"`
	Status           string     `json:"status"`
	StatusDisplay    string     `json:"status_display"`
	OriginalFilename string     `json:"original_filename"`
	FileSize         int64      `json:"file_size"`
	IsCurrent        bool       `json:"is_current"`
	ReplacedByID     *uint      `json:"replaced_by_id"`
	ReviewScore      *float64   `json:"review_score"`
	ReviewFeedback   string     `json:"review_feedback"`
	UploadedAt       time.Time  `json:"uploaded_at"`
	LastReviewedAt   *time.Time `json:"last_reviewed_at"`
}

// NewChapterVersionResponse converts a ChapterVersion model into a DTO.
func NewChapterVersionResponse(model models.ChapterVersion) ChapterVersionResponse {
	return ChapterVersionResponse{
		ID:               model.ID,
		GroupID:          model.GroupID,
		ChapterNumber:    model.ChapterNumber,
		Version:          model.Version,
		Status:           string(model.Status),
		StatusDisplay:    model.Status.Display(),
		OriginalFilename: model.OriginalFilename,
		FileSize:         model.FileSize,
		IsCurrent:        model.IsCurrent,
		ReplacedByID:     model.ReplacedByID,
		ReviewScore:      model.ReviewScore,
		ReviewFeedback:   model.ReviewFeedback,
		UploadedAt:       model.UploadedAt,
		LastReviewedAt:   model.LastReviewedAt,
	}
}

// NewChapterVersionResponseSlice converts chapter version models into DTOs.
func NewChapterVersionResponseSlice(items []models.ChapterVersion) []ChapterVersionResponse {
	responses := make([]ChapterVersionResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewChapterVersionResponse(item))
	}
	return responses
}
