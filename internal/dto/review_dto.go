package dto

import (
	"time"

	"github.com/thesistrack/thesistrack-api/internal/models"
)

// ReviewRequest carries an advisor's review decision.
type ReviewRequest struct {
	Status   string   `json:"status" form:"status" validate:"required,oneof=approved needs_revision"`
	Score    *float64 `json:"score" form:"score" validate:"omitempty,gte=0,lte=100"`
	Feedback string   `json:"feedback" form:"feedback"`
}

// ReviewResponse summarizes the recorded review.
type ReviewResponse struct {
	ChapterID      uint       `json:"chapter_id"`
	Status         string     `json:"status"`
	Score          *float64   `json:"score"`
	Feedback       string     `json:"feedback"`
	ReviewerID     *uint      `json:"reviewer_id"`
	LastReviewedAt *time.Time `json:"last_reviewed_at"`
	NotifiedCount  int        `json:"notified_count"`
}

// CommentUpdateRequest edits an existing comment.
type CommentUpdateRequest struct {
	Text     *string `json:"text" validate:"omitempty,min=1"`
	Resolved *bool   `json:"resolved"`
}

// CommentResponse serializes a chapter comment.
type CommentResponse struct {
	ID               uint      `json:"id"`
	ChapterVersionID uint      `json:"chapter_version_id"`
	AuthorID         uint      `json:"author_id"`
	AuthorType       string    `json:"author_type"`
	Text             string    `json:"text"`
	Resolved         bool      `json:"resolved"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewCommentResponse converts a Comment model into a DTO.
func NewCommentResponse(model models.Comment) CommentResponse {
	return CommentResponse{
		ID:               model.ID,
		ChapterVersionID: model.ChapterVersionID,
		AuthorID:         model.AuthorID,
		AuthorType:       model.AuthorType,
		Text:             model.Text,
		Resolved:         model.Resolved,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

// NewCommentResponseSlice converts comment models into DTOs.
func NewCommentResponseSlice(items []models.Comment) []CommentResponse {
	responses := make([]CommentResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewCommentResponse(item))
	}
	return responses
}
