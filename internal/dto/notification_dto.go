package dto

import (
	"time"

	"github.com/thesistrack/thesistrack-api/internal/models"
)

// NotificationCreateRequest describes a notification to fan out.
type NotificationCreateRequest struct {
	RecipientID   uint   `json:"recipient_id" validate:"required,gt=0"`
	RecipientType string `json:"recipient_type" validate:"required,oneof=student advisor coordinator"`
	GroupID       *uint  `json:"group_id"`
	Title         string `json:"title" validate:"required,min=1,max=255"`
	Message       string `json:"message" validate:"required,min=1"`
	Type          string `json:"type" validate:"required"`
}

// NotificationResponse serializes a notification for API clients and SSE.
type NotificationResponse struct {
	ID            uint      `json:"id"`
	RecipientID   uint      `json:"recipient_id"`
	RecipientType string    `json:"recipient_type"`
	GroupID       *uint     `json:"group_id"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	Type          string    `json:"type"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewNotificationResponse converts a Notification model into a DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:            model.ID,
		RecipientID:   model.RecipientID,
		RecipientType: model.RecipientType,
		GroupID:       model.GroupID,
		Title:         model.Title,
		Message:       model.Message,
		Type:          model.Type,
		Read:          model.Read,
		CreatedAt:     model.CreatedAt,
	}
}

// NewNotificationResponseSlice converts notification models into DTOs.
func NewNotificationResponseSlice(items []models.Notification) []NotificationResponse {
	responses := make([]NotificationResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewNotificationResponse(item))
	}
	return responses
}
