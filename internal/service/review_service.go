package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/thesistrack/thesistrack-api/internal/dto"
	"github.com/thesistrack/thesistrack-api/internal/models"
	"github.com/thesistrack/thesistrack-api/internal/observability"
	"github.com/thesistrack/thesistrack-api/internal/repository"
)

// ReviewNotifier fans a review outcome out to every member of a group.
type ReviewNotifier interface {
	NotifyGroup(ctx context.Context, groupID uint, title, message, notificationType string) (int, error)
}

// ReviewService gates and records advisor review actions.
type ReviewService interface {
	SubmitReview(ctx context.Context, caller Caller, chapterID uint, payload dto.ReviewRequest) (dto.ReviewResponse, error)
	ListComments(ctx context.Context, caller Caller, chapterID uint) ([]dto.CommentResponse, error)
	UpdateComment(ctx context.Context, caller Caller, commentID uint, payload dto.CommentUpdateRequest) (dto.CommentResponse, error)
}

type reviewService struct {
	chapters  repository.ChapterRepository
	groups    repository.GroupRepository
	comments  repository.CommentRepository
	notifier  ReviewNotifier
	audit     AuditService
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewReviewService constructs a ReviewService instance.
func NewReviewService(chapters repository.ChapterRepository, groups repository.GroupRepository, comments repository.CommentRepository, notifier ReviewNotifier, audit AuditService, validate *validator.Validate, logger zerolog.Logger) ReviewService {
	return &reviewService{
		chapters:  chapters,
		groups:    groups,
		comments:  comments,
		notifier:  notifier,
		audit:     audit,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "review_service").Logger(),
		now:       time.Now,
	}
}

func (s *reviewService) SubmitReview(ctx context.Context, caller Caller, chapterID uint, payload dto.ReviewRequest) (dto.ReviewResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ReviewResponse{}, err
	}

	if !caller.IsAdvisor() {
		return dto.ReviewResponse{}, ErrPermissionDenied
	}

	chapter, err := s.chapters.GetByID(ctx, chapterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReviewResponse{}, ErrChapterNotFound
		}
		return dto.ReviewResponse{}, err
	}

	group, err := s.groups.GetByID(ctx, chapter.GroupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReviewResponse{}, ErrGroupNotFound
		}
		return dto.ReviewResponse{}, err
	}
	if !group.AdvisedBy(caller.UserID) {
		return dto.ReviewResponse{}, ErrPermissionDenied
	}

	status := models.ChapterStatus(payload.Status)
	feedback := strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback))

	update := repository.ReviewUpdate{
		Status:       status,
		Score:        payload.Score,
		Feedback:     feedback,
		ReviewerID:   caller.UserID,
		ReviewerType: models.CommenterTypeAdvisor,
		ReviewedAt:   s.now(),
	}
	if feedback != "" {
		update.Comment = &models.Comment{
			AuthorID:   caller.UserID,
			AuthorType: models.CommenterTypeAdvisor,
			Text:       feedback,
		}
	}

	reviewed, err := s.chapters.ApplyReview(ctx, chapterID, caller.UserID, update)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOwnershipMismatch):
			return dto.ReviewResponse{}, ErrPermissionDenied
		case errors.Is(err, gorm.ErrRecordNotFound):
			return dto.ReviewResponse{}, ErrChapterNotFound
		default:
			return dto.ReviewResponse{}, err
		}
	}

	notified := 0
	if s.notifier != nil {
		message := fmt.Sprintf("Chapter %d has been %s.", reviewed.ChapterNumber, status.Display())
		notified, err = s.notifier.NotifyGroup(ctx, group.ID, "Chapter Reviewed", message, "chapter_review")
		if err != nil {
			s.logger.Error().Err(err).Uint("group_id", group.ID).Msg("review notification fan-out failed")
		}
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:    caller,
		Action:   "chapter_reviewed",
		Category: "reviews",
		Details: map[string]interface{}{
			"chapter_id":     reviewed.ID,
			"group_id":       group.ID,
			"chapter_number": reviewed.ChapterNumber,
			"version":        reviewed.Version,
			"decision":       payload.Status,
			"score":          payload.Score,
		},
	})

	observability.Reviews().WithLabelValues(payload.Status).Inc()

	s.logger.Info().
		Uint("chapter_id", reviewed.ID).
		Str("decision", payload.Status).
		Int("notified", notified).
		Msg("review recorded")

	return dto.ReviewResponse{
		ChapterID:      reviewed.ID,
		Status:         string(reviewed.Status),
		Score:          reviewed.ReviewScore,
		Feedback:       reviewed.ReviewFeedback,
		ReviewerID:     reviewed.ReviewerID,
		LastReviewedAt: reviewed.LastReviewedAt,
		NotifiedCount:  notified,
	}, nil
}

func (s *reviewService) ListComments(ctx context.Context, caller Caller, chapterID uint) ([]dto.CommentResponse, error) {
	chapter, err := s.chapters.GetByID(ctx, chapterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChapterNotFound
		}
		return nil, err
	}

	if !caller.InGroup(chapter.GroupID) && !caller.IsCoordinator() {
		group, err := s.groups.GetByID(ctx, chapter.GroupID)
		if err != nil {
			return nil, err
		}
		if !group.AdvisedBy(caller.UserID) {
			return nil, ErrPermissionDenied
		}
	}

	comments, err := s.comments.ListByChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}

	return dto.NewCommentResponseSlice(comments), nil
}

func (s *reviewService) UpdateComment(ctx context.Context, caller Caller, commentID uint, payload dto.CommentUpdateRequest) (dto.CommentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CommentResponse{}, err
	}

	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CommentResponse{}, ErrCommentNotFound
		}
		return dto.CommentResponse{}, err
	}

	if !comment.EditableBy(caller.UserID) {
		return dto.CommentResponse{}, ErrPermissionDenied
	}

	if payload.Text != nil {
		text := strings.TrimSpace(s.sanitizer.Sanitize(*payload.Text))
		if text == "" {
			return dto.CommentResponse{}, fmt.Errorf("comment text empty after sanitization")
		}
		comment.Text = text
	}
	if payload.Resolved != nil {
		comment.Resolved = *payload.Resolved
	}

	if err := s.comments.Update(ctx, &comment); err != nil {
		return dto.CommentResponse{}, err
	}

	return dto.NewCommentResponse(comment), nil
}
