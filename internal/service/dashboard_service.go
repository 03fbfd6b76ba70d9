package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/thesistrack/thesistrack-api/internal/dto"
	"github.com/thesistrack/thesistrack-api/internal/models"
	"github.com/thesistrack/thesistrack-api/internal/repository"
)

// GroupCacheInvalidator drops cached dashboard entries when a group's
// chapters change.
type GroupCacheInvalidator interface {
	InvalidateGroup(ctx context.Context, groupID uint)
}

// DashboardService produces aggregated progress views.
type DashboardService interface {
	GroupCacheInvalidator
	GroupProgress(ctx context.Context, caller Caller, groupID uint) (dto.GroupDashboardResponse, error)
	AdvisorQueue(ctx context.Context, caller Caller) (dto.AdvisorQueueResponse, error)
}

type dashboardService struct {
	chapters repository.ChapterRepository
	groups   repository.GroupRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewDashboardService builds the dashboard aggregator.
func NewDashboardService(chapters repository.ChapterRepository, groups repository.GroupRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		chapters: chapters,
		groups:   groups,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "dashboard_service").Logger(),
		now:      time.Now,
	}
}

func groupCacheKey(groupID uint) string {
	return fmt.Sprintf("dashboard:group:%d", groupID)
}

func (s *dashboardService) GroupProgress(ctx context.Context, caller Caller, groupID uint) (dto.GroupDashboardResponse, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupDashboardResponse{}, ErrGroupNotFound
		}
		return dto.GroupDashboardResponse{}, err
	}
	if !caller.InGroup(groupID) && !group.AdvisedBy(caller.UserID) && !caller.IsCoordinator() {
		return dto.GroupDashboardResponse{}, ErrPermissionDenied
	}

	cacheKey := groupCacheKey(groupID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.GroupDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				s.logger.Debug().Uint("group_id", groupID).Msg("dashboard cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	current, err := s.chapters.ListCurrentByGroup(ctx, groupID)
	if err != nil {
		return dto.GroupDashboardResponse{}, err
	}

	response := s.buildGroupResponse(group, current)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

func (s *dashboardService) buildGroupResponse(group models.Group, current []models.ChapterVersion) dto.GroupDashboardResponse {
	byNumber := make(map[int]models.ChapterVersion, len(current))
	for _, chapter := range current {
		byNumber[chapter.ChapterNumber] = chapter
	}

	response := dto.GroupDashboardResponse{
		GroupID:     group.ID,
		GroupName:   group.Name,
		Chapters:    make([]dto.ChapterProgress, 0, models.ChapterCount),
		GeneratedAt: s.now().UTC(),
	}

	var scoreTotal float64
	var scoreCount int

	for number := 1; number <= models.ChapterCount; number++ {
		chapter, uploaded := byNumber[number]
		if !uploaded {
			response.NotUploaded++
			response.Chapters = append(response.Chapters, dto.ChapterProgress{
				ChapterNumber: number,
				Status:        "not_uploaded",
				StatusDisplay: "not uploaded",
			})
			continue
		}

		switch {
		case chapter.Status == models.ChapterStatusApproved:
			response.Approved++
		case chapter.Status == models.ChapterStatusNeedsRevision:
			response.NeedsRevision++
		case chapter.Status.PendingReview():
			response.PendingReview++
		}

		if chapter.ReviewScore != nil {
			scoreTotal += *chapter.ReviewScore
			scoreCount++
		}

		uploadedAt := chapter.UploadedAt
		response.Chapters = append(response.Chapters, dto.ChapterProgress{
			ChapterNumber: number,
			Status:        string(chapter.Status),
			StatusDisplay: chapter.Status.Display(),
			Version:       chapter.Version,
			ReviewScore:   chapter.ReviewScore,
			UploadedAt:    &uploadedAt,
		})
	}

	if scoreCount > 0 {
		response.AverageScore = scoreTotal / float64(scoreCount)
	}
	response.CompletionRate = float64(response.Approved) / float64(models.ChapterCount) * 100

	return response
}

func (s *dashboardService) AdvisorQueue(ctx context.Context, caller Caller) (dto.AdvisorQueueResponse, error) {
	if !caller.IsAdvisor() {
		return dto.AdvisorQueueResponse{}, ErrPermissionDenied
	}

	pending, err := s.chapters.ListPendingForAdvisor(ctx, caller.UserID)
	if err != nil {
		return dto.AdvisorQueueResponse{}, err
	}

	groupNames := make(map[uint]string)
	items := make([]dto.AdvisorQueueItem, 0, len(pending))
	for _, chapter := range pending {
		name, ok := groupNames[chapter.GroupID]
		if !ok {
			if group, err := s.groups.GetByID(ctx, chapter.GroupID); err == nil {
				name = group.Name
			}
			groupNames[chapter.GroupID] = name
		}

		items = append(items, dto.AdvisorQueueItem{
			ChapterID:     chapter.ID,
			GroupID:       chapter.GroupID,
			GroupName:     name,
			ChapterNumber: chapter.ChapterNumber,
			Version:       chapter.Version,
			Status:        string(chapter.Status),
			UploadedAt:    chapter.UploadedAt,
		})
	}

	return dto.AdvisorQueueResponse{Items: items, Total: len(items)}, nil
}

func (s *dashboardService) InvalidateGroup(ctx context.Context, groupID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, groupCacheKey(groupID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("group_id", groupID).Msg("failed to invalidate dashboard cache")
	}
}
