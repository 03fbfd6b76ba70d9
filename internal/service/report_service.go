package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/thesistrack/thesistrack-api/internal/dto"
	"github.com/thesistrack/thesistrack-api/internal/jsonrepair"
	"github.com/thesistrack/thesistrack-api/internal/models"
	"github.com/thesistrack/thesistrack-api/internal/observability"
	"github.com/thesistrack/thesistrack-api/internal/repository"
)

// ReportService assembles the consolidated analysis view for one chapter
// version. Malformed stored JSON never fails the request; each dimension
// degrades independently.
type ReportService interface {
	Consolidated(ctx context.Context, caller Caller, groupID uint, chapterNumber, version int) (dto.ConsolidatedReportResponse, error)
}

type reportService struct {
	chapters repository.ChapterRepository
	groups   repository.GroupRepository
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewReportService constructs a ReportService instance.
func NewReportService(chapters repository.ChapterRepository, groups repository.GroupRepository, logger zerolog.Logger) ReportService {
	return &reportService{
		chapters: chapters,
		groups:   groups,
		logger:   logger.With().Str("component", "report_service").Logger(),
		tracer:   otel.Tracer("github.com/thesistrack/thesistrack-api/internal/service/report"),
	}
}

func (s *reportService) Consolidated(ctx context.Context, caller Caller, groupID uint, chapterNumber, version int) (dto.ConsolidatedReportResponse, error) {
	ctx, span := s.tracer.Start(ctx, "report.consolidated", trace.WithAttributes(
		attribute.Int("report.group_id", int(groupID)),
		attribute.Int("report.chapter", chapterNumber),
		attribute.Int("report.version", version),
	))
	defer span.End()

	if chapterNumber < 1 || chapterNumber > models.ChapterCount {
		return dto.ConsolidatedReportResponse{}, ErrChapterNotFound
	}

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ConsolidatedReportResponse{}, ErrGroupNotFound
		}
		return dto.ConsolidatedReportResponse{}, err
	}
	if !caller.InGroup(groupID) && !group.AdvisedBy(caller.UserID) && !caller.IsCoordinator() {
		return dto.ConsolidatedReportResponse{}, ErrPermissionDenied
	}

	var chapter models.ChapterVersion
	if version > 0 {
		chapter, err = s.chapters.GetByKey(ctx, groupID, chapterNumber, version)
	} else {
		chapter, err = s.chapters.CurrentVersion(ctx, groupID, chapterNumber)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ConsolidatedReportResponse{}, ErrChapterNotFound
		}
		return dto.ConsolidatedReportResponse{}, err
	}

	response := dto.ConsolidatedReportResponse{
		GroupID:       chapter.GroupID,
		ChapterNumber: chapter.ChapterNumber,
		Version:       chapter.Version,
		Status:        string(chapter.Status),
		ReviewScore:   chapter.ReviewScore,
		Dimensions:    make(map[string]dto.DimensionReport, len(models.AnalysisDimensions())),
	}

	overall := jsonrepair.StatusMissing
	for _, dimension := range models.AnalysisDimensions() {
		raw, score, feedback := chapter.AnalysisRaw(dimension)
		data, status := jsonrepair.Decode(raw)

		observability.ReportRecoveries().WithLabelValues(string(dimension), string(status)).Inc()
		if status == jsonrepair.StatusTruncated || status == jsonrepair.StatusCorrupted {
			s.logger.Warn().
				Uint("chapter_id", chapter.ID).
				Str("dimension", string(dimension)).
				Str("status", string(status)).
				Msg("analysis report degraded")
		}

		response.Dimensions[string(dimension)] = dto.DimensionReport{
			Score:      score,
			Feedback:   feedback,
			Data:       data,
			DataStatus: string(status),
		}
		overall = worseStatus(overall, status)

		if dimension == models.DimensionCitation {
			response.Citations = citationSummary(data)
		}
	}

	response.DataStatus = string(overall)

	return response, nil
}

// worseStatus keeps the most degraded outcome seen so far. Missing dimensions
// never degrade an otherwise complete report.
func worseStatus(current, next jsonrepair.Status) jsonrepair.Status {
	rank := func(s jsonrepair.Status) int {
		switch s {
		case jsonrepair.StatusCorrupted:
			return 3
		case jsonrepair.StatusTruncated:
			return 2
		case jsonrepair.StatusComplete:
			return 1
		default:
			return 0
		}
	}

	if rank(next) > rank(current) {
		return next
	}
	return current
}

func citationSummary(data map[string]interface{}) dto.CitationSummary {
	summary := dto.CitationSummary{}
	if data == nil {
		return summary
	}

	summary.TotalCitations = intField(data, "total_citations")
	summary.CorrectCitations = intField(data, "correct_citations")
	return summary
}

func intField(data map[string]interface{}, key string) int {
	if value, ok := data[key]; ok {
		if number, ok := value.(float64); ok {
			return int(number)
		}
	}
	return 0
}
