package service

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/thesistrack/thesistrack-api/internal/models"
	"github.com/thesistrack/thesistrack-api/internal/repository"
)

// AuditEntry describes one auditable action.
type AuditEntry struct {
	Actor    Caller
	Action   string
	Category string
	Details  map[string]interface{}
	Severity string
	SourceIP string
}

// AuditService records the portal's audit trail. Recording is best effort:
// a failed write is logged, never surfaced to the caller.
type AuditService interface {
	Record(ctx context.Context, entry AuditEntry)
	List(ctx context.Context, filter repository.AuditLogFilter) ([]models.AuditLog, int64, error)
}

type auditService struct {
	repo   repository.AuditLogRepository
	logger zerolog.Logger
}

// NewAuditService constructs an audit service.
func NewAuditService(repo repository.AuditLogRepository, logger zerolog.Logger) AuditService {
	return &auditService{
		repo:   repo,
		logger: logger.With().Str("component", "audit_service").Logger(),
	}
}

func (s *auditService) Record(ctx context.Context, entry AuditEntry) {
	severity := entry.Severity
	if severity == "" {
		severity = "info"
	}

	model := models.AuditLog{
		ActorID:   entry.Actor.UserID,
		ActorName: entry.Actor.Name,
		ActorRole: entry.Actor.Role,
		Action:    entry.Action,
		Category:  entry.Category,
		Details:   datatypes.JSONMap(entry.Details),
		Severity:  severity,
		SourceIP:  entry.SourceIP,
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).
			Str("action", entry.Action).
			Uint("actor_id", entry.Actor.UserID).
			Msg("failed to record audit entry")
	}
}

func (s *auditService) List(ctx context.Context, filter repository.AuditLogFilter) ([]models.AuditLog, int64, error) {
	return s.repo.List(ctx, filter)
}
