package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/thesistrack/thesistrack-api/internal/repository"
	"github.com/thesistrack/thesistrack-api/internal/service"
	"github.com/thesistrack/thesistrack-api/internal/utils"
)

// AuditHandler exposes the audit trail to coordinators.
type AuditHandler struct {
	service service.AuditService
	logger  zerolog.Logger
}

// NewAuditHandler builds an audit handler instance.
func NewAuditHandler(service service.AuditService, logger zerolog.Logger) *AuditHandler {
	return &AuditHandler{
		service: service,
		logger:  logger.With().Str("component", "audit_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AuditHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *AuditHandler) list(c *fiber.Ctx) error {
	caller := callerFromContext(c)
	if !caller.IsCoordinator() {
		return utils.SendError(c, fiber.StatusForbidden, "permission denied")
	}

	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}
	if pageSize <= 0 {
		pageSize = 25
	}

	filter := repository.AuditLogFilter{
		Page:     page,
		PageSize: pageSize,
		Action:   c.Query("action"),
		Category: c.Query("category"),
	}
	if actorID, err := parseQueryUint(c, "actor_id"); err == nil && actorID != nil {
		filter.ActorID = actorID
	}

	entries, total, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list audit entries")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "audit entries retrieved", fiber.Map{
		"entries": entries,
		"total":   total,
	})
}
