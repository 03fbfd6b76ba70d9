package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/thesistrack/thesistrack-api/internal/service"
	"github.com/thesistrack/thesistrack-api/internal/utils"
)

// ReportHandler serves the consolidated analysis report.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler builds a report handler instance.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ReportHandler) Register(router fiber.Router) {
	router.Get("", h.consolidated)
}

func (h *ReportHandler) consolidated(c *fiber.Ctx) error {
	groupID, err := parseQueryUint(c, "group_id")
	if err != nil || groupID == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "group_id is required")
	}
	chapterNumber, err := parseQueryInt(c, "chapter")
	if err != nil || chapterNumber <= 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "chapter is required")
	}
	version, err := parseQueryInt(c, "version")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid version")
	}

	report, err := h.service.Consolidated(c.UserContext(), callerFromContext(c), *groupID, chapterNumber, version)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "report retrieved", report)
}

func (h *ReportHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrChapterNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "chapter version not found")
	case errors.Is(err, service.ErrGroupNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "group not found")
	case errors.Is(err, service.ErrPermissionDenied):
		return utils.SendError(c, fiber.StatusForbidden, "permission denied")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
