package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/thesistrack/thesistrack-api/internal/service"
	"github.com/thesistrack/thesistrack-api/internal/utils"
)

// DashboardHandler serves progress dashboards for groups and advisors.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler builds a dashboard handler instance.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("/groups/:id", h.group)
	router.Get("/advisor/queue", h.advisorQueue)
}

func (h *DashboardHandler) group(c *fiber.Ctx) error {
	groupID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	dashboard, err := h.service.GroupProgress(c.UserContext(), callerFromContext(c), groupID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "group dashboard retrieved", dashboard)
}

func (h *DashboardHandler) advisorQueue(c *fiber.Ctx) error {
	queue, err := h.service.AdvisorQueue(c.UserContext(), callerFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "advisor queue retrieved", queue)
}

func (h *DashboardHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrGroupNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "group not found")
	case errors.Is(err, service.ErrPermissionDenied):
		return utils.SendError(c, fiber.StatusForbidden, "permission denied")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
