package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/thesistrack/thesistrack-api/internal/dto"
	"github.com/thesistrack/thesistrack-api/internal/service"
	"github.com/thesistrack/thesistrack-api/internal/utils"
	"github.com/thesistrack/thesistrack-api/pkg/filestore"
)

// ChapterHandler manages chapter version endpoints.
type ChapterHandler struct {
	service          service.ChapterService
	logger           zerolog.Logger
	debugDiagnostics bool
}

// NewChapterHandler builds a chapter handler instance.
func NewChapterHandler(service service.ChapterService, logger zerolog.Logger, debugDiagnostics bool) *ChapterHandler {
	return &ChapterHandler{
		service:          service,
		logger:           logger.With().Str("component", "chapter_handler").Logger(),
		debugDiagnostics: debugDiagnostics,
	}
}

// Register attaches the routes to the provided router group.
func (h *ChapterHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.upload)
	router.Delete("/:id", h.remove)
	router.Get("/:id/file", h.file)
}

func (h *ChapterHandler) upload(c *fiber.Ctx) error {
	groupID, err := parseFormUint(c, "group_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	chapterNumber, err := parseFormInt(c, "chapter_number")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	payload := dto.ChapterUploadRequest{
		GroupID:       *groupID,
		ChapterNumber: chapterNumber,
	}

	uploaded, err := h.service.Upload(c.UserContext(), callerFromContext(c), payload, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "chapter uploaded", uploaded)
}

func (h *ChapterHandler) list(c *fiber.Ctx) error {
	groupID, err := parseQueryUint(c, "group_id")
	if err != nil || groupID == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "group_id is required")
	}
	chapterNumber, err := parseQueryInt(c, "chapter")
	if err != nil || chapterNumber <= 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "chapter is required")
	}

	versions, err := h.service.ListVersions(c.UserContext(), callerFromContext(c), *groupID, chapterNumber)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "chapter versions retrieved", versions)
}

func (h *ChapterHandler) remove(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	deleted, err := h.service.Delete(c.UserContext(), callerFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "chapter deleted", deleted)
}

func (h *ChapterHandler) file(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	resolved, err := h.service.OpenFile(c.UserContext(), callerFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	if resolved.MimeType != "" {
		c.Set(fiber.HeaderContentType, resolved.MimeType)
	}

	return c.Download(resolved.AbsolutePath, resolved.OriginalFilename)
}

func (h *ChapterHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	var fileNotFound *service.FileNotFoundError
	switch {
	case errors.Is(err, service.ErrChapterNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "chapter version not found")
	case errors.Is(err, service.ErrGroupNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "group not found")
	case errors.Is(err, service.ErrPermissionDenied):
		return utils.SendError(c, fiber.StatusForbidden, "permission denied")
	case errors.Is(err, filestore.ErrFileTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "file exceeds the allowed size")
	case errors.Is(err, filestore.ErrTypeNotAllowed):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, "file type not allowed")
	case errors.As(err, &fileNotFound):
		if h.debugDiagnostics {
			return utils.SendErrorWithDetails(c, fiber.StatusNotFound, "stored file not found", fileNotFound.Diagnostics)
		}
		return utils.SendError(c, fiber.StatusNotFound, "stored file not found")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
