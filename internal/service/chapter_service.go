package service

import (
	"context"
	"errors"
	"mime/multipart"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/thesistrack/thesistrack-api/internal/dto"
	"github.com/thesistrack/thesistrack-api/internal/models"
	"github.com/thesistrack/thesistrack-api/internal/observability"
	"github.com/thesistrack/thesistrack-api/internal/repository"
	"github.com/thesistrack/thesistrack-api/pkg/filestore"
)

// ChapterStore abstracts the file persistence used by chapter workflows.
type ChapterStore interface {
	Save(ctx context.Context, groupID uint, chapterNumber int, file *multipart.FileHeader) (filestore.StoredFile, error)
	Resolve(storedPath, originalName string) (string, filestore.Diagnostics, error)
	Remove(stored filestore.StoredFile) error
}

// ChapterService orchestrates the chapter version lifecycle.
type ChapterService interface {
	Upload(ctx context.Context, caller Caller, payload dto.ChapterUploadRequest, file *multipart.FileHeader) (dto.ChapterUploadResponse, error)
	Delete(ctx context.Context, caller Caller, id uint) (dto.ChapterDeleteResponse, error)
	ListVersions(ctx context.Context, caller Caller, groupID uint, chapterNumber int) ([]dto.ChapterVersionResponse, error)
	// OpenFile resolves the stored document. When the owning advisor opens an
	// uploaded version, the version transitions to under_review.
	OpenFile(ctx context.Context, caller Caller, id uint) (dto.ChapterFileResponse, error)
}

type chapterService struct {
	chapters  repository.ChapterRepository
	groups    repository.GroupRepository
	store     ChapterStore
	validator *validator.Validate
	audit     AuditService
	caches    GroupCacheInvalidator
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewChapterService constructs a ChapterService instance.
func NewChapterService(chapters repository.ChapterRepository, groups repository.GroupRepository, store ChapterStore, validate *validator.Validate, audit AuditService, caches GroupCacheInvalidator, logger zerolog.Logger) ChapterService {
	return &chapterService{
		chapters:  chapters,
		groups:    groups,
		store:     store,
		validator: validate,
		audit:     audit,
		caches:    caches,
		logger:    logger.With().Str("component", "chapter_service").Logger(),
		tracer:    otel.Tracer("github.com/thesistrack/thesistrack-api/internal/service/chapter"),
		now:       time.Now,
	}
}

func (s *chapterService) Upload(ctx context.Context, caller Caller, payload dto.ChapterUploadRequest, file *multipart.FileHeader) (dto.ChapterUploadResponse, error) {
	ctx, span := s.tracer.Start(ctx, "chapter.upload", trace.WithAttributes(
		attribute.Int("chapter.group_id", int(payload.GroupID)),
		attribute.Int("chapter.number", payload.ChapterNumber),
	))
	defer span.End()

	start := s.now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	if err := s.validator.Struct(payload); err != nil {
		observability.ChapterUploads().WithLabelValues("validation").Inc()
		return dto.ChapterUploadResponse{}, err
	}

	if !caller.IsStudent() || !caller.InGroup(payload.GroupID) {
		observability.ChapterUploads().WithLabelValues("permission").Inc()
		return dto.ChapterUploadResponse{}, ErrPermissionDenied
	}

	if _, err := s.groups.GetByID(ctx, payload.GroupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ChapterUploadResponse{}, ErrGroupNotFound
		}
		return dto.ChapterUploadResponse{}, err
	}

	stored, err := s.store.Save(ctx, payload.GroupID, payload.ChapterNumber, file)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store failed")
		if errors.Is(err, filestore.ErrFileTooLarge) || errors.Is(err, filestore.ErrTypeNotAllowed) {
			observability.ChapterUploads().WithLabelValues("rejected").Inc()
			return dto.ChapterUploadResponse{}, err
		}
		observability.ChapterUploads().WithLabelValues("error").Inc()
		return dto.ChapterUploadResponse{}, &StorageError{Op: "save", Err: err}
	}

	version := models.ChapterVersion{
		GroupID:          payload.GroupID,
		ChapterNumber:    payload.ChapterNumber,
		Status:           models.ChapterStatusUploaded,
		FilePath:         stored.Path,
		OriginalFilename: stored.OriginalName,
		FileSize:         stored.Size,
		MimeType:         stored.MimeType,
		UploadedAt:       s.now(),
	}

	if err := s.chapters.InsertVersion(ctx, &version); err != nil {
		// The ledger insert failed after the file landed on disk; remove the
		// orphan so no file exists without a record.
		if removeErr := s.store.Remove(stored); removeErr != nil {
			s.logger.Error().Err(removeErr).Str("path", stored.Path).Msg("failed to remove orphaned upload")
		}
		observability.ChapterUploads().WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "ledger insert failed")
		return dto.ChapterUploadResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:    caller,
		Action:   "chapter_uploaded",
		Category: "chapters",
		Details: map[string]interface{}{
			"chapter_id":     version.ID,
			"group_id":       version.GroupID,
			"chapter_number": version.ChapterNumber,
			"version":        version.Version,
			"filename":       version.OriginalFilename,
		},
	})

	s.invalidateGroup(ctx, payload.GroupID)
	observability.ChapterUploads().WithLabelValues("success").Inc()
	span.SetStatus(codes.Ok, "stored")

	s.logger.Info().
		Uint("chapter_id", version.ID).
		Uint("group_id", version.GroupID).
		Int("chapter_number", version.ChapterNumber).
		Int("version", version.Version).
		Msg("chapter version uploaded")

	return dto.ChapterUploadResponse{
		ID:       version.ID,
		Version:  version.Version,
		FilePath: version.FilePath,
	}, nil
}

func (s *chapterService) Delete(ctx context.Context, caller Caller, id uint) (dto.ChapterDeleteResponse, error) {
	chapter, err := s.loadChapter(ctx, id)
	if err != nil {
		return dto.ChapterDeleteResponse{}, err
	}

	if err := s.authorize(ctx, caller, chapter.GroupID); err != nil {
		return dto.ChapterDeleteResponse{}, err
	}

	stored := filestore.StoredFile{Path: chapter.FilePath, OriginalName: chapter.OriginalFilename}
	if err := s.store.Remove(stored); err != nil {
		s.logger.Warn().Err(err).Uint("chapter_id", id).Msg("failed to remove backing file")
	}

	if err := s.chapters.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ChapterDeleteResponse{}, ErrChapterNotFound
		}
		return dto.ChapterDeleteResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:    caller,
		Action:   "chapter_deleted",
		Category: "chapters",
		Details: map[string]interface{}{
			"chapter_id":     id,
			"group_id":       chapter.GroupID,
			"chapter_number": chapter.ChapterNumber,
			"version":        chapter.Version,
		},
	})

	s.invalidateGroup(ctx, chapter.GroupID)

	return dto.ChapterDeleteResponse{ID: id, Filename: chapter.OriginalFilename}, nil
}

func (s *chapterService) ListVersions(ctx context.Context, caller Caller, groupID uint, chapterNumber int) ([]dto.ChapterVersionResponse, error) {
	if err := s.authorize(ctx, caller, groupID); err != nil {
		return nil, err
	}

	versions, err := s.chapters.ListVersions(ctx, groupID, chapterNumber)
	if err != nil {
		return nil, err
	}

	return dto.NewChapterVersionResponseSlice(versions), nil
}

func (s *chapterService) OpenFile(ctx context.Context, caller Caller, id uint) (dto.ChapterFileResponse, error) {
	ctx, span := s.tracer.Start(ctx, "chapter.open_file", trace.WithAttributes(
		attribute.Int("chapter.id", int(id)),
	))
	defer span.End()

	chapter, err := s.loadChapter(ctx, id)
	if err != nil {
		return dto.ChapterFileResponse{}, err
	}

	group, err := s.loadGroup(ctx, chapter.GroupID)
	if err != nil {
		return dto.ChapterFileResponse{}, err
	}

	if !caller.InGroup(chapter.GroupID) && !group.AdvisedBy(caller.UserID) && !caller.IsCoordinator() {
		return dto.ChapterFileResponse{}, ErrPermissionDenied
	}

	path, diag, err := s.store.Resolve(chapter.FilePath, chapter.OriginalFilename)
	if err != nil {
		observability.FileResolutions().WithLabelValues("miss").Inc()
		span.SetStatus(codes.Error, "unresolved")
		return dto.ChapterFileResponse{}, &FileNotFoundError{Diagnostics: diag}
	}
	observability.FileResolutions().WithLabelValues("hit").Inc()

	// Opening the file is what moves an uploaded version into review when the
	// supervising advisor does it.
	if group.AdvisedBy(caller.UserID) && chapter.Status == models.ChapterStatusUploaded {
		chapter.Status = models.ChapterStatusUnderReview
		if err := s.chapters.Update(ctx, &chapter); err != nil {
			s.logger.Error().Err(err).Uint("chapter_id", chapter.ID).Msg("failed to mark chapter under review")
		} else {
			s.invalidateGroup(ctx, chapter.GroupID)
		}
	}

	return dto.ChapterFileResponse{
		AbsolutePath:     path,
		OriginalFilename: chapter.OriginalFilename,
		MimeType:         chapter.MimeType,
		Size:             chapter.FileSize,
	}, nil
}

func (s *chapterService) loadChapter(ctx context.Context, id uint) (models.ChapterVersion, error) {
	chapter, err := s.chapters.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ChapterVersion{}, ErrChapterNotFound
		}
		return models.ChapterVersion{}, err
	}
	return chapter, nil
}

func (s *chapterService) loadGroup(ctx context.Context, id uint) (models.Group, error) {
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Group{}, ErrGroupNotFound
		}
		return models.Group{}, err
	}
	return group, nil
}

// authorize permits group members, the supervising advisor and coordinators.
func (s *chapterService) authorize(ctx context.Context, caller Caller, groupID uint) error {
	if caller.InGroup(groupID) || caller.IsCoordinator() {
		return nil
	}

	group, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.AdvisedBy(caller.UserID) {
		return ErrPermissionDenied
	}
	return nil
}

func (s *chapterService) invalidateGroup(ctx context.Context, groupID uint) {
	if s.caches != nil {
		s.caches.InvalidateGroup(ctx, groupID)
	}
}
