// Package filestore persists uploaded chapter documents on local disk and
// resolves historical stored paths back to readable files.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrFileTooLarge indicates the upload exceeded the configured limit.
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrTypeNotAllowed indicates the file extension or detected MIME type is not permitted.
	ErrTypeNotAllowed = errors.New("file type not allowed")
	// ErrNotFound indicates no candidate path produced a readable file.
	ErrNotFound = errors.New("stored file not found")
)

// allowedChapterTypes maps permitted extensions to the MIME types the sniffer
// may report for them.
var allowedChapterTypes = map[string][]string{
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword", "application/x-ole-storage"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
}

// Config customises the local file store.
type Config struct {
	// UploadDir is where new chapter documents are written.
	UploadDir string
	// ProjectRoot anchors project-relative historical paths.
	ProjectRoot string
	// DocumentRoot anchors web-root-relative historical paths.
	DocumentRoot string
	// MaxFileSizeMB bounds chapter uploads; defaults to 10.
	MaxFileSizeMB int
	// MaxSearchDepth bounds the recursive filename search; defaults to 4.
	MaxSearchDepth int
}

// StoredFile describes a persisted upload.
type StoredFile struct {
	Path         string `json:"path"`
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mime_type"`
}

// Store writes and resolves chapter documents on the local filesystem.
type Store struct {
	cfg     Config
	maxSize int64
	// strategies resolves reads; removal additionally excludes the filename
	// search so a stale record can never match another group's document.
	strategies []PathStrategy
	removal    []PathStrategy
	logger     zerolog.Logger
}

// New creates a Store and ensures the upload directory exists.
func New(cfg Config, logger zerolog.Logger) (*Store, error) {
	if cfg.UploadDir == "" {
		return nil, fmt.Errorf("upload directory must not be empty")
	}
	if cfg.MaxFileSizeMB <= 0 {
		cfg.MaxFileSizeMB = 10
	}
	if cfg.MaxSearchDepth <= 0 {
		cfg.MaxSearchDepth = 4
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	exact := []PathStrategy{
		rawPathStrategy{},
		normalizedPathStrategy{},
		rootRelativeStrategy{name: "project_relative", root: cfg.ProjectRoot},
		rootRelativeStrategy{name: "document_root", root: cfg.DocumentRoot},
	}

	return &Store{
		cfg:        cfg,
		maxSize:    int64(cfg.MaxFileSizeMB) * 1024 * 1024,
		strategies: append(append([]PathStrategy{}, exact...), filenameSearchStrategy{root: cfg.UploadDir, maxDepth: cfg.MaxSearchDepth}),
		removal:    exact,
		logger:     logger.With().Str("component", "filestore").Logger(),
	}, nil
}

// Save validates and persists an uploaded chapter document. The generated
// filename encodes chapter number, group and a timestamp to avoid collisions.
func (s *Store) Save(ctx context.Context, groupID uint, chapterNumber int, file *multipart.FileHeader) (StoredFile, error) {
	if file == nil {
		return StoredFile{}, fmt.Errorf("file is required")
	}
	if file.Size > s.maxSize {
		return StoredFile{}, ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowedMimes, ok := allowedChapterTypes[ext]
	if !ok {
		return StoredFile{}, ErrTypeNotAllowed
	}

	handle, err := file.Open()
	if err != nil {
		return StoredFile{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer handle.Close()

	payload, err := io.ReadAll(io.LimitReader(handle, s.maxSize+1))
	if err != nil {
		return StoredFile{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(payload)) > s.maxSize {
		return StoredFile{}, ErrFileTooLarge
	}

	detected := mimetype.Detect(payload)
	if !mimeAllowed(detected, allowedMimes) {
		return StoredFile{}, ErrTypeNotAllowed
	}

	name := fmt.Sprintf("chapter%d_group%d_%d_%s%s", chapterNumber, groupID, time.Now().Unix(), shortID(), ext)
	target := filepath.Join(s.cfg.UploadDir, name)

	if err := os.WriteFile(target, payload, 0o644); err != nil {
		return StoredFile{}, fmt.Errorf("failed to write %s: %w", target, err)
	}

	s.logger.Info().Str("path", target).Int64("size", int64(len(payload))).Msg("chapter file stored")

	return StoredFile{
		Path:         target,
		OriginalName: file.Filename,
		Size:         int64(len(payload)),
		MimeType:     detected.String(),
	}, nil
}

// Remove deletes the backing file. Only exact path candidates are probed;
// the filename search used for reads is too loose for a destructive
// operation. A missing file is logged, not an error.
func (s *Store) Remove(stored StoredFile) error {
	for _, strategy := range s.removal {
		for _, path := range strategy.Candidates(stored.Path, stored.OriginalName) {
			if !probe(strategy.Name(), path).Readable {
				continue
			}
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to remove %s: %w", path, err)
			}
			return nil
		}
	}

	s.logger.Warn().Str("path", stored.Path).Msg("backing file already missing")
	return nil
}

func mimeAllowed(detected *mimetype.MIME, allowed []string) bool {
	for _, candidate := range allowed {
		if detected.Is(candidate) {
			return true
		}
	}
	return false
}

func shortID() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}
