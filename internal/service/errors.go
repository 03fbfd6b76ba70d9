package service

import (
	"errors"
	"fmt"

	"github.com/thesistrack/thesistrack-api/pkg/filestore"
)

var (
	// ErrChapterNotFound indicates a chapter version could not be found.
	ErrChapterNotFound = errors.New("chapter version not found")
	// ErrGroupNotFound indicates a group could not be found.
	ErrGroupNotFound = errors.New("group not found")
	// ErrCommentNotFound indicates a comment could not be found.
	ErrCommentNotFound = errors.New("comment not found")
	// ErrPermissionDenied indicates the caller may not act on the resource.
	ErrPermissionDenied = errors.New("permission denied")
)

// FileNotFoundError reports that no candidate path produced a readable file.
// The diagnostics list every path probed, in order.
type FileNotFoundError struct {
	Diagnostics filestore.Diagnostics
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file not found after %d candidates", len(e.Diagnostics.Tried))
}

// StorageError wraps a filesystem failure that aborted an operation. Any
// partial database writes have been rolled back by the time it surfaces.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
