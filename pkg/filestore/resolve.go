package filestore

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// PathStrategy produces candidate absolute paths for a stored file reference.
// Strategies run in a fixed order; later ones are only consulted when every
// candidate from earlier ones fails.
type PathStrategy interface {
	Name() string
	Candidates(storedPath, originalName string) []string
}

// Candidate records one probed path for diagnostics.
type Candidate struct {
	Strategy string `json:"strategy"`
	Path     string `json:"path"`
	Exists   bool   `json:"exists"`
	Readable bool   `json:"readable"`
}

// Diagnostics lists every candidate tried during resolution.
type Diagnostics struct {
	StoredPath   string      `json:"stored_path"`
	OriginalName string      `json:"original_name"`
	Tried        []Candidate `json:"tried"`
}

// Resolve maps a stored path back to a readable absolute path. Historical rows
// stored paths inconsistently (absolute, web-root-relative, project-relative,
// backslash-separated, or stale), so candidates are probed in order until one
// is readable. Resolution never mutates the filesystem.
func (s *Store) Resolve(storedPath, originalName string) (string, Diagnostics, error) {
	diag := Diagnostics{StoredPath: storedPath, OriginalName: originalName}

	for _, strategy := range s.strategies {
		for _, path := range strategy.Candidates(storedPath, originalName) {
			candidate := probe(strategy.Name(), path)
			diag.Tried = append(diag.Tried, candidate)
			if candidate.Readable {
				return path, diag, nil
			}
		}
	}

	s.logger.Warn().
		Str("stored_path", storedPath).
		Int("candidates", len(diag.Tried)).
		Msg("stored file could not be resolved")

	return "", diag, ErrNotFound
}

func probe(strategy, path string) Candidate {
	candidate := Candidate{Strategy: strategy, Path: path}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return candidate
	}
	candidate.Exists = true

	handle, err := os.Open(path)
	if err != nil {
		return candidate
	}
	_ = handle.Close()
	candidate.Readable = true

	return candidate
}

type rawPathStrategy struct{}

func (rawPathStrategy) Name() string { return "stored_path" }

func (rawPathStrategy) Candidates(storedPath, _ string) []string {
	if storedPath == "" {
		return nil
	}
	return []string{storedPath}
}

type normalizedPathStrategy struct{}

func (normalizedPathStrategy) Name() string { return "normalized" }

func (normalizedPathStrategy) Candidates(storedPath, _ string) []string {
	if storedPath == "" {
		return nil
	}
	normalized := filepath.Clean(strings.ReplaceAll(storedPath, "\\", "/"))
	if normalized == storedPath {
		return nil
	}
	return []string{normalized}
}

type rootRelativeStrategy struct {
	name string
	root string
}

func (s rootRelativeStrategy) Name() string { return s.name }

func (s rootRelativeStrategy) Candidates(storedPath, _ string) []string {
	if s.root == "" || storedPath == "" {
		return nil
	}
	relative := strings.TrimLeft(strings.ReplaceAll(storedPath, "\\", "/"), "/")
	return []string{filepath.Join(s.root, relative)}
}

// filenameSearchStrategy walks the upload tree looking for the stored
// filename, or failing that a case-insensitive substring match on the
// original name. Descent is depth-bounded to keep latency predictable.
type filenameSearchStrategy struct {
	root     string
	maxDepth int
}

func (filenameSearchStrategy) Name() string { return "filename_search" }

func (s filenameSearchStrategy) Candidates(storedPath, originalName string) []string {
	target := ""
	if storedPath != "" {
		target = filepath.Base(strings.ReplaceAll(storedPath, "\\", "/"))
	}
	needle := strings.ToLower(strings.TrimSuffix(originalName, filepath.Ext(originalName)))
	if target == "" && needle == "" {
		return nil
	}

	exact := make([]string, 0, 1)
	loose := make([]string, 0, 1)

	_ = filepath.WalkDir(s.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if entry.IsDir() {
			if s.depth(path) > s.maxDepth {
				return fs.SkipDir
			}
			return nil
		}

		name := entry.Name()
		if target != "" && name == target {
			exact = append(exact, path)
			return fs.SkipAll
		}
		if needle != "" && strings.Contains(strings.ToLower(name), needle) {
			loose = append(loose, path)
		}
		return nil
	})

	return append(exact, loose...)
}

func (s filenameSearchStrategy) depth(path string) int {
	relative, err := filepath.Rel(s.root, path)
	if err != nil || relative == "." {
		return 0
	}
	return len(strings.Split(relative, string(filepath.Separator)))
}
