// Package store keeps downloaded sounds in a flat directory keyed by name.
//
// Files are written once and never overwritten or removed; a name that
// already exists on disk is a cache hit and is played as is.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/okian/audioquery/internal/domain/model"
)

const (
	dirPerm     = 0o755
	defaultExt  = ".mp3"
	defaultName = "sound"

	// MaxNameBytes is the longest file name most filesystems accept.
	MaxNameBytes = 255
)

// Store resolves candidates to file paths under a single directory.
type Store struct {
	dir   string
	dedup string
	ext   string
}

// New creates a Store rooted at dir.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:   dir,
		dedup: DedupByName,
		ext:   defaultExt,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Ensure creates the store directory if it does not exist.
func (s *Store) Ensure() error {
	if s.dir == "" {
		return fmt.Errorf("%w: empty path", ErrCreateDir)
	}
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return fmt.Errorf("%w: %w", ErrCreateDir, err)
	}
	return nil
}

// PathFor returns where the candidate is (or would be) stored.
func (s *Store) PathFor(c model.Candidate) string {
	suffix := ""
	if s.dedup == DedupByID {
		if id := Sanitize(c.ID); c.ID != "" && id != defaultName {
			suffix = "_" + id
		}
	}
	budget := MaxNameBytes - len(s.ext) - len(suffix)
	if budget < 1 {
		suffix = ""
		budget = MaxNameBytes - len(s.ext)
	}
	name := strings.TrimSpace(truncate(Sanitize(c.Name), budget))
	if name == "" || name == "." || name == ".." {
		name = defaultName
	}
	return filepath.Join(s.dir, name+suffix+s.ext)
}

// Exists reports whether a regular file exists at path.
func (s *Store) Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// Resolve maps a candidate to a model.Sound, flagging it cached when the file exists.
func (s *Store) Resolve(c model.Candidate) model.Sound {
	path := s.PathFor(c)
	return model.Sound{
		Candidate: c,
		Path:      path,
		Cached:    s.Exists(path),
	}
}

// Sanitize turns a remote display name into a single path element short
// enough to take the default extension.
func Sanitize(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, name)
	cleaned = strings.TrimSpace(truncate(strings.TrimSpace(cleaned), MaxNameBytes-len(defaultExt)))
	if cleaned == "" || cleaned == "." || cleaned == ".." {
		return defaultName
	}
	return cleaned
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 0 {
		return ""
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
