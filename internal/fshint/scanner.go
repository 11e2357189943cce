// Package fshint extracts a last-resort wall-clock hint from trusted local
// paths: the newest modification time among files the OS itself keeps
// current (clock-adjustment records, the local time-zone reference).
package fshint

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoHint means no trusted file produced a usable modification time.
var ErrNoHint = errors.New("no filesystem time hint found")

// DefaultMarkers are base-name fragments that mark a file as trusted.
var DefaultMarkers = []string{"adjtime", "localtime", "clock"}

// Budgets applied when the caller passes non-positive bounds.
const (
	DefaultMaxDepth = 2
	DefaultMaxFiles = 64
)

// errStop aborts a walk once the inspection budget is spent.
var errStop = errors.New("inspection budget exhausted")

// Scanner finds time hints under bounded depth and file-count budgets, so a
// fallback scan has a deterministic worst-case cost instead of an unbounded
// recursive search.
type Scanner struct {
	markers []string
}

// NewScanner builds a scanner matching the given base-name markers;
// nil selects DefaultMarkers.
func NewScanner(markers []string) *Scanner {
	if markers == nil {
		markers = DefaultMarkers
	}
	return &Scanner{markers: markers}
}

// FindTimeHint walks each trusted root at most maxDepth directory levels
// deep, inspecting at most maxFiles entries in total across all roots, and
// returns the most recent modification time among matching files. It
// returns ErrNoHint when nothing matched within the budgets. Non-positive
// bounds select DefaultMaxDepth and DefaultMaxFiles.
func (s *Scanner) FindTimeHint(roots []string, maxDepth, maxFiles int) (time.Time, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}

	var newest time.Time
	inspected := 0

	for _, root := range roots {
		root = filepath.Clean(root)
		if _, err := os.Stat(root); err != nil {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Unreadable subtree; keep scanning the rest.
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if depthBelow(root, path) >= maxDepth {
					return fs.SkipDir
				}
				return nil
			}
			if inspected >= maxFiles {
				return errStop
			}
			inspected++
			if !s.matches(d.Name()) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			if mt := info.ModTime(); mt.After(newest) {
				newest = mt
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStop) {
			continue
		}
		if inspected >= maxFiles {
			break
		}
	}

	if newest.IsZero() {
		return time.Time{}, ErrNoHint
	}
	return newest, nil
}

func (s *Scanner) matches(name string) bool {
	name = strings.ToLower(name)
	for _, m := range s.markers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// depthBelow counts directory levels of path beneath root.
func depthBelow(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
