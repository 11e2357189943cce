package authority

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chronosync/internal/clock"
	"chronosync/internal/fshint"
)

func writeMarker(t *testing.T, dir string, mtime time.Time) {
	t.Helper()
	path := filepath.Join(dir, "adjtime")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func TestFilesystemStrategyCorrectsBackwardClock(t *testing.T) {
	dir := t.TempDir()
	hint := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	writeMarker(t, dir, hint)

	// Local clock sits a year behind the trusted mtime.
	mock := clock.NewMock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	s := &FilesystemStrategy{
		Scanner:  fshint.NewScanner(nil),
		Roots:    []string{dir},
		MaxDepth: 1,
		MaxFiles: 10,
		Clock:    mock,
	}
	res, err := s.Attempt(context.Background())
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if res.Confidence != ConfidenceDegraded || res.Kind != KindFilesystem {
		t.Errorf("result = %+v, want degraded filesystem result", res)
	}
	if !res.Time.Equal(hint) {
		t.Errorf("time = %v, want hint %v", res.Time, hint)
	}
	if res.Offset <= 0 {
		t.Errorf("offset = %v, want positive correction", res.Offset)
	}
}

func TestFilesystemStrategyTrustsAheadClock(t *testing.T) {
	dir := t.TempDir()
	hint := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	writeMarker(t, dir, hint)

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s := &FilesystemStrategy{
		Scanner:  fshint.NewScanner(nil),
		Roots:    []string{dir},
		MaxDepth: 1,
		MaxFiles: 10,
		Clock:    clock.NewMock(now),
	}
	res, err := s.Attempt(context.Background())
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	// An old mtime only proves a lower bound; the local clock stands.
	if !res.Time.Equal(now) || res.Offset != 0 {
		t.Errorf("result = %+v, want untouched local clock", res)
	}
}

func TestFilesystemStrategyNoHint(t *testing.T) {
	s := &FilesystemStrategy{
		Scanner:  fshint.NewScanner(nil),
		Roots:    []string{t.TempDir()},
		MaxDepth: 1,
		MaxFiles: 10,
	}
	if _, err := s.Attempt(context.Background()); !errors.Is(err, fshint.ErrNoHint) {
		t.Fatalf("err = %v, want ErrNoHint", err)
	}
}
