package fshint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func TestFindTimeHintPicksNewestMarker(t *testing.T) {
	root := t.TempDir()
	old := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	touch(t, filepath.Join(root, "adjtime"), old)
	touch(t, filepath.Join(root, "etc", "localtime"), newer)
	touch(t, filepath.Join(root, "notes.txt"), newer.Add(time.Hour)) // no marker, ignored

	got, err := NewScanner(nil).FindTimeHint([]string{root}, 3, 100)
	if err != nil {
		t.Fatalf("FindTimeHint: %v", err)
	}
	if !got.Equal(newer) {
		t.Errorf("hint = %v, want %v", got, newer)
	}
}

func TestFindTimeHintRespectsMaxDepth(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "a", "b", "c", "d", "adjtime")
	touch(t, deep, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	_, err := NewScanner(nil).FindTimeHint([]string{root}, 2, 100)
	if !errors.Is(err, ErrNoHint) {
		t.Fatalf("err = %v, want ErrNoHint for marker beyond max depth", err)
	}

	if _, err := NewScanner(nil).FindTimeHint([]string{root}, 5, 100); err != nil {
		t.Fatalf("marker within depth not found: %v", err)
	}
}

func TestFindTimeHintRespectsMaxFiles(t *testing.T) {
	root := t.TempDir()
	mtime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	// WalkDir visits lexically; the marker sorts last behind the budget.
	for i := 0; i < 20; i++ {
		touch(t, filepath.Join(root, fmt.Sprintf("file-%02d", i)), mtime)
	}
	touch(t, filepath.Join(root, "zz-adjtime"), mtime)

	_, err := NewScanner(nil).FindTimeHint([]string{root}, 1, 10)
	if !errors.Is(err, ErrNoHint) {
		t.Fatalf("err = %v, want ErrNoHint once the file budget is spent", err)
	}
}

func TestFindTimeHintZeroBoundsUseDefaults(t *testing.T) {
	root := t.TempDir()
	mtime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	touch(t, filepath.Join(root, "adjtime"), mtime)
	touch(t, filepath.Join(root, "etc", "localtime"), mtime.Add(time.Hour))

	// A config that lists roots but omits the budgets must still scan.
	got, err := NewScanner(nil).FindTimeHint([]string{root}, 0, 0)
	if err != nil {
		t.Fatalf("FindTimeHint with zero bounds: %v", err)
	}
	if !got.Equal(mtime.Add(time.Hour)) {
		t.Errorf("hint = %v, want %v", got, mtime.Add(time.Hour))
	}

	if _, err := NewScanner(nil).FindTimeHint([]string{root}, -1, -1); err != nil {
		t.Fatalf("FindTimeHint with negative bounds: %v", err)
	}
}

func TestFindTimeHintAcrossRoots(t *testing.T) {
	r1, r2 := t.TempDir(), t.TempDir()
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	touch(t, filepath.Join(r1, "adjtime"), t1)
	touch(t, filepath.Join(r2, "clock"), t2)

	got, err := NewScanner(nil).FindTimeHint([]string{r1, r2, filepath.Join(r1, "missing")}, 1, 100)
	if err != nil {
		t.Fatalf("FindTimeHint: %v", err)
	}
	if !got.Equal(t2) {
		t.Errorf("hint = %v, want %v", got, t2)
	}
}
