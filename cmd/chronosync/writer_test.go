package main

import (
	"path/filepath"
	"testing"

	"chronosync/internal/export"
)

func TestNewWritersPrintOnly(t *testing.T) {
	w, cleanup, err := newWriters(true, "")
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := w.(*export.ColorStdoutWriter); !ok {
		t.Fatalf("expected *export.ColorStdoutWriter, got %T", w)
	}
}

func TestNewWritersGreptimeFallback(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	w, cleanup, err := newWriters(false, "")
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := w.(*export.StdoutWriter); !ok {
		t.Fatalf("expected *export.StdoutWriter, got %T", w)
	}
}

func TestNewWritersLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sync.log")
	w, cleanup, err := newWriters(true, path)
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer cleanup()
	if _, ok := w.(*export.MultiWriter); !ok {
		t.Fatalf("expected *export.MultiWriter, got %T", w)
	}
}
