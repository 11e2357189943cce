package main

import (
	"os"

	"chronosync/internal/export"
)

// newWriters sets up sync-record writers based on flags and env vars.
// It returns the writer and a cleanup function to close any resources.
func newWriters(printOnly bool, logFile string) (export.Writer, func(), error) {
	cleanup := func() {}

	writer, err := baseWriter(printOnly)
	if err != nil {
		return nil, nil, err
	}
	if logFile == "" {
		return writer, cleanup, nil
	}

	fw, err := export.NewFileWriter(logFile)
	if err != nil {
		return nil, nil, err
	}
	cleanup = func() { fw.Close() }
	return export.NewMultiWriter(writer, fw), cleanup, nil
}

// baseWriter chooses the underlying writer based on printOnly flag and env vars.
func baseWriter(printOnly bool) (export.Writer, error) {
	if printOnly {
		return export.NewColorStdoutWriter(), nil
	}
	if os.Getenv("GREPTIMEDB_ENDPOINT") == "" {
		return export.NewStdoutWriter(), nil
	}
	return export.NewGreptimeWriter(
		os.Getenv("GREPTIMEDB_ENDPOINT"),
		envOr("GREPTIMEDB_DATABASE", "public"),
		os.Getenv("SYNC_HISTORY_TABLE"),
	)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
