// Writer implementation printing sync records to STDOUT
package export

import (
	"fmt"
	"io"
	"os"
)

// StdoutWriter prints sync records as human-readable lines.
type StdoutWriter struct {
	out io.Writer
}

// NewStdoutWriter creates a StdoutWriter writing to os.Stdout.
func NewStdoutWriter() *StdoutWriter {
	return &StdoutWriter{out: os.Stdout}
}

// Write outputs a single sync record.
func (w *StdoutWriter) Write(row SyncRow) error {
	_, err := fmt.Fprintf(w.out, "[%s] %s source=%s offset=%+.6fs rtt=%.6fs confidence=%s mode=%s\n",
		row.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
		row.ID, row.Source, row.OffsetSeconds, row.RTTSeconds, row.Confidence, row.Mode)
	return err
}
