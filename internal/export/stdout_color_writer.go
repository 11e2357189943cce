// ColorStdoutWriter prints human-friendly, colorized sync records to STDOUT.
package export

import (
	"fmt"
	"io"
	"os"

	"chronosync/internal/authority"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

// ColorStdoutWriter prints sync records using ANSI colors.
type ColorStdoutWriter struct {
	out io.Writer
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter() *ColorStdoutWriter {
	return &ColorStdoutWriter{out: os.Stdout}
}

func confidenceColor(c string) string {
	if c == string(authority.ConfidenceGood) {
		return colorGreen
	}
	return colorYellow
}

func modeColor(m string) string {
	switch m {
	case "degraded":
		return colorYellow
	case "disabled":
		return colorRed
	}
	return colorGreen
}

// Write outputs a single colorized sync record.
func (w *ColorStdoutWriter) Write(row SyncRow) error {
	_, err := fmt.Fprintf(w.out, "%s[%s]%s %ssource=%s%s %skind=%s%s %soffset=%+.6fs%s %srtt=%.6fs%s %sconf=%s%s %smode=%s%s\n",
		colorGray, row.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"), colorReset,
		colorBlue, row.Source, colorReset,
		colorMagenta, row.Kind, colorReset,
		colorCyan, row.OffsetSeconds, colorReset,
		colorYellow, row.RTTSeconds, colorReset,
		confidenceColor(row.Confidence), row.Confidence, colorReset,
		modeColor(row.Mode), row.Mode, colorReset)
	return err
}

// WriteBatch outputs multiple sync records.
func (w *ColorStdoutWriter) WriteBatch(rows []SyncRow) error {
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}
