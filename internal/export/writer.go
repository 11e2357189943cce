// Package export streams sync-history records to configurable sinks so
// collaborators can stamp and audit generated metadata.
package export

import (
	"time"

	"github.com/google/uuid"

	"chronosync/internal/authority"
)

// SyncRow is one exported synchronization record.
type SyncRow struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	Source        string    `json:"source"`
	OffsetSeconds float64   `json:"offset_seconds"`
	RTTSeconds    float64   `json:"rtt_seconds"`
	Confidence    string    `json:"confidence"`
	Mode          string    `json:"mode"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewRow converts a sync result into an exportable record.
func NewRow(res *authority.SyncResult, mode authority.Mode) SyncRow {
	return SyncRow{
		ID:            uuid.New().String(),
		Kind:          string(res.Kind),
		Source:        res.Source,
		OffsetSeconds: res.Offset.Seconds(),
		RTTSeconds:    res.RTT.Seconds(),
		Confidence:    string(res.Confidence),
		Mode:          mode.String(),
		Timestamp:     res.Time.UTC(),
	}
}

// Writer is an interface to support different sync-record sinks.
type Writer interface {
	Write(SyncRow) error
}

// Optional: writers can also support batch mode
type batchWriter interface {
	WriteBatch([]SyncRow) error
}
