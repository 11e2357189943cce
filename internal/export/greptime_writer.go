package export

import (
	"context"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"chronosync/internal/logging"
)

// ingestClient is the slice of the ingester client this writer needs;
// narrow so tests can substitute a mock.
type ingestClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeWriter streams sync records into a GreptimeDB time-series table.
type GreptimeWriter struct {
	client ingestClient
	table  string
}

// NewGreptimeWriter connects to endpoint and targets the given table.
func NewGreptimeWriter(endpoint, database, tableName string) (*GreptimeWriter, error) {
	cfg := greptime.NewConfig(endpoint).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if tableName == "" {
		tableName = "time_sync_history"
	}
	return &GreptimeWriter{client: client, table: tableName}, nil
}

// Write inserts a single sync record.
func (w *GreptimeWriter) Write(row SyncRow) error {
	return w.WriteBatch([]SyncRow{row})
}

// WriteBatch inserts multiple sync records.
func (w *GreptimeWriter) WriteBatch(rows []SyncRow) error {
	if len(rows) == 0 {
		return nil
	}

	ctx := context.Background()

	tbl, err := table.New(w.table)
	if err != nil {
		return err
	}
	if err := tbl.AddTagColumn("source", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTagColumn("kind", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("sync_id", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("offset_seconds", types.FLOAT); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("rtt_seconds", types.FLOAT); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("confidence", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("mode", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MICROSECOND); err != nil {
		return err
	}

	for _, r := range rows {
		if err := tbl.AddRow(r.Source, r.Kind, r.ID, r.OffsetSeconds, r.RTTSeconds,
			r.Confidence, r.Mode, r.Timestamp); err != nil {
			return err
		}
	}

	if _, err := w.client.Write(ctx, tbl); err != nil {
		logging.FromContext(ctx).Error("greptime write failed", "error", err)
		return err
	}
	return nil
}
