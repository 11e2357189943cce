package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

type collectWriter struct{ rows []SyncRow }

func (c *collectWriter) Write(r SyncRow) error {
	c.rows = append(c.rows, r)
	return nil
}

func TestReplayLog(t *testing.T) {
	rows := []SyncRow{
		{ID: "a", Source: "time.example.org:123", Timestamp: time.Unix(0, 0)},
		{ID: "b", Source: "time.example.org:123", Timestamp: time.Unix(1, 0)},
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	cw := &collectWriter{}
	if err := ReplayLog(&buf, cw, 0); err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	if len(cw.rows) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(cw.rows))
	}
	for i, r := range rows {
		if cw.rows[i].ID != r.ID {
			t.Fatalf("row %d mismatch: %+v vs %+v", i, cw.rows[i], r)
		}
	}
}

func TestReplayLogTruncatedInput(t *testing.T) {
	cw := &collectWriter{}
	if err := ReplayLog(strings.NewReader(`{"id":"a"`), cw, 0); err == nil {
		t.Fatal("expected decode error for truncated input")
	}
}

func TestColorStdoutWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &ColorStdoutWriter{out: &buf}
	row := SyncRow{
		ID:            "a",
		Kind:          "network",
		Source:        "time.example.org:123",
		OffsetSeconds: 0.0025,
		RTTSeconds:    0.012,
		Confidence:    "good",
		Mode:          "normal",
		Timestamp:     time.Unix(0, 0).UTC(),
	}
	if err := w.Write(row); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"source=time.example.org:123", "conf=good", "mode=normal", colorGreen} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestModeColor(t *testing.T) {
	cases := map[string]string{
		"normal":   colorGreen,
		"degraded": colorYellow,
		"disabled": colorRed,
	}
	for mode, want := range cases {
		if got := modeColor(mode); got != want {
			t.Fatalf("modeColor(%q) = %q, want %q", mode, got, want)
		}
	}
}
