package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chronosync/internal/authority"
)

type stubStrategy struct {
	res *authority.SyncResult
	err error
}

func (s *stubStrategy) Name() string { return "stub" }

func (s *stubStrategy) Attempt(ctx context.Context) (*authority.SyncResult, error) {
	return s.res, s.err
}

func newTestServer(s authority.Strategy) (*Server, *authority.Authority) {
	a := authority.New([]authority.Strategy{s}, authority.WithMaxFailures(1), authority.WithStrict(true))
	return NewServer(a), a
}

func TestHandleMetrics(t *testing.T) {
	srv, a := newTestServer(&stubStrategy{res: &authority.SyncResult{
		Kind:       authority.KindNetwork,
		Source:     "ntp.example.org",
		Offset:     10 * time.Millisecond,
		Confidence: authority.ConfidenceGood,
	}})
	if _, err := a.ForceResync(context.Background()); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.handleMetrics(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var m authority.Metrics
	if err := json.NewDecoder(w.Body).Decode(&m); err != nil {
		t.Fatal(err)
	}
	if m.Successes != 1 || m.Mode != "normal" || m.LastSource != "ntp.example.org" {
		t.Errorf("metrics = %+v", m)
	}
}

func TestHandleStatus(t *testing.T) {
	srv, _ := newTestServer(&stubStrategy{res: &authority.SyncResult{
		Kind:       authority.KindNetwork,
		Source:     "ntp.example.org",
		Confidence: authority.ConfidenceGood,
	}})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	srv.handleStatus(w, req)

	var resp struct {
		Mode       string `json:"mode"`
		Confidence string `json:"confidence"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Mode != "normal" || resp.Confidence != "good" {
		t.Errorf("status = %+v", resp)
	}
}

func TestHandleResyncRequiresPost(t *testing.T) {
	srv, _ := newTestServer(&stubStrategy{err: errors.New("down")})
	req := httptest.NewRequest(http.MethodGet, "/resync", nil)
	w := httptest.NewRecorder()
	srv.handleResync(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestHandleResyncDisabled(t *testing.T) {
	srv, a := newTestServer(&stubStrategy{err: errors.New("down")})
	ctx := context.Background()
	a.ForceResync(ctx) // degrade
	a.ForceResync(ctx) // disable

	req := httptest.NewRequest(http.MethodPost, "/resync", nil)
	w := httptest.NewRecorder()
	srv.handleResync(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestHandleResetReopens(t *testing.T) {
	srv, a := newTestServer(&stubStrategy{err: errors.New("down")})
	ctx := context.Background()
	a.ForceResync(ctx)
	a.ForceResync(ctx)
	if a.Mode() != authority.ModeDisabled {
		t.Fatalf("mode = %v, want disabled", a.Mode())
	}

	req := httptest.NewRequest(http.MethodPost, "/reset", nil)
	w := httptest.NewRecorder()
	srv.handleReset(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if a.Mode() != authority.ModeNormal {
		t.Errorf("mode = %v, want normal after reset", a.Mode())
	}
}
