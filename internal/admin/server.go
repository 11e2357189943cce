// Package admin exposes the subsystem's status and controls over HTTP:
// a small status page plus JSON endpoints for collaborators.
package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"chronosync/internal/authority"
)

//go:embed templates/index.html
var content embed.FS

// Server serves the status page and the JSON control endpoints.
type Server struct {
	Authority *authority.Authority
	tpl       *template.Template
}

// NewServer wraps an authority.
func NewServer(a *authority.Authority) *Server {
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	return &Server{Authority: a, tpl: tpl}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/resync", s.handleResync)
	mux.HandleFunc("/reset", s.handleReset)
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.routes()}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	m := s.Authority.Metrics()
	data := struct {
		Metrics    authority.Metrics
		HitRatePct float64
	}{Metrics: m, HitRatePct: m.CacheHitRate * 100}
	s.tpl.Execute(w, data)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Authority.Metrics())
}

// statusResponse is the /status JSON shape.
type statusResponse struct {
	Mode       string    `json:"mode"`
	Time       time.Time `json:"time"`
	Confidence string    `json:"confidence"`
	Kind       string    `json:"kind"`
	Error      string    `json:"error,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Mode: s.Authority.Mode().String()}
	st, err := s.Authority.Now(r.Context())
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Time = st.Time
		resp.Confidence = string(st.Confidence)
		resp.Kind = string(st.Kind)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleResync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	res, err := s.Authority.ForceResync(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, authority.ErrDisabled) {
			status = http.StatusServiceUnavailable
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	json.NewEncoder(w).Encode(res)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	s.Authority.Reset()
	w.WriteHeader(http.StatusNoContent)
}
