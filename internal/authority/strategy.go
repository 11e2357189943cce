package authority

import (
	"context"
	"time"

	"chronosync/internal/clock"
	"chronosync/internal/fshint"
	"chronosync/internal/probe"
)

// SourceKind classifies where an authoritative reading came from.
type SourceKind string

const (
	KindNetwork     SourceKind = "network"
	KindSystemClock SourceKind = "system_clock"
	KindFilesystem  SourceKind = "filesystem"
)

// Confidence grades a sync result.
type Confidence string

const (
	ConfidenceGood     Confidence = "good"
	ConfidenceDegraded Confidence = "degraded"
)

// SyncResult is the outcome of one successful synchronization.
type SyncResult struct {
	Offset     time.Duration // remote minus local; zero for non-network kinds
	RTT        time.Duration
	Kind       SourceKind
	Source     string // host or path that supplied the reading
	Time       time.Time
	Confidence Confidence
}

// Strategy is one tier of the fallback chain. Tiers are tried in order;
// the first success wins.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context) (*SyncResult, error)
}

// NetworkStrategy queries the configured servers through the probe engine.
type NetworkStrategy struct {
	Engine  *probe.Engine
	Servers []probe.Server
}

func (s *NetworkStrategy) Name() string { return "network" }

// Attempt runs the parallel query fan-out and grades the winner Good.
func (s *NetworkStrategy) Attempt(ctx context.Context) (*SyncResult, error) {
	res, err := s.Engine.QueryBest(ctx, s.Servers)
	if err != nil {
		return nil, err
	}
	return &SyncResult{
		Offset:     res.Offset,
		RTT:        res.RTT,
		Kind:       KindNetwork,
		Source:     res.Server.Host,
		Time:       res.Time,
		Confidence: ConfidenceGood,
	}, nil
}

// FilesystemStrategy derives a floor for the current time from trusted
// local paths. Its results are always Degraded: a modification time proves
// the clock cannot be earlier, nothing more.
type FilesystemStrategy struct {
	Scanner  *fshint.Scanner
	Roots    []string
	MaxDepth int
	MaxFiles int
	Clock    clock.Clock
}

func (s *FilesystemStrategy) Name() string { return "filesystem" }

func (s *FilesystemStrategy) Attempt(ctx context.Context) (*SyncResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hint, err := s.Scanner.FindTimeHint(s.Roots, s.MaxDepth, s.MaxFiles)
	if err != nil {
		return nil, err
	}
	cl := s.Clock
	if cl == nil {
		cl = clock.RealClock{}
	}
	now := cl.Now()
	res := &SyncResult{
		Kind:       KindFilesystem,
		Source:     s.Roots[0],
		Time:       now,
		Confidence: ConfidenceDegraded,
	}
	// Only correct the local clock when it sits behind the hint; a recent
	// mtime proves the true time is at or past it.
	if hint.After(now) {
		res.Offset = hint.Sub(now)
		res.Time = hint
	}
	return res, nil
}
