// Package authority supplies a best-effort accurate, internally consistent
// timestamp even when the local clock is wrong or time sources are partially
// unavailable. It wraps the query engine and the filesystem fallback in a
// self-disabling state machine so a broken environment costs nothing after
// the failure budget is spent.
package authority

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"chronosync/internal/clock"
	"chronosync/internal/config"
	"chronosync/internal/dnscache"
	"chronosync/internal/fshint"
	"chronosync/internal/logging"
	"chronosync/internal/probe"
)

// ErrDisabled is returned by strict-mode calls once the subsystem has
// disabled itself. No I/O is attempted while disabled.
var ErrDisabled = errors.New("time authority disabled after repeated failures")

// Mode is the controller's operating mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeDegraded
	ModeDisabled
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeDegraded:
		return "degraded"
	case ModeDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// DefaultMaxFailures is the consecutive-failure budget before degrading.
const DefaultMaxFailures = 5

// DefaultFreshness is how long a sync result keeps serving Now() calls
// before a new sync is triggered.
const DefaultFreshness = 5 * time.Minute

// Stamp is an authoritative timestamp plus how much to trust it.
type Stamp struct {
	Time       time.Time
	Confidence Confidence
	Kind       SourceKind
}

// Metrics is the counters snapshot exposed to collaborators.
type Metrics struct {
	Attempts            uint64  `json:"attempts"`
	Successes           uint64  `json:"successes"`
	ConsecutiveFailures int     `json:"consecutive_failures"`
	CacheHitRate        float64 `json:"cache_hit_rate"`
	Mode                string  `json:"mode"`
	LastSource          string  `json:"last_source,omitempty"`
	LastOffsetSeconds   float64 `json:"last_offset_seconds"`
}

// Authority owns the degradation state machine and the strategy chain.
type Authority struct {
	strategies  []Strategy
	maxFailures int
	strict      bool
	freshness   time.Duration
	clock       clock.Clock
	cache       *dnscache.Cache // may be nil; only used for hit-rate metrics

	// syncMu serializes top-level sync attempts so concurrent callers do
	// not fan out twice for one stale window. It is never held while mu is
	// needed only for quick state reads.
	syncMu sync.Mutex

	mu         sync.Mutex
	failures   int
	mode       Mode
	attempts   uint64
	successes  uint64
	lastSync   *SyncResult
	lastSyncAt time.Time // monotonic reading
}

// Option tweaks an Authority.
type Option func(*Authority)

// WithMaxFailures sets the consecutive-failure budget.
func WithMaxFailures(n int) Option {
	return func(a *Authority) { a.maxFailures = n }
}

// WithStrict makes failures surface as typed errors instead of fallbacks.
func WithStrict(strict bool) Option {
	return func(a *Authority) { a.strict = strict }
}

// WithFreshness sets how long a sync result keeps serving Now().
func WithFreshness(d time.Duration) Option {
	return func(a *Authority) { a.freshness = d }
}

// WithClock injects a clock (tests).
func WithClock(c clock.Clock) Option {
	return func(a *Authority) { a.clock = c }
}

// WithCache wires the resolution cache whose hit rate Metrics reports.
func WithCache(c *dnscache.Cache) Option {
	return func(a *Authority) { a.cache = c }
}

// New builds an Authority over an ordered strategy chain; strategies are
// tried first to last, and the first success wins.
func New(strategies []Strategy, opts ...Option) *Authority {
	a := &Authority{
		strategies:  strategies,
		maxFailures: DefaultMaxFailures,
		freshness:   DefaultFreshness,
		clock:       clock.RealClock{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.maxFailures <= 0 {
		a.maxFailures = DefaultMaxFailures
	}
	return a
}

// FromConfig wires the full subsystem: resolution cache, query engine,
// network strategy, then filesystem fallback.
func FromConfig(cfg *config.Config) *Authority {
	cache := dnscache.New(net.DefaultResolver, cfg.DNS.TTL.Std(), cfg.DNS.Capacity)

	var engineOpts []probe.Option
	if cfg.AttemptTimeout > 0 && cfg.OverallTimeout > 0 {
		engineOpts = append(engineOpts, probe.WithTimeouts(cfg.AttemptTimeout.Std(), cfg.OverallTimeout.Std()))
	}
	if cfg.GoodEnoughRTT > 0 {
		engineOpts = append(engineOpts, probe.WithGoodEnoughRTT(cfg.GoodEnoughRTT.Std()))
	}
	if cfg.MaxRTT > 0 {
		engineOpts = append(engineOpts, probe.WithMaxRTT(cfg.MaxRTT.Std()))
	}
	if cfg.Workers > 0 {
		engineOpts = append(engineOpts, probe.WithWorkers(cfg.Workers))
	}
	if cfg.AttemptsPerAddress > 0 {
		engineOpts = append(engineOpts, probe.WithAttempts(cfg.AttemptsPerAddress))
	}
	engine := probe.NewEngine(cache, engineOpts...)

	var strategies []Strategy
	if len(cfg.Sources) > 0 {
		servers := make([]probe.Server, len(cfg.Sources))
		for i, s := range cfg.Sources {
			servers[i] = probe.Server{Host: s.Host, Port: s.Port, Priority: s.Priority}
		}
		strategies = append(strategies, &NetworkStrategy{Engine: engine, Servers: servers})
	}
	if len(cfg.Fallback.Roots) > 0 {
		strategies = append(strategies, &FilesystemStrategy{
			Scanner:  fshint.NewScanner(cfg.Fallback.Markers),
			Roots:    cfg.Fallback.Roots,
			MaxDepth: cfg.Fallback.MaxDepth,
			MaxFiles: cfg.Fallback.MaxFiles,
		})
	}

	opts := []Option{
		WithMaxFailures(cfg.MaxFailures),
		WithStrict(cfg.Strict),
		WithCache(cache),
	}
	if cfg.FreshnessWindow > 0 {
		opts = append(opts, WithFreshness(cfg.FreshnessWindow.Std()))
	}
	return New(strategies, opts...)
}

// Now returns the authoritative time. A fresh sync result is applied to the
// local clock without I/O; a stale one triggers a resync. Once disabled, the
// call costs nothing: tolerant mode falls back to the system clock flagged
// Degraded, strict mode returns ErrDisabled.
func (a *Authority) Now(ctx context.Context) (Stamp, error) {
	a.mu.Lock()
	if a.mode == ModeDisabled {
		a.mu.Unlock()
		return a.fallback(ErrDisabled)
	}
	if a.lastSync != nil && a.clock.Since(a.lastSyncAt) < a.freshness {
		st := Stamp{
			Time:       a.clock.Now().Add(a.lastSync.Offset),
			Confidence: a.lastSync.Confidence,
			Kind:       a.lastSync.Kind,
		}
		a.mu.Unlock()
		return st, nil
	}
	a.mu.Unlock()

	res, err := a.sync(ctx, false)
	if err != nil {
		return a.fallback(err)
	}
	return Stamp{
		Time:       a.clock.Now().Add(res.Offset),
		Confidence: res.Confidence,
		Kind:       res.Kind,
	}, nil
}

// ForceResync runs the strategy chain regardless of freshness.
func (a *Authority) ForceResync(ctx context.Context) (*SyncResult, error) {
	a.mu.Lock()
	disabled := a.mode == ModeDisabled
	a.mu.Unlock()
	if disabled {
		return nil, ErrDisabled
	}
	return a.sync(ctx, true)
}

// sync runs the chain under the coarse sync lock. When force is false a
// concurrent sync that already refreshed the state satisfies the call.
func (a *Authority) sync(ctx context.Context, force bool) (*SyncResult, error) {
	a.syncMu.Lock()
	defer a.syncMu.Unlock()

	a.mu.Lock()
	if a.mode == ModeDisabled {
		a.mu.Unlock()
		return nil, ErrDisabled
	}
	if !force && a.lastSync != nil && a.clock.Since(a.lastSyncAt) < a.freshness {
		res := a.lastSync
		a.mu.Unlock()
		return res, nil
	}
	a.attempts++
	a.mu.Unlock()

	log := logging.FromContext(ctx)
	var lastErr error
	for _, s := range a.strategies {
		res, err := s.Attempt(ctx)
		if err != nil {
			lastErr = err
			log.Warn("time source tier failed", "tier", s.Name(), "error", err)
			continue
		}
		a.recordSuccess(ctx, res)
		return res, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no time source strategies configured")
	}
	a.recordFailure(ctx, lastErr)
	return nil, fmt.Errorf("time sync failed: %w", lastErr)
}

// fallback resolves a failed or disabled call according to strictness.
func (a *Authority) fallback(err error) (Stamp, error) {
	if a.strict {
		return Stamp{}, err
	}
	return Stamp{
		Time:       a.clock.Now(),
		Confidence: ConfidenceDegraded,
		Kind:       KindSystemClock,
	}, nil
}

func (a *Authority) recordSuccess(ctx context.Context, res *SyncResult) {
	a.mu.Lock()
	a.successes++
	a.failures = 0
	if a.mode == ModeDegraded {
		a.mode = ModeNormal
		logging.FromContext(ctx).Info("time authority recovered", "mode", a.mode.String())
	}
	a.lastSync = res
	a.lastSyncAt = a.clock.Now()
	a.mu.Unlock()
}

func (a *Authority) recordFailure(ctx context.Context, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures++
	log := logging.FromContext(ctx)
	switch {
	case a.mode == ModeNormal && a.failures >= a.maxFailures:
		a.mode = ModeDegraded
		log.Warn("time authority degraded",
			"consecutive_failures", a.failures, "error", err)
	case a.mode == ModeDegraded:
		a.mode = ModeDisabled
		log.Error("time authority disabled; further calls return fallbacks without I/O",
			"consecutive_failures", a.failures, "error", err)
	}
}

// Reset re-opens a disabled authority and zeroes the failure counter. There
// is no automatic cooldown; recovery is an explicit operator action.
func (a *Authority) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures = 0
	a.mode = ModeNormal
}

// Mode returns the current operating mode.
func (a *Authority) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// LastSync returns the most recent successful sync result, if any.
func (a *Authority) LastSync() *SyncResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastSync
}

// Metrics returns a counters snapshot.
func (a *Authority) Metrics() Metrics {
	a.mu.Lock()
	defer a.mu.Unlock()
	m := Metrics{
		Attempts:            a.attempts,
		Successes:           a.successes,
		ConsecutiveFailures: a.failures,
		Mode:                a.mode.String(),
	}
	if a.cache != nil {
		m.CacheHitRate = a.cache.HitRate()
	}
	if a.lastSync != nil {
		m.LastSource = a.lastSync.Source
		m.LastOffsetSeconds = a.lastSync.Offset.Seconds()
	}
	return m
}

// Run resyncs on a fixed interval until ctx is cancelled, reporting each
// successful sync through onSync (which may be nil). The first sync runs
// immediately.
func (a *Authority) Run(ctx context.Context, interval time.Duration, onSync func(*SyncResult)) {
	log := logging.FromContext(ctx)
	log.Info("time authority starting", "interval", interval)

	resync := func() {
		res, err := a.ForceResync(ctx)
		if err != nil {
			if errors.Is(err, ErrDisabled) {
				log.Warn("periodic resync skipped", "mode", a.Mode().String())
				return
			}
			log.Warn("periodic resync failed", "error", err)
			return
		}
		if onSync != nil {
			onSync(res)
		}
	}

	resync()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			resync()
		case <-ctx.Done():
			log.Info("time authority stopping")
			return
		}
	}
}
