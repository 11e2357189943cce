package probe

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"golang.org/x/sync/errgroup"

	"chronosync/internal/dnscache"
	"chronosync/internal/logging"
)

// Defaults applied by NewEngine when an Option leaves a knob unset.
const (
	DefaultAttemptTimeout = 2 * time.Second
	DefaultOverallTimeout = 8 * time.Second
	DefaultGoodEnoughRTT  = 50 * time.Millisecond
	DefaultMaxRTT         = 2 * time.Second
	DefaultWorkers        = 8
	DefaultAttempts       = 2
)

// NoResponseError means every attempt across every source failed.
type NoResponseError struct {
	Attempts int
	Failed   int
	Last     error
}

func (e *NoResponseError) Error() string {
	return fmt.Sprintf("no usable response: %d of %d attempts failed (last: %v)", e.Failed, e.Attempts, e.Last)
}

func (e *NoResponseError) Unwrap() error { return e.Last }

// Engine fans concurrent queries out across candidate servers.
type Engine struct {
	cache    *dnscache.Cache
	dial     dialFunc
	workers  int
	attempts int // attempts per resolved address

	attemptTimeout time.Duration
	overallTimeout time.Duration
	goodEnoughRTT  time.Duration
	maxRTT         time.Duration
}

// Option tweaks an Engine.
type Option func(*Engine)

// WithTimeouts sets the per-attempt and overall deadlines.
func WithTimeouts(attempt, overall time.Duration) Option {
	return func(e *Engine) {
		e.attemptTimeout = attempt
		e.overallTimeout = overall
	}
}

// WithGoodEnoughRTT sets the early-termination threshold.
func WithGoodEnoughRTT(d time.Duration) Option {
	return func(e *Engine) { e.goodEnoughRTT = d }
}

// WithMaxRTT sets the sanity bound above which a result is discarded.
func WithMaxRTT(d time.Duration) Option {
	return func(e *Engine) { e.maxRTT = d }
}

// WithWorkers bounds the concurrent exchange count.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithAttempts sets how many times each resolved address is tried.
func WithAttempts(n int) Option {
	return func(e *Engine) { e.attempts = n }
}

// withDial replaces the network dialer (tests).
func withDial(d dialFunc) Option {
	return func(e *Engine) { e.dial = d }
}

// NewEngine builds an engine resolving hostnames through cache.
func NewEngine(cache *dnscache.Cache, opts ...Option) *Engine {
	e := &Engine{
		cache:          cache,
		dial:           udpDial,
		workers:        DefaultWorkers,
		attempts:       DefaultAttempts,
		attemptTimeout: DefaultAttemptTimeout,
		overallTimeout: DefaultOverallTimeout,
		goodEnoughRTT:  DefaultGoodEnoughRTT,
		maxRTT:         DefaultMaxRTT,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers <= 0 {
		e.workers = DefaultWorkers
	}
	if e.attempts <= 0 {
		e.attempts = 1
	}
	return e
}

type task struct {
	srv  Server
	addr netip.Addr
}

type outcome struct {
	res *Result
	err error
}

// QueryBest queries every {server, address, attempt} combination on a
// bounded worker pool, consuming completions as they arrive. The first
// result with a round trip below the good-enough threshold cancels the
// remaining work and wins outright; otherwise the lowest round trip wins,
// ties broken by server priority. Total failure yields a *NoResponseError.
func (e *Engine) QueryBest(ctx context.Context, servers []Server) (*Result, error) {
	log := logging.FromContext(ctx)

	ctx, cancel := context.WithTimeout(ctx, e.overallTimeout)
	defer cancel()

	tasks := e.expand(ctx, servers)
	if len(tasks) == 0 {
		return nil, &NoResponseError{Last: fmt.Errorf("no resolvable sources")}
	}

	results := make(chan outcome, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	go func() {
		for _, tk := range tasks {
			tk := tk
			// Go blocks while the pool is saturated, bounding concurrency.
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					results <- outcome{err: err}
					return nil
				}
				res, err := e.exchange(gctx, tk.srv, tk.addr)
				results <- outcome{res: res, err: err}
				return nil
			})
		}
		g.Wait()
		close(results)
	}()

	var best *Result
	var lastErr error
	failed := 0
	for out := range results {
		if out.err != nil {
			failed++
			if gctx.Err() == nil || lastErr == nil {
				lastErr = out.err
			}
			log.Debug("attempt failed", "error", out.err)
			continue
		}
		if out.res.RTT <= e.goodEnoughRTT {
			// Good enough; stop the outstanding work and take it. The
			// first result under the threshold wins outright, so a
			// completion already in flight when we cancelled must not
			// displace it.
			if best == nil || best.RTT > e.goodEnoughRTT {
				best = out.res
				cancel()
			}
			continue
		}
		if better(out.res, best) {
			best = out.res
		}
	}

	if best == nil {
		return nil, &NoResponseError{Attempts: len(tasks), Failed: failed, Last: lastErr}
	}
	log.Debug("selected time source",
		"host", best.Server.Host, "addr", best.Addr.String(),
		"rtt", best.RTT, "offset", best.Offset)
	return best, nil
}

// expand resolves every server and builds the {server, address, attempt}
// cross-product. Resolution failures skip the server; the cache rate-limits
// their logging.
func (e *Engine) expand(ctx context.Context, servers []Server) []task {
	var tasks []task
	for _, srv := range servers {
		addrs, err := e.cache.Resolve(ctx, srv.Host)
		if err != nil {
			continue
		}
		for _, a := range addrs {
			for i := 0; i < e.attempts; i++ {
				tasks = append(tasks, task{srv: srv, addr: a})
			}
		}
	}
	return tasks
}

// better reports whether a beats b: lower RTT first, then higher priority
// (smaller Priority value).
func better(a, b *Result) bool {
	if b == nil {
		return true
	}
	if a.RTT != b.RTT {
		return a.RTT < b.RTT
	}
	return a.Server.Priority < b.Server.Priority
}
