// Package dnscache caches hostname resolutions with a TTL and an LRU
// capacity bound so concurrent query fan-out does not hammer the resolver.
package dnscache

import (
	"container/list"
	"context"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"chronosync/internal/logging"
)

// DefaultTTL is how long a resolution stays valid when no TTL is given.
const DefaultTTL = 30 * time.Second

// DefaultCapacity bounds the number of cached hostnames.
const DefaultCapacity = 64

// Lookuper resolves hostnames to addresses. *net.Resolver satisfies it.
type Lookuper interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// ResolutionError reports a failed hostname resolution.
type ResolutionError struct {
	Host string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving %s: %v", e.Host, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

type entry struct {
	host       string
	addrs      []netip.Addr
	resolvedAt time.Time // monotonic reading; staleness never depends on wall adjustments
	elem       *list.Element
}

// flight tracks one in-progress resolution so concurrent callers for the
// same hostname wait for it instead of launching their own.
type flight struct {
	done  chan struct{}
	addrs []netip.Addr
	err   error
}

// Cache is a TTL- and capacity-bounded resolution cache. It is safe for
// concurrent use; resolution for a given hostname is serialized so only one
// lookup runs per host per refresh window.
type Cache struct {
	lookuper Lookuper
	ttl      time.Duration
	capacity int

	mu       sync.Mutex
	entries  map[string]*entry
	order    *list.List // front = most recently used
	inflight map[string]*flight
	failLog  map[string]time.Time
	hits     uint64
	misses   uint64

	now func() time.Time // test seam
}

// New builds a cache over lookuper. Zero ttl or capacity select the defaults.
func New(lookuper Lookuper, ttl time.Duration, capacity int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		lookuper: lookuper,
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[string]*entry),
		order:    list.New(),
		inflight: make(map[string]*flight),
		failLog:  make(map[string]time.Time),
		now:      time.Now,
	}
}

// Resolve returns the addresses for host, from cache when a fresh entry
// exists (zero I/O) and via the lookuper otherwise. Lookup failures return a
// *ResolutionError and are logged at most once per TTL window per host.
func (c *Cache) Resolve(ctx context.Context, host string) ([]netip.Addr, error) {
	c.mu.Lock()
	if e, ok := c.entries[host]; ok {
		if c.now().Sub(e.resolvedAt) < c.ttl {
			c.order.MoveToFront(e.elem)
			c.hits++
			addrs := e.addrs
			c.mu.Unlock()
			return addrs, nil
		}
		c.evictLocked(e)
	}
	c.misses++

	if fl, ok := c.inflight[host]; ok {
		c.mu.Unlock()
		select {
		case <-fl.done:
			return fl.addrs, fl.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	fl := &flight{done: make(chan struct{})}
	c.inflight[host] = fl
	c.mu.Unlock()

	addrs, err := c.lookuper.LookupNetIP(ctx, "ip", host)

	c.mu.Lock()
	delete(c.inflight, host)
	if err != nil {
		fl.err = &ResolutionError{Host: host, Err: err}
		c.maybeLogFailureLocked(ctx, host, err)
		c.mu.Unlock()
		close(fl.done)
		return nil, fl.err
	}
	fl.addrs = addrs
	c.storeLocked(host, addrs)
	c.mu.Unlock()
	close(fl.done)
	return addrs, nil
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// HitRate returns the fraction of lookups served from cache.
func (c *Cache) HitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}

// Len returns the number of cached hostnames.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) storeLocked(host string, addrs []netip.Addr) {
	e := &entry{host: host, addrs: addrs, resolvedAt: c.now()}
	e.elem = c.order.PushFront(e)
	c.entries[host] = e
	for len(c.entries) > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.evictLocked(oldest.Value.(*entry))
	}
}

func (c *Cache) evictLocked(e *entry) {
	c.order.Remove(e.elem)
	delete(c.entries, e.host)
}

func (c *Cache) maybeLogFailureLocked(ctx context.Context, host string, err error) {
	now := c.now()
	if last, ok := c.failLog[host]; ok && now.Sub(last) < c.ttl {
		return
	}
	c.failLog[host] = now
	logging.FromContext(ctx).Warn("hostname resolution failed",
		"host", host, "error", err)
}
