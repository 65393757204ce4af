package report

import (
	"context"
	"sync"
	"time"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/metrics"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
)

// Generator produces reports.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Report, error)
}

// VersionSource reports the write generation of the backing store.
type VersionSource interface {
	Version(ctx context.Context) (int64, error)
}

type cacheEntry struct {
	expires time.Time
	report  *Report
	version int64
}

// Cache memoizes complete reports for a TTL. Partial reports are never
// cached. Invalidate drops everything and is wired to session writes made
// in this process; with a VersionSource, an entry is also dropped as soon
// as the store has been written by anyone else.
type Cache struct {
	next    Generator
	clock   models.Clock
	metrics *metrics.Metrics
	source  VersionSource
	entries map[string]cacheEntry
	ttl     time.Duration
	gen     uint64
	mu      sync.Mutex
}

// NewCache wraps next. A non-positive ttl disables caching.
func NewCache(next Generator, ttl time.Duration, clock models.Clock, m *metrics.Metrics) *Cache {
	if clock == nil {
		clock = models.RealClock{}
	}
	return &Cache{
		next:    next,
		clock:   clock,
		metrics: m,
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// WithVersion makes cached entries valid only while the store version is
// unchanged. It returns c.
func (c *Cache) WithVersion(source VersionSource) *Cache {
	c.source = source
	return c
}

// Generate returns a cached report or builds and stores a new one.
func (c *Cache) Generate(ctx context.Context, req Request) (*Report, error) {
	if c.ttl <= 0 {
		return c.next.Generate(ctx, req)
	}
	key := cacheKey(req)
	now := c.clock.Now()

	var version int64
	if c.source != nil {
		v, err := c.source.Version(ctx)
		if err != nil {
			c.metrics.ReportCache("bypass")
			return c.next.Generate(ctx, req)
		}
		version = v
	}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && now.Before(e.expires) && e.version == version {
		c.mu.Unlock()
		c.metrics.ReportCache("hit")
		return e.report, nil
	}
	gen := c.gen
	c.mu.Unlock()
	c.metrics.ReportCache("miss")

	r, err := c.next.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if !r.Partial() {
		c.mu.Lock()
		// An Invalidate while generating means r may predate the write.
		if c.gen == gen {
			c.entries[key] = cacheEntry{report: r, expires: now.Add(c.ttl), version: version}
		}
		c.mu.Unlock()
	}
	return r, nil
}

// Invalidate drops every cached report, including any being generated.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	clear(c.entries)
}

func cacheKey(req Request) string {
	t := req.Type
	if t == "" {
		t = TypeNormal
	}
	return string(t) + "|" + req.From.UTC().Format(time.RFC3339Nano) + "|" + req.To.UTC().Format(time.RFC3339Nano)
}
