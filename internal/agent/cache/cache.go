// Package cache is the bounded, TTL-aware result cache shared by agents
// across concurrent runs.
package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"

	"github.com/Chative-mealplan/server/internal/agent/model"
	"github.com/Chative-mealplan/server/pkg/metrics"
)

type Namespace string

const (
	NamespaceRAG   Namespace = "rag"
	NamespaceFacts Namespace = "facts"
	NamespaceUI    Namespace = "ui"
)

const (
	DefaultMaxEntries = 100
	DefaultTTL        = time.Hour
)

// NamespaceConfig bounds one namespace.
type NamespaceConfig struct {
	MaxEntries int
	TTL        time.Duration
}

// Option customises a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// Cache holds independent namespaces. Each namespace has its own lock, so
// traffic on one never blocks another.
type Cache struct {
	spaces map[Namespace]*store
	now    func() time.Time
}

type entry struct {
	key       string
	value     any
	createdAt time.Time
}

type store struct {
	mu      sync.Mutex
	max     int
	ttl     time.Duration
	order   *list.List // insertion order, oldest at front
	entries map[string]*list.Element
}

// New builds a cache with the given namespaces. The namespace set is fixed
// after construction; lookups in an unknown namespace always miss.
func New(spaces map[Namespace]NamespaceConfig, opts ...Option) *Cache {
	c := &Cache{
		spaces: make(map[Namespace]*store, len(spaces)),
		now:    time.Now,
	}
	for ns, cfg := range spaces {
		if cfg.MaxEntries <= 0 {
			cfg.MaxEntries = DefaultMaxEntries
		}
		if cfg.TTL <= 0 {
			cfg.TTL = DefaultTTL
		}
		c.spaces[ns] = &store{
			max:     cfg.MaxEntries,
			ttl:     cfg.TTL,
			order:   list.New(),
			entries: make(map[string]*list.Element),
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig creates the three namespaces used by the pipeline.
func NewFromConfig(cfg model.CacheConfig, opts ...Option) *Cache {
	return New(map[Namespace]NamespaceConfig{
		NamespaceRAG:   {MaxEntries: cfg.RAGMaxEntries, TTL: cfg.TTL},
		NamespaceFacts: {MaxEntries: cfg.FactsMaxEntries, TTL: cfg.TTL},
		NamespaceUI:    {MaxEntries: cfg.UIMaxEntries, TTL: cfg.TTL},
	}, opts...)
}

// Key derives a cache key from free-form input.
func Key(ns Namespace, input string) string {
	return string(ns) + ":" + strings.ToLower(strings.TrimSpace(input))
}

// Get returns the value stored under key if it is younger than the
// namespace TTL. Absent and stale both report false; a stale entry is
// removed on the way out.
func (c *Cache) Get(ns Namespace, key string) (any, bool) {
	s, ok := c.spaces[ns]
	if !ok {
		return nil, false
	}
	return c.get(ns, s, key, s.ttl)
}

// GetFresh is Get with a caller-supplied maximum age.
func (c *Cache) GetFresh(ns Namespace, key string, maxAge time.Duration) (any, bool) {
	s, ok := c.spaces[ns]
	if !ok {
		return nil, false
	}
	return c.get(ns, s, key, maxAge)
}

func (c *Cache) get(ns Namespace, s *store, key string, maxAge time.Duration) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[key]
	if !ok {
		metrics.CacheLookups.WithLabelValues(string(ns), "miss").Inc()
		return nil, false
	}
	e := el.Value.(*entry)
	if c.now().Sub(e.createdAt) > maxAge {
		s.order.Remove(el)
		delete(s.entries, key)
		metrics.CacheLookups.WithLabelValues(string(ns), "stale").Inc()
		return nil, false
	}
	metrics.CacheLookups.WithLabelValues(string(ns), "hit").Inc()
	return e.value, true
}

// Set stores value under key. When the namespace is full the oldest
// inserted entry is evicted first; reads never change eviction order.
// Overwriting an existing key refreshes its value and age in place.
func (c *Cache) Set(ns Namespace, key string, value any) {
	s, ok := c.spaces[ns]
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := c.now()
	if el, ok := s.entries[key]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.createdAt = now
		return
	}
	for s.order.Len() >= s.max {
		oldest := s.order.Front()
		s.order.Remove(oldest)
		delete(s.entries, oldest.Value.(*entry).key)
	}
	s.entries[key] = s.order.PushBack(&entry{key: key, value: value, createdAt: now})
}

// Len returns the number of entries held in ns, stale ones included.
func (c *Cache) Len(ns Namespace) int {
	s, ok := c.spaces[ns]
	if !ok {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// GetAs is Get with a type assertion; a value of another type is a miss.
func GetAs[T any](c *Cache, ns Namespace, key string) (T, bool) {
	var zero T
	v, ok := c.Get(ns, key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
