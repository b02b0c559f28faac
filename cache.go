package newsdesk

import (
	"context"
	"sync"
	"time"

	"github.com/eringen/newsdesk/generate"
)

// TopicLoader fetches a fresh topic list for a category.
type TopicLoader func(ctx context.Context, cat generate.TopicCategory) ([]string, error)

// TopicCache is an in-memory cache of trending-topic lists per category
// with TTL. Failed loads are not cached.
type TopicCache struct {
	mu      sync.RWMutex
	entries map[generate.TopicCategory]topicEntry
	ttl     time.Duration
	load    TopicLoader
}

type topicEntry struct {
	topics  []string
	fetched time.Time
}

// NewTopicCache creates a TopicCache backed by load.
func NewTopicCache(load TopicLoader, ttl time.Duration) *TopicCache {
	return &TopicCache{
		entries: make(map[generate.TopicCategory]topicEntry),
		ttl:     ttl,
		load:    load,
	}
}

func (c *TopicCache) valid(e topicEntry, ok bool) bool {
	return ok && e.topics != nil && time.Since(e.fetched) < c.ttl
}

// Invalidate clears every category so the next read triggers a fresh load.
func (c *TopicCache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[generate.TopicCategory]topicEntry)
	c.mu.Unlock()
}

// Topics returns the cached list for cat, loading it when missing or
// stale. The returned slice must not be modified.
func (c *TopicCache) Topics(ctx context.Context, cat generate.TopicCategory) ([]string, error) {
	c.mu.RLock()
	e, ok := c.entries[cat]
	c.mu.RUnlock()
	if c.valid(e, ok) {
		return e.topics, nil
	}

	// The load runs without the lock so one slow category does not
	// block the others. Concurrent misses may load twice; the last
	// write wins.
	topics, err := c.load(ctx, cat)
	if err != nil {
		return nil, err
	}
	if topics == nil {
		topics = []string{}
	}
	c.mu.Lock()
	c.entries[cat] = topicEntry{topics: topics, fetched: time.Now()}
	c.mu.Unlock()
	return topics, nil
}

// Refresh drops cat and loads it again.
func (c *TopicCache) Refresh(ctx context.Context, cat generate.TopicCategory) ([]string, error) {
	c.mu.Lock()
	delete(c.entries, cat)
	c.mu.Unlock()
	return c.Topics(ctx, cat)
}
