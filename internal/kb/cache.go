// Package kb memoizes the help-center knowledge base.
//
// The knowledge base is the one endpoint worth shielding from repeat
// traffic: assembling it costs a request per section. The cache holds
// a single snapshot for an hour; concurrent readers during a refresh
// share the same fetch.
package kb

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/supportfoundry/zendesk-mcp/internal/zendesk"
)

// DefaultTTL is how long a snapshot stays fresh.
const DefaultTTL = time.Hour

// Fetcher loads the full knowledge base from Zendesk.
type Fetcher interface {
	FetchKnowledgeBase(ctx context.Context) (zendesk.KnowledgeBase, error)
}

// Snapshot is one cached copy of the knowledge base.
type Snapshot struct {
	ID        string
	FetchedAt time.Time
	Sections  zendesk.KnowledgeBase
}

// TotalArticles counts articles across all sections.
func (s *Snapshot) TotalArticles() int {
	total := 0
	for _, section := range s.Sections {
		total += len(section.Articles)
	}
	return total
}

// Cache is a time-boxed memoization of one fetch.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration

	mu       sync.Mutex
	snapshot *Snapshot

	now   func() time.Time
	newID func() string
}

// New builds a cache around the given fetcher.
func New(fetcher Fetcher, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// Get returns the current snapshot, refreshing it if it is missing or
// older than the TTL. The mutex is held across the fetch so a cold or
// expired cache triggers exactly one upstream walk.
func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot != nil && c.now().Sub(c.snapshot.FetchedAt) < c.ttl {
		return c.snapshot, nil
	}

	sections, err := c.fetcher.FetchKnowledgeBase(ctx)
	if err != nil {
		return nil, err
	}

	c.snapshot = &Snapshot{
		ID:        c.newID(),
		FetchedAt: c.now(),
		Sections:  sections,
	}
	return c.snapshot, nil
}
