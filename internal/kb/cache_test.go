package kb

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/supportfoundry/zendesk-mcp/internal/zendesk"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	kb    zendesk.KnowledgeBase
	err   error
}

func (f *fakeFetcher) FetchKnowledgeBase(ctx context.Context) (zendesk.KnowledgeBase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.kb, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestCache(f *fakeFetcher) (*Cache, *time.Time) {
	c := New(f, time.Hour)
	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }
	c.newID = func() string { return "snap-1" }
	return c, &current
}

func TestGetMemoizesWithinTTL(t *testing.T) {
	f := &fakeFetcher{kb: zendesk.KnowledgeBase{
		"Billing": {SectionID: 1, Articles: []zendesk.Article{{ID: 10, Title: "How to pay"}}},
	}}
	c, _ := newTestCache(f)

	first, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	second, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if f.callCount() != 1 {
		t.Fatalf("fetch calls = %d, want 1", f.callCount())
	}
	if first != second {
		t.Fatal("expected the same snapshot within TTL")
	}
	if first.ID != "snap-1" {
		t.Fatalf("snapshot id = %q", first.ID)
	}
	if first.TotalArticles() != 1 {
		t.Fatalf("total articles = %d", first.TotalArticles())
	}
}

func TestGetRefreshesAfterTTL(t *testing.T) {
	f := &fakeFetcher{kb: zendesk.KnowledgeBase{}}
	c, clock := newTestCache(f)

	if _, err := c.Get(context.Background()); err != nil {
		t.Fatalf("Get: %v", err)
	}
	*clock = clock.Add(61 * time.Minute)
	if _, err := c.Get(context.Background()); err != nil {
		t.Fatalf("Get: %v", err)
	}

	if f.callCount() != 2 {
		t.Fatalf("fetch calls = %d, want 2", f.callCount())
	}
}

func TestGetPropagatesFetchError(t *testing.T) {
	f := &fakeFetcher{err: errors.New("boom")}
	c, _ := newTestCache(f)

	if _, err := c.Get(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
	// A failed fetch leaves the cache cold; the next call retries.
	f.mu.Lock()
	f.err = nil
	f.kb = zendesk.KnowledgeBase{}
	f.mu.Unlock()

	if _, err := c.Get(context.Background()); err != nil {
		t.Fatalf("Get after recovery: %v", err)
	}
}

func TestConcurrentGetsShareOneFetch(t *testing.T) {
	f := &fakeFetcher{kb: zendesk.KnowledgeBase{}}
	c := New(f, time.Hour)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Get(context.Background()); err != nil {
				t.Errorf("Get: %v", err)
			}
		}()
	}
	wg.Wait()

	if f.callCount() != 1 {
		t.Fatalf("fetch calls = %d, want 1", f.callCount())
	}
}
