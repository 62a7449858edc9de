package prompts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	promptrepo "github.com/yungbote/cvextract/internal/data/repos/prompt"
	types "github.com/yungbote/cvextract/internal/domain"
	"github.com/yungbote/cvextract/internal/pkg/pointers"
	"github.com/yungbote/cvextract/internal/platform/logger"
	"gorm.io/gorm"
)

type fakeStore struct {
	mu      sync.Mutex
	prompts []*types.Prompt
	err     error
	exact   int
	latest  int
}

func (s *fakeStore) matches(p *types.Prompt, key promptrepo.Key) bool {
	switch key.By {
	case promptrepo.ByName:
		return p.Name == key.Value
	case promptrepo.ByCategory:
		return p.Category == key.Value
	}
	return false
}

func (s *fakeStore) FindExact(_ context.Context, _ *gorm.DB, key promptrepo.Key, version int) (*types.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exact++
	if s.err != nil {
		return nil, s.err
	}
	for _, p := range s.prompts {
		if s.matches(p, key) && p.Version == version {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindLatest(_ context.Context, _ *gorm.DB, key promptrepo.Key) (*types.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	if s.err != nil {
		return nil, s.err
	}
	var best *types.Prompt
	for _, p := range s.prompts {
		if s.matches(p, key) && (best == nil || p.Version > best.Version) {
			best = p
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (s *fakeStore) set(prompts ...*types.Prompt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = prompts
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestResolver(store Store, clock *fakeClock) *Resolver {
	return NewResolver(store, logger.Nop(), WithClock(clock.now))
}

func TestResolveTiers(t *testing.T) {
	store := &fakeStore{prompts: []*types.Prompt{
		{Name: "A", Category: "cv", Version: 1, Content: "A1"},
		{Name: "A", Category: "cv", Version: 2, Content: "A2"},
		{Name: "B", Category: "cv", Version: 7, Content: "B7"},
		{Name: "Empty", Category: "blank", Version: 1, Content: "   "},
	}}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	ctx := context.Background()

	tests := []struct {
		name        string
		ref         Ref
		allowLatest bool
		wantContent string
		wantBy      ResolvedBy
	}{
		{name: "exact name and version", ref: Ref{Name: "A", Version: pointers.Int(1)}, wantContent: "A1", wantBy: ByExactNameVersion},
		{name: "latest by name", ref: Ref{Name: "A"}, allowLatest: true, wantContent: "A2", wantBy: ByLatestName},
		{name: "missing version falls to latest", ref: Ref{Name: "A", Version: pointers.Int(9)}, allowLatest: true, wantContent: "A2", wantBy: ByLatestName},
		{name: "category and version", ref: Ref{Name: "zzz", Category: "cv", Version: pointers.Int(7)}, wantContent: "B7", wantBy: ByExactCategoryVersion},
		{name: "latest by category", ref: Ref{Category: "cv"}, allowLatest: true, wantContent: "B7", wantBy: ByLatestCategory},
		{name: "no latest without permission", ref: Ref{Name: "A"}, allowLatest: false, wantContent: "dflt", wantBy: ByDefault},
		{name: "version zero is absent", ref: Ref{Name: "A", Version: pointers.Int(0)}, wantContent: "dflt", wantBy: ByDefault},
		{name: "empty content is a miss", ref: Ref{Name: "Empty", Category: "blank"}, allowLatest: true, wantContent: "dflt", wantBy: ByDefault},
		{name: "nothing at all", ref: Ref{}, allowLatest: true, wantContent: "dflt", wantBy: ByDefault},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestResolver(store, clock)
			got := r.Resolve(ctx, tc.ref, "dflt", tc.allowLatest)
			if got.Content != tc.wantContent || got.ResolvedBy != tc.wantBy {
				t.Fatalf("Resolve(%+v) = %q/%s, want %q/%s", tc.ref, got.Content, got.ResolvedBy, tc.wantContent, tc.wantBy)
			}
		})
	}
}

func TestResolveExactIsCachedForever(t *testing.T) {
	store := &fakeStore{prompts: []*types.Prompt{{Name: "A", Category: "cv", Version: 1, Content: "old"}}}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	r := newTestResolver(store, clock)
	ctx := context.Background()
	ref := Ref{Name: "A", Version: pointers.Int(1)}

	if got := r.Resolve(ctx, ref, "", false); got.Content != "old" {
		t.Fatalf("first resolve = %q", got.Content)
	}
	store.set(&types.Prompt{Name: "A", Category: "cv", Version: 1, Content: "new"})
	clock.advance(24 * time.Hour)

	if got := r.Resolve(ctx, ref, "", false); got.Content != "old" {
		t.Fatalf("exact cache should hold forever, got %q", got.Content)
	}
	if store.exact != 1 {
		t.Fatalf("expected a single store query, got %d", store.exact)
	}
}

func TestResolveLatestExpiresAfterTTL(t *testing.T) {
	store := &fakeStore{prompts: []*types.Prompt{{Name: "A", Category: "cv", Version: 1, Content: "v1"}}}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	r := newTestResolver(store, clock)
	ctx := context.Background()
	ref := Ref{Name: "A"}

	if got := r.Resolve(ctx, ref, "", true); got.Content != "v1" {
		t.Fatalf("first resolve = %q", got.Content)
	}
	store.set(
		&types.Prompt{Name: "A", Category: "cv", Version: 1, Content: "v1"},
		&types.Prompt{Name: "A", Category: "cv", Version: 2, Content: "v2"},
	)

	clock.advance(59 * time.Second)
	if got := r.Resolve(ctx, ref, "", true); got.Content != "v1" {
		t.Fatalf("within TTL expected cached v1, got %q", got.Content)
	}
	if store.latest != 1 {
		t.Fatalf("expected cache hit within TTL, store queried %d times", store.latest)
	}

	clock.advance(2 * time.Second)
	got := r.Resolve(ctx, ref, "", true)
	if got.Content != "v2" || got.Version == nil || *got.Version != 2 {
		t.Fatalf("after TTL expected v2, got %+v", got)
	}
}

func TestResolveCategoryExactIsNotCached(t *testing.T) {
	store := &fakeStore{prompts: []*types.Prompt{{Name: "A", Category: "cv", Version: 3, Content: "c3"}}}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	r := newTestResolver(store, clock)
	ref := Ref{Category: "cv", Version: pointers.Int(3)}

	for i := 0; i < 3; i++ {
		if got := r.Resolve(context.Background(), ref, "", false); got.ResolvedBy != ByExactCategoryVersion {
			t.Fatalf("resolve %d: got %s", i, got.ResolvedBy)
		}
	}
	if store.exact != 3 {
		t.Fatalf("expected uncached category lookups, got %d queries", store.exact)
	}
}

func TestResolveStoreErrorDegradesToDefault(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	r := newTestResolver(store, clock)

	got := r.Resolve(context.Background(), Ref{Name: "A", Category: "cv", Version: pointers.Int(1)}, "fallback", true)
	if got.Content != "fallback" || got.ResolvedBy != ByDefault {
		t.Fatalf("expected default, got %+v", got)
	}
}

func TestResolveConcurrent(t *testing.T) {
	store := &fakeStore{prompts: []*types.Prompt{{Name: "A", Category: "cv", Version: 1, Content: "v1"}}}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	r := newTestResolver(store, clock)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ref := Ref{Name: "A"}
			if i%2 == 0 {
				ref.Version = pointers.Int(1)
			}
			if got := r.Resolve(context.Background(), ref, "", true); got.Content != "v1" {
				t.Errorf("goroutine %d got %q", i, got.Content)
			}
		}(i)
	}
	wg.Wait()
}
