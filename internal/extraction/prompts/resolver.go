package prompts

import (
	"context"
	"strings"
	"sync"
	"time"

	promptrepo "github.com/yungbote/cvextract/internal/data/repos/prompt"
	types "github.com/yungbote/cvextract/internal/domain"
	"github.com/yungbote/cvextract/internal/platform/logger"
	"gorm.io/gorm"
)

// ResolvedBy names the tier that produced a ResolvedPrompt.
type ResolvedBy string

const (
	ByExactNameVersion     ResolvedBy = "exact-name-version"
	ByLatestName           ResolvedBy = "latest-by-name"
	ByExactCategoryVersion ResolvedBy = "exact-category-version"
	ByLatestCategory       ResolvedBy = "latest-by-category"
	ByDefault              ResolvedBy = "default"
)

const DefaultLatestTTL = 60 * time.Second

// Ref identifies the prompt a caller wants. Blank strings and versions below
// 1 are treated as absent.
type Ref struct {
	Name     string
	Category string
	Version  *int
}

func (r Ref) name() string     { return strings.TrimSpace(r.Name) }
func (r Ref) category() string { return strings.TrimSpace(r.Category) }

func (r Ref) version() (int, bool) {
	if r.Version == nil || *r.Version < 1 {
		return 0, false
	}
	return *r.Version, true
}

type ResolvedPrompt struct {
	Content    string
	ResolvedBy ResolvedBy
	Name       string
	Category   string
	Version    *int
}

// Store is the read side of the prompt repository.
type Store interface {
	FindExact(ctx context.Context, tx *gorm.DB, key promptrepo.Key, version int) (*types.Prompt, error)
	FindLatest(ctx context.Context, tx *gorm.DB, key promptrepo.Key) (*types.Prompt, error)
}

type exactKey struct {
	name    string
	version int
}

type latestEntry struct {
	prompt  ResolvedPrompt
	expires time.Time
}

// Resolver picks prompt text through five tiers: exact name+version, latest by
// name, exact category+version, latest by category, caller default. Exact hits
// are cached for the life of the process; latest hits for the TTL. Concurrent
// misses may each query the store.
type Resolver struct {
	store Store
	log   *logger.Logger
	ttl   time.Duration
	now   func() time.Time

	exactMu sync.RWMutex
	exact   map[exactKey]ResolvedPrompt

	latestMu sync.Mutex
	latest   map[string]latestEntry
}

type Option func(*Resolver)

func WithLatestTTL(ttl time.Duration) Option {
	return func(r *Resolver) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

func NewResolver(store Store, log *logger.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		store:  store,
		log:    log.With("service", "PromptResolver"),
		ttl:    DefaultLatestTTL,
		now:    time.Now,
		exact:  map[exactKey]ResolvedPrompt{},
		latest: map[string]latestEntry{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve never fails. Store errors and empty prompt bodies count as misses
// for the tier that produced them.
func (r *Resolver) Resolve(ctx context.Context, ref Ref, defaultContent string, allowLatest bool) ResolvedPrompt {
	name, category := ref.name(), ref.category()
	version, hasVersion := ref.version()

	if name != "" && hasVersion {
		if p, ok := r.exactByName(ctx, name, version); ok {
			return p
		}
	}
	if name != "" && allowLatest {
		if p, ok := r.latestBy(ctx, promptrepo.Key{By: promptrepo.ByName, Value: name}, ByLatestName); ok {
			return p
		}
	}
	if category != "" && hasVersion {
		if p, ok := r.lookup(ctx, promptrepo.Key{By: promptrepo.ByCategory, Value: category}, version, ByExactCategoryVersion); ok {
			return p
		}
	}
	if category != "" && allowLatest {
		if p, ok := r.latestBy(ctx, promptrepo.Key{By: promptrepo.ByCategory, Value: category}, ByLatestCategory); ok {
			return p
		}
	}

	r.log.Warn("prompt resolution fell back to default",
		"prompt_name", name,
		"prompt_category", category,
		"prompt_version", version,
		"allow_latest", allowLatest,
	)
	return ResolvedPrompt{
		Content:    defaultContent,
		ResolvedBy: ByDefault,
		Name:       name,
		Category:   category,
		Version:    ref.Version,
	}
}

func (r *Resolver) exactByName(ctx context.Context, name string, version int) (ResolvedPrompt, bool) {
	k := exactKey{name: name, version: version}
	r.exactMu.RLock()
	p, ok := r.exact[k]
	r.exactMu.RUnlock()
	if ok {
		return p, true
	}

	p, ok = r.lookup(ctx, promptrepo.Key{By: promptrepo.ByName, Value: name}, version, ByExactNameVersion)
	if !ok {
		return ResolvedPrompt{}, false
	}
	found := exactKey{name: p.Name, version: *p.Version}
	r.exactMu.Lock()
	r.exact[found] = p
	r.exactMu.Unlock()
	return p, true
}

func (r *Resolver) latestBy(ctx context.Context, key promptrepo.Key, by ResolvedBy) (ResolvedPrompt, bool) {
	cacheKey := string(key.By) + ":" + key.Value
	now := r.now()

	r.latestMu.Lock()
	entry, ok := r.latest[cacheKey]
	r.latestMu.Unlock()
	if ok && now.Before(entry.expires) {
		return entry.prompt, true
	}

	row, err := r.store.FindLatest(ctx, nil, key)
	p, hit := r.toResolved(row, err, key, by)
	if !hit {
		return ResolvedPrompt{}, false
	}

	r.latestMu.Lock()
	r.latest[cacheKey] = latestEntry{prompt: p, expires: now.Add(r.ttl)}
	r.latestMu.Unlock()
	return p, true
}

func (r *Resolver) lookup(ctx context.Context, key promptrepo.Key, version int, by ResolvedBy) (ResolvedPrompt, bool) {
	row, err := r.store.FindExact(ctx, nil, key, version)
	return r.toResolved(row, err, key, by)
}

func (r *Resolver) toResolved(row *types.Prompt, err error, key promptrepo.Key, by ResolvedBy) (ResolvedPrompt, bool) {
	if err != nil {
		r.log.Warn("prompt lookup failed", "tier", string(by), "key_kind", string(key.By), "key", key.Value, "error", err)
		return ResolvedPrompt{}, false
	}
	if row == nil || strings.TrimSpace(row.Content) == "" {
		return ResolvedPrompt{}, false
	}
	v := row.Version
	return ResolvedPrompt{
		Content:    row.Content,
		ResolvedBy: by,
		Name:       row.Name,
		Category:   row.Category,
		Version:    &v,
	}, true
}
