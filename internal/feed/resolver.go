package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jfmyers9/scrobbledash/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ResolutionCache memoizes artwork per artist name for the session. An
// entry is either a URL or "" for an artist known to have no artwork.
// Entries are written once and never evicted.
type ResolutionCache struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewResolutionCache creates an empty cache.
func NewResolutionCache() *ResolutionCache {
	return &ResolutionCache{entries: make(map[string]string)}
}

// Get returns the resolution for name and whether one exists.
func (c *ResolutionCache) Get(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	url, ok := c.entries[name]
	return url, ok
}

// Put stores url for name unless name is already resolved. It returns the
// value now cached and whether this call stored it.
func (c *ResolutionCache) Put(name, url string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[name]; ok {
		return existing, false
	}
	c.entries[name] = url
	metrics.ArtworkCacheEntries.Set(float64(len(c.entries)))
	return url, true
}

// Len returns the number of resolved names.
func (c *ResolutionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Resolver finds artwork for artists whose listing carried none: first the
// artist's own image, then the cover of their top album.
type Resolver struct {
	src    ArtworkSource
	cache  *ResolutionCache
	group  singleflight.Group
	logger zerolog.Logger
}

// NewResolver creates a Resolver. A nil cache gets a fresh one.
func NewResolver(src ArtworkSource, cache *ResolutionCache, logger zerolog.Logger) *Resolver {
	if cache == nil {
		cache = NewResolutionCache()
	}
	return &Resolver{
		src:    src,
		cache:  cache,
		logger: logger.With().Str("component", "resolver").Logger(),
	}
}

// Cached returns the cached resolution for name without any I/O.
func (r *Resolver) Cached(name string) (string, bool) {
	return r.cache.Get(name)
}

// Cache returns the resolver's cache.
func (r *Resolver) Cache() *ResolutionCache {
	return r.cache
}

// Resolve returns a usable artwork URL for name, or "" when the artist has
// none. Concurrent calls for the same uncached name share one lookup.
//
// If a lookup step fails and no usable URL was found, Resolve returns an
// error wrapping ErrEnrichment and caches nothing, so a later call retries.
func (r *Resolver) Resolve(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", nil
	}
	if url, ok := r.cache.Get(name); ok {
		metrics.ArtworkResolutions.WithLabelValues("cache_hit").Inc()
		return url, nil
	}

	v, err, _ := r.group.Do(name, func() (any, error) {
		if url, ok := r.cache.Get(name); ok {
			return url, nil
		}

		url, outcome, err := r.lookup(ctx, name)
		metrics.ArtworkResolutions.WithLabelValues(outcome).Inc()
		if err != nil {
			return "", err
		}

		stored, _ := r.cache.Put(name, url)
		r.logger.Debug().
			Str("artist", name).
			Str("outcome", outcome).
			Msg("Resolved artwork")
		return stored, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (r *Resolver) lookup(ctx context.Context, name string) (string, string, error) {
	var errs []error

	primary, err := r.src.ArtistPrimaryImage(ctx, name)
	if err != nil {
		errs = append(errs, fmt.Errorf("primary: %w", err))
	} else if url := usableArtwork(primary); url != "" {
		return url, "primary", nil
	}

	fallback, err := r.src.ArtistFallbackImage(ctx, name)
	if err != nil {
		errs = append(errs, fmt.Errorf("fallback: %w", err))
	} else if url := usableArtwork(fallback); url != "" {
		return url, "fallback", nil
	}

	if len(errs) > 0 {
		return "", "failed", fmt.Errorf("%w for %q: %w", ErrEnrichment, name, errors.Join(errs...))
	}
	return "", "none", nil
}
