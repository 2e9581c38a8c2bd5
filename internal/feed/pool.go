package feed

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jfmyers9/scrobbledash/internal/metrics"
	"github.com/rs/zerolog"
)

// DefaultWorkers is the enrichment concurrency used when none is configured.
const DefaultWorkers = 4

// resolveTimeout bounds one artist's resolution.
const resolveTimeout = 30 * time.Second

// Pool resolves missing artist artwork in the background with a fixed
// number of workers. Each artist is resolved at most once at a time and
// never again once cached.
type Pool struct {
	resolver *Resolver
	pub      Publisher
	logger   zerolog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{} // queued or being resolved
	queue    []string
	closed   bool

	notify chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool starts workers goroutines resolving through resolver and
// publishing ArtworkResolved to pub. workers <= 0 means DefaultWorkers.
func NewPool(resolver *Resolver, workers int, pub Publisher, logger zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		resolver: resolver,
		pub:      pub,
		logger:   logger.With().Str("component", "enrichment").Logger(),
		inFlight: make(map[string]struct{}),
		notify:   make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// Enrich queues every row that lacks usable artwork and is neither cached
// nor already in flight. It never blocks on network work and returns the
// number of artists queued.
func (p *Pool) Enrich(rows []ArtistEntry) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0
	}

	queued := 0
	for _, row := range rows {
		if usableArtwork(row.ArtworkURL) != "" || strings.TrimSpace(row.Name) == "" {
			continue
		}
		if _, ok := p.inFlight[row.Name]; ok {
			continue
		}
		if _, ok := p.resolver.Cached(row.Name); ok {
			continue
		}
		p.inFlight[row.Name] = struct{}{}
		p.queue = append(p.queue, row.Name)
		queued++
	}

	if queued > 0 {
		metrics.EnrichmentInFlight.Set(float64(len(p.inFlight)))
		p.signal()
	}
	return queued
}

// InFlight reports whether name is queued or being resolved.
func (p *Pool) InFlight(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.inFlight[name]
	return ok
}

// Pending returns the number of artists queued or being resolved.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inFlight)
}

// Close stops the workers and waits for them to exit. Queued artists are
// dropped.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}

// signal wakes one idle worker. Callers hold p.mu.
func (p *Pool) signal() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

func (p *Pool) next() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return "", false
	}
	name := p.queue[0]
	p.queue[0] = ""
	p.queue = p.queue[1:]
	if len(p.queue) > 0 {
		p.signal()
	}
	return name, true
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		if p.ctx.Err() != nil {
			return
		}
		name, ok := p.next()
		if !ok {
			select {
			case <-p.ctx.Done():
				return
			case <-p.notify:
			}
			continue
		}
		p.resolve(name)
	}
}

func (p *Pool) resolve(name string) {
	ctx, cancel := context.WithTimeout(p.ctx, resolveTimeout)
	url, err := p.resolver.Resolve(ctx, name)
	cancel()

	p.mu.Lock()
	delete(p.inFlight, name)
	metrics.EnrichmentInFlight.Set(float64(len(p.inFlight)))
	p.mu.Unlock()

	if err != nil {
		p.logger.Debug().Err(err).Str("artist", name).Msg("Artwork resolution failed")
		return
	}
	if url != "" {
		publish(p.pub, ArtworkResolved{Name: name, URL: url})
	}
}
