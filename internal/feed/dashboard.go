package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options configures a Dashboard.
type Options struct {
	Source    Source
	PageSize  int           // rows per page for both series; 0 means DefaultPageSize
	Period    string        // top artists period; "" means DefaultPeriod
	Interval  time.Duration // auto-refresh period; 0 means DefaultInterval
	Workers   int           // enrichment workers; 0 means DefaultWorkers
	Publisher Publisher
	Logger    zerolog.Logger
}

// Dashboard wires the engine for one session: a controller per series, the
// now-playing tracker, artwork enrichment and the refresh scheduler.
type Dashboard struct {
	tracks    *Controller[TrackEntry]
	artists   *Controller[ArtistEntry]
	tracker   *Tracker
	resolver  *Resolver
	pool      *Pool
	scheduler *Scheduler
	logger    zerolog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	running sync.WaitGroup
}

// NewDashboard builds a Dashboard. Without a Source it returns an error
// wrapping ErrConfiguration and nothing is ever fetched.
func NewDashboard(opts Options) (*Dashboard, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("%w: no Last.fm source configured", ErrConfiguration)
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Period == "" {
		opts.Period = DefaultPeriod
	}

	logger := opts.Logger.With().Str("component", "dashboard").Logger()
	fetcher := NewFetcher(opts.Source, opts.Logger)
	resolver := NewResolver(opts.Source, NewResolutionCache(), opts.Logger)
	pool := NewPool(resolver, opts.Workers, opts.Publisher, opts.Logger)
	tracker := NewTracker(opts.Publisher)

	d := &Dashboard{
		tracker:  tracker,
		resolver: resolver,
		pool:     pool,
		logger:   logger,
	}

	d.tracks = NewController(ControllerConfig[TrackEntry]{
		Series: SeriesTracks,
		Fetch: func(ctx context.Context, page int) (Page[TrackEntry], error) {
			return fetcher.RecentTracks(ctx, opts.PageSize, page)
		},
		Publisher:  opts.Publisher,
		AfterApply: func(items []TrackEntry) { tracker.Update(items) },
		Logger:     opts.Logger,
	})
	d.artists = NewController(ControllerConfig[ArtistEntry]{
		Series: SeriesArtists,
		Fetch: func(ctx context.Context, page int) (Page[ArtistEntry], error) {
			return fetcher.TopArtists(ctx, opts.Period, opts.PageSize, page)
		},
		Publisher:  opts.Publisher,
		AfterApply: func(items []ArtistEntry) { pool.Enrich(items) },
		Logger:     opts.Logger,
	})

	scheduler, err := NewScheduler(d, opts.Interval, opts.Publisher, opts.Logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	d.scheduler = scheduler
	return d, nil
}

// Start runs the scheduler in the background and kicks off the first
// refresh of both series.
func (d *Dashboard) Start(ctx context.Context) {
	d.mu.Lock()
	if d.cancel != nil {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.mu.Unlock()

	d.running.Add(1)
	go func() {
		defer d.running.Done()
		_ = d.scheduler.Run(ctx)
	}()

	d.logger.Info().Dur("interval", d.scheduler.Interval()).Msg("Dashboard started")
	d.RefreshAll(ctx)
}

// RefreshAll is the manual refresh: both series reload from page 1. It is
// a no-op while either series is busy.
func (d *Dashboard) RefreshAll(ctx context.Context) bool {
	if tracksBusy, artistsBusy := d.Busy(); tracksBusy || artistsBusy {
		return false
	}
	d.Refresh(ctx)
	return true
}

// Refresh starts a replace fetch of each series that is not busy.
func (d *Dashboard) Refresh(ctx context.Context) {
	d.tracks.Refresh(ctx)
	d.artists.Refresh(ctx)
}

// Busy reports whether each series has a fetch in flight.
func (d *Dashboard) Busy() (tracks, artists bool) {
	return d.tracks.Busy(), d.artists.Busy()
}

// LoadMoreTracks appends the next page of recent tracks.
func (d *Dashboard) LoadMoreTracks(ctx context.Context) bool {
	return d.tracks.LoadMore(ctx)
}

// LoadMoreArtists appends the next page of top artists.
func (d *Dashboard) LoadMoreArtists(ctx context.Context) bool {
	return d.artists.LoadMore(ctx)
}

// Tracks returns the recent tracks state.
func (d *Dashboard) Tracks() SeriesState[TrackEntry] {
	return d.tracks.State()
}

// Artists returns the top artists state.
func (d *Dashboard) Artists() SeriesState[ArtistEntry] {
	return d.artists.State()
}

// NowPlaying returns the live row of the latest tracks snapshot.
func (d *Dashboard) NowPlaying() (TrackEntry, bool) {
	return d.tracker.Current()
}

// ArtworkFor returns the artwork to show for an artist row: the resolved
// value if cached, else the row's own usable URL, else "".
func (d *Dashboard) ArtworkFor(row ArtistEntry) string {
	if url, ok := d.resolver.Cached(row.Name); ok && url != "" {
		return url
	}
	return usableArtwork(row.ArtworkURL)
}

// Interval returns the auto-refresh period.
func (d *Dashboard) Interval() time.Duration {
	return d.scheduler.Interval()
}

// SetInterval changes the auto-refresh period.
func (d *Dashboard) SetInterval(interval time.Duration) error {
	return d.scheduler.SetInterval(interval)
}

// Close stops the scheduler, waits for in-flight fetches and shuts the
// enrichment pool down.
func (d *Dashboard) Close() {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	d.mu.Unlock()

	d.running.Wait()
	d.tracks.Wait()
	d.artists.Wait()
	d.pool.Close()
	d.logger.Info().Msg("Dashboard stopped")
}
