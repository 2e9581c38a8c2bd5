package feed

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// FetchFunc fetches one page of a series.
type FetchFunc[T any] func(ctx context.Context, page int) (Page[T], error)

// ControllerConfig configures a Controller.
type ControllerConfig[T any] struct {
	Series    Series
	Fetch     FetchFunc[T]
	Publisher Publisher

	// AfterApply runs after every successful snapshot change with the new
	// items, before the series is released.
	AfterApply func(items []T)

	Logger zerolog.Logger
}

// Controller owns one series' paging cursor and snapshot and guarantees
// at most one fetch in flight. Fetches run on their own goroutine; only
// complete mutates state.
type Controller[T any] struct {
	series     Series
	fetch      FetchFunc[T]
	pub        Publisher
	afterApply func([]T)
	logger     zerolog.Logger

	mu    sync.Mutex
	state SeriesState[T]
	wg    sync.WaitGroup
}

// NewController creates a Controller with an empty snapshot on page 1 of 1.
func NewController[T any](cfg ControllerConfig[T]) *Controller[T] {
	return &Controller[T]{
		series:     cfg.Series,
		fetch:      cfg.Fetch,
		pub:        cfg.Publisher,
		afterApply: cfg.AfterApply,
		logger:     cfg.Logger.With().Str("component", "controller").Str("series", cfg.Series.String()).Logger(),
		state: SeriesState[T]{
			CurrentPage: 1,
			TotalPages:  1,
			Items:       []T{},
		},
	}
}

// Refresh fetches page 1 and replaces the snapshot. It reports whether a
// fetch was started; it is a no-op while the series is busy.
func (c *Controller[T]) Refresh(ctx context.Context) bool {
	return c.begin(ctx, ModeReplace)
}

// LoadMore fetches the page after the cursor and appends it. It is a no-op
// while busy or when the last page has been loaded.
func (c *Controller[T]) LoadMore(ctx context.Context) bool {
	return c.begin(ctx, ModeAppend)
}

func (c *Controller[T]) begin(ctx context.Context, mode SnapshotMode) bool {
	c.mu.Lock()
	if c.state.Busy {
		c.mu.Unlock()
		c.logger.Debug().Str("mode", mode.String()).Msg("Series busy, fetch rejected")
		return false
	}
	page := 1
	if mode == ModeAppend {
		if c.state.CurrentPage >= c.state.TotalPages {
			c.mu.Unlock()
			return false
		}
		page = c.state.CurrentPage + 1
	}
	c.state.Busy = true
	c.wg.Add(1)
	c.mu.Unlock()

	fetchID := uuid.NewString()
	logger := c.logger.With().Str("fetch_id", fetchID).Int("page", page).Logger()
	logger.Debug().Str("mode", mode.String()).Msg("Fetch started")

	go func() {
		defer c.wg.Done()
		start := time.Now()
		result, err := c.fetch(ctx, page)
		c.complete(logger, mode, result, err, time.Since(start))
	}()
	return true
}

func (c *Controller[T]) complete(logger zerolog.Logger, mode SnapshotMode, result Page[T], err error, elapsed time.Duration) {
	defer c.release()

	if err != nil {
		logger.Warn().Err(err).Dur("elapsed", elapsed).Msg("Fetch failed")
		publish(c.pub, FetchFailed{Series: c.series, Err: err})
		return
	}

	c.mu.Lock()
	var items []T
	if mode == ModeAppend {
		items = make([]T, 0, len(c.state.Items)+len(result.Items))
		items = append(items, c.state.Items...)
	} else {
		items = make([]T, 0, len(result.Items))
	}
	items = append(items, result.Items...)

	c.state.Items = items
	c.state.CurrentPage = max(result.Number, 1)
	c.state.TotalPages = max(result.TotalPages, c.state.CurrentPage)
	event := SnapshotChanged[T]{
		Series:      c.series,
		Mode:        mode,
		Items:       items,
		Added:       result.Items,
		CurrentPage: c.state.CurrentPage,
		TotalPages:  c.state.TotalPages,
	}
	c.mu.Unlock()

	logger.Debug().
		Int("items", len(items)).
		Int("total_pages", event.TotalPages).
		Dur("elapsed", elapsed).
		Msg("Snapshot applied")

	publish(c.pub, event)
	if c.afterApply != nil {
		c.afterApply(items)
	}
}

func (c *Controller[T]) release() {
	c.mu.Lock()
	c.state.Busy = false
	c.mu.Unlock()
}

// State returns a copy of the cursor and snapshot.
func (c *Controller[T]) State() SeriesState[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Items = append([]T(nil), c.state.Items...)
	return s
}

// Busy reports whether a fetch is in flight.
func (c *Controller[T]) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Busy
}

// HasMore reports whether LoadMore would fetch another page.
func (c *Controller[T]) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.CurrentPage < c.state.TotalPages
}

// Wait blocks until every started fetch has completed.
func (c *Controller[T]) Wait() {
	c.wg.Wait()
}
