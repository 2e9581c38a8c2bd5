package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jfmyers9/scrobbledash/internal/metrics"
	"github.com/rs/zerolog"
)

// DefaultInterval is the auto-refresh period used when none is configured.
const DefaultInterval = 20 * time.Second

// AllowedIntervals are the auto-refresh periods a user may pick, ascending.
var AllowedIntervals = []time.Duration{
	15 * time.Second,
	20 * time.Second,
	30 * time.Second,
	60 * time.Second,
	120 * time.Second,
}

// ValidateInterval returns an error wrapping ErrInvalidInterval unless d is
// one of AllowedIntervals.
func ValidateInterval(d time.Duration) error {
	for _, allowed := range AllowedIntervals {
		if d == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidInterval, d)
}

// StepInterval moves steps positions through AllowedIntervals from
// current, clamping at either end. An unknown current starts from
// DefaultInterval.
func StepInterval(current time.Duration, steps int) time.Duration {
	idx := -1
	for i, d := range AllowedIntervals {
		if d == current {
			idx = i
			break
		}
	}
	if idx < 0 {
		for i, d := range AllowedIntervals {
			if d == DefaultInterval {
				idx = i
			}
		}
	}
	idx = min(max(idx+steps, 0), len(AllowedIntervals)-1)
	return AllowedIntervals[idx]
}

// Refresher is what the Scheduler drives.
type Refresher interface {
	// Busy reports whether each series has a fetch in flight.
	Busy() (tracks, artists bool)
	// Refresh starts a replace fetch of both series.
	Refresh(ctx context.Context)
}

// ticker is the tick source driving Run.
type ticker interface {
	Chan() <-chan time.Time
	Reset(d time.Duration)
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) Chan() <-chan time.Time { return t.t.C }
func (t timeTicker) Reset(d time.Duration)  { t.t.Reset(d) }
func (t timeTicker) Stop()                  { t.t.Stop() }

func newTimeTicker(d time.Duration) ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Scheduler refreshes both series on a fixed interval. A tick that finds
// either series busy is dropped rather than queued.
type Scheduler struct {
	target Refresher
	pub    Publisher
	logger zerolog.Logger

	mu       sync.Mutex
	interval time.Duration
	reset    chan struct{}

	newTicker func(time.Duration) ticker
}

// NewScheduler creates a Scheduler. An interval of 0 means DefaultInterval.
func NewScheduler(target Refresher, interval time.Duration, pub Publisher, logger zerolog.Logger) (*Scheduler, error) {
	if interval == 0 {
		interval = DefaultInterval
	}
	if err := ValidateInterval(interval); err != nil {
		return nil, err
	}
	return &Scheduler{
		target:   target,
		pub:      pub,
		logger:   logger.With().Str("component", "scheduler").Logger(),
		interval: interval,
		reset:    make(chan struct{}, 1),

		newTicker: newTimeTicker,
	}, nil
}

// Interval returns the current period.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// SetInterval changes the period. The running ticker restarts with the
// new period without firing immediately.
func (s *Scheduler) SetInterval(d time.Duration) error {
	if err := ValidateInterval(d); err != nil {
		return err
	}
	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()

	select {
	case s.reset <- struct{}{}:
	default:
	}
	s.logger.Info().Dur("interval", d).Msg("Refresh interval changed")
	return nil
}

// Run ticks until ctx is cancelled and returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context) error {
	tk := s.newTicker(s.Interval())
	defer tk.Stop()

	s.logger.Info().Dur("interval", s.Interval()).Msg("Starting scheduler")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Scheduler stopped")
			return ctx.Err()
		case <-s.reset:
			tk.Reset(s.Interval())
		case <-tk.Chan():
			s.Tick(ctx)
		}
	}
}

// Tick performs one scheduled refresh and reports whether it fired.
func (s *Scheduler) Tick(ctx context.Context) bool {
	tracksBusy, artistsBusy := s.target.Busy()
	if tracksBusy || artistsBusy {
		metrics.RefreshTicks.WithLabelValues("skipped").Inc()
		s.logger.Debug().
			Bool("tracks_busy", tracksBusy).
			Bool("artists_busy", artistsBusy).
			Msg("Tick skipped")
		publish(s.pub, TickSkipped{TracksBusy: tracksBusy, ArtistsBusy: artistsBusy})
		return false
	}

	metrics.RefreshTicks.WithLabelValues("fired").Inc()
	s.target.Refresh(ctx)
	return true
}
