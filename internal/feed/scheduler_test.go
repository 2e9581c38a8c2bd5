package feed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jfmyers9/scrobbledash/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

type fakeRefresher struct {
	mu          sync.Mutex
	tracksBusy  bool
	artistsBusy bool
	refreshes   atomic.Int32
}

func (f *fakeRefresher) Busy() (bool, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tracksBusy, f.artistsBusy
}

func (f *fakeRefresher) Refresh(ctx context.Context) {
	f.refreshes.Add(1)
}

func TestValidateInterval(t *testing.T) {
	for _, d := range AllowedIntervals {
		if err := ValidateInterval(d); err != nil {
			t.Errorf("expected %s to be allowed, got %v", d, err)
		}
	}
	for _, d := range []time.Duration{0, time.Second, 25 * time.Second, 5 * time.Minute} {
		if err := ValidateInterval(d); !errors.Is(err, ErrInvalidInterval) {
			t.Errorf("expected %s to be rejected, got %v", d, err)
		}
	}
}

func TestStepInterval(t *testing.T) {
	tests := []struct {
		current time.Duration
		steps   int
		want    time.Duration
	}{
		{20 * time.Second, 1, 30 * time.Second},
		{20 * time.Second, -1, 15 * time.Second},
		{15 * time.Second, -1, 15 * time.Second},
		{120 * time.Second, 1, 120 * time.Second},
		{7 * time.Second, 1, 30 * time.Second},
	}
	for _, tt := range tests {
		if got := StepInterval(tt.current, tt.steps); got != tt.want {
			t.Errorf("StepInterval(%s, %d): expected %s, got %s", tt.current, tt.steps, tt.want, got)
		}
	}
}

func TestNewScheduler_Interval(t *testing.T) {
	s, err := NewScheduler(&fakeRefresher{}, 0, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Interval() != DefaultInterval {
		t.Errorf("expected default %s, got %s", DefaultInterval, s.Interval())
	}

	if _, err := NewScheduler(&fakeRefresher{}, 10*time.Second, nil, zerolog.Nop()); !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("expected ErrInvalidInterval, got %v", err)
	}

	if err := s.SetInterval(45 * time.Second); err == nil {
		t.Error("expected 45s to be rejected")
	}
	if err := s.SetInterval(60 * time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Interval() != 60*time.Second {
		t.Errorf("expected 60s, got %s", s.Interval())
	}
}

func TestScheduler_TickSkipsWhenBusy(t *testing.T) {
	tests := []struct {
		name        string
		tracksBusy  bool
		artistsBusy bool
		wantFired   bool
	}{
		{"idle", false, false, true},
		{"tracks busy", true, false, false},
		{"artists busy", false, true, false},
		{"both busy", true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := &fakeRefresher{tracksBusy: tt.tracksBusy, artistsBusy: tt.artistsBusy}
			rec := &recorder{}
			s, _ := NewScheduler(target, 0, rec, zerolog.Nop())

			skipped := metrics.RefreshTicks.WithLabelValues("skipped")
			before := testutil.ToFloat64(skipped)

			if got := s.Tick(context.Background()); got != tt.wantFired {
				t.Errorf("expected fired=%v, got %v", tt.wantFired, got)
			}

			wantRefreshes := int32(0)
			if tt.wantFired {
				wantRefreshes = 1
			}
			if n := target.refreshes.Load(); n != wantRefreshes {
				t.Errorf("expected %d refreshes, got %d", wantRefreshes, n)
			}

			skips := eventsOf[TickSkipped](rec)
			if tt.wantFired {
				if len(skips) != 0 {
					t.Errorf("expected no TickSkipped, got %d", len(skips))
				}
				return
			}
			if len(skips) != 1 {
				t.Fatalf("expected 1 TickSkipped, got %d", len(skips))
			}
			if skips[0].TracksBusy != tt.tracksBusy || skips[0].ArtistsBusy != tt.artistsBusy {
				t.Errorf("unexpected skip flags: %+v", skips[0])
			}
			if got := testutil.ToFloat64(skipped) - before; got != 1 {
				t.Errorf("expected skipped counter +1, got %v", got)
			}
		})
	}
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	s, _ := NewScheduler(&fakeRefresher{}, 0, nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

type manualTicker struct {
	c      chan time.Time
	resets chan time.Duration
}

func (m *manualTicker) Chan() <-chan time.Time { return m.c }
func (m *manualTicker) Reset(d time.Duration)  { m.resets <- d }
func (m *manualTicker) Stop()                  {}

func TestScheduler_RunTicksAndResets(t *testing.T) {
	target := &fakeRefresher{}
	s, _ := NewScheduler(target, 0, nil, zerolog.Nop())

	tk := &manualTicker{c: make(chan time.Time), resets: make(chan time.Duration, 1)}
	started := make(chan time.Duration, 1)
	s.newTicker = func(d time.Duration) ticker {
		started <- d
		return tk
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case d := <-started:
		if d != DefaultInterval {
			t.Errorf("expected ticker at %s, got %s", DefaultInterval, d)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not start")
	}

	tk.c <- time.Now()
	if !waitFor(func() bool { return target.refreshes.Load() == 1 }) {
		t.Fatalf("expected 1 refresh after a tick, got %d", target.refreshes.Load())
	}

	if err := s.SetInterval(15 * time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case d := <-tk.resets:
		if d != 15*time.Second {
			t.Errorf("expected reset to 15s, got %s", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ticker was not reset")
	}
	if n := target.refreshes.Load(); n != 1 {
		t.Errorf("expected no refresh from changing the interval, got %d", n)
	}

	tk.c <- time.Now()
	if !waitFor(func() bool { return target.refreshes.Load() == 2 }) {
		t.Fatalf("expected 2 refreshes after the next tick, got %d", target.refreshes.Load())
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
