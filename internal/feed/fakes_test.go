package feed

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jfmyers9/scrobbledash/pkg/lastfm"
)

// fakeSource is a Source whose answers come from overridable functions.
type fakeSource struct {
	recent   func(ctx context.Context, limit, page int) (*lastfm.RecentTracks, error)
	top      func(ctx context.Context, period string, limit, page int) (*lastfm.TopArtists, error)
	primary  func(ctx context.Context, name string) (string, error)
	fallback func(ctx context.Context, name string) (string, error)

	recentCalls   atomic.Int32
	topCalls      atomic.Int32
	primaryCalls  atomic.Int32
	fallbackCalls atomic.Int32
}

func (f *fakeSource) RecentTracks(ctx context.Context, limit, page int) (*lastfm.RecentTracks, error) {
	f.recentCalls.Add(1)
	if f.recent == nil {
		return &lastfm.RecentTracks{Tracks: []lastfm.RecentTrack{}}, nil
	}
	return f.recent(ctx, limit, page)
}

func (f *fakeSource) TopArtists(ctx context.Context, period string, limit, page int) (*lastfm.TopArtists, error) {
	f.topCalls.Add(1)
	if f.top == nil {
		return &lastfm.TopArtists{Artists: []lastfm.TopArtist{}}, nil
	}
	return f.top(ctx, period, limit, page)
}

func (f *fakeSource) ArtistPrimaryImage(ctx context.Context, name string) (string, error) {
	f.primaryCalls.Add(1)
	if f.primary == nil {
		return "", nil
	}
	return f.primary(ctx, name)
}

func (f *fakeSource) ArtistFallbackImage(ctx context.Context, name string) (string, error) {
	f.fallbackCalls.Add(1)
	if f.fallback == nil {
		return "", nil
	}
	return f.fallback(ctx, name)
}

// recorder is a Publisher that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func eventsOf[E Event](r *recorder) []E {
	var out []E
	for _, e := range r.all() {
		if typed, ok := e.(E); ok {
			out = append(out, typed)
		}
	}
	return out
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func img(url string) []lastfm.Image {
	return []lastfm.Image{
		{Size: "small", URL: ""},
		{Size: "extralarge", URL: url},
	}
}

const placeholderURL = "https://lastfm.freetls.fastly.net/i/u/300x300/" + lastfm.PlaceholderHash + ".png"
