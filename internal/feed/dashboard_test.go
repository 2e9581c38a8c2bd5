package feed

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jfmyers9/scrobbledash/pkg/lastfm"
	"github.com/rs/zerolog"
)

func dashboardSource() *fakeSource {
	return &fakeSource{
		recent: func(ctx context.Context, limit, page int) (*lastfm.RecentTracks, error) {
			return &lastfm.RecentTracks{
				Tracks: []lastfm.RecentTrack{
					{Name: "Now", Artist: lastfm.TrackArtist{Name: "Alpha"}, Attr: &lastfm.TrackAttr{NowPlaying: "true"}},
					{Name: "Before", Artist: lastfm.TrackArtist{Name: "Beta"}, Date: &lastfm.TrackDate{UTS: "1700000000"}},
				},
				Attr: &lastfm.PageAttr{Page: lastfm.Text(strconv.Itoa(page)), TotalPages: "2"},
			}, nil
		},
		top: func(ctx context.Context, period string, limit, page int) (*lastfm.TopArtists, error) {
			return &lastfm.TopArtists{
				Artists: []lastfm.TopArtist{
					{Name: "Alpha", PlayCount: "10", Images: img(placeholderURL)},
					{Name: "Beta", PlayCount: "5", Images: img("https://img.example/beta.jpg")},
				},
				Attr: &lastfm.PageAttr{Page: "1", TotalPages: "1"},
			}, nil
		},
		primary: func(ctx context.Context, name string) (string, error) {
			return "https://img.example/" + name + "-resolved.jpg", nil
		},
	}
}

func TestNewDashboard_RequiresSource(t *testing.T) {
	_, err := NewDashboard(Options{Logger: zerolog.Nop()})
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}

	_, err = NewDashboard(Options{Source: &fakeSource{}, Interval: 7 * time.Second, Logger: zerolog.Nop()})
	if !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("expected ErrInvalidInterval, got %v", err)
	}
}

func TestDashboard_RefreshAll(t *testing.T) {
	src := dashboardSource()
	rec := &recorder{}
	d, err := NewDashboard(Options{Source: src, PageSize: 2, Publisher: rec, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Close()

	if !d.RefreshAll(context.Background()) {
		t.Fatal("expected refresh to start")
	}
	d.tracks.Wait()
	d.artists.Wait()

	tracks := d.Tracks()
	if len(tracks.Items) != 2 || tracks.TotalPages != 2 {
		t.Errorf("unexpected tracks state: %+v", tracks)
	}
	now, ok := d.NowPlaying()
	if !ok || now.Title != "Now" {
		t.Errorf("expected now playing row, got %+v", now)
	}
	if len(eventsOf[NowPlayingChanged](rec)) != 1 {
		t.Error("expected one NowPlayingChanged event")
	}

	artists := d.Artists()
	if len(artists.Items) != 2 {
		t.Fatalf("expected 2 artists, got %d", len(artists.Items))
	}

	// Only Alpha lacks artwork, so only Alpha is enriched.
	if !waitFor(func() bool { return len(eventsOf[ArtworkResolved](rec)) == 1 }) {
		t.Fatal("timed out waiting for artwork")
	}
	if n := src.primaryCalls.Load(); n != 1 {
		t.Errorf("expected 1 artwork lookup, got %d", n)
	}
	if got := d.ArtworkFor(artists.Items[0]); got != "https://img.example/Alpha-resolved.jpg" {
		t.Errorf("expected resolved artwork for Alpha, got %q", got)
	}
	if got := d.ArtworkFor(artists.Items[1]); got != "https://img.example/beta.jpg" {
		t.Errorf("expected own artwork for Beta, got %q", got)
	}
	if got := d.ArtworkFor(ArtistEntry{Name: "Unknown", ArtworkURL: placeholderURL}); got != "" {
		t.Errorf("expected no artwork, got %q", got)
	}

	if !d.LoadMoreTracks(context.Background()) {
		t.Fatal("expected load more to start")
	}
	d.tracks.Wait()
	if s := d.Tracks(); len(s.Items) != 4 || s.CurrentPage != 2 {
		t.Errorf("expected 4 tracks on page 2, got %+v", s)
	}
	if d.LoadMoreTracks(context.Background()) {
		t.Error("expected load more past the last page to be rejected")
	}
}

func TestDashboard_RefreshAllNoOpWhileBusy(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	src := dashboardSource()
	src.recent = func(ctx context.Context, limit, page int) (*lastfm.RecentTracks, error) {
		calls.Add(1)
		<-release
		return &lastfm.RecentTracks{Tracks: []lastfm.RecentTrack{}}, nil
	}

	d, err := NewDashboard(Options{Source: src, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Close()

	d.RefreshAll(context.Background())
	if d.RefreshAll(context.Background()) {
		t.Error("expected refresh to be rejected while busy")
	}
	close(release)
	d.tracks.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 tracks fetch, got %d", n)
	}
}

func TestDashboard_StartAndClose(t *testing.T) {
	src := dashboardSource()
	d, err := NewDashboard(Options{Source: src, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d.Start(context.Background())
	if !waitFor(func() bool { return src.recentCalls.Load() == 1 && src.topCalls.Load() == 1 }) {
		t.Error("expected initial refresh of both series")
	}

	if err := d.SetInterval(120 * time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Interval() != 120*time.Second {
		t.Errorf("expected 120s, got %s", d.Interval())
	}

	done := make(chan struct{})
	go func() {
		d.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
}
