// Package feed keeps a user's Last.fm recent tracks and top artists in sync.
//
// Each series (tracks, artists) is owned by a Controller that guarantees at
// most one fetch in flight, replaces its snapshot on Refresh and appends on
// LoadMore. A Scheduler refreshes both series on a fixed interval. Artist
// artwork that Last.fm leaves blank is filled in the background by a Pool of
// workers resolving through a Resolver and its write-once cache. Results
// reach the presentation layer only as Events.
package feed

import (
	"strings"
	"time"

	"github.com/jfmyers9/scrobbledash/pkg/lastfm"
)

// Series identifies one of the independently paginated feeds.
type Series int

const (
	SeriesTracks Series = iota
	SeriesArtists
)

// String returns the series name used in logs and metrics.
func (s Series) String() string {
	switch s {
	case SeriesTracks:
		return "tracks"
	case SeriesArtists:
		return "artists"
	default:
		return "unknown"
	}
}

// TrackEntry is one row of the recent tracks feed.
// PlayedAt is nil exactly when LiveNow is set.
type TrackEntry struct {
	Title      string
	Artist     string
	Album      string
	PlayedAt   *time.Time
	LiveNow    bool
	ArtworkURL string // empty when there is no usable artwork
}

// ArtistEntry is one row of the top artists leaderboard. Name is the row's
// key within a snapshot.
type ArtistEntry struct {
	Name       string
	PlayCount  int
	ArtworkURL string // empty when there is no usable artwork
}

// Page is one normalized page of a series.
type Page[T any] struct {
	Items      []T
	Number     int
	TotalPages int
	PerPage    int
	TotalItems int
}

// SeriesState is a copy of a controller's paging cursor and snapshot.
type SeriesState[T any] struct {
	CurrentPage int
	TotalPages  int
	Items       []T
	Busy        bool
}

// usableArtwork returns url, or "" if url is blank or the placeholder image.
func usableArtwork(url string) string {
	if lastfm.IsPlaceholder(url) {
		return ""
	}
	return strings.TrimSpace(url)
}
