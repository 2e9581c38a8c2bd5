package feed

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jfmyers9/scrobbledash/internal/metrics"
	"github.com/jfmyers9/scrobbledash/pkg/lastfm"
	"github.com/rs/zerolog"
)

const (
	// DefaultPageSize is used when a caller passes limit <= 0.
	DefaultPageSize = lastfm.DefaultLimit

	// DefaultPeriod is the top artists period used when none is configured.
	DefaultPeriod = lastfm.DefaultPeriod
)

// Fetcher turns raw listing pages into normalized Pages. It keeps no state
// between calls.
type Fetcher struct {
	src    PageSource
	logger zerolog.Logger
}

// NewFetcher creates a Fetcher reading from src.
func NewFetcher(src PageSource, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		src:    src,
		logger: logger.With().Str("component", "fetcher").Logger(),
	}
}

// RecentTracks fetches one page of recent tracks. Any failure is returned
// as a *FetchError.
func (f *Fetcher) RecentTracks(ctx context.Context, limit, page int) (Page[TrackEntry], error) {
	limit, page = normalizePaging(limit, page)

	start := time.Now()
	raw, err := f.src.RecentTracks(ctx, limit, page)
	metrics.ObserveFetch(SeriesTracks.String(), start, err)
	if err != nil {
		return Page[TrackEntry]{}, newFetchError(SeriesTracks, err)
	}

	if raw == nil {
		return emptyPage[TrackEntry](limit, page), nil
	}

	out := pageFromAttr[TrackEntry](raw.Attr, limit, page)
	out.Items = make([]TrackEntry, 0, len(raw.Tracks))
	for _, t := range raw.Tracks {
		out.Items = append(out.Items, trackFromRaw(t))
	}

	f.logger.Debug().
		Int("page", out.Number).
		Int("total_pages", out.TotalPages).
		Int("items", len(out.Items)).
		Msg("Fetched recent tracks")
	return out, nil
}

// TopArtists fetches one page of top artists for period. Any failure is
// returned as a *FetchError.
func (f *Fetcher) TopArtists(ctx context.Context, period string, limit, page int) (Page[ArtistEntry], error) {
	limit, page = normalizePaging(limit, page)
	if strings.TrimSpace(period) == "" {
		period = DefaultPeriod
	}

	start := time.Now()
	raw, err := f.src.TopArtists(ctx, period, limit, page)
	metrics.ObserveFetch(SeriesArtists.String(), start, err)
	if err != nil {
		return Page[ArtistEntry]{}, newFetchError(SeriesArtists, err)
	}

	if raw == nil {
		return emptyPage[ArtistEntry](limit, page), nil
	}

	out := pageFromAttr[ArtistEntry](raw.Attr, limit, page)
	rows := make([]ArtistEntry, 0, len(raw.Artists))
	for _, a := range raw.Artists {
		rows = append(rows, ArtistEntry{
			Name:       a.Name,
			PlayCount:  max(a.PlayCount.Int(0), 0),
			ArtworkURL: usableArtwork(lastfm.BestImage(a.Images)),
		})
	}
	out.Items = dedupeArtists(rows)

	f.logger.Debug().
		Str("period", period).
		Int("page", out.Number).
		Int("total_pages", out.TotalPages).
		Int("items", len(out.Items)).
		Msg("Fetched top artists")
	return out, nil
}

func normalizePaging(limit, page int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	return limit, page
}

func emptyPage[T any](limit, page int) Page[T] {
	return Page[T]{
		Items:      []T{},
		Number:     page,
		TotalPages: max(1, page),
		PerPage:    limit,
	}
}

// pageFromAttr reads the paging block, falling back to the request's
// values for anything missing or malformed. The result always satisfies
// 1 <= Number <= TotalPages.
func pageFromAttr[T any](attr *lastfm.PageAttr, limit, page int) Page[T] {
	if attr == nil {
		attr = &lastfm.PageAttr{}
	}
	p := Page[T]{
		Number:     attr.Page.Int(page),
		TotalPages: attr.TotalPages.Int(1),
		PerPage:    attr.PerPage.Int(limit),
		TotalItems: max(attr.Total.Int(0), 0),
	}
	if p.Number < 1 {
		p.Number = page
	}
	if p.TotalPages < 1 {
		p.TotalPages = 1
	}
	if p.PerPage < 1 {
		p.PerPage = limit
	}
	// Last.fm reports totalPages=0 for an empty history while echoing
	// the requested page.
	p.TotalPages = max(p.TotalPages, p.Number)
	return p
}

func trackFromRaw(t lastfm.RecentTrack) TrackEntry {
	entry := TrackEntry{
		Title:      t.Name,
		Artist:     t.Artist.DisplayName(),
		Album:      t.Album.Text,
		LiveNow:    t.Attr != nil && strings.EqualFold(strings.TrimSpace(t.Attr.NowPlaying), "true"),
		ArtworkURL: usableArtwork(lastfm.BestImage(t.Images)),
	}
	if !entry.LiveNow && t.Date != nil {
		entry.PlayedAt = parseUTS(t.Date.UTS)
	}
	return entry
}

func parseUTS(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	ts := time.Unix(secs, 0).UTC()
	return &ts
}

// dedupeArtists collapses repeated names within one page. A repeated name
// keeps its first position and takes the later row's values.
func dedupeArtists(rows []ArtistEntry) []ArtistEntry {
	index := make(map[string]int, len(rows))
	out := make([]ArtistEntry, 0, len(rows))
	for _, row := range rows {
		if i, ok := index[row.Name]; ok {
			out[i] = row
			continue
		}
		index[row.Name] = len(out)
		out = append(out, row)
	}
	return out
}
