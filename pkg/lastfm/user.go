package lastfm

import (
	"context"
	"fmt"
	"strconv"
)

// UserService provides read access to a user's listening history.
type UserService struct {
	client *Client
}

const (
	// DefaultLimit is the page size used when a caller passes limit <= 0.
	DefaultLimit = 50

	// DefaultPeriod is the top-artists period used when none is given.
	DefaultPeriod = "7day"
)

// Periods lists the values Last.fm accepts for the period parameter.
var Periods = []string{"overall", "7day", "1month", "3month", "6month", "12month"}

// ValidPeriod reports whether period is one of Periods.
func ValidPeriod(period string) bool {
	for _, p := range Periods {
		if p == period {
			return true
		}
	}
	return false
}

// GetRecentTracks fetches one page of the configured user's recent tracks.
//
// The row currently being played, if any, comes first and carries
// Attr.NowPlaying == "true" and no Date.
//
// Example:
//
//	page, err := client.User().GetRecentTracks(ctx, 50, 1)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, t := range page.Tracks {
//	    fmt.Println(t.Artist.DisplayName(), "-", t.Name)
//	}
func (u *UserService) GetRecentTracks(ctx context.Context, limit, page int) (*RecentTracks, error) {
	if u.client.username == "" {
		return nil, ErrNoUsername
	}
	limit, page = normalizePaging(limit, page)

	body, err := u.client.call(ctx, "user.getrecenttracks", map[string]string{
		"user":     u.client.username,
		"limit":    strconv.Itoa(limit),
		"page":     strconv.Itoa(page),
		"extended": "1",
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		RecentTracks *RecentTracks `json:"recenttracks"`
	}
	if err := decode(body, &resp); err != nil {
		return nil, fmt.Errorf("lastfm: failed to parse recent tracks: %w", err)
	}
	return resp.RecentTracks, nil
}

// GetTopArtists fetches one page of the configured user's top artists for
// period (see Periods).
func (u *UserService) GetTopArtists(ctx context.Context, period string, limit, page int) (*TopArtists, error) {
	if u.client.username == "" {
		return nil, ErrNoUsername
	}
	limit, page = normalizePaging(limit, page)
	if period == "" {
		period = DefaultPeriod
	}

	body, err := u.client.call(ctx, "user.gettopartists", map[string]string{
		"user":   u.client.username,
		"period": period,
		"limit":  strconv.Itoa(limit),
		"page":   strconv.Itoa(page),
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		TopArtists *TopArtists `json:"topartists"`
	}
	if err := decode(body, &resp); err != nil {
		return nil, fmt.Errorf("lastfm: failed to parse top artists: %w", err)
	}
	return resp.TopArtists, nil
}

func normalizePaging(limit, page int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if page <= 0 {
		page = 1
	}
	return limit, page
}
