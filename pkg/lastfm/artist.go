package lastfm

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// ArtistService provides artist metadata lookups.
type ArtistService struct {
	client *Client
}

// GetInfo fetches artist.getInfo with autocorrection enabled.
//
// An unknown artist is not an error: GetInfo returns nil, nil.
func (a *ArtistService) GetInfo(ctx context.Context, name string) (*ArtistInfo, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}

	body, err := a.client.call(ctx, "artist.getinfo", map[string]string{
		"artist":      name,
		"autocorrect": "1",
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var resp struct {
		Artist *ArtistInfo `json:"artist"`
	}
	if err := decode(body, &resp); err != nil {
		return nil, fmt.Errorf("lastfm: failed to parse artist info: %w", err)
	}
	return resp.Artist, nil
}

// GetTopAlbums fetches up to limit of an artist's most played albums.
//
// An unknown artist yields an empty slice and no error.
func (a *ArtistService) GetTopAlbums(ctx context.Context, name string, limit int) ([]Album, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 1
	}

	body, err := a.client.call(ctx, "artist.gettopalbums", map[string]string{
		"artist":      name,
		"limit":       strconv.Itoa(limit),
		"autocorrect": "1",
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var resp struct {
		TopAlbums *struct {
			Albums []Album `json:"album"`
		} `json:"topalbums"`
	}
	if err := decode(body, &resp); err != nil {
		return nil, fmt.Errorf("lastfm: failed to parse top albums: %w", err)
	}
	if resp.TopAlbums == nil {
		return nil, nil
	}
	return resp.TopAlbums.Albums, nil
}
