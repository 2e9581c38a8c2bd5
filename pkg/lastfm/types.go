package lastfm

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Text is a JSON scalar kept as its textual form. Last.fm sends numbers as
// strings, and occasionally as bare numbers, so both decode into Text.
type Text string

// UnmarshalJSON accepts strings, numbers, booleans and null.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(data)
	return nil
}

// Int parses t as a base-10 integer, returning def when t is blank or
// malformed.
func (t Text) Int(def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(string(t)))
	if err != nil {
		return def
	}
	return n
}

// Image is one size variant of an artwork image.
type Image struct {
	Size string `json:"size"`
	URL  string `json:"#text"`
}

// PageAttr is the "@attr" paging block of a paginated list.
type PageAttr struct {
	User       string `json:"user"`
	Page       Text   `json:"page"`
	PerPage    Text   `json:"perPage"`
	TotalPages Text   `json:"totalPages"`
	Total      Text   `json:"total"`
}

// TrackArtist is the artist of a recent track. With extended=1 Last.fm
// sends the name in "name", otherwise in "#text".
type TrackArtist struct {
	Name string `json:"name"`
	Text string `json:"#text"`
	MBID string `json:"mbid"`
	URL  string `json:"url"`
}

// DisplayName returns whichever name field is populated.
func (a TrackArtist) DisplayName() string {
	if strings.TrimSpace(a.Name) != "" {
		return a.Name
	}
	if strings.TrimSpace(a.Text) != "" {
		return a.Text
	}
	return ""
}

// TrackAlbum is the album of a recent track.
type TrackAlbum struct {
	Text string `json:"#text"`
	MBID string `json:"mbid"`
}

// TrackDate is when a recent track was scrobbled.
type TrackDate struct {
	UTS  string `json:"uts"`
	Text string `json:"#text"`
}

// TrackAttr marks the row Last.fm is currently receiving scrobbles for.
type TrackAttr struct {
	NowPlaying string `json:"nowplaying"`
}

// RecentTrack is one row of user.getRecentTracks.
type RecentTrack struct {
	Name   string      `json:"name"`
	Artist TrackArtist `json:"artist"`
	Album  TrackAlbum  `json:"album"`
	Date   *TrackDate  `json:"date"`
	Images []Image     `json:"image"`
	Attr   *TrackAttr  `json:"@attr"`
}

// RecentTracks is a page of user.getRecentTracks.
type RecentTracks struct {
	Tracks []RecentTrack `json:"track"`
	Attr   *PageAttr     `json:"@attr"`
}

// TopArtist is one row of user.getTopArtists.
type TopArtist struct {
	Name      string  `json:"name"`
	PlayCount Text    `json:"playcount"`
	MBID      string  `json:"mbid"`
	URL       string  `json:"url"`
	Images    []Image `json:"image"`
}

// TopArtists is a page of user.getTopArtists.
type TopArtists struct {
	Artists []TopArtist `json:"artist"`
	Attr    *PageAttr   `json:"@attr"`
}

// ArtistInfo is the subset of artist.getInfo used for artwork.
type ArtistInfo struct {
	Name   string  `json:"name"`
	MBID   string  `json:"mbid"`
	URL    string  `json:"url"`
	Images []Image `json:"image"`
}

// Album is one row of artist.getTopAlbums.
type Album struct {
	Name      string  `json:"name"`
	PlayCount Text    `json:"playcount"`
	Images    []Image `json:"image"`
}
