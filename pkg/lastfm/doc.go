// Package lastfm provides a read-only client for the Last.fm API 2.0.
//
// # Overview
//
// This package covers the calls a listening dashboard needs: a user's
// recent tracks and top artists, and artist artwork lookups. It provides a
// small, type-safe API with context support, structured errors, retry
// logic and client-side rate limiting.
//
// # Quick Start
//
//	client, err := lastfm.NewClient(lastfm.Config{
//	    APIKey:   "your-api-key",
//	    Username: "rj",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	recent, err := client.User().GetRecentTracks(ctx, 50, 1)
//
// # Artwork
//
// Last.fm frequently answers with a generic star image instead of real
// artwork. Use IsPlaceholder to detect it and BestImage to pick the largest
// variant of an image list:
//
//	info, err := client.Artist().GetInfo(ctx, "Boards of Canada")
//	if err == nil && info != nil {
//	    url := lastfm.BestImage(info.Images)
//	    if lastfm.IsPlaceholder(url) {
//	        albums, _ := client.Artist().GetTopAlbums(ctx, "Boards of Canada", 1)
//	        ...
//	    }
//	}
//
// # Error Handling
//
// API failures are returned as *Error, non-200 responses without an error
// envelope as *HTTPError, and undecodable bodies as *MalformedError. The
// latter two carry at most 300 characters of the response body.
//
//	var lastfmErr *lastfm.Error
//	if errors.As(err, &lastfmErr) && lastfmErr.Temporary() {
//	    // Retry later
//	}
//
// # Configuration
//
//	client, err := lastfm.NewClient(lastfm.Config{
//	    APIKey:     "your-api-key",
//	    Username:   "rj",
//	    HTTPClient: &http.Client{Timeout: 15 * time.Second},
//	    RateLimit:  2,        // requests per second
//	    Logger:     myLogger, // Implements lastfm.Logger interface
//	})
//
// # API Coverage
//
//   - user.getRecentTracks, user.getTopArtists
//   - artist.getInfo, artist.getTopAlbums
package lastfm
