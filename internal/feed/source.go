package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/jfmyers9/scrobbledash/internal/metrics"
	"github.com/jfmyers9/scrobbledash/pkg/lastfm"
	"github.com/rs/zerolog"
)

// PageSource returns raw listing pages for the configured user.
type PageSource interface {
	RecentTracks(ctx context.Context, limit, page int) (*lastfm.RecentTracks, error)
	TopArtists(ctx context.Context, period string, limit, page int) (*lastfm.TopArtists, error)
}

// ArtworkSource looks up artist images. Both methods return the raw URL,
// which may be blank or the placeholder; "" with a nil error means the
// artist has no image at that step.
type ArtworkSource interface {
	ArtistPrimaryImage(ctx context.Context, name string) (string, error)
	ArtistFallbackImage(ctx context.Context, name string) (string, error)
}

// Source is everything the engine needs from the network.
type Source interface {
	PageSource
	ArtworkSource
}

const breakerName = "lastfm-api"

// LastFMSource implements Source over the Last.fm API. Calls pass through a
// circuit breaker so a failing API is not hammered by every tick and worker.
type LastFMSource struct {
	client *lastfm.Client
	cb     *gobreaker.CircuitBreaker[any]
	logger zerolog.Logger
}

// NewLastFMSource wraps client.
func NewLastFMSource(client *lastfm.Client, logger zerolog.Logger) *LastFMSource {
	logger = logger.With().Str("component", "lastfm-source").Logger()
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
		// Cancellation and unknown artists say nothing about API health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || lastfm.IsNotFound(err)
		},
	})

	return &LastFMSource{client: client, cb: cb, logger: logger}
}

func (s *LastFMSource) execute(fn func() (any, error)) (any, error) {
	result, err := s.cb.Execute(fn)
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
		s.logger.Debug().Err(err).Msg("Request rejected by circuit breaker")
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
	}
	return result, err
}

func castResult[T any](result any, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// RecentTracks implements PageSource.
func (s *LastFMSource) RecentTracks(ctx context.Context, limit, page int) (*lastfm.RecentTracks, error) {
	return castResult[lastfm.RecentTracks](s.execute(func() (any, error) {
		return s.client.User().GetRecentTracks(ctx, limit, page)
	}))
}

// TopArtists implements PageSource.
func (s *LastFMSource) TopArtists(ctx context.Context, period string, limit, page int) (*lastfm.TopArtists, error) {
	return castResult[lastfm.TopArtists](s.execute(func() (any, error) {
		return s.client.User().GetTopArtists(ctx, period, limit, page)
	}))
}

// ArtistPrimaryImage returns the best image from artist.getInfo.
func (s *LastFMSource) ArtistPrimaryImage(ctx context.Context, name string) (string, error) {
	info, err := castResult[lastfm.ArtistInfo](s.execute(func() (any, error) {
		return s.client.Artist().GetInfo(ctx, name)
	}))
	if err != nil || info == nil {
		return "", err
	}
	return lastfm.BestImage(info.Images), nil
}

// ArtistFallbackImage returns the cover of the artist's most played album.
func (s *LastFMSource) ArtistFallbackImage(ctx context.Context, name string) (string, error) {
	result, err := s.execute(func() (any, error) {
		return s.client.Artist().GetTopAlbums(ctx, name, 1)
	})
	if err != nil {
		return "", err
	}
	albums, _ := result.([]lastfm.Album)
	if len(albums) == 0 {
		return "", nil
	}
	return lastfm.BestImage(albums[0].Images), nil
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
