package lastfm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// newTestClient creates a client pointed at server with rate limiting off.
func newTestClient(t *testing.T, server *httptest.Server, retries int) *Client {
	t.Helper()

	client, err := NewClient(Config{
		APIKey:     "test-api-key",
		Username:   "test-user",
		BaseURL:    server.URL,
		RateLimit:  -1,
		MaxRetries: retries,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

const recentTracksJSON = `{
  "recenttracks": {
    "track": [
      {
        "artist": {"name": "Boards of Canada", "mbid": ""},
        "name": "Roygbiv",
        "album": {"#text": "Music Has the Right to Children"},
        "image": [
          {"size": "small", "#text": "https://img.example/34s/a.png"},
          {"size": "extralarge", "#text": "https://img.example/300x300/a.png"}
        ],
        "@attr": {"nowplaying": "true"}
      },
      {
        "artist": {"#text": "Aphex Twin"},
        "name": "Xtal",
        "album": {"#text": "Selected Ambient Works 85-92"},
        "image": [
          {"size": "small", "#text": "https://img.example/34s/b.png"},
          {"size": "extralarge", "#text": ""}
        ],
        "date": {"uts": "1700000000", "#text": "14 Nov 2023, 22:13"}
      }
    ],
    "@attr": {"user": "test-user", "page": "1", "perPage": "2", "totalPages": "3", "total": "6"}
  }
}`

func TestUserService_GetRecentTracks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET request, got %s", r.Method)
		}

		q := r.URL.Query()
		want := map[string]string{
			"method":   "user.getrecenttracks",
			"user":     "test-user",
			"api_key":  "test-api-key",
			"limit":    "2",
			"page":     "1",
			"extended": "1",
			"format":   "json",
		}
		for k, v := range want {
			if got := q.Get(k); got != v {
				t.Errorf("expected %s=%s, got %s", k, v, got)
			}
		}

		_, _ = w.Write([]byte(recentTracksJSON))
	}))
	defer server.Close()

	client := newTestClient(t, server, 1)
	resp, err := client.User().GetRecentTracks(context.Background(), 2, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(resp.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(resp.Tracks))
	}

	first := resp.Tracks[0]
	if first.Artist.DisplayName() != "Boards of Canada" {
		t.Errorf("expected artist Boards of Canada, got %q", first.Artist.DisplayName())
	}
	if first.Attr == nil || first.Attr.NowPlaying != "true" {
		t.Errorf("expected first track to be now playing, got %+v", first.Attr)
	}
	if first.Date != nil {
		t.Errorf("expected no date for now playing track, got %+v", first.Date)
	}
	if got := BestImage(first.Images); got != "https://img.example/300x300/a.png" {
		t.Errorf("expected largest image, got %q", got)
	}

	second := resp.Tracks[1]
	if second.Artist.DisplayName() != "Aphex Twin" {
		t.Errorf("expected #text artist fallback, got %q", second.Artist.DisplayName())
	}
	if second.Date == nil || second.Date.UTS != "1700000000" {
		t.Errorf("expected uts 1700000000, got %+v", second.Date)
	}
	if got := BestImage(second.Images); got != "https://img.example/34s/b.png" {
		t.Errorf("expected blank extralarge to be skipped, got %q", got)
	}

	if resp.Attr == nil {
		t.Fatal("expected paging attributes")
	}
	if got := resp.Attr.TotalPages.Int(0); got != 3 {
		t.Errorf("expected totalPages 3, got %d", got)
	}
	if got := resp.Attr.Total.Int(0); got != 6 {
		t.Errorf("expected total 6, got %d", got)
	}
}

func TestUserService_GetRecentTracks_Defaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Errorf("expected default limit 50, got %s", got)
		}
		if got := r.URL.Query().Get("page"); got != "1" {
			t.Errorf("expected default page 1, got %s", got)
		}
		_, _ = w.Write([]byte(`{"recenttracks": {"track": []}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, 1)
	resp, err := client.User().GetRecentTracks(context.Background(), 0, -4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Attr != nil {
		t.Errorf("expected no paging attributes, got %+v", resp.Attr)
	}
}

func TestUserService_RequiresUsername(t *testing.T) {
	client, err := NewClient(Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	if _, err := client.User().GetRecentTracks(context.Background(), 10, 1); !errors.Is(err, ErrNoUsername) {
		t.Errorf("expected ErrNoUsername, got %v", err)
	}
	if _, err := client.User().GetTopArtists(context.Background(), "", 10, 1); !errors.Is(err, ErrNoUsername) {
		t.Errorf("expected ErrNoUsername, got %v", err)
	}
}

func TestUserService_GetTopArtists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("method"); got != "user.gettopartists" {
			t.Errorf("expected method user.gettopartists, got %s", got)
		}
		if got := q.Get("period"); got != "7day" {
			t.Errorf("expected default period 7day, got %s", got)
		}
		_, _ = w.Write([]byte(`{
  "topartists": {
    "artist": [
      {"name": "Burial", "playcount": "42", "image": [{"size": "large", "#text": "https://img.example/2a96cbd8b46e442fc41c2b86b821562f.png"}]},
      {"name": "Four Tet", "playcount": 17, "image": []}
    ],
    "@attr": {"page": "1", "perPage": "50", "totalPages": "1", "total": "2"}
  }
}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, 1)
	resp, err := client.User().GetTopArtists(context.Background(), "", 50, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Artists) != 2 {
		t.Fatalf("expected 2 artists, got %d", len(resp.Artists))
	}
	if got := resp.Artists[0].PlayCount.Int(-1); got != 42 {
		t.Errorf("expected playcount 42, got %d", got)
	}
	if got := resp.Artists[1].PlayCount.Int(-1); got != 17 {
		t.Errorf("expected numeric playcount 17, got %d", got)
	}
	if !IsPlaceholder(BestImage(resp.Artists[0].Images)) {
		t.Error("expected placeholder image to be detected")
	}
}

func TestClient_ErrorHandling(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		retries     int
		wantCalls   int32
		errContains string
		check       func(t *testing.T, err error)
	}{
		{
			name:        "api error envelope",
			status:      http.StatusOK,
			body:        `{"error": 10, "message": "Invalid API key"}`,
			retries:     3,
			wantCalls:   1,
			errContains: "error 10",
			check: func(t *testing.T, err error) {
				var apiErr *Error
				if !errors.As(err, &apiErr) {
					t.Fatalf("expected *Error, got %T", err)
				}
				if apiErr.Temporary() {
					t.Error("invalid API key should not be temporary")
				}
			},
		},
		{
			name:        "non-200 without envelope is truncated",
			status:      http.StatusForbidden,
			body:        strings.Repeat("x", 1000),
			retries:     3,
			wantCalls:   1,
			errContains: "HTTP 403",
			check: func(t *testing.T, err error) {
				var httpErr *HTTPError
				if !errors.As(err, &httpErr) {
					t.Fatalf("expected *HTTPError, got %T", err)
				}
				if len(httpErr.Body) != maxDiagnosticLen+3 {
					t.Errorf("expected body truncated to %d chars, got %d", maxDiagnosticLen+3, len(httpErr.Body))
				}
			},
		},
		{
			name:        "server error retried",
			status:      http.StatusBadGateway,
			body:        "bad gateway",
			retries:     2,
			wantCalls:   2,
			errContains: "HTTP 502",
		},
		{
			name:        "malformed payload",
			status:      http.StatusOK,
			body:        `{"recenttracks": {"track": "nope"`,
			retries:     1,
			wantCalls:   1,
			errContains: "malformed",
			check: func(t *testing.T, err error) {
				var malformed *MalformedError
				if !errors.As(err, &malformed) {
					t.Fatalf("expected *MalformedError, got %T", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(t, server, tt.retries)
			_, err := client.User().GetRecentTracks(context.Background(), 10, 1)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("expected error to contain %q, got %v", tt.errContains, err)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, got)
			}
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Config{}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidPeriod(t *testing.T) {
	for _, p := range Periods {
		if !ValidPeriod(p) {
			t.Errorf("expected %q to be valid", p)
		}
	}
	if ValidPeriod("fortnight") {
		t.Error("expected fortnight to be invalid")
	}
}
