package lastfm

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// Config holds client configuration.
type Config struct {
	APIKey     string       // Required: Last.fm API key
	Username   string       // Optional: user whose history is read (required by User methods)
	HTTPClient *http.Client // Optional: HTTP client (defaults to http.DefaultClient)
	BaseURL    string       // Optional: Base URL for API (defaults to Last.fm API, used for testing)
	Logger     Logger       // Optional: Logger interface for debug logging
	RateLimit  float64      // Optional: requests per second (defaults to DefaultRateLimit, <0 disables)
	MaxRetries int          // Optional: attempts per call (defaults to 3)
}

// Logger is an optional interface for logging.
type Logger interface {
	// Debugf logs a debug message with format and arguments.
	Debugf(format string, args ...interface{})
}

// Client is the main entry point for Last.fm API operations.
type Client struct {
	apiKey     string
	username   string
	httpClient *http.Client
	baseURL    string
	logger     Logger
	limiter    *rate.Limiter
	maxRetries int

	user   *UserService
	artist *ArtistService
}

const (
	// DefaultBaseURL is the default Last.fm API endpoint.
	DefaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

	// DefaultRateLimit keeps the client under Last.fm's five requests per
	// second allowance.
	DefaultRateLimit = 5.0

	defaultMaxRetries = 3
)

// NewClient creates a new Last.fm API client.
//
// Returns an error if required configuration (APIKey) is missing.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: APIKey is required", ErrInvalidConfig)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	var limiter *rate.Limiter
	switch {
	case cfg.RateLimit == 0:
		limiter = rate.NewLimiter(rate.Limit(DefaultRateLimit), 1)
	case cfg.RateLimit > 0:
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	c := &Client{
		apiKey:     cfg.APIKey,
		username:   cfg.Username,
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     cfg.Logger,
		limiter:    limiter,
		maxRetries: maxRetries,
	}

	c.user = &UserService{client: c}
	c.artist = &ArtistService{client: c}

	return c, nil
}

// User returns the user history service.
func (c *Client) User() *UserService {
	return c.user
}

// Artist returns the artist metadata service.
func (c *Client) Artist() *ArtistService {
	return c.artist
}

// Username returns the configured user.
func (c *Client) Username() string {
	return c.username
}

// logDebugf logs a debug message if a logger is configured.
func (c *Client) logDebugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}
