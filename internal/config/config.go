package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jfmyers9/scrobbledash/internal/feed"
	"github.com/jfmyers9/scrobbledash/pkg/lastfm"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Output format template for the now command
	// Default: "{{.Artist}} - {{.Title}}"
	OutputFormat string

	// Auto-refresh interval for the dashboard (in seconds)
	RefreshInterval int

	// Rows per page for recent tracks and top artists
	PageSize int

	// Top artists period (overall, 7day, 1month, 3month, 6month, 12month)
	TopPeriod string

	// Number of background artwork workers
	EnrichmentWorkers int

	// Last.fm requests per second
	RateLimit float64

	// Last.fm API credentials
	LastFM LastFMConfig
}

// LastFMConfig holds Last.fm specific configuration
type LastFMConfig struct {
	APIKey   string
	Username string
}

// Keys lists the settings accepted by Set, in display order.
var Keys = []string{
	"lastfm.api_key",
	"lastfm.username",
	"refresh_interval",
	"page_size",
	"top_period",
	"enrichment_workers",
	"rate_limit",
	"output_format",
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	configDir := getConfigDir()
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	// Set defaults
	v.SetDefault("output_format", "{{.Artist}} - {{.Title}}")
	v.SetDefault("refresh_interval", int(feed.DefaultInterval/time.Second))
	v.SetDefault("page_size", feed.DefaultPageSize)
	v.SetDefault("top_period", feed.DefaultPeriod)
	v.SetDefault("enrichment_workers", feed.DefaultWorkers)
	v.SetDefault("rate_limit", lastfm.DefaultRateLimit)

	// Read config file (missing is fine, malformed is not)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Read from environment variables, e.g. SCROBBLEDASH_LASTFM_API_KEY
	v.SetEnvPrefix("SCROBBLEDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map config to struct
	cfg := &Config{
		OutputFormat:      v.GetString("output_format"),
		RefreshInterval:   v.GetInt("refresh_interval"),
		PageSize:          v.GetInt("page_size"),
		TopPeriod:         v.GetString("top_period"),
		EnrichmentWorkers: v.GetInt("enrichment_workers"),
		RateLimit:         v.GetFloat64("rate_limit"),
		LastFM: LastFMConfig{
			APIKey:   v.GetString("lastfm.api_key"),
			Username: v.GetString("lastfm.username"),
		},
	}

	return cfg, nil
}

// Validate reports settings that keep the dashboard from fetching. Every
// returned error wraps feed.ErrConfiguration.
func (c *Config) Validate() error {
	var problems []error

	if strings.TrimSpace(c.LastFM.APIKey) == "" {
		problems = append(problems, errors.New("lastfm.api_key is not set"))
	}
	if strings.TrimSpace(c.LastFM.Username) == "" {
		problems = append(problems, errors.New("lastfm.username is not set"))
	}
	if err := feed.ValidateInterval(c.Interval()); err != nil {
		problems = append(problems, fmt.Errorf("refresh_interval: %w", err))
	}
	if c.TopPeriod != "" && !lastfm.ValidPeriod(c.TopPeriod) {
		problems = append(problems, fmt.Errorf("top_period %q is not one of %s", c.TopPeriod, strings.Join(lastfm.Periods, ", ")))
	}
	if c.PageSize < 0 || c.PageSize > 200 {
		problems = append(problems, fmt.Errorf("page_size %d is out of range 1-200", c.PageSize))
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", feed.ErrConfiguration, errors.Join(problems...))
}

// Interval returns the refresh interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.RefreshInterval) * time.Second
}

// Set updates one setting by its key (see Keys).
func (c *Config) Set(key, value string) error {
	switch key {
	case "lastfm.api_key":
		c.LastFM.APIKey = value
	case "lastfm.username":
		c.LastFM.Username = value
	case "output_format":
		c.OutputFormat = value
	case "top_period":
		if !lastfm.ValidPeriod(value) {
			return fmt.Errorf("invalid top_period %q: must be one of %s", value, strings.Join(lastfm.Periods, ", "))
		}
		c.TopPeriod = value
	case "refresh_interval", "page_size", "enrichment_workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		switch key {
		case "refresh_interval":
			if err := feed.ValidateInterval(time.Duration(n) * time.Second); err != nil {
				return err
			}
			c.RefreshInterval = n
		case "page_size":
			c.PageSize = n
		default:
			c.EnrichmentWorkers = n
		}
	case "rate_limit":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid rate_limit %q: %w", value, err)
		}
		c.RateLimit = f
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// Get returns one setting by its key as text.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "lastfm.api_key":
		return c.LastFM.APIKey, nil
	case "lastfm.username":
		return c.LastFM.Username, nil
	case "output_format":
		return c.OutputFormat, nil
	case "top_period":
		return c.TopPeriod, nil
	case "refresh_interval":
		return strconv.Itoa(c.RefreshInterval), nil
	case "page_size":
		return strconv.Itoa(c.PageSize), nil
	case "enrichment_workers":
		return strconv.Itoa(c.EnrichmentWorkers), nil
	case "rate_limit":
		return strconv.FormatFloat(c.RateLimit, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// getConfigDir returns the configuration directory path
// Creates the directory if it doesn't exist
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "scrobbledash")

	// Create config directory if it doesn't exist
	_ = os.MkdirAll(configDir, 0755)

	return configDir
}

// GetConfigDir returns the configuration directory path (public helper)
func GetConfigDir() string {
	return getConfigDir()
}

// Save writes configuration to file
func (c *Config) Save() error {
	v := viper.New()

	// Set config file path
	configDir := getConfigDir()
	configFile := filepath.Join(configDir, "config.yaml")

	// Set values in viper
	v.Set("output_format", c.OutputFormat)
	v.Set("refresh_interval", c.RefreshInterval)
	v.Set("page_size", c.PageSize)
	v.Set("top_period", c.TopPeriod)
	v.Set("enrichment_workers", c.EnrichmentWorkers)
	v.Set("rate_limit", c.RateLimit)
	v.Set("lastfm.api_key", c.LastFM.APIKey)
	v.Set("lastfm.username", c.LastFM.Username)

	// Write to file
	return v.WriteConfigAs(configFile)
}
