package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jfmyers9/scrobbledash/internal/feed"
	"github.com/jfmyers9/scrobbledash/internal/metrics"
	"github.com/jfmyers9/scrobbledash/internal/tui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	dashboardMetricsAddr string
	dashboardHeadless    bool
)

// dashboardCmd represents the dashboard command
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the live listening dashboard",
	Long: `Open a terminal dashboard showing your Last.fm activity with live updates.

The dashboard includes:
- Now playing bar
- Recent tracks, newest first, with load-more paging
- Top artists for the configured period, with artwork filled in the background

Both lists refresh automatically on the configured interval.

Keys:
  r    refresh now
  m    load more recent tracks
  +/-  change the auto-refresh interval (15s, 20s, 30s, 60s, 120s)
  q    quit

Logs are discarded unless --log-file is given. With --headless no UI is
drawn and events are logged instead, which together with --metrics-addr
suits running as a background exporter.`,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)

	dashboardCmd.Flags().StringVar(&dashboardMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	dashboardCmd.Flags().BoolVar(&dashboardHeadless, "headless", false, "Run without the terminal UI and log events")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(logFile, logLevel, !dashboardHeadless)

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if dashboardMetricsAddr != "" {
		stop := serveMetrics(dashboardMetricsAddr, logger)
		defer stop()
	}

	events := feed.NewChanPublisher(64)

	dash, err := feed.NewDashboard(feed.Options{
		Source:    feed.NewLastFMSource(client, logger),
		PageSize:  cfg.PageSize,
		Period:    cfg.TopPeriod,
		Interval:  cfg.Interval(),
		Workers:   cfg.EnrichmentWorkers,
		Publisher: events,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create dashboard: %w", err)
	}
	// Release blocked publishers before waiting on them
	defer dash.Close()
	defer events.Close()

	logger.Info().
		Str("user", cfg.LastFM.Username).
		Str("period", cfg.TopPeriod).
		Dur("interval", cfg.Interval()).
		Msg("Starting dashboard")

	dash.Start(ctx)

	if dashboardHeadless {
		logEvents(ctx, events, logger)
		return nil
	}

	app := tui.New(dash, tui.DefaultConfig())
	return app.Run(ctx, events.Events())
}

// logEvents logs engine events until ctx is cancelled
func logEvents(ctx context.Context, events *feed.ChanPublisher, logger zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Shutdown signal received")
			return
		case e := <-events.Events():
			switch ev := e.(type) {
			case feed.SnapshotChanged[feed.TrackEntry]:
				logger.Info().Str("mode", ev.Mode.String()).Int("tracks", len(ev.Items)).
					Int("page", ev.CurrentPage).Int("total_pages", ev.TotalPages).Msg("Recent tracks updated")
			case feed.SnapshotChanged[feed.ArtistEntry]:
				logger.Info().Int("artists", len(ev.Items)).Msg("Top artists updated")
			case feed.NowPlayingChanged:
				if ev.Entry == nil {
					logger.Info().Msg("Nothing playing")
				} else {
					logger.Info().Str("track", ev.Entry.Title).Str("artist", ev.Entry.Artist).Msg("Now playing")
				}
			case feed.ArtworkResolved:
				logger.Debug().Str("artist", ev.Name).Str("url", ev.URL).Msg("Artwork resolved")
			case feed.FetchFailed:
				logger.Warn().Err(ev.Err).Str("series", ev.Series.String()).Msg("Fetch failed")
			case feed.TickSkipped:
				logger.Debug().Bool("tracks_busy", ev.TracksBusy).Bool("artists_busy", ev.ArtistsBusy).Msg("Refresh tick skipped")
			}
		}
	}
}

// serveMetrics starts the Prometheus endpoint and returns a function that
// shuts it down
func serveMetrics(addr string, logger zerolog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Serving metrics")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server error")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
