package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/jfmyers9/scrobbledash/internal/feed"
	"github.com/spf13/cobra"
)

var (
	recentLimit int
	recentPage  int
	recentJSON  bool
)

// recentCmd represents the recent command
var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Print one page of recent tracks",
	Long: `Print one page of your recent tracks, newest first.

The track currently playing, if any, is listed first and marked "now".`,
	RunE: runRecent,
}

func init() {
	rootCmd.AddCommand(recentCmd)

	recentCmd.Flags().IntVarP(&recentLimit, "limit", "l", 0, "Tracks per page (default: page_size from config)")
	recentCmd.Flags().IntVarP(&recentPage, "page", "p", 1, "Page number")
	recentCmd.Flags().BoolVar(&recentJSON, "json", false, "Print JSON instead of a table")
}

// trackJSON is the --json form of a track row
type trackJSON struct {
	Title      string     `json:"title"`
	Artist     string     `json:"artist"`
	Album      string     `json:"album,omitempty"`
	PlayedAt   *time.Time `json:"played_at,omitempty"`
	NowPlaying bool       `json:"now_playing"`
	ArtworkURL string     `json:"artwork_url,omitempty"`
}

type pageJSON[T any] struct {
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
	Items      []T `json:"items"`
}

func runRecent(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	limit := recentLimit
	if limit <= 0 {
		limit = cfg.PageSize
	}

	logger := setupLogger(logFile, logLevel, false)
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	fetcher := feed.NewFetcher(feed.NewLastFMSource(client, logger), logger)

	page, err := fetcher.RecentTracks(ctx, limit, recentPage)
	if err != nil {
		return fmt.Errorf("failed to get recent tracks: %w", err)
	}

	if recentJSON {
		return writeTracksJSON(os.Stdout, page)
	}
	return writeTracks(os.Stdout, page, time.Now())
}

func writeTracks(w io.Writer, page feed.Page[feed.TrackEntry], now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAYED\tARTIST\tTITLE\tALBUM")
	for _, t := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", playedAgo(t, now), trimLine(t.Artist), trimLine(t.Title), trimLine(t.Album))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nPage %d of %d\n", page.Number, page.TotalPages)
	return err
}

func writeTracksJSON(w io.Writer, page feed.Page[feed.TrackEntry]) error {
	out := pageJSON[trackJSON]{Page: page.Number, TotalPages: page.TotalPages, Items: make([]trackJSON, 0, len(page.Items))}
	for _, t := range page.Items {
		out.Items = append(out.Items, trackJSON{
			Title:      t.Title,
			Artist:     t.Artist,
			Album:      t.Album,
			PlayedAt:   t.PlayedAt,
			NowPlaying: t.LiveNow,
			ArtworkURL: t.ArtworkURL,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func playedAgo(t feed.TrackEntry, now time.Time) string {
	switch {
	case t.LiveNow:
		return "now"
	case t.PlayedAt == nil:
		return "-"
	default:
		return humanize.RelTime(*t.PlayedAt, now, "ago", "from now")
	}
}
