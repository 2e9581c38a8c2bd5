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
	"github.com/jfmyers9/scrobbledash/pkg/lastfm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	topPeriod  string
	topLimit   int
	topPage    int
	topArtwork bool
	topJSON    bool
)

// topCmd represents the top command
var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Print one page of top artists",
	Long: `Print one page of your top artists for a period, ranked by play count.

With --artwork, artists Last.fm returns without an image are looked up the
same way the dashboard does it: the artist's own image first, then the cover
of their most played album.`,
	RunE: runTop,
}

func init() {
	rootCmd.AddCommand(topCmd)

	topCmd.Flags().StringVar(&topPeriod, "period", "", "Period (overall, 7day, 1month, 3month, 6month, 12month)")
	topCmd.Flags().IntVarP(&topLimit, "limit", "l", 0, "Artists per page (default: page_size from config)")
	topCmd.Flags().IntVarP(&topPage, "page", "p", 1, "Page number")
	topCmd.Flags().BoolVar(&topArtwork, "artwork", false, "Resolve missing artist artwork")
	topCmd.Flags().BoolVar(&topJSON, "json", false, "Print JSON instead of a table")
}

// artistJSON is the --json form of an artist row
type artistJSON struct {
	Rank       int    `json:"rank"`
	Name       string `json:"name"`
	PlayCount  int    `json:"play_count"`
	ArtworkURL string `json:"artwork_url,omitempty"`
}

func runTop(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	period := topPeriod
	if period == "" {
		period = cfg.TopPeriod
	}
	if !lastfm.ValidPeriod(period) {
		return fmt.Errorf("invalid period %q: must be one of %v", period, lastfm.Periods)
	}
	limit := topLimit
	if limit <= 0 {
		limit = cfg.PageSize
	}

	logger := setupLogger(logFile, logLevel, false)
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	src := feed.NewLastFMSource(client, logger)

	page, err := feed.NewFetcher(src, logger).TopArtists(ctx, period, limit, topPage)
	if err != nil {
		return fmt.Errorf("failed to get top artists: %w", err)
	}

	if topArtwork {
		page.Items = resolveArtwork(ctx, feed.NewResolver(src, nil, logger), page.Items, logger)
	}

	rankBase := (page.Number-1)*page.PerPage + 1
	if topJSON {
		return writeArtistsJSON(os.Stdout, page, rankBase)
	}
	return writeArtists(os.Stdout, page, rankBase)
}

// resolveArtwork fills in artwork for rows that have none. Failed lookups
// leave the row unchanged.
func resolveArtwork(ctx context.Context, resolver *feed.Resolver, rows []feed.ArtistEntry, logger zerolog.Logger) []feed.ArtistEntry {
	out := make([]feed.ArtistEntry, len(rows))
	for i, row := range rows {
		out[i] = row
		if row.ArtworkURL != "" {
			continue
		}
		url, err := resolver.Resolve(ctx, row.Name)
		if err != nil {
			logger.Debug().Err(err).Str("artist", row.Name).Msg("Artwork lookup failed")
			continue
		}
		out[i].ArtworkURL = url
	}
	return out
}

func writeArtists(w io.Writer, page feed.Page[feed.ArtistEntry], rankBase int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tARTIST\tPLAYS\tARTWORK")
	for i, a := range page.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", rankBase+i, trimLine(a.Name), humanize.Comma(int64(a.PlayCount)), a.ArtworkURL)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nPage %d of %d\n", page.Number, page.TotalPages)
	return err
}

func writeArtistsJSON(w io.Writer, page feed.Page[feed.ArtistEntry], rankBase int) error {
	out := pageJSON[artistJSON]{Page: page.Number, TotalPages: page.TotalPages, Items: make([]artistJSON, 0, len(page.Items))}
	for i, a := range page.Items {
		out.Items = append(out.Items, artistJSON{
			Rank:       rankBase + i,
			Name:       a.Name,
			PlayCount:  a.PlayCount,
			ArtworkURL: a.ArtworkURL,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
