/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/jfmyers9/scrobbledash/internal/feed"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

// nowCmd represents the now command
var nowCmd = &cobra.Command{
	Use:   "now",
	Short: "Display the track Last.fm reports as now playing",
	Long: `Query Last.fm and display the track currently being scrobbled.

The output format can be customized in ~/.config/scrobbledash/config.yaml
using a Go template. Available fields: .Title, .Artist, .Album, .ArtworkURL

Exit codes:
  0 - A track is currently playing
  1 - Nothing playing, or Last.fm could not be reached`,
	RunE: runNow,
}

func init() {
	rootCmd.AddCommand(nowCmd)

	// Add format flag to override config
	nowCmd.Flags().StringP("format", "f", "", "Output format template (overrides config)")
	// Add width flag to set fixed output width
	nowCmd.Flags().IntP("width", "w", 0, "Fixed output width (0=disabled)")
}

func runNow(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Check for format flag override
	formatFlag, _ := cmd.Flags().GetString("format")
	if formatFlag != "" {
		cfg.OutputFormat = formatFlag
	}

	logger := setupLogger(logFile, logLevel, false)
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	fetcher := feed.NewFetcher(feed.NewLastFMSource(client, logger), logger)

	// The live row, when there is one, leads the first page
	page, err := fetcher.RecentTracks(ctx, 1, 1)
	if err != nil {
		return fmt.Errorf("failed to get recent tracks: %w", err)
	}

	// If not playing, exit with code 1
	track, ok := feed.FindNowPlaying(page.Items)
	if !ok {
		os.Exit(1)
		return nil
	}

	// Format and print output
	output, err := formatTrack(track, cfg.OutputFormat)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	// Apply width padding if requested
	width, _ := cmd.Flags().GetInt("width")
	if width > 0 {
		output = padToWidth(output, width)
	}

	fmt.Println(output)
	return nil
}

// formatTrack applies the template to the track data
func formatTrack(track feed.TrackEntry, templateStr string) (string, error) {
	tmpl, err := template.New("output").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("invalid template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, track); err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}

	return buf.String(), nil
}

// padToWidth pads or truncates text to a fixed display width.
// Width is measured in display columns, accounting for Unicode characters.
// If width <= 0, returns text unchanged.
// If text is longer than width, truncates with "..." suffix.
func padToWidth(text string, width int) string {
	if width <= 0 {
		return text // no padding requested
	}

	currentWidth := runewidth.StringWidth(text)

	if currentWidth > width {
		ellipsis := "..."
		ellipsisWidth := runewidth.StringWidth(ellipsis)

		if width <= ellipsisWidth {
			// If width is too small, just return ellipsis truncated to width
			return runewidth.Truncate(ellipsis, width, "")
		}

		// No space before the ellipsis; FillRight covers a wide rune
		// that did not fit
		cut := strings.TrimRight(runewidth.Truncate(text, width-ellipsisWidth, ""), " ")
		return runewidth.FillRight(cut+ellipsis, width)
	}

	return runewidth.FillRight(text, width)
}

// trimLine collapses a value to one line for tabular output
func trimLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
