package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jfmyers9/scrobbledash/internal/config"
	"github.com/spf13/cobra"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Set up your Last.fm account",
	Long: `Set up the Last.fm account the dashboard reads from.

You'll be prompted for a Last.fm API key and the username whose listening
history should be shown. The key is checked with a test request before it
is saved.

You can get an API key from: https://www.last.fm/api/account/create`,
	RunE: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	// Load existing config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("Last.fm Setup")
	fmt.Println("=============")
	fmt.Println()
	fmt.Println("You can get an API key from: https://www.last.fm/api/account/create")
	fmt.Println()

	if err := promptCredentials(bufio.NewReader(os.Stdin), os.Stdout, cfg); err != nil {
		return err
	}

	// Check the credentials with one request
	fmt.Println("\nChecking credentials...")
	logger := setupLogger(logFile, logLevel, true)
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if _, err := client.User().GetRecentTracks(ctx, 1, 1); err != nil {
		return fmt.Errorf("could not read recent tracks for %q: %w", cfg.LastFM.Username, err)
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("\n✓ Credentials verified\n")
	fmt.Printf("✓ Saved to %s/config.yaml\n", config.GetConfigDir())
	fmt.Println("\nRun 'scrobbledash dashboard' to start.")

	return nil
}

// promptCredentials asks for the API key and username, offering to keep
// values that are already set.
func promptCredentials(reader *bufio.Reader, out io.Writer, cfg *config.Config) error {
	if cfg.LastFM.APIKey != "" && cfg.LastFM.Username != "" {
		fmt.Fprintf(out, "Found existing account.\n")
		fmt.Fprintf(out, "API Key:  %s\n", cfg.LastFM.APIKey)
		fmt.Fprintf(out, "Username: %s\n", cfg.LastFM.Username)
		fmt.Fprint(out, "\nUse existing account? [Y/n]: ")
		response, err := reader.ReadString('\n')
		if err != nil {
			response = "y"
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "" && response != "y" && response != "yes" {
			cfg.LastFM.APIKey = ""
			cfg.LastFM.Username = ""
		}
	}

	if cfg.LastFM.APIKey == "" {
		fmt.Fprint(out, "Enter your Last.fm API Key: ")
		apiKey, err := reader.ReadString('\n')
		if err != nil && apiKey == "" {
			return fmt.Errorf("failed to read API key: %w", err)
		}
		cfg.LastFM.APIKey = strings.TrimSpace(apiKey)
	}

	if cfg.LastFM.Username == "" {
		fmt.Fprint(out, "Enter your Last.fm username: ")
		username, err := reader.ReadString('\n')
		if err != nil && username == "" {
			return fmt.Errorf("failed to read username: %w", err)
		}
		cfg.LastFM.Username = strings.TrimSpace(username)
	}

	if cfg.LastFM.APIKey == "" || cfg.LastFM.Username == "" {
		return fmt.Errorf("API key and username are required")
	}
	return nil
}
