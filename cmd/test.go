package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/cratedigger/lidarr"
	"github.com/s0up4200/cratedigger/llm"
	"github.com/s0up4200/cratedigger/qbittorrent"
	"github.com/s0up4200/cratedigger/radarr"
)

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connections to every configured service",
	Long:  `Test the connections to qBittorrent, Plex, the language model and, when enabled, Lidarr and Radarr.`,
	RunE:  runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	var failures int

	report := func(err error, success string) {
		if err != nil {
			failures++
			fmt.Printf("✗ %v\n", err)
			return
		}
		fmt.Printf("✓ %s\n", success)
	}

	for _, qb := range cfg.QBittorrent {
		fmt.Printf("Testing connection to qBittorrent %s at %s...\n", qb.Name, qb.URL)
		client, err := qbittorrent.NewClient(ctx, qbittorrent.Config{
			Name:     qb.Name,
			URL:      qb.URL,
			Username: qb.Username,
			Password: qb.Password,
		}, logger)
		if err != nil {
			report(err, "")
			continue
		}
		version, err := client.Version(ctx)
		report(err, fmt.Sprintf("Connected (qBittorrent %s)", version))
	}

	fmt.Printf("\nTesting connection to Plex at %s...\n", cfg.Plex.URL)
	plexClient, err := newPlexClient()
	if err == nil {
		identity, idErr := plexClient.TestConnection(ctx)
		if idErr == nil {
			report(nil, fmt.Sprintf("Connected (Plex Media Server %s)", identity.Version))
		} else {
			report(idErr, "")
		}
	} else {
		report(err, "")
	}

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, llm.WithLogger(logger), llm.WithRetryMaxAttempts(1))
	fmt.Printf("\nTesting language model %s...\n", client.Model())
	report(client.HealthCheck(ctx), "Model responded")

	if cfg.Lidarr.Enabled {
		fmt.Printf("\nTesting connection to Lidarr at %s...\n", cfg.Lidarr.URL)
		_, err := lidarr.NewClient(cfg.Lidarr.URL, cfg.Lidarr.APIKey, logger)
		report(err, "Connection successful!")
	} else {
		fmt.Println("\nLidarr integration: Disabled")
	}

	if cfg.Radarr.Enabled {
		fmt.Printf("\nTesting connection to Radarr at %s...\n", cfg.Radarr.URL)
		_, err := radarr.NewClient(cfg.Radarr.URL, cfg.Radarr.APIKey, logger)
		report(err, "Connection successful!")
	} else {
		fmt.Println("Radarr integration: Disabled")
	}

	if failures > 0 {
		return fmt.Errorf("%d connection check(s) failed", failures)
	}
	return nil
}
