package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/cratedigger/agent"
	"github.com/s0up4200/cratedigger/config"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger

	// Command flags
	dryRun    bool
	waitFlag  bool
	mediaFlag string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cratedigger <query>",
	Short: "Ask for music or movies and let an agent find and download them",
	Long: `cratedigger hands a free-form request to a language model that searches your
qBittorrent search plugins, checks what your Plex library already holds and adds
the best matching releases.

Example:
  cratedigger "the first two Portishead albums"`,
	Args:              cobra.ExactArgs(1),
	PersistentPreRunE: initializeApp,
	RunE:              runQuery,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "d", false, "search and pick releases without adding them")

	rootCmd.Flags().BoolVarP(&waitFlag, "wait", "w", false, "wait for downloads to finish and trigger Plex scans")
	rootCmd.Flags().StringVar(&mediaFlag, "media", "", "media kind assumed when the request does not say (music or movies)")
}

// initializeApp loads the configuration and sets up logging
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger = setupLogger(cfg.Logging)

	// Override dry-run from command line if specified
	if cmd.Flags().Changed("dry-run") {
		cfg.Safety.DryRun = dryRun
	}
	if mediaFlag != "" {
		if _, ok := cfg.Media.Kind(strings.ToLower(mediaFlag)); !ok {
			return fmt.Errorf("invalid --media %q (must be 'music' or 'movies')", mediaFlag)
		}
		cfg.Media.Default = strings.ToLower(mediaFlag)
	}

	if cfg.Safety.DryRun {
		logger.Info().Msg("Dry run enabled, torrents will not be added")
	}
	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := connectServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	a := svc.newAgent()
	result, err := a.Run(ctx, args[0])
	if result != nil && result.Answer != "" {
		fmt.Println(result.Answer)
	}
	if err != nil {
		return err
	}

	dispatches := result.Session.Dispatches()
	if len(dispatches) == 0 {
		return nil
	}
	if !waitFlag {
		fmt.Printf("\nAdded %d torrent(s) with tag %s\n", len(dispatches), result.Session.Tag)
		return nil
	}

	waitCtx := ctx
	if cfg.Agent.WaitTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, cfg.Agent.WaitTimeout)
		defer cancel()
	}

	finisher := agent.NewFinisher(svc.pool, svc.plex, mediaKinds(cfg.Media), cfg.Agent.WaitInterval, logger)
	paths, err := finisher.Finish(waitCtx, result.Session)
	if len(paths) > 0 {
		fmt.Println("\nThe following files have been added to the server:")
		for _, p := range paths {
			fmt.Printf("- %s\n", p)
		}
	}
	return err
}
