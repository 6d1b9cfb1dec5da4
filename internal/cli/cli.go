package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/nyc-events/internal/config"
	"github.com/pfrederiksen/nyc-events/internal/digest"
	"github.com/pfrederiksen/nyc-events/internal/logger"
	"github.com/pfrederiksen/nyc-events/internal/notifier"
	"github.com/pfrederiksen/nyc-events/internal/pipeline"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// options holds the flags shared by the root and schedule commands
type options struct {
	configPath string
	envFile    string
	daysAhead  int
	maxEvents  int
	noCalendar bool
	format     string
	dryRun     bool
	icsOut     string
	browser    bool
	verbose    bool
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "nyc-events",
		Short: "Find NYC events that fit your calendar",
		Long: `Scrapes Luma, Eventbrite, Meetup and GarysGuide for upcoming New York
events, drops those that clash with your calendar, ranks the rest and
sends a digest by email, Telegram or to the console.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "config.yaml", "Path to YAML config file (optional)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "Path to .env file (optional)")
	flags.IntVar(&opts.daysAhead, "days-ahead", 0, "Search window in days (overrides config)")
	flags.IntVar(&opts.maxEvents, "max-events", 0, "Maximum events in the digest (overrides config)")
	flags.BoolVar(&opts.noCalendar, "no-calendar", false, "Skip calendar conflict filtering")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Print the digest instead of sending it")
	flags.BoolVar(&opts.browser, "browser", false, "Fetch pages with headless Chrome")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")

	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&opts.icsOut, "ics-out", "", "Also write the selected events to this .ics file")

	cmd.AddCommand(newScheduleCmd(opts))
	cmd.AddCommand(newSourcesCmd(opts))

	return cmd
}

// loadConfig reads .env, the config file and flag overrides, and configures logging
func loadConfig(opts *options) (*config.Config, error) {
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if opts.daysAhead > 0 {
		cfg.DaysAhead = opts.daysAhead
	}
	if opts.maxEvents > 0 {
		cfg.MaxEvents = opts.maxEvents
	}
	if opts.noCalendar {
		cfg.Calendar.Enabled = false
	}
	if opts.dryRun {
		cfg.Notify.Channel = config.ChannelConsole
	}

	level := logger.ParseLevel(cfg.LogLevel)
	if opts.verbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, os.Stderr))

	return cfg, nil
}

// buildPipeline creates the notifier and pipeline for cfg. JSON output
// replaces console printing so stdout stays machine-readable.
func buildPipeline(cfg *config.Config, opts *options, out io.Writer, format OutputFormat) (*pipeline.Pipeline, error) {
	var n notifier.Notifier
	if !(format == FormatJSON && cfg.Notify.Channel == config.ChannelConsole) {
		built, err := notifier.FromConfig(cfg, out)
		if err != nil {
			return nil, err
		}
		n = built
	}
	return pipeline.Build(cfg, n, opts.browser)
}

func runOnce(ctx context.Context, opts *options, out io.Writer) error {
	format := OutputFormat(strings.ToLower(opts.format))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", opts.format)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	p, err := buildPipeline(cfg, opts, out, format)
	if err != nil {
		return err
	}

	result, runErr := p.Run(ctx)
	if result == nil {
		return runErr
	}

	if opts.icsOut != "" {
		if err := writeICSFile(opts.icsOut, result); err != nil {
			return err
		}
	}

	if err := WriteOutput(out, result, format, opts.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return runErr
}

func writeICSFile(path string, result *pipeline.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	n, err := digest.WriteICS(f, result.Selected, result.GeneratedAt)
	if err != nil {
		return err
	}
	logger.Info("Wrote calendar file", logger.Fields{"path": path, "events": n})
	return f.Close()
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
