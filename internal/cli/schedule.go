package cli

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/nyc-events/internal/logger"
)

func newScheduleCmd(opts *options) *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run on the configured cron schedule until interrupted",
		Long: `Runs the digest on the cron expression from the config file
(default "0 9 * * 0", Sundays at 09:00 in the configured timezone) until
SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			schedule, err := cron.ParseStandard(cfg.Schedule)
			if err != nil {
				return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
			}

			p, err := buildPipeline(cfg, opts, cmd.OutOrStdout(), FormatText)
			if err != nil {
				return err
			}

			job := func() {
				logger.ResetMetrics()
				if _, err := p.Run(ctx); err != nil {
					logger.Error("Scheduled run failed", nil, err)
				}
			}

			c := cron.New(cron.WithLocation(loc))
			c.Schedule(schedule, cron.FuncJob(job))
			c.Start()

			next := schedule.Next(p.Options.Now())
			logger.Info("Scheduler started", logger.Fields{
				"schedule": cfg.Schedule,
				"timezone": loc.String(),
				"next_run": next.Format("2006-01-02T15:04:05Z07:00"),
			})
			fmt.Fprintf(cmd.OutOrStdout(), "Scheduled %q, next run at %s\n", cfg.Schedule, next.Format("Mon Jan 2 15:04 MST"))

			if runNow {
				job()
			}

			<-ctx.Done()
			logger.Info("Signal received, shutting down", nil)
			<-c.Stop().Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&runNow, "run-now", false, "Also run once immediately")
	return cmd
}
