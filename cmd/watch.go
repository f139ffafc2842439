package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CosmoTheDev/glwatch/internal/config"
	"github.com/CosmoTheDev/glwatch/internal/gitlab"
	"github.com/CosmoTheDev/glwatch/internal/monitor"
	"github.com/CosmoTheDev/glwatch/internal/notify"
	"github.com/spf13/cobra"
)

var watchInterval int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Start monitoring GitLab and sending notifications",
	Long: `Starts the three poll loops (pipelines, pushes, merge requests) against
the configured GitLab instance and forwards detected changes to the
configured notification channels.

The first poll cycle of each loop only records the current state, so a
fresh start never floods the channel with old activity. Runs until
interrupted.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchInterval, "interval", 0,
		"Poll interval in seconds (overrides config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown on SIGINT/SIGTERM.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		fmt.Println("\nShutting down gracefully...")
		cancel()
	}()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config.
	if watchInterval > 0 {
		cfg.GitLab.PollInterval = watchInterval
	}
	if cfg.GitLab.PollInterval <= 0 {
		cfg.GitLab.PollInterval = config.DefaultPollInterval
	}

	// The one failure that is not absorbed: refuse to start without a token.
	if cfg.GitLab.Token == "" {
		return fmt.Errorf("no GitLab token configured; run 'glwatch onboard' or set gitlab.token")
	}

	// One HTTP client for every API call, for the process lifetime.
	httpClient := &http.Client{Timeout: 30 * time.Second}
	gl, err := gitlab.New(cfg.GitLab, httpClient)
	if err != nil {
		return err
	}

	dispatcher, err := notify.NewDispatcher(cfg)
	if err != nil {
		return fmt.Errorf("configuring notifications: %w", err)
	}

	interval := time.Duration(cfg.GitLab.PollInterval) * time.Second
	fmt.Printf("glwatch starting (gitlab: %s, interval: %s)\n\n", cfg.GitLab.URL, interval)
	if !dispatcher.IsAnyConfigured() {
		fmt.Println(warnStyle.Render("  No notification channel configured."))
		fmt.Println(dimStyle.Render("  Detected changes will only be logged. Run 'glwatch onboard'"))
		fmt.Println(dimStyle.Render("  to add a Telegram bot or webhook endpoint."))
		fmt.Println()
	}
	fmt.Println("Press Ctrl+C to stop gracefully.")
	fmt.Println()

	sched := monitor.NewScheduler(interval)
	sched.Start(ctx,
		monitor.NewPoller(gl, monitor.NewPipelineFeed(gl), dispatcher.Notify),
		monitor.NewPoller(gl, monitor.NewPushFeed(gl), dispatcher.Notify),
		monitor.NewPoller(gl, monitor.NewMergeRequestFeed(gl), dispatcher.Notify),
	)

	<-ctx.Done()
	sched.Stop()
	fmt.Println(successStyle.Render("glwatch stopped."))
	return nil
}
