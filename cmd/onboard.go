package cmd

import (
	"fmt"
	"strconv"

	"github.com/CosmoTheDev/glwatch/internal/config"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Interactive setup wizard for glwatch",
	Long: `Walks you through configuring glwatch:
  - GitLab instance URL and personal access token
  - Poll interval
  - Telegram bot credentials (optional)
  - Generic webhook endpoint (optional)

The result is written to ~/.glwatch/config.toml.`,
	RunE: runOnboard,
}

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FC6D26")).
	MarginBottom(1)

var successStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#10B981"))

var warnStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#F59E0B"))

var dimStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#6B7280"))

func runOnboard(cmd *cobra.Command, args []string) error {
	fmt.Println()
	fmt.Println(headerStyle.Render("  glwatch — GitLab activity monitor"))
	fmt.Println(dimStyle.Render("  Polls GitLab and pings your channel when something changes.\n"))

	// Load existing config or start fresh.
	cfg, err := config.Load(cfgFile)
	if err != nil {
		cfg = &config.Config{}
	}
	if cfg.GitLab.URL == "" {
		cfg.GitLab.URL = config.DefaultGitLabURL
	}
	if cfg.GitLab.PollInterval == 0 {
		cfg.GitLab.PollInterval = config.DefaultPollInterval
	}

	if err := config.EnsureDir(); err != nil {
		return fmt.Errorf("creating glwatch directory: %w", err)
	}

	// --- Step 1: GitLab ---
	fmt.Println(headerStyle.Render("  Step 1/3 · GitLab"))

	interval := strconv.Itoa(cfg.GitLab.PollInterval)
	gitlabForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("GitLab URL").
				Description("Base URL of your GitLab instance.").
				Placeholder(config.DefaultGitLabURL).
				Value(&cfg.GitLab.URL),
			huh.NewInput().
				Title("Personal access token").
				Description("Needs the read_api scope. Required.").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.GitLab.Token).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("a GitLab token is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Poll interval (seconds)").
				Value(&interval).
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n <= 0 {
						return fmt.Errorf("enter a positive number of seconds")
					}
					return nil
				}),
		),
	)
	if err := gitlabForm.Run(); err != nil {
		return err
	}
	cfg.GitLab.PollInterval, _ = strconv.Atoi(interval)

	// --- Step 2: Telegram (optional) ---
	fmt.Println(headerStyle.Render("  Step 2/3 · Telegram (optional)"))
	fmt.Println(dimStyle.Render("  Leave blank to skip. Without a channel, changes are only logged.\n"))

	threadID := ""
	if cfg.Telegram.MessageThreadID != 0 {
		threadID = strconv.FormatInt(cfg.Telegram.MessageThreadID, 10)
	}
	telegramForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Bot token").
				Description("From @BotFather. Leave blank to skip Telegram.").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.Telegram.Token),
			huh.NewInput().
				Title("Chat id").
				Description("Target chat or group id (e.g. -1001234567890).").
				Value(&cfg.Telegram.DefaultChat),
			huh.NewInput().
				Title("Message thread id (optional)").
				Description("Forum topic id; leave blank for the main thread.").
				Value(&threadID).
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					if _, err := strconv.ParseInt(s, 10, 64); err != nil {
						return fmt.Errorf("enter a numeric thread id or leave blank")
					}
					return nil
				}),
		),
	)
	if err := telegramForm.Run(); err != nil {
		return err
	}
	if threadID != "" {
		cfg.Telegram.MessageThreadID, _ = strconv.ParseInt(threadID, 10, 64)
	} else {
		cfg.Telegram.MessageThreadID = 0
	}

	// --- Step 3: Webhook (optional) ---
	fmt.Println(headerStyle.Render("  Step 3/3 · Webhook (optional)"))

	webhookForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Webhook URL").
				Description("Every event is POSTed here as JSON. Leave blank to skip.").
				Value(&cfg.Webhook.URL),
			huh.NewInput().
				Title("Webhook secret (optional)").
				Description("Enables HMAC-SHA256 payload signing.").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.Webhook.Secret),
		),
	)
	if err := webhookForm.Run(); err != nil {
		return err
	}

	if err := config.Save(cfg, cfgFile); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	path, _ := config.ConfigPath(cfgFile)
	fmt.Println()
	fmt.Println(successStyle.Render("  Configuration saved to " + path))
	fmt.Println(dimStyle.Render("  Run 'glwatch doctor' to verify, then 'glwatch watch' to start."))
	fmt.Println()
	return nil
}
