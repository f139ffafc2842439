package cmd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/CosmoTheDev/glwatch/internal/config"
	"github.com/CosmoTheDev/glwatch/internal/gitlab"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Verify credentials and connectivity",
	Long: `Checks that the GitLab token works (by listing visible projects), that
the Telegram bot token is valid, and that the webhook URL parses.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	allOK := true

	fmt.Println("=== glwatch doctor ===")
	fmt.Println()

	// Check GitLab access.
	fmt.Print("GitLab access ............ ")
	if cfg.GitLab.Token == "" {
		fmt.Println("FAIL (no token configured — run 'glwatch onboard')")
		allOK = false
	} else {
		gl, err := gitlab.New(cfg.GitLab, &http.Client{Timeout: 10 * time.Second})
		if err != nil {
			fmt.Printf("FAIL (%s)\n", err)
			allOK = false
		} else if projects, err := gl.Projects(ctx); err != nil {
			fmt.Printf("FAIL (%s)\n", err)
			allOK = false
		} else {
			fmt.Printf("OK (%s, %d projects visible)\n", cfg.GitLab.URL, len(projects))
		}
	}

	// Check Telegram bot.
	fmt.Print("Telegram bot ............. ")
	switch {
	case cfg.Telegram.Token == "":
		fmt.Println("not configured (optional)")
	default:
		if err := checkTelegramBot(ctx, cfg.Telegram.Token); err != nil {
			fmt.Printf("FAIL (%s)\n", err)
			allOK = false
		} else if cfg.Telegram.DefaultChat == "" {
			fmt.Println("WARN (token valid but telegram.default_chat is not set)")
			allOK = false
		} else {
			fmt.Printf("OK (chat %s)\n", cfg.Telegram.DefaultChat)
		}
	}

	// Check webhook URL.
	fmt.Print("Webhook endpoint ......... ")
	switch {
	case cfg.Webhook.URL == "":
		fmt.Println("not configured (optional)")
	default:
		if u, err := url.Parse(cfg.Webhook.URL); err != nil || u.Scheme == "" || u.Host == "" {
			fmt.Printf("FAIL (invalid URL %q)\n", cfg.Webhook.URL)
			allOK = false
		} else {
			fmt.Printf("OK (%s)\n", u.Host)
		}
	}

	fmt.Println()
	if allOK {
		fmt.Println(successStyle.Render("All checks passed — glwatch is ready!"))
	} else {
		fmt.Println(warnStyle.Render("Some checks failed — run 'glwatch onboard' to fix."))
	}

	return nil
}

// checkTelegramBot calls the Bot API getMe endpoint.
func checkTelegramBot(ctx context.Context, token string) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/getMe", token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req) // #nosec G107 -- URL is the Telegram API base + user-configured bot token
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned %d", resp.StatusCode)
	}
	return nil
}
