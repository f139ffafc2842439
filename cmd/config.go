package cmd

import (
	"fmt"

	"github.com/CosmoTheDev/glwatch/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the glwatch configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets redacted",
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ConfigPath(cfgFile)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Println("[gitlab]")
	fmt.Printf("url           = %s\n", cfg.GitLab.URL)
	fmt.Printf("token         = %s\n", redact(cfg.GitLab.Token))
	fmt.Printf("poll_interval = %d\n", cfg.GitLab.PollInterval)
	fmt.Println()
	fmt.Println("[telegram]")
	fmt.Printf("token             = %s\n", redact(cfg.Telegram.Token))
	fmt.Printf("default_chat      = %s\n", cfg.Telegram.DefaultChat)
	fmt.Printf("message_thread_id = %d\n", cfg.Telegram.MessageThreadID)
	for mention, projects := range cfg.Telegram.RepoMapping {
		fmt.Printf("repo_mapping.%s = %v\n", mention, projects)
	}
	fmt.Println()
	fmt.Println("[webhook]")
	fmt.Printf("url    = %s\n", cfg.Webhook.URL)
	fmt.Printf("secret = %s\n", redact(cfg.Webhook.Secret))
	return nil
}

func redact(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
