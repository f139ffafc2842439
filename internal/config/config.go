package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultConfigDir  = ".glwatch"
	DefaultConfigFile = "config.toml"

	DefaultGitLabURL    = "https://gitlab.com"
	DefaultPollInterval = 5 // seconds
)

// Load reads the config file and returns a populated Config. A missing file
// is not an error; defaults and GLWATCH_* environment variables still apply.
// The configPath flag may override the default location.
func Load(configPath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix("glwatch")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(filepath.Join(home, DefaultConfigDir))
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !isNotExist(err) {
			// Config file exists but is malformed.
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to disk as TOML.
func Save(cfg *Config, configPath string) error {
	path, err := ConfigPath(configPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("gitlab.url", cfg.GitLab.URL)
	v.Set("gitlab.token", cfg.GitLab.Token)
	v.Set("gitlab.poll_interval", cfg.GitLab.PollInterval)
	v.Set("telegram.token", cfg.Telegram.Token)
	v.Set("telegram.default_chat", cfg.Telegram.DefaultChat)
	v.Set("telegram.message_thread_id", cfg.Telegram.MessageThreadID)
	if cfg.Telegram.PipelineTemplate != "" {
		v.Set("telegram.pipeline_template", cfg.Telegram.PipelineTemplate)
	}
	if cfg.Telegram.PushTemplate != "" {
		v.Set("telegram.push_template", cfg.Telegram.PushTemplate)
	}
	if cfg.Telegram.MRTemplate != "" {
		v.Set("telegram.mr_template", cfg.Telegram.MRTemplate)
	}
	if len(cfg.Telegram.RepoMapping) > 0 {
		v.Set("telegram.repo_mapping", cfg.Telegram.RepoMapping)
	}
	v.Set("webhook.url", cfg.Webhook.URL)
	v.Set("webhook.secret", cfg.Webhook.Secret)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ConfigPath returns the effective config file path.
func ConfigPath(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile), nil
}

// EnsureDir creates ~/.glwatch if it doesn't exist.
func EnsureDir() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	dir := filepath.Join(home, DefaultConfigDir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return nil
}

// setDefaults populates viper with sensible out-of-the-box values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("gitlab.url", DefaultGitLabURL)
	v.SetDefault("gitlab.token", "")
	v.SetDefault("gitlab.poll_interval", DefaultPollInterval)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.default_chat", "")
	v.SetDefault("telegram.message_thread_id", 0)

	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.secret", "")
}

func isNotExist(err error) bool {
	return os.IsNotExist(err) || strings.Contains(err.Error(), "no such file")
}
