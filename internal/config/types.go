package config

// Config is the root configuration structure for glwatch.
// Serialised to ~/.glwatch/config.toml.
type Config struct {
	GitLab   GitLabConfig   `mapstructure:"gitlab"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
}

// GitLabConfig points the monitor at a GitLab instance.
type GitLabConfig struct {
	// URL is the base URL of the instance (e.g. "https://gitlab.com").
	URL string `mapstructure:"url"`
	// Token is a personal access token with read_api scope. Required.
	Token string `mapstructure:"token"`
	// PollInterval is the poll cadence in seconds, shared by the pipeline,
	// push, and merge-request loops.
	PollInterval int `mapstructure:"poll_interval"`
}

// TelegramConfig controls the Telegram notification channel.
type TelegramConfig struct {
	// Token is the bot token from @BotFather.
	Token string `mapstructure:"token"`
	// DefaultChat is the chat id notifications are sent to.
	DefaultChat string `mapstructure:"default_chat"`
	// MessageThreadID targets a forum topic within the chat. Zero means the
	// chat's main thread.
	MessageThreadID int64 `mapstructure:"message_thread_id"`

	// PipelineTemplate, PushTemplate, and MRTemplate override the built-in
	// message templates (text/template syntax, rendered as Telegram HTML).
	PipelineTemplate string `mapstructure:"pipeline_template"`
	PushTemplate     string `mapstructure:"push_template"`
	MRTemplate       string `mapstructure:"mr_template"`

	// RepoMapping maps a mention tag (e.g. "@backend-team") to the project
	// names it should be pinged for.
	RepoMapping map[string][]string `mapstructure:"repo_mapping"`
}

// WebhookConfig controls the generic webhook notification channel.
type WebhookConfig struct {
	URL string `mapstructure:"url"`
	// Secret enables HMAC-SHA256 signing of the payload.
	Secret string `mapstructure:"secret"`
}
