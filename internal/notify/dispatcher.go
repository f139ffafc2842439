package notify

import (
	"context"
	"log/slog"

	"github.com/CosmoTheDev/glwatch/internal/config"
	"github.com/CosmoTheDev/glwatch/models"
)

// Dispatcher fans monitor events out to all configured channels. It is the
// handler registered with every poll loop.
type Dispatcher struct {
	channels []Channel
}

// NewDispatcher creates a Dispatcher from the given config.
// Only channels with IsConfigured() == true are active.
func NewDispatcher(cfg *config.Config) (*Dispatcher, error) {
	telegram, err := NewTelegram(cfg.Telegram, cfg.GitLab.URL)
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{}
	for _, ch := range []Channel{telegram, NewWebhook(cfg.Webhook)} {
		if ch.IsConfigured() {
			d.channels = append(d.channels, ch)
		}
	}
	return d, nil
}

// IsAnyConfigured returns true if at least one channel is ready to send.
func (d *Dispatcher) IsAnyConfigured() bool {
	return len(d.channels) > 0
}

// Notify sends evt to all configured channels. Send failures are logged and
// never returned; by the time an event reaches the dispatcher its
// transition is already committed, so a flaky channel must not disturb the
// poll loop.
func (d *Dispatcher) Notify(ctx context.Context, evt models.Event) error {
	for _, ch := range d.channels {
		if err := ch.Send(ctx, evt); err != nil {
			slog.Warn("notify: channel send failed",
				"channel", ch.Name(), "event", evt.Kind(), "project", evt.ProjectName(), "error", err)
		}
	}
	return nil
}
