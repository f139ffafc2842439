package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/CosmoTheDev/glwatch/internal/config"
	"github.com/CosmoTheDev/glwatch/models"
)

// WebhookChannel sends monitor events to a generic HTTP endpoint with
// optional HMAC-SHA256 signing.
type WebhookChannel struct {
	cfg    config.WebhookConfig
	client *http.Client
}

// NewWebhook creates a WebhookChannel from cfg.
func NewWebhook(cfg config.WebhookConfig) *WebhookChannel {
	return &WebhookChannel{cfg: cfg, client: &http.Client{Timeout: 5 * time.Second}}
}

func (w *WebhookChannel) Name() string       { return "webhook" }
func (w *WebhookChannel) IsConfigured() bool { return w.cfg.URL != "" }

func (w *WebhookChannel) Send(ctx context.Context, evt models.Event) error {
	payload := map[string]any{
		"type":         string(evt.Kind()),
		"project_id":   evt.ProjectID(),
		"project_name": evt.ProjectName(),
		"timestamp":    evt.OccurredAt().UTC().Format(time.RFC3339),
	}
	switch e := evt.(type) {
	case models.PipelineEvent:
		payload["pipeline_id"] = e.PipelineID
		payload["status"] = e.Status
	case models.PushEvent:
		payload["event_id"] = e.EventID
		payload["branch"] = e.Branch
		payload["commit_count"] = e.CommitCount
		payload["author"] = e.Author
	case models.MergeRequestEvent:
		payload["mr_id"] = e.MRID
		payload["iid"] = e.IID
		payload["state"] = e.State
		payload["title"] = e.Title
		payload["author"] = e.Author
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.cfg.Secret != "" {
		mac := hmac.New(sha256.New, []byte(w.cfg.Secret))
		mac.Write(b)
		sig := hex.EncodeToString(mac.Sum(nil))
		req.Header.Set("X-Glwatch-Signature", "sha256="+sig)
	}
	resp, err := w.client.Do(req) // #nosec G107 -- URL is a user-configured webhook endpoint
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}
