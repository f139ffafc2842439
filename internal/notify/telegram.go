package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/CosmoTheDev/glwatch/internal/config"
	"github.com/CosmoTheDev/glwatch/models"
)

// Telegram caps messages at 4096 characters.
const telegramMaxMessage = 4096

const (
	defaultPipelineTemplate = `<b>CI/CD update: {{.ProjectName}}</b>
User: GitLab
Time: {{.Timestamp}}
{{.Description}}
Link: <a href="{{.BaseURL}}/projects/{{.ProjectID}}">{{.ProjectName}}</a>`

	defaultPushTemplate = `<b>Push: {{.ProjectName}}</b>
User: {{.Author}}
Time: {{.Timestamp}}
Action: push to {{.Branch}}, commits: {{.CommitCount}}
Link: <a href="{{.BaseURL}}/projects/{{.ProjectID}}">{{.ProjectName}}</a>`

	defaultMRTemplate = `<b>Merge request: {{.ProjectName}}</b>
User: {{.Author}}
Time: {{.Timestamp}}
Action: {{.Title}} (state: {{.State}})
Link: <a href="{{.BaseURL}}/projects/{{.ProjectID}}/merge_requests/{{.IID}}">MR #{{.IID}}</a>`
)

// TelegramChannel sends notifications via the Telegram Bot API, rendering a
// per-kind message template and appending repo_mapping mention pings.
type TelegramChannel struct {
	cfg     config.TelegramConfig
	baseURL string // GitLab base URL, used for links in messages
	apiBase string
	client  *http.Client

	pipelineTmpl *template.Template
	pushTmpl     *template.Template
	mrTmpl       *template.Template
}

// NewTelegram creates a TelegramChannel from cfg. gitlabURL feeds the link
// placeholders in the message templates. Returns an error when a configured
// template override does not parse.
func NewTelegram(cfg config.TelegramConfig, gitlabURL string) (*TelegramChannel, error) {
	t := &TelegramChannel{
		cfg:     cfg,
		baseURL: strings.TrimSuffix(gitlabURL, "/"),
		apiBase: "https://api.telegram.org",
		client:  &http.Client{Timeout: 5 * time.Second},
	}

	var err error
	if t.pipelineTmpl, err = parseTemplate("pipeline", cfg.PipelineTemplate, defaultPipelineTemplate); err != nil {
		return nil, err
	}
	if t.pushTmpl, err = parseTemplate("push", cfg.PushTemplate, defaultPushTemplate); err != nil {
		return nil, err
	}
	if t.mrTmpl, err = parseTemplate("merge_request", cfg.MRTemplate, defaultMRTemplate); err != nil {
		return nil, err
	}
	return t, nil
}

func parseTemplate(name, override, fallback string) (*template.Template, error) {
	text := fallback
	if override != "" {
		text = override
	}
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing %s template: %w", name, err)
	}
	return tmpl, nil
}

func (t *TelegramChannel) Name() string       { return "telegram" }
func (t *TelegramChannel) IsConfigured() bool { return t.cfg.Token != "" && t.cfg.DefaultChat != "" }

func (t *TelegramChannel) Send(ctx context.Context, evt models.Event) error {
	text, err := t.render(evt)
	if err != nil {
		return err
	}
	if ping := t.ping(evt.ProjectName()); ping != "" {
		text += "\n" + ping
	}
	if len(text) > telegramMaxMessage {
		text = text[:telegramMaxMessage-3] + "..."
	}

	payload := map[string]any{
		"chat_id":    t.cfg.DefaultChat,
		"text":       text,
		"parse_mode": "HTML",
	}
	if t.cfg.MessageThreadID != 0 {
		payload["message_thread_id"] = t.cfg.MessageThreadID
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.cfg.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req) // #nosec G107 -- URL is the Telegram API base + user-configured bot token
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telegram API returned %d", resp.StatusCode)
	}
	return nil
}

// render fills the template for the event's kind.
func (t *TelegramChannel) render(evt models.Event) (string, error) {
	data := map[string]any{
		"ProjectID":   evt.ProjectID(),
		"ProjectName": evt.ProjectName(),
		"Timestamp":   evt.OccurredAt().Format("2006-01-02 15:04:05"),
		"BaseURL":     t.baseURL,
	}

	var tmpl *template.Template
	switch e := evt.(type) {
	case models.PipelineEvent:
		tmpl = t.pipelineTmpl
		data["Status"] = e.Status
		data["Description"] = pipelineDescription(e.Status)
	case models.PushEvent:
		tmpl = t.pushTmpl
		data["Branch"] = e.Branch
		data["CommitCount"] = e.CommitCount
		data["Author"] = orGitLab(e.Author)
	case models.MergeRequestEvent:
		tmpl = t.mrTmpl
		data["State"] = e.State
		data["Title"] = e.Title
		data["IID"] = e.IID
		data["Author"] = orGitLab(e.Author)
	default:
		return "", fmt.Errorf("unknown event kind %q", evt.Kind())
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s message: %w", evt.Kind(), err)
	}
	return buf.String(), nil
}

// pipelineDescription picks status-specific wording for pipeline messages.
func pipelineDescription(status string) string {
	switch status {
	case "success":
		return "Pipeline finished successfully."
	case "failed":
		return "Pipeline failed."
	default:
		return "New pipeline status: " + status
	}
}

// ping returns the mention tags mapped to the project, in stable order.
func (t *TelegramChannel) ping(projectName string) string {
	var mentions []string
	for mention, projects := range t.cfg.RepoMapping {
		for _, p := range projects {
			if p == projectName {
				mentions = append(mentions, mention)
				break
			}
		}
	}
	sort.Strings(mentions)
	return strings.Join(mentions, " ")
}

func orGitLab(author string) string {
	if author == "" {
		return "GitLab"
	}
	return author
}
