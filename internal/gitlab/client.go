// Package gitlab wraps the official GitLab client with the few read-only
// calls the monitor needs. Failures are returned as errors; the poll loops
// translate them into "no observation this tick".
package gitlab

import (
	"context"
	"fmt"
	"net/http"

	"github.com/CosmoTheDev/glwatch/internal/config"
	"github.com/CosmoTheDev/glwatch/models"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

const (
	// projectPageSize bounds the project list fetched per tick.
	projectPageSize = 100
	// eventWindow is how many recent feed entries are scanned for a push.
	eventWindow = 5
)

// Client is shared by all poll loops. The underlying HTTP client is
// constructed once at process start, injected here, and reused for the
// process lifetime.
type Client struct {
	gl *gitlab.Client
}

// New creates a Client for the configured instance.
func New(cfg config.GitLabConfig, httpClient *http.Client) (*Client, error) {
	opts := []gitlab.ClientOptionFunc{}
	if httpClient != nil {
		opts = append(opts, gitlab.WithHTTPClient(httpClient))
	}
	if cfg.URL != "" && cfg.URL != config.DefaultGitLabURL {
		opts = append(opts, gitlab.WithBaseURL(cfg.URL))
	}

	gl, err := gitlab.NewClient(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating GitLab client: %w", err)
	}
	return &Client{gl: gl}, nil
}

// Projects returns every project the token's user is a member of.
func (c *Client) Projects(ctx context.Context) ([]models.Project, error) {
	membership := true
	projects, _, err := c.gl.Projects.ListProjects(&gitlab.ListProjectsOptions{
		Membership:  &membership,
		ListOptions: gitlab.ListOptions{PerPage: projectPageSize},
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	out := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		if p == nil {
			continue
		}
		out = append(out, models.Project{ID: int64(p.ID), Name: p.Name})
	}
	return out, nil
}

// LatestPipeline returns the newest pipeline of the project, or ok=false
// when the project has never run one.
func (c *Client) LatestPipeline(ctx context.Context, projectID int64) (models.PipelineObservation, bool, error) {
	pipelines, _, err := c.gl.Pipelines.ListProjectPipelines(projectID, &gitlab.ListProjectPipelinesOptions{
		ListOptions: gitlab.ListOptions{PerPage: 1},
	}, gitlab.WithContext(ctx))
	if err != nil {
		return models.PipelineObservation{}, false, fmt.Errorf("listing pipelines for project %d: %w", projectID, err)
	}
	if len(pipelines) == 0 || pipelines[0] == nil {
		return models.PipelineObservation{}, false, nil
	}

	p := pipelines[0]
	return models.PipelineObservation{
		PipelineID: int64(p.ID),
		Status:     p.Status,
	}, true, nil
}

// LatestPushEvent scans the most recent feed entries (newest first, server
// order) and returns the first one carrying push data. Entries without push
// data (comments, MR activity) are skipped; ok=false when the scanned
// window holds no push.
func (c *Client) LatestPushEvent(ctx context.Context, projectID int64) (models.PushObservation, bool, error) {
	events, _, err := c.gl.Events.ListProjectVisibleEvents(projectID, &gitlab.ListProjectVisibleEventsOptions{
		ListOptions: gitlab.ListOptions{PerPage: eventWindow},
	}, gitlab.WithContext(ctx))
	if err != nil {
		return models.PushObservation{}, false, fmt.Errorf("listing events for project %d: %w", projectID, err)
	}

	for _, ev := range events {
		if ev == nil || ev.PushData.Action == "" {
			continue
		}
		return models.PushObservation{
			EventID:     int64(ev.ID),
			Branch:      ev.PushData.Ref,
			CommitCount: int(ev.PushData.CommitCount),
			Author:      ev.AuthorUsername,
		}, true, nil
	}
	return models.PushObservation{}, false, nil
}

// RecentMergeRequests returns up to limit merge requests of the project,
// most recently updated first.
func (c *Client) RecentMergeRequests(ctx context.Context, projectID int64, limit int) ([]models.MergeRequestObservation, error) {
	state := "all"
	orderBy := "updated_at"
	sort := "desc"
	mrs, _, err := c.gl.MergeRequests.ListProjectMergeRequests(projectID, &gitlab.ListProjectMergeRequestsOptions{
		State:       &state,
		OrderBy:     &orderBy,
		Sort:        &sort,
		ListOptions: gitlab.ListOptions{PerPage: int64(limit)},
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("listing merge requests for project %d: %w", projectID, err)
	}

	out := make([]models.MergeRequestObservation, 0, len(mrs))
	for _, mr := range mrs {
		if mr == nil {
			continue
		}
		obs := models.MergeRequestObservation{
			MRID:  int64(mr.ID),
			IID:   int64(mr.IID),
			State: mr.State,
			Title: mr.Title,
		}
		if mr.Author != nil {
			obs.Author = mr.Author.Username
		}
		out = append(out, obs)
	}
	return out, nil
}
