package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/CosmoTheDev/glwatch/models"
)

// PipelineSource fetches the newest pipeline of a project.
type PipelineSource interface {
	LatestPipeline(ctx context.Context, projectID int64) (models.PipelineObservation, bool, error)
}

type pipelineFeed struct {
	source PipelineSource
}

// NewPipelineFeed returns the feed for the CI/CD pipeline loop.
func NewPipelineFeed(source PipelineSource) Feed[int64, models.PipelineObservation] {
	return pipelineFeed{source: source}
}

func (pipelineFeed) Kind() models.EventKind { return models.KindPipeline }

func (f pipelineFeed) Latest(ctx context.Context, project models.Project) (int64, models.PipelineObservation, bool) {
	obs, ok, err := f.source.LatestPipeline(ctx, project.ID)
	if err != nil {
		slog.Warn("fetching latest pipeline failed", "project", project.Name, "error", err)
		return 0, models.PipelineObservation{}, false
	}
	return project.ID, obs, ok
}

// A pipeline changed when either the pipeline id or its status moved.
func (pipelineFeed) Equal(a, b models.PipelineObservation) bool {
	return a.PipelineID == b.PipelineID && a.Status == b.Status
}

func (pipelineFeed) Event(project models.Project, obs models.PipelineObservation, at time.Time) models.Event {
	return models.PipelineEvent{
		Project:    project,
		PipelineID: obs.PipelineID,
		Status:     obs.Status,
		Timestamp:  at,
	}
}
