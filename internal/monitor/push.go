package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/CosmoTheDev/glwatch/models"
)

// PushSource fetches the most recent push-bearing feed entry of a project.
type PushSource interface {
	LatestPushEvent(ctx context.Context, projectID int64) (models.PushObservation, bool, error)
}

type pushFeed struct {
	source PushSource
}

// NewPushFeed returns the feed for the push loop.
func NewPushFeed(source PushSource) Feed[int64, models.PushObservation] {
	return pushFeed{source: source}
}

func (pushFeed) Kind() models.EventKind { return models.KindPush }

func (f pushFeed) Latest(ctx context.Context, project models.Project) (int64, models.PushObservation, bool) {
	obs, ok, err := f.source.LatestPushEvent(ctx, project.ID)
	if err != nil {
		slog.Warn("fetching push events failed", "project", project.Name, "error", err)
		return 0, models.PushObservation{}, false
	}
	return project.ID, obs, ok
}

// Only the feed event id identifies a push; branch, commit count, and
// author are payload.
func (pushFeed) Equal(a, b models.PushObservation) bool {
	return a.EventID == b.EventID
}

func (pushFeed) Event(project models.Project, obs models.PushObservation, at time.Time) models.Event {
	return models.PushEvent{
		Project:     project,
		EventID:     obs.EventID,
		Branch:      obs.Branch,
		CommitCount: obs.CommitCount,
		Author:      obs.Author,
		Timestamp:   at,
	}
}
