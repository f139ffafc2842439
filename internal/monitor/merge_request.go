package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/CosmoTheDev/glwatch/models"
)

// mergeRequestWindow is how many recently-updated MRs are fetched per tick.
// Only index 0 is inspected.
const mergeRequestWindow = 5

// MergeRequestSource fetches a project's merge requests, most recently
// updated first.
type MergeRequestSource interface {
	RecentMergeRequests(ctx context.Context, projectID int64, limit int) ([]models.MergeRequestObservation, error)
}

// MRKey identifies one merge request within one project. Keying by the
// (project, MR) pair keeps every MR's known state independent: a different
// MR surfacing as "latest" starts its own first sighting instead of being
// compared against another MR's state.
type MRKey struct {
	ProjectID int64
	MRID      int64
}

type mergeRequestFeed struct {
	source MergeRequestSource
}

// NewMergeRequestFeed returns the feed for the merge-request loop.
func NewMergeRequestFeed(source MergeRequestSource) Feed[MRKey, models.MergeRequestObservation] {
	return mergeRequestFeed{source: source}
}

func (mergeRequestFeed) Kind() models.EventKind { return models.KindMergeRequest }

func (f mergeRequestFeed) Latest(ctx context.Context, project models.Project) (MRKey, models.MergeRequestObservation, bool) {
	mrs, err := f.source.RecentMergeRequests(ctx, project.ID, mergeRequestWindow)
	if err != nil {
		slog.Warn("fetching merge requests failed", "project", project.Name, "error", err)
		return MRKey{}, models.MergeRequestObservation{}, false
	}
	if len(mrs) == 0 {
		return MRKey{}, models.MergeRequestObservation{}, false
	}

	latest := mrs[0]
	return MRKey{ProjectID: project.ID, MRID: latest.MRID}, latest, true
}

// Only the state participates in change detection; title and author ride
// along as payload.
func (mergeRequestFeed) Equal(a, b models.MergeRequestObservation) bool {
	return a.State == b.State
}

func (mergeRequestFeed) Event(project models.Project, obs models.MergeRequestObservation, at time.Time) models.Event {
	return models.MergeRequestEvent{
		Project:   project,
		MRID:      obs.MRID,
		IID:       obs.IID,
		State:     obs.State,
		Title:     obs.Title,
		Author:    obs.Author,
		Timestamp: at,
	}
}
