package monitor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/CosmoTheDev/glwatch/models"
)

// --- stubs ---

type stubProjects struct {
	list []models.Project
	err  error
}

func (s *stubProjects) Projects(ctx context.Context) ([]models.Project, error) {
	return s.list, s.err
}

type stubPipelines struct {
	obs  map[int64]models.PipelineObservation
	fail map[int64]bool
}

func (s *stubPipelines) LatestPipeline(ctx context.Context, projectID int64) (models.PipelineObservation, bool, error) {
	if s.fail[projectID] {
		return models.PipelineObservation{}, false, errors.New("api unavailable")
	}
	obs, ok := s.obs[projectID]
	return obs, ok, nil
}

type stubPushes struct {
	obs map[int64]models.PushObservation
}

func (s *stubPushes) LatestPushEvent(ctx context.Context, projectID int64) (models.PushObservation, bool, error) {
	obs, ok := s.obs[projectID]
	return obs, ok, nil
}

type stubMergeRequests struct {
	mrs map[int64][]models.MergeRequestObservation
}

func (s *stubMergeRequests) RecentMergeRequests(ctx context.Context, projectID int64, limit int) ([]models.MergeRequestObservation, error) {
	return s.mrs[projectID], nil
}

func collect(events *[]models.Event) Handler {
	return func(ctx context.Context, evt models.Event) error {
		*events = append(*events, evt)
		return nil
	}
}

func pipelineObs(id int64, status string) models.PipelineObservation {
	return models.PipelineObservation{PipelineID: id, Status: status}
}

func pushObs(id int64, branch string, commits int, author string) models.PushObservation {
	return models.PushObservation{EventID: id, Branch: branch, CommitCount: commits, Author: author}
}

func mrObs(id, iid int64, state, title, author string) models.MergeRequestObservation {
	return models.MergeRequestObservation{MRID: id, IID: iid, State: state, Title: title, Author: author}
}

// --- pipeline loop ---

func TestPipelineRunningToSuccessEmitsOneEvent(t *testing.T) {
	ctx := context.Background()
	projects := &stubProjects{list: []models.Project{{ID: 42, Name: "demo"}}}
	source := &stubPipelines{obs: map[int64]models.PipelineObservation{
		42: pipelineObs(100, "running"),
	}}

	var events []models.Event
	p := NewPoller(projects, NewPipelineFeed(source), collect(&events))

	p.Tick(ctx)
	if len(events) != 0 {
		t.Fatalf("first tick must emit nothing, got %d events", len(events))
	}

	source.obs[42] = pipelineObs(100, "success")
	p.Tick(ctx)
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 event, got %d", len(events))
	}

	evt, ok := events[0].(models.PipelineEvent)
	if !ok {
		t.Fatalf("expected PipelineEvent, got %T", events[0])
	}
	if evt.Status != "success" || evt.PipelineID != 100 {
		t.Fatalf("unexpected event: %+v", evt)
	}
	if evt.ProjectName() != "demo" || evt.ProjectID() != 42 {
		t.Fatalf("event should carry project identity: %+v", evt)
	}
	if evt.OccurredAt().IsZero() {
		t.Fatal("event should carry a capture timestamp")
	}

	// Steady state stays silent.
	p.Tick(ctx)
	p.Tick(ctx)
	if len(events) != 1 {
		t.Fatalf("repeat observations must not emit, got %d events", len(events))
	}
}

func TestFirstTickNeverStormsRegardlessOfProjectCount(t *testing.T) {
	ctx := context.Background()
	var list []models.Project
	obs := make(map[int64]models.PipelineObservation)
	for i := int64(1); i <= 25; i++ {
		list = append(list, models.Project{ID: i, Name: fmt.Sprintf("project-%d", i)})
		obs[i] = pipelineObs(i*10, "failed")
	}
	projects := &stubProjects{list: list}
	source := &stubPipelines{obs: obs}

	var events []models.Event
	p := NewPoller(projects, NewPipelineFeed(source), collect(&events))

	p.Tick(ctx)
	if len(events) != 0 {
		t.Fatalf("warm-up tick must emit zero events, got %d", len(events))
	}
	if p.detector.Len() != 25 {
		t.Fatalf("expected 25 populated keys after warm-up, got %d", p.detector.Len())
	}
}

func TestPipelineIDChangeAloneEmits(t *testing.T) {
	ctx := context.Background()
	projects := &stubProjects{list: []models.Project{{ID: 1, Name: "demo"}}}
	source := &stubPipelines{obs: map[int64]models.PipelineObservation{
		1: pipelineObs(100, "success"),
	}}

	var events []models.Event
	p := NewPoller(projects, NewPipelineFeed(source), collect(&events))

	p.Tick(ctx)
	source.obs[1] = pipelineObs(101, "success")
	p.Tick(ctx)

	if len(events) != 1 {
		t.Fatalf("a new pipeline with the same status must emit, got %d events", len(events))
	}
}

func TestFetchFailureIsolatesProject(t *testing.T) {
	ctx := context.Background()
	projects := &stubProjects{list: []models.Project{
		{ID: 1, Name: "flaky"},
		{ID: 2, Name: "stable"},
	}}
	source := &stubPipelines{
		obs: map[int64]models.PipelineObservation{
			1: pipelineObs(10, "running"),
			2: pipelineObs(20, "running"),
		},
		fail: map[int64]bool{},
	}

	var events []models.Event
	p := NewPoller(projects, NewPipelineFeed(source), collect(&events))
	p.Tick(ctx)

	// Project 1's API call fails while project 2 transitions.
	source.fail[1] = true
	source.obs[2] = pipelineObs(20, "success")
	p.Tick(ctx)

	if len(events) != 1 {
		t.Fatalf("project 2's transition must still be dispatched, got %d events", len(events))
	}
	if events[0].ProjectID() != 2 {
		t.Fatalf("expected event for project 2, got project %d", events[0].ProjectID())
	}

	// Project 1 recovers with its old value: state was left untouched, so
	// nothing new is emitted.
	source.fail[1] = false
	p.Tick(ctx)
	if len(events) != 1 {
		t.Fatalf("recovered project with unchanged value must not emit, got %d events", len(events))
	}
}

func TestProjectListFailureSkipsTickAndWarmup(t *testing.T) {
	ctx := context.Background()
	projects := &stubProjects{err: errors.New("api unavailable")}
	source := &stubPipelines{obs: map[int64]models.PipelineObservation{
		1: pipelineObs(10, "running"),
	}}

	var events []models.Event
	p := NewPoller(projects, NewPipelineFeed(source), collect(&events))

	p.Tick(ctx)
	if p.warm {
		t.Fatal("a failed tick must not complete warm-up")
	}

	// First successful cycle populates state.
	projects.err = nil
	projects.list = []models.Project{{ID: 1, Name: "demo"}}
	p.Tick(ctx)
	if len(events) != 0 {
		t.Fatalf("first successful cycle must emit nothing, got %d events", len(events))
	}

	source.obs[1] = pipelineObs(10, "success")
	p.Tick(ctx)
	if len(events) != 1 {
		t.Fatalf("expected 1 event after warm-up, got %d", len(events))
	}
}

func TestLateProjectFirstSightingIsSuppressed(t *testing.T) {
	ctx := context.Background()
	projects := &stubProjects{list: []models.Project{{ID: 1, Name: "old"}}}
	source := &stubPipelines{obs: map[int64]models.PipelineObservation{
		1: pipelineObs(10, "success"),
		2: pipelineObs(20, "failed"),
	}}

	var events []models.Event
	p := NewPoller(projects, NewPipelineFeed(source), collect(&events))
	p.Tick(ctx)

	// A brand-new project appears after warm-up: its first sighting is
	// silent even though the loop is already warm.
	projects.list = append(projects.list, models.Project{ID: 2, Name: "new"})
	p.Tick(ctx)
	if len(events) != 0 {
		t.Fatalf("first sighting of a late project must not emit, got %d events", len(events))
	}

	// But its next transition is reported.
	source.obs[2] = pipelineObs(21, "running")
	p.Tick(ctx)
	if len(events) != 1 || events[0].ProjectID() != 2 {
		t.Fatalf("expected 1 event for project 2, got %+v", events)
	}
}

func TestEventsDispatchedInProjectListOrder(t *testing.T) {
	ctx := context.Background()
	projects := &stubProjects{list: []models.Project{
		{ID: 3, Name: "third"},
		{ID: 1, Name: "first"},
		{ID: 2, Name: "second"},
	}}
	source := &stubPipelines{obs: map[int64]models.PipelineObservation{
		1: pipelineObs(10, "running"),
		2: pipelineObs(20, "running"),
		3: pipelineObs(30, "running"),
	}}

	var events []models.Event
	p := NewPoller(projects, NewPipelineFeed(source), collect(&events))
	p.Tick(ctx)

	for id := int64(1); id <= 3; id++ {
		source.obs[id] = pipelineObs(id*10, "success")
	}
	p.Tick(ctx)

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	want := []int64{3, 1, 2} // server order, not sorted
	for i, evt := range events {
		if evt.ProjectID() != want[i] {
			t.Fatalf("event %d: expected project %d, got %d", i, want[i], evt.ProjectID())
		}
	}
}

func TestHandlerErrorDoesNotStopTheLoop(t *testing.T) {
	ctx := context.Background()
	projects := &stubProjects{list: []models.Project{
		{ID: 1, Name: "first"},
		{ID: 2, Name: "second"},
	}}
	source := &stubPipelines{obs: map[int64]models.PipelineObservation{
		1: pipelineObs(10, "running"),
		2: pipelineObs(20, "running"),
	}}

	var delivered []models.Event
	handler := func(ctx context.Context, evt models.Event) error {
		delivered = append(delivered, evt)
		return errors.New("channel down")
	}
	p := NewPoller(projects, NewPipelineFeed(source), handler)
	p.Tick(ctx)

	source.obs[1] = pipelineObs(10, "failed")
	source.obs[2] = pipelineObs(20, "failed")
	p.Tick(ctx)

	if len(delivered) != 2 {
		t.Fatalf("both events must be delivered despite handler errors, got %d", len(delivered))
	}

	// The transitions were committed, so the loop stays quiet afterwards.
	p.Tick(ctx)
	if len(delivered) != 2 {
		t.Fatalf("no further events expected, got %d", len(delivered))
	}
}

func TestCancelledTickEmitsNothing(t *testing.T) {
	projects := &stubProjects{list: []models.Project{{ID: 1, Name: "demo"}}}
	source := &stubPipelines{obs: map[int64]models.PipelineObservation{
		1: pipelineObs(10, "running"),
	}}

	var events []models.Event
	p := NewPoller(projects, NewPipelineFeed(source), collect(&events))
	p.Tick(context.Background())
	source.obs[1] = pipelineObs(10, "success")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Tick(ctx)

	if len(events) != 0 {
		t.Fatalf("a cancelled tick must not emit events, got %d", len(events))
	}
}

// --- push loop ---

func TestPushLoopEmitsOncePerNewFeedEvent(t *testing.T) {
	ctx := context.Background()
	projects := &stubProjects{list: []models.Project{{ID: 7, Name: "demo"}}}
	source := &stubPushes{obs: map[int64]models.PushObservation{
		7: pushObs(9001, "main", 1, "alice"),
	}}

	var events []models.Event
	p := NewPoller(projects, NewPushFeed(source), collect(&events))

	p.Tick(ctx) // warm-up: 9001 recorded
	p.Tick(ctx) // no new push
	if len(events) != 0 {
		t.Fatalf("expected no events yet, got %d", len(events))
	}

	source.obs[7] = pushObs(9002, "feature/login", 3, "bob")
	p.Tick(ctx)
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 push event, got %d", len(events))
	}

	evt, ok := events[0].(models.PushEvent)
	if !ok {
		t.Fatalf("expected PushEvent, got %T", events[0])
	}
	if evt.EventID != 9002 || evt.Branch != "feature/login" || evt.CommitCount != 3 || evt.Author != "bob" {
		t.Fatalf("push payload must come from the new entry: %+v", evt)
	}
}

func TestPushLoopSkipsProjectsWithoutPushes(t *testing.T) {
	ctx := context.Background()
	projects := &stubProjects{list: []models.Project{{ID: 7, Name: "quiet"}}}
	source := &stubPushes{obs: map[int64]models.PushObservation{}}

	var events []models.Event
	p := NewPoller(projects, NewPushFeed(source), collect(&events))

	p.Tick(ctx)
	p.Tick(ctx)
	if len(events) != 0 {
		t.Fatalf("a project with no push observations must emit nothing, got %d", len(events))
	}

	// The first push ever seen is still a first sighting.
	source.obs[7] = pushObs(9001, "main", 1, "alice")
	p.Tick(ctx)
	if len(events) != 0 {
		t.Fatalf("first sighting must not emit, got %d events", len(events))
	}

	source.obs[7] = pushObs(9002, "main", 2, "alice")
	p.Tick(ctx)
	if len(events) != 1 {
		t.Fatalf("expected 1 event for the second push, got %d", len(events))
	}
}

// --- merge-request loop ---

func TestMergeRequestsTrackedIndependentlyByID(t *testing.T) {
	ctx := context.Background()
	projects := &stubProjects{list: []models.Project{{ID: 1, Name: "demo"}}}
	source := &stubMergeRequests{mrs: map[int64][]models.MergeRequestObservation{
		1: {mrObs(5, 1, "opened", "First MR", "alice")},
	}}

	var events []models.Event
	p := NewPoller(projects, NewMergeRequestFeed(source), collect(&events))
	p.Tick(ctx)

	// A different MR becomes the latest: first sighting of a new key, no
	// event even though MR 5 is still known as "opened".
	source.mrs[1] = []models.MergeRequestObservation{mrObs(7, 2, "opened", "Second MR", "bob")}
	p.Tick(ctx)
	if len(events) != 0 {
		t.Fatalf("first sighting of a new MR id must not emit, got %d events", len(events))
	}

	// MR 7 changing state is a real transition.
	source.mrs[1] = []models.MergeRequestObservation{mrObs(7, 2, "merged", "Second MR", "bob")}
	p.Tick(ctx)
	if len(events) != 1 {
		t.Fatalf("expected 1 event for MR 7, got %d", len(events))
	}
	evt, ok := events[0].(models.MergeRequestEvent)
	if !ok {
		t.Fatalf("expected MergeRequestEvent, got %T", events[0])
	}
	if evt.MRID != 7 || evt.IID != 2 || evt.State != "merged" {
		t.Fatalf("unexpected event: %+v", evt)
	}

	// MR 5 resurfacing unchanged stays silent; its state survived.
	source.mrs[1] = []models.MergeRequestObservation{mrObs(5, 1, "opened", "First MR", "alice")}
	p.Tick(ctx)
	if len(events) != 1 {
		t.Fatalf("MR 5 unchanged must not emit, got %d events", len(events))
	}

	source.mrs[1] = []models.MergeRequestObservation{mrObs(5, 1, "closed", "First MR", "alice")}
	p.Tick(ctx)
	if len(events) != 2 {
		t.Fatalf("expected a second event for MR 5 closing, got %d", len(events))
	}
}

func TestMergeRequestTitleChangeAloneIsSilent(t *testing.T) {
	ctx := context.Background()
	projects := &stubProjects{list: []models.Project{{ID: 1, Name: "demo"}}}
	source := &stubMergeRequests{mrs: map[int64][]models.MergeRequestObservation{
		1: {mrObs(5, 1, "opened", "Original title", "alice")},
	}}

	var events []models.Event
	p := NewPoller(projects, NewMergeRequestFeed(source), collect(&events))
	p.Tick(ctx)

	source.mrs[1] = []models.MergeRequestObservation{mrObs(5, 1, "opened", "Edited title", "alice")}
	p.Tick(ctx)
	if len(events) != 0 {
		t.Fatalf("a title edit without a state change must not emit, got %d events", len(events))
	}
}
