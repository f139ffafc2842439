package models

import "time"

// EventKind discriminates the closed set of monitor events.
type EventKind string

const (
	KindPipeline     EventKind = "pipeline"
	KindPush         EventKind = "push"
	KindMergeRequest EventKind = "merge_request"
)

// Event is the tagged union of everything the monitor can emit. The
// interface is sealed so consumers can type-switch exhaustively over the
// three concrete event types. Events are immutable values, constructed once
// per detected transition and consumed exactly once.
type Event interface {
	Kind() EventKind
	ProjectID() int64
	ProjectName() string
	OccurredAt() time.Time

	sealed()
}

// PipelineEvent reports a new or changed CI/CD pipeline status.
type PipelineEvent struct {
	Project    Project   `json:"project"`
	PipelineID int64     `json:"pipeline_id"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

func (e PipelineEvent) Kind() EventKind       { return KindPipeline }
func (e PipelineEvent) ProjectID() int64      { return e.Project.ID }
func (e PipelineEvent) ProjectName() string   { return e.Project.Name }
func (e PipelineEvent) OccurredAt() time.Time { return e.Timestamp }
func (e PipelineEvent) sealed()               {}

// PushEvent reports a push to a branch.
type PushEvent struct {
	Project     Project   `json:"project"`
	EventID     int64     `json:"event_id"`
	Branch      string    `json:"branch"`
	CommitCount int       `json:"commit_count"`
	Author      string    `json:"author"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e PushEvent) Kind() EventKind       { return KindPush }
func (e PushEvent) ProjectID() int64      { return e.Project.ID }
func (e PushEvent) ProjectName() string   { return e.Project.Name }
func (e PushEvent) OccurredAt() time.Time { return e.Timestamp }
func (e PushEvent) sealed()               {}

// MergeRequestEvent reports a merge request whose state changed.
type MergeRequestEvent struct {
	Project   Project   `json:"project"`
	MRID      int64     `json:"mr_id"`
	IID       int64     `json:"iid"`
	State     string    `json:"state"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}

func (e MergeRequestEvent) Kind() EventKind       { return KindMergeRequest }
func (e MergeRequestEvent) ProjectID() int64      { return e.Project.ID }
func (e MergeRequestEvent) ProjectName() string   { return e.Project.Name }
func (e MergeRequestEvent) OccurredAt() time.Time { return e.Timestamp }
func (e MergeRequestEvent) sealed()               {}
