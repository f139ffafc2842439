package models

// PipelineObservation is the newest pipeline of a project at one tick.
// Identity for change detection is the (PipelineID, Status) pair.
type PipelineObservation struct {
	PipelineID int64  `json:"pipeline_id"`
	Status     string `json:"status"` // success | failed | running | ...
}

// PushObservation is the most recent push-bearing feed entry of a project.
// Identity for change detection is EventID alone; the remaining fields are
// payload.
type PushObservation struct {
	EventID     int64  `json:"event_id"`
	Branch      string `json:"branch"`
	CommitCount int    `json:"commit_count"`
	Author      string `json:"author"`
}

// MergeRequestObservation is the most recently updated merge request of a
// project. Identity for change detection is State, tracked per MR id.
type MergeRequestObservation struct {
	MRID   int64  `json:"mr_id"`
	IID    int64  `json:"iid"`
	State  string `json:"state"` // opened | merged | closed | locked
	Title  string `json:"title"`
	Author string `json:"author"`
}
