package models

// Project is a GitLab project visible to the monitor's token. The list is
// fetched fresh on every poll tick and never cached across ticks.
type Project struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
