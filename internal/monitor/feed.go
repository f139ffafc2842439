// Package monitor holds the change-detection core: per-loop detectors, the
// generic poll-detect-dispatch loop, and the scheduler that drives the
// three loops (pipeline, push, merge request) concurrently.
package monitor

import (
	"context"
	"time"

	"github.com/CosmoTheDev/glwatch/models"
)

// Handler consumes one event per detected transition. Handlers are invoked
// sequentially in project-list order and awaited before the loop moves to
// the next project; a returned error is logged at the loop boundary and
// never stops the loop.
type Handler func(ctx context.Context, evt models.Event) error

// ProjectLister supplies the per-tick project list.
type ProjectLister interface {
	Projects(ctx context.Context) ([]models.Project, error)
}

// Feed fetches one kind of observation and defines how that kind is keyed,
// compared, and turned into an event. The three implementations differ only
// here; the surrounding control flow lives once in Poller.
type Feed[K comparable, V any] interface {
	// Kind names the poll loop in logs and events.
	Kind() models.EventKind

	// Latest returns the project's current observation. ok=false means no
	// observation this tick, covering both "no data exists" and a fetch
	// failure that has already been logged.
	Latest(ctx context.Context, project models.Project) (key K, value V, ok bool)

	// Equal is the loop's equality rule.
	Equal(a, b V) bool

	// Event builds the emitted event for a transition.
	Event(project models.Project, value V, at time.Time) models.Event
}
