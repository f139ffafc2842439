package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/CosmoTheDev/glwatch/models"
)

// Poller runs one poll loop: fetch the project list, fetch one observation
// per project, classify it, and hand transitions to the handler. Detector
// state is owned exclusively by the poller, and ticks never overlap (the
// scheduler skips a tick while the previous one is still running), so
// no locking is needed.
type Poller[K comparable, V any] struct {
	feed     Feed[K, V]
	projects ProjectLister
	detector *Detector[K, V]
	handler  Handler

	// warm flips to true once a full cycle has completed. Until then every
	// observation only populates state; the first tick of a freshly started
	// process would otherwise describe all pre-existing pipelines, pushes,
	// and MRs as news.
	warm bool

	now func() time.Time
}

// NewPoller wires a feed, a project lister, and the transition handler into
// one loop. Each poller owns a fresh detector.
func NewPoller[K comparable, V any](projects ProjectLister, feed Feed[K, V], handler Handler) *Poller[K, V] {
	return &Poller[K, V]{
		feed:     feed,
		projects: projects,
		detector: NewDetector[K, V](feed.Equal),
		handler:  handler,
		now:      time.Now,
	}
}

// Kind names the poll loop.
func (p *Poller[K, V]) Kind() models.EventKind { return p.feed.Kind() }

// Tick runs one full poll cycle. A failed project-list fetch skips the
// whole tick (and does not complete warm-up); a failed per-project fetch
// skips only that project. Projects are processed in server order, one at a
// time, and the handler is awaited before the next project. Errors never
// propagate past this method.
func (p *Poller[K, V]) Tick(ctx context.Context) {
	projects, err := p.projects.Projects(ctx)
	if err != nil {
		slog.Error("listing projects failed, skipping tick", "loop", p.feed.Kind(), "error", err)
		return
	}

	for _, project := range projects {
		if ctx.Err() != nil {
			// Shutdown mid-tick: bail out without emitting partial events
			// and without completing warm-up.
			return
		}

		key, value, ok := p.feed.Latest(ctx, project)
		if !ok {
			continue
		}
		if p.detector.Observe(key, value) != Transitioned {
			continue
		}
		if !p.warm {
			continue
		}

		evt := p.feed.Event(project, value, p.now())
		slog.Info("transition detected",
			"loop", p.feed.Kind(), "project", project.Name)
		if err := p.handler(ctx, evt); err != nil {
			slog.Error("event handler failed",
				"loop", p.feed.Kind(), "project", project.Name, "error", err)
		}
	}

	p.warm = true
}
