package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/presence-cli/internal/model"
)

// Handle is the live view of an in-flight assessment run. Result transitions
// happen under one mutex, so every snapshot observes fully-written
// ProbeResults. Once Done is closed the run is finalized and immutable.
type Handle struct {
	mu   sync.RWMutex
	run  *model.AssessmentRun
	done chan struct{}
}

func newHandle(run *model.AssessmentRun) *Handle {
	return &Handle{
		run:  run,
		done: make(chan struct{}),
	}
}

// RunID returns the run's identifier.
func (h *Handle) RunID() string {
	return h.run.ID
}

// Done is closed when every probe has reached a terminal state.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the run completes or ctx is cancelled.
func (h *Handle) Wait(ctx context.Context) (*model.AssessmentRun, error) {
	select {
	case <-h.done:
		return h.run, nil
	case <-ctx.Done():
		return nil, eris.Wrap(ctx.Err(), "orchestrator: wait")
	}
}

// Snapshot returns a copy of the run suitable for status polling. The
// composite score stays nil while the run is in flight.
func (h *Handle) Snapshot() model.AssessmentRun {
	h.mu.RLock()
	defer h.mu.RUnlock()

	snap := *h.run
	snap.Results = h.run.CloneResults()
	return snap
}

// status reads a single probe's status.
func (h *Handle) status(name string) model.ProbeStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.run.Results[name].Status
}

// priorResults copies the terminal results of the named dependencies for
// read-only hand-off to a probe invocation.
func (h *Handle) priorResults(deps []string) map[string]model.ProbeResult {
	h.mu.RLock()
	defer h.mu.RUnlock()

	prior := make(map[string]model.ProbeResult, len(deps))
	for _, dep := range deps {
		if r, ok := h.run.Results[dep]; ok {
			prior[dep] = r
		}
	}
	return prior
}

// markRunning transitions a probe to Running.
func (h *Handle) markRunning(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r := h.run.Results[name]
	r.Status = model.ProbeStatusRunning
	r.StartedAt = time.Now().UTC()
	h.run.Results[name] = r
}

// markSkipped transitions a probe to Skipped without invoking it.
func (h *Handle) markSkipped(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r := h.run.Results[name]
	r.Status = model.ProbeStatusSkipped
	h.run.Results[name] = r
}

// merge writes a probe outcome into the run. This is the only place a probe
// reaches a Succeeded or Failed state.
func (h *Handle) merge(out outcome) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r := h.run.Results[out.name]
	r.StartedAt = out.startedAt
	r.FinishedAt = out.finishedAt
	r.DurationMs = out.finishedAt.Sub(out.startedAt).Milliseconds()
	if out.err != nil {
		r.Status = model.ProbeStatusFailed
		r.Error = truncateError(out.err)
	} else {
		r.Status = model.ProbeStatusSucceeded
		r.Payload = out.payload
	}
	h.run.Results[out.name] = r
}

// finish stamps the run's end time and closes Done.
func (h *Handle) finish() {
	h.mu.Lock()
	h.run.FinishedAt = time.Now().UTC()
	h.mu.Unlock()
	close(h.done)
}
