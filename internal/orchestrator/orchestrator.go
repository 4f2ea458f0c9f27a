// Package orchestrator schedules assessment probes concurrently with
// per-probe timeouts, dependency ordering, and partial-failure isolation.
// It is the sole writer of the run's results map; probe goroutines report
// outcomes over a channel and never touch shared state directly.
package orchestrator

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/presence-cli/internal/model"
)

// ProbeFunc invokes one probe against the target. Prior results of dependency
// probes are supplied read-only. Implementations must honor ctx cancellation
// and return promptly when the deadline passes.
type ProbeFunc func(ctx context.Context, target model.Target, prior map[string]model.ProbeResult) (any, error)

// ProbeConfig declares one probe: its name, the probes whose success it
// requires, its timeout budget, and the invocation function.
type ProbeConfig struct {
	Name      string
	DependsOn []string
	Timeout   time.Duration
	Invoke    ProbeFunc
}

// DefaultProbeTimeout bounds probes that declare no timeout of their own.
const DefaultProbeTimeout = 30 * time.Second

// Orchestrator runs probe sets against targets.
type Orchestrator struct{}

// New creates an Orchestrator.
func New() *Orchestrator {
	return &Orchestrator{}
}

// Run executes all probes and blocks until every non-skipped probe reaches a
// terminal state. Probe failures never fail the run; only an invalid target
// or a malformed probe graph aborts before any probe starts.
func (o *Orchestrator) Run(ctx context.Context, target model.Target, configs []ProbeConfig) (*model.AssessmentRun, error) {
	handle, err := o.Begin(ctx, target, configs)
	if err != nil {
		return nil, err
	}
	return handle.Wait(ctx)
}

// Begin validates the target and probe graph, starts the scheduler, and
// returns a Handle for live status observation.
func (o *Orchestrator) Begin(ctx context.Context, target model.Target, configs []ProbeConfig) (*Handle, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if err := validateGraph(configs); err != nil {
		return nil, err
	}

	names := make([]string, len(configs))
	for i, c := range configs {
		names[i] = c.Name
	}

	handle := newHandle(model.NewAssessmentRun(target, names))

	go o.schedule(ctx, handle, configs)

	return handle, nil
}

// outcome is a probe goroutine's report back to the scheduler.
type outcome struct {
	name       string
	payload    any
	err        error
	startedAt  time.Time
	finishedAt time.Time
}

// schedule is the single coordinating loop. It launches probes as their
// dependencies resolve, marks dependents of non-succeeded probes as Skipped,
// and merges every outcome into the run under the handle's lock.
func (o *Orchestrator) schedule(ctx context.Context, h *Handle, configs []ProbeConfig) {
	log := zap.L().With(zap.String("run_id", h.run.ID))
	log.Info("orchestrator: starting run",
		zap.String("target", h.run.Target.URL),
		zap.Int("probes", len(configs)),
	)

	byName := make(map[string]ProbeConfig, len(configs))
	for _, c := range configs {
		byName[c.Name] = c
	}

	pending := make(map[string]bool, len(configs))
	for _, c := range configs {
		pending[c.Name] = true
	}
	running := 0
	outcomes := make(chan outcome)

	for len(pending) > 0 || running > 0 {
		// Launch every probe whose dependencies are all terminal. Probes
		// with a failed or skipped dependency are themselves skipped and
		// unblock their own dependents in the same pass.
		progressed := true
		for progressed {
			progressed = false
			for name := range pending {
				cfg := byName[name]
				ready, blocked := o.dependencyState(h, cfg)
				if blocked {
					delete(pending, name)
					h.markSkipped(name)
					log.Info("orchestrator: probe skipped",
						zap.String("probe", name),
						zap.Strings("depends_on", cfg.DependsOn),
					)
					progressed = true
					continue
				}
				if !ready {
					continue
				}
				delete(pending, name)
				h.markRunning(name)
				running++
				go runProbe(ctx, h, cfg, outcomes)
				progressed = true
			}
		}

		if running == 0 {
			break
		}

		out := <-outcomes
		running--
		h.merge(out)

		if out.err != nil {
			log.Warn("orchestrator: probe failed",
				zap.String("probe", out.name),
				zap.Duration("duration", out.finishedAt.Sub(out.startedAt)),
				zap.Error(out.err),
			)
		} else {
			log.Info("orchestrator: probe succeeded",
				zap.String("probe", out.name),
				zap.Duration("duration", out.finishedAt.Sub(out.startedAt)),
			)
		}
	}

	h.finish()
	log.Info("orchestrator: run complete")
}

// dependencyState reports whether a probe can start (all dependencies
// succeeded) or is permanently blocked (some dependency failed or skipped).
func (o *Orchestrator) dependencyState(h *Handle, cfg ProbeConfig) (ready, blocked bool) {
	ready = true
	for _, dep := range cfg.DependsOn {
		status := h.status(dep)
		switch {
		case status == model.ProbeStatusFailed || status == model.ProbeStatusSkipped:
			return false, true
		case !status.Terminal():
			ready = false
		}
	}
	return ready, false
}

// validateGraph rejects duplicate names, unknown dependencies, and cycles.
func validateGraph(configs []ProbeConfig) error {
	known := make(map[string]ProbeConfig, len(configs))
	for _, c := range configs {
		if c.Name == "" {
			return eris.New("orchestrator: probe with empty name")
		}
		if c.Invoke == nil {
			return eris.Errorf("orchestrator: probe %s has no invoke function", c.Name)
		}
		if _, dup := known[c.Name]; dup {
			return eris.Errorf("orchestrator: duplicate probe name %s", c.Name)
		}
		known[c.Name] = c
	}

	for _, c := range configs {
		for _, dep := range c.DependsOn {
			if _, ok := known[dep]; !ok {
				return eris.Errorf("orchestrator: probe %s depends on unknown probe %s", c.Name, dep)
			}
		}
	}

	// Cycle detection via iterative DFS coloring.
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(configs))
	var visit func(name string) error
	visit = func(name string) error {
		switch color[name] {
		case gray:
			return eris.Errorf("orchestrator: dependency cycle through probe %s", name)
		case black:
			return nil
		}
		color[name] = gray
		for _, dep := range known[name].DependsOn {
			if err := visit(dep); err != nil {
				return err
			}
		}
		color[name] = black
		return nil
	}
	for _, c := range configs {
		if err := visit(c.Name); err != nil {
			return err
		}
	}

	return nil
}
