package orchestrator

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// timeoutErrorTag is the fixed error recorded for probes that exceed their
// deadline.
const timeoutErrorTag = "deadline exceeded"

// maxErrorLen bounds the captured error message stored on a ProbeResult.
const maxErrorLen = 500

// runProbe executes one probe bounded by its timeout and reports the outcome.
// The invoke function runs in its own goroutine so a probe that ignores its
// deadline still cannot stall the run past the timeout budget.
func runProbe(ctx context.Context, h *Handle, cfg ProbeConfig, outcomes chan<- outcome) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now().UTC()
	prior := h.priorResults(cfg.DependsOn)

	type invokeReturn struct {
		payload any
		err     error
	}
	done := make(chan invokeReturn, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- invokeReturn{err: eris.Errorf("probe panic: %v", r)}
			}
		}()
		payload, err := cfg.Invoke(probeCtx, h.run.Target, prior)
		done <- invokeReturn{payload: payload, err: err}
	}()

	out := outcome{name: cfg.Name, startedAt: started}
	select {
	case ret := <-done:
		out.payload = ret.payload
		out.err = ret.err
		if out.err != nil && probeCtx.Err() == context.DeadlineExceeded {
			out.err = eris.New(timeoutErrorTag)
		}
	case <-probeCtx.Done():
		if probeCtx.Err() == context.DeadlineExceeded {
			out.err = eris.New(timeoutErrorTag)
		} else {
			out.err = eris.Wrap(probeCtx.Err(), "probe cancelled")
		}
	}
	out.finishedAt = time.Now().UTC()

	outcomes <- out
}

// truncateError bounds an error message for storage on a ProbeResult.
func truncateError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > maxErrorLen {
		msg = msg[:maxErrorLen]
	}
	return msg
}
