package probes

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/presence-cli/internal/model"
	"github.com/sells-group/presence-cli/internal/orchestrator"
	"github.com/sells-group/presence-cli/pkg/pagespeed"
)

func performanceProbe(client pagespeed.Client) orchestrator.ProbeFunc {
	return func(ctx context.Context, target model.Target, _ map[string]model.ProbeResult) (any, error) {
		res, err := client.Analyze(ctx, target.URL)
		if err != nil {
			return nil, eris.Wrap(err, "probes: pagespeed analyze")
		}
		return map[string]any{
			"metrics": map[string]any{
				"performance_score":           res.PerformanceScore,
				"first_contentful_paint_ms":   res.FCPMs,
				"largest_contentful_paint_ms": res.LCPMs,
				"cumulative_layout_shift":     res.CLS,
				"speed_index_ms":              res.SpeedIndexMs,
				"time_to_interactive_ms":      res.TTIMs,
			},
		}, nil
	}
}
