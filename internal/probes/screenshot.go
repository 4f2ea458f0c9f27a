package probes

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/presence-cli/internal/model"
	"github.com/sells-group/presence-cli/internal/orchestrator"
	"github.com/sells-group/presence-cli/pkg/screenshot"
)

// Payload keys the derived probes read from the screenshot result. The PNG
// and HTML are carried in the payload so visual/content analysis needs no
// second fetch; the decomposer only reads captured and size_bytes.
const (
	payloadKeyPNG  = "png"
	payloadKeyHTML = "html"
)

func screenshotProbe(capturer screenshot.Capturer) orchestrator.ProbeFunc {
	return func(ctx context.Context, target model.Target, _ map[string]model.ProbeResult) (any, error) {
		shot, err := capturer.Capture(ctx, target.URL)
		if err != nil {
			return nil, eris.Wrap(err, "probes: screenshot capture")
		}
		return map[string]any{
			"captured":     len(shot.PNG) > 0,
			"size_bytes":   float64(len(shot.PNG)),
			payloadKeyPNG:  shot.PNG,
			payloadKeyHTML: shot.HTML,
		}, nil
	}
}
