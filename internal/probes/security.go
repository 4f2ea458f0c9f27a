package probes

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/presence-cli/internal/model"
	"github.com/sells-group/presence-cli/internal/orchestrator"
)

// Header checks weighted into the security posture score. HTTPS carries the
// bulk of the weight; each missing hardening header costs a fixed slice.
const (
	httpsWeight  = 55.0
	headerWeight = 15.0
)

func securityProbe(hc *http.Client) orchestrator.ProbeFunc {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return func(ctx context.Context, target model.Target, _ map[string]model.ProbeResult) (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "probes: security request")
		}
		resp, err := hc.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "probes: security fetch")
		}
		defer resp.Body.Close()

		httpsEnabled := resp.Request != nil && resp.Request.URL != nil &&
			strings.EqualFold(resp.Request.URL.Scheme, "https")

		hsts := resp.Header.Get("Strict-Transport-Security") != ""
		csp := resp.Header.Get("Content-Security-Policy") != ""
		xfo := resp.Header.Get("X-Frame-Options") != ""

		missing := 0
		score := 0.0
		if httpsEnabled {
			score += httpsWeight
		}
		for _, present := range []bool{hsts, csp, xfo} {
			if present {
				score += headerWeight
			} else {
				missing++
			}
		}

		return map[string]any{
			"posture": map[string]any{
				"security_score": score,
				"https_enabled":  httpsEnabled,
				"headers": map[string]any{
					"hsts":            hsts,
					"csp":             csp,
					"x_frame_options": xfo,
				},
				"missing_header_count": float64(missing),
			},
		}, nil
	}
}
