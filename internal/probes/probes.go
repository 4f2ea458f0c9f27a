// Package probes adapts external clients into orchestrator probe functions.
// Each probe emits a structured payload that the decomposer understands.
package probes

import (
	"github.com/sells-group/presence-cli/internal/config"
	"github.com/sells-group/presence-cli/internal/match"
	"github.com/sells-group/presence-cli/internal/orchestrator"
	"github.com/sells-group/presence-cli/pkg/google"
	"github.com/sells-group/presence-cli/pkg/pagespeed"
	"github.com/sells-group/presence-cli/pkg/screenshot"
	"github.com/sells-group/presence-cli/pkg/urlrank"
)

// Probe names. The decomposer and scorer key off these.
const (
	NamePerformance = "performance"
	NameSecurity    = "security"
	NameListing     = "listing"
	NameAuthority   = "authority"
	NameScreenshot  = "screenshot"
	NameVisual      = "visual"
	NameContent     = "content"
)

// Deps holds the clients the probe set is built from. Nil clients disable
// the probes that need them.
type Deps struct {
	PageSpeed pagespeed.Client
	URLRank   urlrank.Client
	Places    google.Client
	Matcher   *match.Matcher
	Capturer  screenshot.Capturer
}

// Build assembles the probe graph from the available clients. Visual and
// content probes are derived from the screenshot and only run when capture
// is available.
func Build(deps Deps, cfg config.ProbesConfig) []orchestrator.ProbeConfig {
	var out []orchestrator.ProbeConfig

	if deps.PageSpeed != nil {
		out = append(out, orchestrator.ProbeConfig{
			Name:    NamePerformance,
			Timeout: cfg.PerformanceTimeout(),
			Invoke:  performanceProbe(deps.PageSpeed),
		})
	}

	out = append(out, orchestrator.ProbeConfig{
		Name:    NameSecurity,
		Timeout: cfg.SecurityTimeout(),
		Invoke:  securityProbe(nil),
	})

	if deps.Places != nil && deps.Matcher != nil {
		out = append(out, orchestrator.ProbeConfig{
			Name:    NameListing,
			Timeout: cfg.ListingTimeout(),
			Invoke:  listingProbe(deps.Places, deps.Matcher),
		})
	}

	if deps.URLRank != nil {
		out = append(out, orchestrator.ProbeConfig{
			Name:    NameAuthority,
			Timeout: cfg.AuthorityTimeout(),
			Invoke:  authorityProbe(deps.URLRank),
		})
	}

	if deps.Capturer != nil {
		out = append(out,
			orchestrator.ProbeConfig{
				Name:    NameScreenshot,
				Timeout: cfg.ScreenshotTimeout(),
				Invoke:  screenshotProbe(deps.Capturer),
			},
			orchestrator.ProbeConfig{
				Name:      NameVisual,
				DependsOn: []string{NameScreenshot},
				Timeout:   cfg.DerivedTimeout(),
				Invoke:    visualProbe(),
			},
			orchestrator.ProbeConfig{
				Name:      NameContent,
				DependsOn: []string{NameScreenshot},
				Timeout:   cfg.DerivedTimeout(),
				Invoke:    contentProbe(),
			},
		)
	}

	return out
}
