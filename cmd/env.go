package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/presence-cli/internal/assess"
	"github.com/sells-group/presence-cli/internal/match"
	"github.com/sells-group/presence-cli/internal/probes"
	"github.com/sells-group/presence-cli/internal/store"
	"github.com/sells-group/presence-cli/pkg/google"
	"github.com/sells-group/presence-cli/pkg/pagespeed"
	"github.com/sells-group/presence-cli/pkg/screenshot"
	"github.com/sells-group/presence-cli/pkg/urlrank"
)

// env bundles the long-lived resources a command needs.
type env struct {
	Store    store.Store
	Service  *assess.Service
	capturer screenshot.Capturer
}

func (e *env) Close() {
	if e.capturer != nil {
		if err := e.capturer.Close(); err != nil {
			zap.L().Warn("close capturer", zap.Error(err))
		}
	}
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initEnv builds the probe set from the configured clients and wires the
// assessment service. Probes whose API keys are absent are left out.
func initEnv(ctx context.Context) (*env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	matcherCfg := match.DefaultConfig()
	if cfg.Matcher.ConfigPath != "" {
		matcherCfg, err = match.LoadConfig(cfg.Matcher.ConfigPath)
		if err != nil {
			st.Close()
			return nil, eris.Wrap(err, "load matcher config")
		}
	}

	deps := probes.Deps{Matcher: match.NewMatcher(matcherCfg)}

	if cfg.PageSpeed.Key != "" {
		deps.PageSpeed = pagespeed.NewClient(cfg.PageSpeed.Key)
	} else {
		zap.L().Warn("pagespeed key missing, performance probe disabled")
	}
	if cfg.Google.Key != "" {
		deps.Places = google.NewClient(cfg.Google.Key, google.WithRateLimit(cfg.Google.RPS))
	} else {
		zap.L().Warn("google key missing, listing probe disabled")
	}
	if cfg.URLRank.Key != "" {
		deps.URLRank = urlrank.NewClient(cfg.URLRank.Key)
	} else {
		zap.L().Warn("urlrank key missing, authority probe disabled")
	}

	var capturer screenshot.Capturer
	if cfg.Screenshot.Enabled {
		capCfg := screenshot.DefaultConfig()
		if cfg.Screenshot.MaxConcurrent > 0 {
			capCfg.MaxConcurrent = cfg.Screenshot.MaxConcurrent
		}
		if cfg.Screenshot.Quality > 0 {
			capCfg.Quality = cfg.Screenshot.Quality
		}
		capturer, err = screenshot.NewChromeCapturer(capCfg)
		if err != nil {
			zap.L().Warn("chrome unavailable, screenshot probes disabled", zap.Error(err))
			capturer = nil
		}
		deps.Capturer = capturer
	}

	svc := assess.New(
		probes.Build(deps, cfg.Probes),
		assess.WithStore(st),
		assess.WithBatchLimit(cfg.Batch.MaxConcurrentTargets),
	)

	return &env{Store: st, Service: svc, capturer: capturer}, nil
}
