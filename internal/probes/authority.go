package probes

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/presence-cli/internal/model"
	"github.com/sells-group/presence-cli/internal/orchestrator"
	"github.com/sells-group/presence-cli/pkg/urlrank"
)

func authorityProbe(client urlrank.Client) orchestrator.ProbeFunc {
	return func(ctx context.Context, target model.Target, _ map[string]model.ProbeResult) (any, error) {
		domain := target.Domain()
		if domain == "" {
			return nil, eris.New("probes: target has no resolvable domain")
		}
		rank, err := client.DomainRank(ctx, domain)
		if err != nil {
			return nil, eris.Wrap(err, "probes: domain rank")
		}
		return map[string]any{
			"domain_authority": rank.DomainAuthority,
			"page_rank":        rank.PageRank,
		}, nil
	}
}
