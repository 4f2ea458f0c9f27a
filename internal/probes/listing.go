package probes

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/presence-cli/internal/match"
	"github.com/sells-group/presence-cli/internal/model"
	"github.com/sells-group/presence-cli/internal/orchestrator"
	"github.com/sells-group/presence-cli/pkg/google"
)

func listingProbe(client google.Client, matcher *match.Matcher) orchestrator.ProbeFunc {
	return func(ctx context.Context, target model.Target, _ map[string]model.ProbeResult) (any, error) {
		resp, err := client.TextSearch(ctx, target.SearchQuery())
		if err != nil {
			return nil, eris.Wrap(err, "probes: places search")
		}

		candidates := make([]model.MatchCandidate, 0, len(resp.Places))
		for _, p := range resp.Places {
			candidates = append(candidates, model.MatchCandidate{
				DisplayName: p.DisplayName.Text,
				Address:     p.FormattedAddress,
				Rating:      p.Rating,
				ReviewCount: p.UserRatingCount,
			})
		}

		result := matcher.Match(target.Name, target.Address, candidates)

		out := map[string]any{
			"found":      result.Found,
			"confidence": result.Confidence,
		}
		if result.Candidate != nil {
			out["candidate"] = map[string]any{
				"display_name": result.Candidate.DisplayName,
				"rating":       result.Candidate.Rating,
				"review_count": float64(result.Candidate.ReviewCount),
			}
		}
		return map[string]any{"match": out}, nil
	}
}
