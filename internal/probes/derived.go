package probes

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/presence-cli/internal/model"
	"github.com/sells-group/presence-cli/internal/orchestrator"
)

// The visual and content probes score the captured page offline. They depend
// on the screenshot probe and read its payload from the prior results.

var tagRe = regexp.MustCompile(`(?s)<script.*?</script>|<style.*?</style>|<[^>]*>`)

func screenshotPayload(prior map[string]model.ProbeResult) (map[string]any, error) {
	res, ok := prior[NameScreenshot]
	if !ok {
		return nil, eris.New("probes: screenshot result missing")
	}
	payload, ok := res.Payload.(map[string]any)
	if !ok {
		return nil, eris.New("probes: screenshot payload malformed")
	}
	return payload, nil
}

func visualProbe() orchestrator.ProbeFunc {
	return func(ctx context.Context, _ model.Target, prior map[string]model.ProbeResult) (any, error) {
		payload, err := screenshotPayload(prior)
		if err != nil {
			return nil, err
		}
		png, _ := payload[payloadKeyPNG].([]byte)
		if len(png) == 0 {
			return nil, eris.New("probes: empty screenshot image")
		}

		entropy := byteEntropy(png)

		// A near-blank page compresses to little entropy; a visually rich
		// one sits near the top of the 0-8 bit range.
		visual := clamp100(entropy / 8.0 * 100)
		layout := clamp100(visual*0.6 + densityScore(len(png))*0.4)
		contrast := clamp100(entropy / 7.5 * 100)

		return map[string]any{
			"visual_score":   round2(visual),
			"layout_score":   round2(layout),
			"contrast_score": round2(contrast),
		}, nil
	}
}

func contentProbe() orchestrator.ProbeFunc {
	return func(ctx context.Context, _ model.Target, prior map[string]model.ProbeResult) (any, error) {
		payload, err := screenshotPayload(prior)
		if err != nil {
			return nil, err
		}
		html, _ := payload[payloadKeyHTML].(string)
		text := strings.TrimSpace(tagRe.ReplaceAllString(html, " "))
		words := strings.Fields(text)

		readability := readabilityScore(words)
		content := contentScore(len(words), readability)

		return map[string]any{
			"content_score":     round2(content),
			"readability_score": round2(readability),
			"word_count":        float64(len(words)),
		}, nil
	}
}

func byteEntropy(data []byte) float64 {
	var counts [256]int
	for _, b := range data {
		counts[b]++
	}
	total := float64(len(data))
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / total
		h -= p * math.Log2(p)
	}
	return h
}

// densityScore rewards captures with enough pixels to suggest a laid-out
// page rather than an error screen. Saturates around 200 KiB.
func densityScore(size int) float64 {
	return clamp100(float64(size) / (200 * 1024) * 100)
}

// readabilityScore penalizes very long average word length and very sparse
// text, a cheap proxy for prose quality.
func readabilityScore(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	var chars int
	for _, w := range words {
		chars += len(w)
	}
	avg := float64(chars) / float64(len(words))
	// Average word length near 5 reads best; score decays as it drifts.
	return clamp100(100 - math.Abs(avg-5)*18)
}

func contentScore(wordCount int, readability float64) float64 {
	// 300+ words of body text earns full volume credit.
	volume := clamp100(float64(wordCount) / 300 * 100)
	return clamp100(volume*0.6 + readability*0.4)
}

func clamp100(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
