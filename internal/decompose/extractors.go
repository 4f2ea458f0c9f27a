package decompose

import (
	"github.com/sells-group/presence-cli/internal/model"
)

// extractorFn pulls a group's canonical metrics out of one probe payload.
// Extractors are total: malformed input yields an empty map, never a panic.
type extractorFn func(payload map[string]any) map[string]any

// metricGroup binds a probe's payload to its canonical metric keys with a
// structured-first, legacy-fallback extractor pair.
type metricGroup struct {
	name       string
	probe      string
	keys       []string
	structured extractorFn
	legacy     extractorFn
}

// groups is the fixed decomposition table. Order is stable so repeated
// decomposition of the same run is deterministic.
var groups = []metricGroup{
	{
		name:  "performance_timing",
		probe: "performance",
		keys: []string{
			model.MetricPerformanceScore, model.MetricFCPMs, model.MetricLCPMs,
			model.MetricCLS, model.MetricSpeedIndexMs, model.MetricTimeToInteractive,
		},
		structured: extractPerformanceStructured,
		legacy:     extractPerformanceLegacy,
	},
	{
		name:  "security_posture",
		probe: "security",
		keys: []string{
			model.MetricSecurityScore, model.MetricHTTPSEnabled, model.MetricHSTSPresent,
			model.MetricCSPPresent, model.MetricXFramePresent, model.MetricMissingHeaderCount,
		},
		structured: extractSecurityStructured,
		legacy:     extractSecurityLegacy,
	},
	{
		name:  "directory_listing",
		probe: "listing",
		keys: []string{
			model.MetricListingFound, model.MetricListingConfidence, model.MetricListingName,
			model.MetricListingRating, model.MetricListingReviewCount,
		},
		structured: extractListingStructured,
		legacy:     extractListingLegacy,
	},
	{
		name:  "authority",
		probe: "authority",
		keys: []string{
			model.MetricDomainAuthority, model.MetricPageRank, model.MetricRankingKeywords,
		},
		structured: extractAuthorityStructured,
		legacy:     extractAuthorityLegacy,
	},
	{
		name:  "screenshot",
		probe: "screenshot",
		keys: []string{
			model.MetricScreenshotCaptured, model.MetricScreenshotSizeBytes,
		},
		structured: extractScreenshotStructured,
		legacy:     extractScreenshotLegacy,
	},
	{
		name:  "visual_scores",
		probe: "visual",
		keys: []string{
			model.MetricVisualScore, model.MetricLayoutScore, model.MetricContrastScore,
		},
		structured: extractVisualStructured,
		legacy:     extractVisualLegacy,
	},
	{
		name:  "content_scores",
		probe: "content",
		keys: []string{
			model.MetricContentScore, model.MetricReadabilityScore, model.MetricWordCount,
		},
		structured: extractContentStructured,
		legacy:     extractContentLegacy,
	},
}

// extractPerformanceStructured reads the current payload shape: a flat
// "metrics" sub-record with canonical field names.
func extractPerformanceStructured(payload map[string]any) map[string]any {
	m := asMap(dig(payload, "metrics"))
	if m == nil {
		return nil
	}
	out := make(map[string]any)
	put(out, model.MetricPerformanceScore, digFloat(m, "performance_score"))
	put(out, model.MetricFCPMs, digFloat(m, "first_contentful_paint_ms"))
	put(out, model.MetricLCPMs, digFloat(m, "largest_contentful_paint_ms"))
	put(out, model.MetricCLS, digFloat(m, "cumulative_layout_shift"))
	put(out, model.MetricSpeedIndexMs, digFloat(m, "speed_index_ms"))
	put(out, model.MetricTimeToInteractive, digFloat(m, "time_to_interactive_ms"))
	return out
}

// extractPerformanceLegacy knows the two historical performance payload
// shapes: the mobile_analysis.core_web_vitals nesting, and before that the
// raw lighthouseResult document.
func extractPerformanceLegacy(payload map[string]any) map[string]any {
	if cwv := asMap(dig(payload, "mobile_analysis", "core_web_vitals")); cwv != nil {
		out := make(map[string]any)
		put(out, model.MetricPerformanceScore, digFloat(payload, "mobile_analysis", "performance_score"))
		put(out, model.MetricFCPMs, digFloat(cwv, "fcp_ms"))
		put(out, model.MetricLCPMs, digFloat(cwv, "lcp_ms"))
		put(out, model.MetricCLS, digFloat(cwv, "cls"))
		put(out, model.MetricSpeedIndexMs, digFloat(cwv, "speed_index_ms"))
		put(out, model.MetricTimeToInteractive, digFloat(cwv, "tti_ms"))
		return out
	}

	if lh := asMap(dig(payload, "lighthouseResult")); lh != nil {
		out := make(map[string]any)
		if score := digFloat(lh, "categories", "performance", "score"); score != nil {
			out[model.MetricPerformanceScore] = *score * 100
		}
		put(out, model.MetricFCPMs, digFloat(lh, "audits", "first-contentful-paint", "numericValue"))
		put(out, model.MetricLCPMs, digFloat(lh, "audits", "largest-contentful-paint", "numericValue"))
		put(out, model.MetricCLS, digFloat(lh, "audits", "cumulative-layout-shift", "numericValue"))
		put(out, model.MetricSpeedIndexMs, digFloat(lh, "audits", "speed-index", "numericValue"))
		put(out, model.MetricTimeToInteractive, digFloat(lh, "audits", "interactive", "numericValue"))
		return out
	}

	return nil
}

func extractSecurityStructured(payload map[string]any) map[string]any {
	m := asMap(dig(payload, "posture"))
	if m == nil {
		return nil
	}
	out := make(map[string]any)
	put(out, model.MetricSecurityScore, digFloat(m, "security_score"))
	put(out, model.MetricHTTPSEnabled, digBool(m, "https_enabled"))
	put(out, model.MetricHSTSPresent, digBool(m, "headers", "hsts"))
	put(out, model.MetricCSPPresent, digBool(m, "headers", "csp"))
	put(out, model.MetricXFramePresent, digBool(m, "headers", "x_frame_options"))
	put(out, model.MetricMissingHeaderCount, digFloat(m, "missing_header_count"))
	return out
}

// extractSecurityLegacy reads the flat "checks" shape emitted before the
// posture sub-record existed.
func extractSecurityLegacy(payload map[string]any) map[string]any {
	checks := asMap(dig(payload, "checks"))
	if checks == nil {
		return nil
	}
	out := make(map[string]any)
	put(out, model.MetricSecurityScore, digFloat(payload, "score"))
	put(out, model.MetricHTTPSEnabled, digBool(checks, "ssl_enabled"))
	put(out, model.MetricHSTSPresent, digBool(checks, "strict_transport_security"))
	put(out, model.MetricCSPPresent, digBool(checks, "content_security_policy"))
	put(out, model.MetricXFramePresent, digBool(checks, "x_frame_options"))
	put(out, model.MetricMissingHeaderCount, digFloat(payload, "missing_headers"))
	return out
}

func extractListingStructured(payload map[string]any) map[string]any {
	m := asMap(dig(payload, "match"))
	if m == nil {
		return nil
	}
	out := make(map[string]any)
	put(out, model.MetricListingFound, digBool(m, "found"))
	put(out, model.MetricListingConfidence, digFloat(m, "confidence"))
	put(out, model.MetricListingName, digString(m, "candidate", "display_name"))
	put(out, model.MetricListingRating, digFloat(m, "candidate", "rating"))
	put(out, model.MetricListingReviewCount, digFloat(m, "candidate", "review_count"))
	return out
}

// extractListingLegacy reads the pre-matcher "best_match" shape.
func extractListingLegacy(payload map[string]any) map[string]any {
	m := asMap(dig(payload, "best_match"))
	if m == nil {
		return nil
	}
	out := make(map[string]any)
	put(out, model.MetricListingFound, digBool(payload, "business_found"))
	put(out, model.MetricListingConfidence, digFloat(payload, "match_confidence"))
	put(out, model.MetricListingName, digString(m, "name"))
	put(out, model.MetricListingRating, digFloat(m, "rating"))
	put(out, model.MetricListingReviewCount, digFloat(m, "user_ratings_total"))
	return out
}

func extractAuthorityStructured(payload map[string]any) map[string]any {
	out := make(map[string]any)
	put(out, model.MetricDomainAuthority, digFloat(payload, "domain_authority"))
	put(out, model.MetricPageRank, digFloat(payload, "page_rank"))
	put(out, model.MetricRankingKeywords, digFloat(payload, "ranking_keywords"))
	return out
}

func extractAuthorityLegacy(payload map[string]any) map[string]any {
	m := asMap(dig(payload, "authority"))
	if m == nil {
		return nil
	}
	out := make(map[string]any)
	put(out, model.MetricDomainAuthority, digFloat(m, "score"))
	put(out, model.MetricPageRank, digFloat(m, "rank"))
	put(out, model.MetricRankingKeywords, digFloat(m, "keywords"))
	return out
}

func extractScreenshotStructured(payload map[string]any) map[string]any {
	out := make(map[string]any)
	put(out, model.MetricScreenshotCaptured, digBool(payload, "captured"))
	put(out, model.MetricScreenshotSizeBytes, digFloat(payload, "size_bytes"))
	return out
}

func extractScreenshotLegacy(payload map[string]any) map[string]any {
	m := asMap(dig(payload, "screenshot"))
	if m == nil {
		return nil
	}
	out := make(map[string]any)
	put(out, model.MetricScreenshotCaptured, digBool(m, "success"))
	put(out, model.MetricScreenshotSizeBytes, digFloat(m, "data_len"))
	return out
}

func extractVisualStructured(payload map[string]any) map[string]any {
	out := make(map[string]any)
	put(out, model.MetricVisualScore, digFloat(payload, "visual_score"))
	put(out, model.MetricLayoutScore, digFloat(payload, "layout_score"))
	put(out, model.MetricContrastScore, digFloat(payload, "contrast_score"))
	return out
}

func extractVisualLegacy(payload map[string]any) map[string]any {
	m := asMap(dig(payload, "scores"))
	if m == nil {
		return nil
	}
	out := make(map[string]any)
	put(out, model.MetricVisualScore, digFloat(m, "visual"))
	put(out, model.MetricLayoutScore, digFloat(m, "layout"))
	put(out, model.MetricContrastScore, digFloat(m, "contrast"))
	return out
}

func extractContentStructured(payload map[string]any) map[string]any {
	out := make(map[string]any)
	put(out, model.MetricContentScore, digFloat(payload, "content_score"))
	put(out, model.MetricReadabilityScore, digFloat(payload, "readability_score"))
	put(out, model.MetricWordCount, digFloat(payload, "word_count"))
	return out
}

func extractContentLegacy(payload map[string]any) map[string]any {
	m := asMap(dig(payload, "scores"))
	if m == nil {
		return nil
	}
	out := make(map[string]any)
	put(out, model.MetricContentScore, digFloat(m, "content"))
	put(out, model.MetricReadabilityScore, digFloat(m, "readability"))
	put(out, model.MetricWordCount, digFloat(payload, "word_count"))
	return out
}
