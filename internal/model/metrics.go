package model

// Canonical metric keys produced by decomposition. Keys are probe-agnostic;
// each value originates from exactly one precedence-selected source per pass.
const (
	// Performance timing.
	MetricPerformanceScore   = "performance_score"
	MetricFCPMs              = "first_contentful_paint_ms"
	MetricLCPMs              = "largest_contentful_paint_ms"
	MetricCLS                = "cumulative_layout_shift"
	MetricSpeedIndexMs       = "speed_index_ms"
	MetricTimeToInteractive  = "time_to_interactive_ms"

	// Security posture.
	MetricSecurityScore      = "security_score"
	MetricHTTPSEnabled       = "https_enabled"
	MetricHSTSPresent        = "hsts_present"
	MetricCSPPresent         = "csp_present"
	MetricXFramePresent      = "x_frame_options_present"
	MetricMissingHeaderCount = "missing_header_count"

	// Directory listing.
	MetricListingFound       = "listing_found"
	MetricListingConfidence  = "listing_confidence"
	MetricListingName        = "listing_name"
	MetricListingRating      = "listing_rating"
	MetricListingReviewCount = "listing_review_count"

	// Authority / traffic.
	MetricDomainAuthority = "domain_authority"
	MetricPageRank        = "page_rank"
	MetricRankingKeywords = "ranking_keywords"

	// Screenshot presence.
	MetricScreenshotCaptured  = "screenshot_captured"
	MetricScreenshotSizeBytes = "screenshot_size_bytes"

	// Derived visual scores.
	MetricVisualScore   = "visual_score"
	MetricLayoutScore   = "layout_score"
	MetricContrastScore = "contrast_score"

	// Derived content scores.
	MetricContentScore     = "content_score"
	MetricReadabilityScore = "readability_score"
	MetricWordCount        = "word_count"

	// Bookkeeping.
	MetricDecomposerSources = "decomposer_sources"
	MetricErrorComponents   = "error_components"
)
