package domain

// AnalysisOutcome labels what a full page analysis produced
type AnalysisOutcome string

const (
	// AnalysisSkipped means the page was not worth analyzing
	AnalysisSkipped AnalysisOutcome = "skipped"
	// AnalysisNoMatch means the page is not relevant to any stored research
	AnalysisNoMatch AnalysisOutcome = "no_match"
	// AnalysisNoProducts means the page matched but no products could be
	// extracted. An expected outcome, not a failure.
	AnalysisNoProducts AnalysisOutcome = "no_products"
	// AnalysisProducts means the page matched and products were extracted
	AnalysisProducts AnalysisOutcome = "products"
)

// PageAnalysisRequest carries one page's address, metadata and markup
type PageAnalysisRequest struct {
	URL         string `json:"url" binding:"required"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	HTML        string `json:"html"`
}

// AnalysisReport is the end-to-end result of analyzing one page:
// classification, then extraction and ranking when the page matched.
// Ranking is nil when the scoring collaborator was unavailable.
type AnalysisReport struct {
	Outcome  AnalysisOutcome  `json:"outcome"`
	Check    *SiteCheckResult `json:"check"`
	Products []ProductRecord  `json:"products,omitempty"`
	Ranking  *RankingResult   `json:"ranking,omitempty"`
}
