package domain

// SiteCheckOutcome is the three-way result of classifying a navigation event
type SiteCheckOutcome string

const (
	// OutcomeSkip means the page was not worth analyzing at all (fast, local, no network)
	OutcomeSkip SiteCheckOutcome = "skip"
	// OutcomeNoMatch means the page was analyzed but is not relevant to any stored research
	OutcomeNoMatch SiteCheckOutcome = "no_match"
	// OutcomeMatch means the page is relevant to a specific research entry
	OutcomeMatch SiteCheckOutcome = "match"
)

// SiteCheckResult carries the classifier decision for one navigation event
type SiteCheckResult struct {
	Outcome SiteCheckOutcome `json:"outcome"`
	Entry   *ResearchEntry   `json:"entry,omitempty"` // set only on match
	Source  string           `json:"source,omitempty"` // "tracked-link" or "classifier"
	Score   int              `json:"score,omitempty"`
	Reason  string           `json:"reason,omitempty"`
}

// SiteCheckRequest describes a navigated-to page
type SiteCheckRequest struct {
	URL         string `json:"url" binding:"required"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

const (
	// MaxAnalysisHistory caps the research history carried by a site-analysis request
	MaxAnalysisHistory = 8
	// MaxRankProducts caps the product list carried by a ranking request
	MaxRankProducts = 15
)

// HistoryDigest is the slimmed research entry sent to the scoring collaborator
type HistoryDigest struct {
	ID           string   `json:"id"`
	Query        string   `json:"query"`
	ProductName  string   `json:"productName"`
	Requirements []string `json:"requirements,omitempty"`
}

// SiteAnalysisRequest is the wire request for the site-analysis collaborator
type SiteAnalysisRequest struct {
	URL             string          `json:"url"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	ResearchHistory []HistoryDigest `json:"researchHistory"`
}

// SiteAnalysisResponse is the wire response from the site-analysis collaborator
type SiteAnalysisResponse struct {
	IsShoppingSite    bool   `json:"isShoppingSite"`
	SiteCategory      string `json:"siteCategory,omitempty"`
	MatchedResearchID string `json:"matchedResearchId,omitempty"`
	MatchScore        int    `json:"matchScore"`
	MatchReason       string `json:"matchReason,omitempty"`
}

// RankContext is the conversation context sent alongside products for ranking
type RankContext struct {
	Query             string   `json:"query"`
	Requirements      []string `json:"requirements,omitempty"`
	MentionedProducts []string `json:"mentionedProducts,omitempty"`
	RecentMessages    []string `json:"recentMessages,omitempty"`
}

// RankRequest is the wire request for the ranking collaborator
type RankRequest struct {
	Context  RankContext     `json:"context"`
	Products []ProductRecord `json:"products"`
}

// RankResponse is the wire response from the ranking collaborator.
// Scores and indices are untrusted until sanitized by the consumer.
type RankResponse struct {
	Rankings []Ranking `json:"rankings"`
	Summary  string    `json:"summary,omitempty"`
}

// Ranking scores one product by its position in the submitted list
type Ranking struct {
	Index   int      `json:"index"`
	Score   int      `json:"score"`
	Reasons []string `json:"reasons,omitempty"`
}

// RankedProduct pairs a submitted record with its sanitized score
type RankedProduct struct {
	Product ProductRecord `json:"product"`
	Score   int           `json:"score"`
	Reasons []string      `json:"reasons,omitempty"`
}

// RankingResult is the sanitized ranking surfaced to callers,
// best score first.
type RankingResult struct {
	Products []RankedProduct `json:"products"`
	Summary  string          `json:"summary,omitempty"`
}
