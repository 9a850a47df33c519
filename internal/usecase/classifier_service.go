package usecase

import (
	"context"
	"log"
	"net/url"
	"strings"

	"github.com/shoplens/backend/internal/domain"
)

// classifyMatchThreshold is the collaborator score a page must exceed before
// it counts as a match. The ranking path applies its own floor
// (rankingScoreFloor); the two are kept as separate knobs.
const classifyMatchThreshold = 50

// skipDomains lists well-known non-shopping sites that are never worth
// analyzing. Matched against the www-stripped hostname, including subdomains.
var skipDomains = []string{
	// Search engines
	"google.com",
	"bing.com",
	"duckduckgo.com",
	"yahoo.com",
	"baidu.com",

	// Social networks
	"facebook.com",
	"instagram.com",
	"twitter.com",
	"x.com",
	"reddit.com",
	"tiktok.com",
	"linkedin.com",
	"pinterest.com",

	// Reference and media
	"wikipedia.org",
	"youtube.com",
	"github.com",
	"stackoverflow.com",

	// Chat platforms the assistant watches for research intent
	"chatgpt.com",
	"openai.com",
	"claude.ai",
	"gemini.google.com",
	"perplexity.ai",
	"copilot.microsoft.com",
}

// ClassifierServiceConfig holds configuration for the classifier service
type ClassifierServiceConfig struct {
	MatchThreshold     int // default classifyMatchThreshold
	EnableDebugLogging bool
}

// ClassifierService decides, per navigation event, whether a page is worth
// extracting products from. Three outcomes: skip (local decision, no
// network), no_match (analyzed, not relevant), match (relevant to a specific
// research entry). Collaborator failures always collapse to no_match.
type ClassifierService struct {
	history            *HistoryService
	session            *SessionService
	scoring            domain.ScoringClient
	normalizer         *Normalizer
	matchThreshold     int
	enableDebugLogging bool
}

// NewClassifierService creates a new site relevance classifier
func NewClassifierService(
	history *HistoryService,
	session *SessionService,
	scoring domain.ScoringClient,
	normalizer *Normalizer,
	config ClassifierServiceConfig,
) *ClassifierService {
	threshold := config.MatchThreshold
	if threshold <= 0 {
		threshold = classifyMatchThreshold
	}

	return &ClassifierService{
		history:            history,
		session:            session,
		scoring:            scoring,
		normalizer:         normalizer,
		matchThreshold:     threshold,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Check classifies a navigated-to page. It never returns an error; every
// failure mode degrades to skip or no_match.
func (s *ClassifierService) Check(ctx context.Context, req *domain.SiteCheckRequest) *domain.SiteCheckResult {
	if req == nil || strings.TrimSpace(req.URL) == "" {
		return skipResult("no url")
	}

	host := hostnameOf(req.URL)
	if host == "" {
		return skipResult("unparseable url")
	}

	entries := s.history.List(ctx)
	if len(entries) == 0 {
		if s.enableDebugLogging {
			log.Printf("[CLASSIFY] Skipping %s: no research history", host)
		}
		return skipResult("no research history")
	}

	if matchesSkipDomain(host) {
		if s.enableDebugLogging {
			log.Printf("[CLASSIFY] Skipping %s: non-shopping domain", host)
		}
		return skipResult("non-shopping domain")
	}

	// A tracked link from the source conversation is authoritative and
	// costs nothing. Check it before going to the network.
	if result := s.checkTrackedLinks(ctx, host, entries); result != nil {
		return result
	}

	return s.analyze(ctx, req, entries)
}

// checkTrackedLinks matches the navigated-to host against links observed in
// the source conversation. Returns nil when no tracked link matches.
func (s *ClassifierService) checkTrackedLinks(ctx context.Context, host string, entries []domain.ResearchEntry) *domain.SiteCheckResult {
	pc, err := s.session.Get(ctx)
	if err != nil || pc == nil {
		return nil
	}

	for _, link := range pc.TrackedLinks {
		linkHost := normalizeHost(link.Domain)
		if linkHost == "" {
			linkHost = hostnameOf(link.URL)
		}
		if !hostsMatch(host, linkHost) {
			continue
		}

		if s.enableDebugLogging {
			log.Printf("[CLASSIFY] Tracked link match: %s ~ %s", host, linkHost)
		}
		entry := s.resolveContextEntry(ctx, pc, entries)
		return &domain.SiteCheckResult{
			Outcome: domain.OutcomeMatch,
			Entry:   entry,
			Source:  "tracked-link",
			Score:   100,
			Reason:  "visited a link from the source conversation",
		}
	}
	return nil
}

// analyze delegates to the scoring collaborator and maps its verdict onto a
// no_match or match outcome.
func (s *ClassifierService) analyze(ctx context.Context, req *domain.SiteCheckRequest, entries []domain.ResearchEntry) *domain.SiteCheckResult {
	digests := make([]domain.HistoryDigest, 0, len(entries))
	for _, e := range entries {
		digests = append(digests, domain.HistoryDigest{
			ID:           e.ID,
			Query:        e.Query,
			ProductName:  e.ProductName,
			Requirements: e.Requirements,
		})
	}

	resp, err := s.scoring.AnalyzeSite(ctx, &domain.SiteAnalysisRequest{
		URL:             req.URL,
		Title:           req.Title,
		Description:     req.Description,
		ResearchHistory: digests,
	})
	if err != nil {
		// A missed proactive match is acceptable; a crash is not.
		log.Printf("[CLASSIFY] Site analysis failed, treating as no match: %v", err)
		return noMatchResult(0, "analysis unavailable")
	}

	if !resp.IsShoppingSite {
		if s.enableDebugLogging {
			log.Printf("[CLASSIFY] %s is not a shopping site", req.URL)
		}
		return noMatchResult(resp.MatchScore, "not a shopping site")
	}

	if resp.MatchedResearchID == "" || resp.MatchScore <= s.matchThreshold {
		if s.enableDebugLogging {
			log.Printf("[CLASSIFY] %s is a shopping site but matched no research (score %d)",
				req.URL, resp.MatchScore)
		}
		return noMatchResult(resp.MatchScore, "no research entry above threshold")
	}

	entry, err := s.history.Get(ctx, resp.MatchedResearchID)
	if err != nil {
		log.Printf("[CLASSIFY] Matched research id %q not found, treating as no match",
			resp.MatchedResearchID)
		return noMatchResult(resp.MatchScore, "matched research entry no longer exists")
	}

	s.history.Touch(ctx, entry.ID)
	if s.enableDebugLogging {
		log.Printf("[CLASSIFY] %s matched research %q (score %d)",
			req.URL, entry.ProductName, resp.MatchScore)
	}

	return &domain.SiteCheckResult{
		Outcome: domain.OutcomeMatch,
		Entry:   entry,
		Source:  "classifier",
		Score:   resp.MatchScore,
		Reason:  resp.MatchReason,
	}
}

// resolveContextEntry finds the research entry behind a product context,
// preferring conversation id equality, then case-insensitive query equality.
// When nothing is stored yet it synthesizes an unsaved entry from the context
// so the caller still gets usable match details.
func (s *ClassifierService) resolveContextEntry(ctx context.Context, pc *domain.ProductContext, entries []domain.ResearchEntry) *domain.ResearchEntry {
	for i := range entries {
		if pc.ConversationID != "" && entries[i].ConversationID == pc.ConversationID {
			s.history.Touch(ctx, entries[i].ID)
			return &entries[i]
		}
	}
	for i := range entries {
		if strings.EqualFold(entries[i].Query, pc.Query) {
			s.history.Touch(ctx, entries[i].ID)
			return &entries[i]
		}
	}

	return &domain.ResearchEntry{
		Query:          pc.Query,
		ProductName:    s.normalizer.DeriveProductName(pc.Query),
		Requirements:   pc.Requirements,
		Timestamp:      pc.Timestamp,
		LastUsed:       pc.Timestamp,
		ConversationID: pc.ConversationID,
	}
}

func skipResult(reason string) *domain.SiteCheckResult {
	return &domain.SiteCheckResult{Outcome: domain.OutcomeSkip, Reason: reason}
}

func noMatchResult(score int, reason string) *domain.SiteCheckResult {
	return &domain.SiteCheckResult{
		Outcome: domain.OutcomeNoMatch,
		Source:  "classifier",
		Score:   score,
		Reason:  reason,
	}
}

// hostnameOf extracts the www-stripped lowercase hostname from a URL,
// tolerating scheme-less values like "example.com/widget". Returns "" when
// no hostname can be recovered.
func hostnameOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		if strings.Contains(rawURL, "://") {
			return ""
		}
		u, err = url.Parse("https://" + rawURL)
		if err != nil || u.Hostname() == "" {
			return ""
		}
	}
	return normalizeHost(u.Hostname())
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	return strings.TrimPrefix(host, "www.")
}

// matchesSkipDomain reports whether host is one of the denylisted domains or
// a subdomain of one.
func matchesSkipDomain(host string) bool {
	for _, d := range skipDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// hostsMatch compares two normalized hostnames, allowing containment in
// either direction so subdomain variants still match.
func hostsMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
