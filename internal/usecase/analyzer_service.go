package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/shoplens/backend/internal/domain"
	"github.com/shoplens/backend/internal/extract"
)

// maxHTMLBytes caps the markup accepted for one page analysis
const maxHTMLBytes = 2 << 20

const (
	defaultSettleDelay  = 1 * time.Second
	defaultScanDeadline = 3 * time.Second
)

// AnalyzerServiceConfig holds configuration for the page analyzer
type AnalyzerServiceConfig struct {
	// SettleDelay is how long to wait after a positive classification before
	// the first scrape, giving late DOM work a chance to finish. Default 1s.
	SettleDelay time.Duration
	// ScanDeadline bounds how long the analyzer waits for products to appear
	// before falling back to single-product detection. Default 3s.
	ScanDeadline time.Duration
	// EnableDebugLogging turns on detailed logs for analysis decisions
	EnableDebugLogging bool
}

// AnalyzerService runs the full flow for one navigated page: classify first,
// extract only on a match, then rank. At most one analysis runs per page URL
// at a time; a second request for the same URL is dropped, not queued.
type AnalyzerService struct {
	classifier *ClassifierService
	session    *SessionService
	ranking    *RankingService
	engine     *extract.Engine

	settleDelay        time.Duration
	scanDeadline       time.Duration
	enableDebugLogging bool

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewAnalyzerService creates a new page analyzer
func NewAnalyzerService(
	classifier *ClassifierService,
	session *SessionService,
	ranking *RankingService,
	engine *extract.Engine,
	config AnalyzerServiceConfig,
) *AnalyzerService {
	settleDelay := config.SettleDelay
	if settleDelay <= 0 {
		settleDelay = defaultSettleDelay
	}
	scanDeadline := config.ScanDeadline
	if scanDeadline <= 0 {
		scanDeadline = defaultScanDeadline
	}

	return &AnalyzerService{
		classifier:         classifier,
		session:            session,
		ranking:            ranking,
		engine:             engine,
		settleDelay:        settleDelay,
		scanDeadline:       scanDeadline,
		enableDebugLogging: config.EnableDebugLogging,
		inFlight:           make(map[string]bool),
	}
}

// Analyze classifies a navigated page and, on a match, extracts and ranks
// its products. Classification always completes before extraction starts;
// extraction never runs for skip or no-match outcomes.
func (s *AnalyzerService) Analyze(ctx context.Context, req *domain.PageAnalysisRequest) (*domain.AnalysisReport, error) {
	if req == nil || strings.TrimSpace(req.URL) == "" {
		return nil, fmt.Errorf("%w: url is required", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.HTML) == "" {
		return nil, fmt.Errorf("%w: html is required", domain.ErrInvalidRequest)
	}
	if len(req.HTML) > maxHTMLBytes {
		return nil, fmt.Errorf("%w: html exceeds %d bytes", domain.ErrPayloadTooLarge, maxHTMLBytes)
	}

	if !s.acquire(req.URL) {
		return nil, fmt.Errorf("%w: %s", domain.ErrAnalysisInFlight, req.URL)
	}
	defer s.release(req.URL)

	check := s.classifier.Check(ctx, &domain.SiteCheckRequest{
		URL:         req.URL,
		Title:       req.Title,
		Description: req.Description,
	})
	switch check.Outcome {
	case domain.OutcomeSkip:
		return &domain.AnalysisReport{Outcome: domain.AnalysisSkipped, Check: check}, nil
	case domain.OutcomeNoMatch:
		return &domain.AnalysisReport{Outcome: domain.AnalysisNoMatch, Check: check}, nil
	}

	page, err := s.engine.NewPage(req.URL, req.HTML)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	products, err := s.awaitProducts(ctx, page)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		if s.enableDebugLogging {
			log.Printf("[ANALYZE] No products found on matched page %s", req.URL)
		}
		return &domain.AnalysisReport{Outcome: domain.AnalysisNoProducts, Check: check}, nil
	}

	report := &domain.AnalysisReport{
		Outcome:  domain.AnalysisProducts,
		Check:    check,
		Products: products,
	}

	ranking, err := s.ranking.Rank(ctx, s.rankContext(ctx, check), products)
	if err != nil {
		// Unranked products are still worth showing
		log.Printf("[ANALYZE] Ranking unavailable for %s: %v", req.URL, err)
		return report, nil
	}
	report.Ranking = ranking
	return report, nil
}

// acquire takes the in-flight latch for a page URL. It reports false when an
// analysis for that URL is already running.
func (s *AnalyzerService) acquire(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[url] {
		return false
	}
	s.inFlight[url] = true
	return true
}

func (s *AnalyzerService) release(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, url)
}

// awaitProducts waits out the settle delay, then reads the page until
// records appear or the deadline passes; a change notification triggers an
// immediate re-read. After the deadline the page gets one last read as a
// product detail page.
func (s *AnalyzerService) awaitProducts(ctx context.Context, page *extract.Page) ([]domain.ProductRecord, error) {
	settle := time.NewTimer(s.settleDelay)
	select {
	case <-ctx.Done():
		settle.Stop()
		return nil, ctx.Err()
	case <-settle.C:
	}

	deadline := time.NewTimer(s.scanDeadline)
	defer deadline.Stop()

	for {
		if products := page.Products(); len(products) > 0 {
			return products, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			if record := page.SingleProduct(); record != nil {
				return []domain.ProductRecord{*record}, nil
			}
			return nil, nil
		case <-page.Changed():
		}
	}
}

// rankContext builds the conversation context for ranking, preferring the
// live session context over the matched history entry.
func (s *AnalyzerService) rankContext(ctx context.Context, check *domain.SiteCheckResult) domain.RankContext {
	pc, err := s.session.Get(ctx)
	if err != nil {
		log.Printf("[ANALYZE] Session context unavailable: %v", err)
	}
	if pc != nil {
		return domain.RankContext{
			Query:             pc.Query,
			Requirements:      pc.Requirements,
			MentionedProducts: pc.MentionedProducts,
			RecentMessages:    pc.RecentMessages,
		}
	}
	if check.Entry != nil {
		return domain.RankContext{
			Query:        check.Entry.Query,
			Requirements: check.Entry.Requirements,
		}
	}
	return domain.RankContext{}
}
