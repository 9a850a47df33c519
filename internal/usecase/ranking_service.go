package usecase

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/shoplens/backend/internal/domain"
)

// rankingScoreFloor mirrors the cutoff the scoring collaborator applies
// before emitting a ranking at all. Kept separate from
// classifyMatchThreshold so the two can be tuned independently.
const rankingScoreFloor = 50

// maxRankReasons caps how many reasons are surfaced per ranked product
const maxRankReasons = 3

// RankingServiceConfig holds configuration for the ranking service
type RankingServiceConfig struct {
	ScoreFloor         int // default rankingScoreFloor
	EnableDebugLogging bool
}

// RankingService scores extracted products against the research context via
// the external collaborator. Indices, scores and reasons in the response are
// untrusted and sanitized before being surfaced.
type RankingService struct {
	scoring            domain.ScoringClient
	scoreFloor         int
	enableDebugLogging bool
}

// NewRankingService creates a new product ranking service
func NewRankingService(scoring domain.ScoringClient, config RankingServiceConfig) *RankingService {
	floor := config.ScoreFloor
	if floor <= 0 {
		floor = rankingScoreFloor
	}

	return &RankingService{
		scoring:            scoring,
		scoreFloor:         floor,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Rank submits up to MaxRankProducts products for scoring and returns the
// sanitized result, best score first. Products the collaborator scored at or
// below the floor are dropped unless that would leave nothing.
func (s *RankingService) Rank(ctx context.Context, rankCtx domain.RankContext, products []domain.ProductRecord) (*domain.RankingResult, error) {
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: no products to rank", domain.ErrInvalidRequest)
	}

	submitted := products
	if len(submitted) > domain.MaxRankProducts {
		submitted = submitted[:domain.MaxRankProducts]
	}

	resp, err := s.scoring.RankProducts(ctx, &domain.RankRequest{
		Context:  rankCtx,
		Products: submitted,
	})
	if err != nil {
		return nil, err
	}

	result := sanitizeRankings(resp, submitted, s.scoreFloor)
	if s.enableDebugLogging {
		log.Printf("[RANK] Ranked %d of %d submitted products", len(result.Products), len(submitted))
	}
	return result, nil
}

// sanitizeRankings maps collaborator rankings back onto the submitted
// products, dropping invalid or duplicate indices, clamping scores to
// [0,100] and truncating reasons.
func sanitizeRankings(resp *domain.RankResponse, submitted []domain.ProductRecord, floor int) *domain.RankingResult {
	ranked := make([]domain.RankedProduct, 0, len(resp.Rankings))
	seen := make(map[int]bool)

	for _, r := range resp.Rankings {
		if r.Index < 0 || r.Index >= len(submitted) || seen[r.Index] {
			continue
		}
		seen[r.Index] = true

		score := r.Score
		if score < 0 {
			score = 0
		}
		if score > 100 {
			score = 100
		}

		reasons := r.Reasons
		if len(reasons) > maxRankReasons {
			reasons = reasons[:maxRankReasons]
		}

		ranked = append(ranked, domain.RankedProduct{
			Product: submitted[r.Index],
			Score:   score,
			Reasons: reasons,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	relevant := make([]domain.RankedProduct, 0, len(ranked))
	for _, p := range ranked {
		if p.Score > floor {
			relevant = append(relevant, p)
		}
	}
	// When nothing clears the floor, surface the full ranked list rather
	// than an empty one.
	if len(relevant) == 0 {
		relevant = ranked
	}

	return &domain.RankingResult{
		Products: relevant,
		Summary:  resp.Summary,
	}
}
