package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/shoplens/backend/internal/domain"
)

// maxResponseBytes bounds how much of a response body is read
const maxResponseBytes = 1 << 20

// Config holds configuration for the scoring service client
type Config struct {
	BaseURL            string
	APIKey             string        // optional bearer token
	Timeout            time.Duration // default 30s
	RequestsPerSecond  float64       // default 2
	Burst              int           // default 5
	EnableDebugLogging bool
}

// Client talks to the external scoring service over HTTP. Every failure
// mode (network, non-2xx, malformed JSON) surfaces as ErrScoringUnavailable
// so callers can degrade uniformly.
type Client struct {
	httpClient         *http.Client
	baseURL            string
	apiKey             string
	rateLimiter        *rate.Limiter
	enableDebugLogging bool
}

// NewClient creates a new scoring service client
func NewClient(config Config) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	// The scoring service fronts an LLM; keep request pressure modest
	rps := config.RequestsPerSecond
	if rps == 0 {
		rps = 2
	}
	burst := config.Burst
	if burst == 0 {
		burst = 5
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:            config.BaseURL,
		apiKey:             config.APIKey,
		rateLimiter:        rate.NewLimiter(rate.Limit(rps), burst),
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// AnalyzeSite asks the scoring service whether a page is a shopping site
// relevant to any of the supplied research entries
func (c *Client) AnalyzeSite(ctx context.Context, req *domain.SiteAnalysisRequest) (*domain.SiteAnalysisResponse, error) {
	if req == nil || req.URL == "" {
		return nil, fmt.Errorf("%w: url is required", domain.ErrInvalidRequest)
	}

	payload := *req
	if len(payload.ResearchHistory) > domain.MaxAnalysisHistory {
		payload.ResearchHistory = payload.ResearchHistory[:domain.MaxAnalysisHistory]
	}

	var resp domain.SiteAnalysisResponse
	if err := c.post(ctx, "/v1/analyze-site", &payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RankProducts asks the scoring service to score extracted products
// against the current research context
func (c *Client) RankProducts(ctx context.Context, req *domain.RankRequest) (*domain.RankResponse, error) {
	if req == nil || len(req.Products) == 0 {
		return nil, fmt.Errorf("%w: products are required", domain.ErrInvalidRequest)
	}

	payload := *req
	if len(payload.Products) > domain.MaxRankProducts {
		payload.Products = payload.Products[:domain.MaxRankProducts]
	}

	var resp domain.RankResponse
	if err := c.post(ctx, "/v1/rank-products", &payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// post sends a JSON request and decodes the JSON response, retrying up to
// 3 times on transport errors, 5xx and 429. Other 4xx fail immediately.
func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encode request: %v", domain.ErrScoringUnavailable, err)
	}

	reqURL := c.baseURL + path

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limiter: %v", domain.ErrScoringUnavailable, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("%w: create request: %v", domain.ErrScoringUnavailable, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "ShopLens/1.0")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Printf("[SCORING] Request error (attempt %d): %v", attempt, err)
			lastErr = fmt.Errorf("%w: %v", domain.ErrScoringUnavailable, err)
			if ctx.Err() != nil {
				return lastErr
			}
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
			continue
		}

		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		resp.Body.Close()
		if readErr != nil {
			log.Printf("[SCORING] Read error (attempt %d): %v", attempt, readErr)
			lastErr = fmt.Errorf("%w: read response: %v", domain.ErrScoringUnavailable, readErr)
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
			log.Printf("[SCORING] API error (attempt %d) - Status: %d, retryable: %v",
				attempt, resp.StatusCode, retryable)
			lastErr = fmt.Errorf("%w: status %d", domain.ErrScoringUnavailable, resp.StatusCode)
			if !retryable {
				return lastErr
			}
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
			continue
		}

		if err := json.Unmarshal(respBody, out); err != nil {
			log.Printf("[SCORING] JSON decode error: %v", err)
			return fmt.Errorf("%w: decode response: %v", domain.ErrScoringUnavailable, err)
		}

		if c.enableDebugLogging {
			log.Printf("[SCORING] %s succeeded on attempt %d", path, attempt)
		}
		return nil
	}

	log.Printf("[SCORING] All retries failed for %s", path)
	return lastErr
}
