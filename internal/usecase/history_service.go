package usecase

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shoplens/backend/internal/domain"
)

// minQueryLength below which a capture is not worth remembering
const minQueryLength = 3

// HistoryServiceConfig holds configuration for the research history service
type HistoryServiceConfig struct {
	MaxEntries         int           // collection cap, default 50
	MaxAge             time.Duration // lastUsed age before cleanup, default 30 days
	EnableDebugLogging bool
}

// HistoryService owns the persistent research history: dedup, derivation
// of display name/categories/keywords, recency-based eviction. Persistence
// failures are logged and absorbed; losing history is recoverable, crashing
// a capture is not.
type HistoryService struct {
	repo               domain.ResearchRepository
	normalizer         *Normalizer
	maxEntries         int
	maxAge             time.Duration
	enableDebugLogging bool
}

// NewHistoryService creates a new history service with dependencies
func NewHistoryService(
	repo domain.ResearchRepository,
	normalizer *Normalizer,
	config HistoryServiceConfig,
) *HistoryService {
	maxEntries := config.MaxEntries
	if maxEntries == 0 {
		maxEntries = 50
	}
	maxAge := config.MaxAge
	if maxAge == 0 {
		maxAge = 720 * time.Hour // Default 30 days
	}

	return &HistoryService{
		repo:               repo,
		normalizer:         normalizer,
		maxEntries:         maxEntries,
		maxAge:             maxAge,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Upsert records a capture. No-op when the query is under 3 characters or
// derives neither categories nor keywords. An existing entry with the same
// conversation id or the same case-insensitive query is updated in place,
// keeping its original timestamp; otherwise a new entry is inserted and the
// collection trimmed to the cap.
func (s *HistoryService) Upsert(ctx context.Context, pc *domain.ProductContext) {
	if pc == nil {
		return
	}
	query := strings.TrimSpace(pc.Query)
	if len(query) < minQueryLength {
		if s.enableDebugLogging {
			log.Printf("[HISTORY] Skipping capture: query too short (%q)", query)
		}
		return
	}

	requirements := pc.Requirements
	if len(requirements) == 0 {
		requirements = s.normalizer.DeriveRequirements(query)
	}

	combined := combineText(query, requirements, pc.MentionedProducts)
	categories := s.normalizer.DeriveCategories(combined)
	keywords := s.normalizer.DeriveKeywords(query)
	if len(categories) == 0 && len(keywords) == 0 {
		if s.enableDebugLogging {
			log.Printf("[HISTORY] Skipping capture: no matchable signal in %q", query)
		}
		return
	}

	now := time.Now()
	entries := s.List(ctx)

	if existing := findExisting(entries, pc.ConversationID, query); existing != nil {
		existing.Query = query
		existing.ProductName = s.normalizer.DeriveProductName(query)
		existing.Requirements = requirements
		existing.Categories = categories
		existing.Keywords = keywords
		existing.LastUsed = now
		if err := s.repo.Put(ctx, *existing); err != nil {
			log.Printf("[HISTORY] Failed to update entry %s: %v", existing.ID, err)
		}
		return
	}

	entry := domain.ResearchEntry{
		ID:             newEntryID(pc.ConversationID),
		Query:          query,
		ProductName:    s.normalizer.DeriveProductName(query),
		Requirements:   requirements,
		Categories:     categories,
		Keywords:       keywords,
		Timestamp:      now,
		LastUsed:       now,
		ConversationID: pc.ConversationID,
	}
	if err := s.repo.Put(ctx, entry); err != nil {
		log.Printf("[HISTORY] Failed to persist entry %s: %v", entry.ID, err)
		return
	}
	if err := s.repo.TrimTo(ctx, s.maxEntries); err != nil {
		log.Printf("[HISTORY] Failed to trim history: %v", err)
	}

	if s.enableDebugLogging {
		log.Printf("[HISTORY] Captured %q as %q (%d categories, %d keywords)",
			query, entry.ProductName, len(categories), len(keywords))
	}
}

// List returns the research history, most recent first. Storage failures
// degrade to an empty list.
func (s *HistoryService) List(ctx context.Context) []domain.ResearchEntry {
	entries, err := s.repo.List(ctx)
	if err != nil {
		log.Printf("[HISTORY] Failed to load history: %v", err)
		return []domain.ResearchEntry{}
	}
	return entries
}

// Get returns a single entry by id
func (s *HistoryService) Get(ctx context.Context, id string) (*domain.ResearchEntry, error) {
	return s.repo.Get(ctx, id)
}

// Delete removes an entry by id; absent ids are not an error
func (s *HistoryService) Delete(ctx context.Context, id string) {
	if err := s.repo.Delete(ctx, id); err != nil {
		log.Printf("[HISTORY] Failed to delete entry %s: %v", id, err)
	}
}

// Touch advances an entry's lastUsed to now
func (s *HistoryService) Touch(ctx context.Context, id string) {
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		log.Printf("[HISTORY] Failed to touch entry %s: %v", id, err)
		return
	}
	entry.LastUsed = time.Now()
	if err := s.repo.Put(ctx, *entry); err != nil {
		log.Printf("[HISTORY] Failed to touch entry %s: %v", id, err)
	}
}

// Cleanup drops entries whose lastUsed is older than the configured age.
// Invoked once at process start, not on a timer.
func (s *HistoryService) Cleanup(ctx context.Context) {
	removed, err := s.repo.DeleteBefore(ctx, time.Now().Add(-s.maxAge))
	if err != nil {
		log.Printf("[HISTORY] Cleanup failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("[HISTORY] Cleanup removed %d stale entries", removed)
	}
}

// findExisting locates the dedup target: conversation id equality wins,
// then case-insensitive query equality
func findExisting(entries []domain.ResearchEntry, conversationID, query string) *domain.ResearchEntry {
	if conversationID != "" {
		for i := range entries {
			if entries[i].ConversationID == conversationID {
				return &entries[i]
			}
		}
	}
	queryLower := strings.ToLower(query)
	for i := range entries {
		if strings.ToLower(strings.TrimSpace(entries[i].Query)) == queryLower {
			return &entries[i]
		}
	}
	return nil
}

// newEntryID derives a stable id from the conversation when available
func newEntryID(conversationID string) string {
	if conversationID != "" {
		return "conv-" + conversationID
	}
	return uuid.New().String()
}

// combineText joins the signals used for category derivation
func combineText(query string, requirements, mentioned []string) string {
	parts := make([]string, 0, 1+len(requirements)+len(mentioned))
	parts = append(parts, query)
	parts = append(parts, requirements...)
	parts = append(parts, mentioned...)
	return strings.Join(parts, " ")
}
