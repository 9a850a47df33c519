package domain

import (
	"context"
	"time"
)

// ResearchRepository defines the interface for research history persistence
type ResearchRepository interface {
	// List returns all entries ordered most recent first
	List(ctx context.Context) ([]ResearchEntry, error)
	// Get returns the entry with the given ID
	Get(ctx context.Context, id string) (*ResearchEntry, error)
	// Put inserts or replaces the entry keyed by ID
	Put(ctx context.Context, entry ResearchEntry) error
	// Delete removes the entry with the given ID
	Delete(ctx context.Context, id string) error
	// DeleteBefore removes entries whose LastUsed is older than cutoff,
	// returning how many were removed
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)
	// TrimTo keeps only the n most recent entries
	TrimTo(ctx context.Context, n int) error
}

// SettingsRepository defines the interface for small key/value settings
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ScoringClient defines the interface for the external scoring service
type ScoringClient interface {
	AnalyzeSite(ctx context.Context, req *SiteAnalysisRequest) (*SiteAnalysisResponse, error)
	RankProducts(ctx context.Context, req *RankRequest) (*RankResponse, error)
}
