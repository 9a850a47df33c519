package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shoplens/backend/internal/domain"
)

// sessionContextKey is the cache key for the current product context
const sessionContextKey = "session:context"

// SessionServiceConfig holds configuration for the session context holder
type SessionServiceConfig struct {
	TTL time.Duration // session context lifetime, default 24h
}

// SessionService owns the ephemeral "currently researching" context.
// The context is replaced wholesale on every capture and handed out as a
// copy; nothing outside this service mutates it in place.
type SessionService struct {
	cache      domain.CacheRepository
	normalizer *Normalizer
	ttl        time.Duration
}

// NewSessionService creates a new session context holder
func NewSessionService(
	cache domain.CacheRepository,
	normalizer *Normalizer,
	config SessionServiceConfig,
) *SessionService {
	ttl := config.TTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}

	return &SessionService{
		cache:      cache,
		normalizer: normalizer,
		ttl:        ttl,
	}
}

// Save validates and stores a new product context, replacing any previous
// one. Requirements are derived from the query when the capture did not
// carry its own. Returns the stored context.
func (s *SessionService) Save(ctx context.Context, pc *domain.ProductContext) (*domain.ProductContext, error) {
	if pc == nil || strings.TrimSpace(pc.Query) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}

	stored := *pc
	if stored.Source == "" {
		stored.Source = domain.SourceManual
	}
	if !stored.Source.Valid() {
		return nil, fmt.Errorf("%w: unknown capture source %q", domain.ErrInvalidRequest, stored.Source)
	}
	if stored.Timestamp.IsZero() {
		stored.Timestamp = time.Now()
	}
	if len(stored.Requirements) == 0 {
		stored.Requirements = s.normalizer.DeriveRequirements(stored.Query)
	}

	if err := s.cache.Set(ctx, sessionContextKey, &stored, s.ttl); err != nil {
		return nil, err
	}
	return &stored, nil
}

// Get returns a copy of the current context, or nil when none is held
func (s *SessionService) Get(ctx context.Context) (*domain.ProductContext, error) {
	value, err := s.cache.Get(ctx, sessionContextKey)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}

	pc, ok := value.(*domain.ProductContext)
	if !ok {
		return nil, nil
	}
	held := *pc
	return &held, nil
}

// Clear drops the current context
func (s *SessionService) Clear(ctx context.Context) error {
	return s.cache.Delete(ctx, sessionContextKey)
}

// Has reports whether a context is currently held
func (s *SessionService) Has(ctx context.Context) (bool, error) {
	return s.cache.Exists(ctx, sessionContextKey)
}
