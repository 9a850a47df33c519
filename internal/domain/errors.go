package domain

import "errors"

var (
	// ErrEntryNotFound is returned when a research entry cannot be found in the store
	ErrEntryNotFound = errors.New("research entry not found")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrScoringUnavailable is returned when the scoring service request fails
	ErrScoringUnavailable = errors.New("scoring service request failed")

	// ErrStorageFailure is returned when the persistent store cannot be read or written
	ErrStorageFailure = errors.New("storage operation failed")

	// ErrAnalysisInFlight is returned when a page analysis is already running
	ErrAnalysisInFlight = errors.New("analysis already in flight")

	// ErrPayloadTooLarge is returned when a request body exceeds its size cap
	ErrPayloadTooLarge = errors.New("payload too large")
)
