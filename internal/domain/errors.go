package domain

import "errors"

var (
	// ErrInvalidIngredient is returned when an ingredient violates the input contract
	// (negative amount, empty name). It is the only error that fails a whole batch.
	ErrInvalidIngredient = errors.New("invalid ingredient")

	// ErrFoodNotFound is returned when no reference food matches an ingredient
	ErrFoodNotFound = errors.New("food not found in USDA database")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrUSDAAPIFailure is returned when USDA API request fails
	ErrUSDAAPIFailure = errors.New("USDA API request failed")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)
