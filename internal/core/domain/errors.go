package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownKind indicates an entity kind that is not synced by this service
	ErrUnknownKind = errors.New("unknown entity kind")

	// ErrRemoteUnavailable indicates a network failure or a non-2xx response from the content API
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrRateLimited indicates the content API kept answering 429 Too Many Requests
	ErrRateLimited = errors.New("rate limited")

	// ErrLocalStoreUnavailable indicates the persistence medium is disabled or inaccessible
	ErrLocalStoreUnavailable = errors.New("local store unavailable")

	// ErrRetryBudgetExhausted indicates a sync cycle gave up after the configured attempts
	ErrRetryBudgetExhausted = errors.New("retry budget exhausted")

	// ErrSyncInProgress indicates a sync is already running
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials indicates a wrong admin password
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")
)
