package model

import "errors"

// Error taxonomy shared by every layer. Package-level sentinels wrap one of these.
var (
	// ErrInvalidInput covers unknown ids, empty member lists and malformed records.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExternalService covers renderer and store failures at the boundary.
	ErrExternalService = errors.New("external service failure")

	// ErrConfiguration covers thresholds and settings rejected at load time.
	ErrConfiguration = errors.New("configuration error")
)
