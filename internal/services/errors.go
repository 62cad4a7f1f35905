package services

import "errors"

// Error kinds surfaced by the payment core. Callers distinguish them with
// errors.Is; everything else that bubbles up is an internal failure.
var (
	// ErrTransport covers network failures, timeouts and unparseable gateway
	// bodies. Retryable by the caller, never retried internally.
	ErrTransport = errors.New("gateway transport failure")

	// ErrMalformedResponse means the gateway returned parseable JSON that is
	// missing required fields (no result code).
	ErrMalformedResponse = errors.New("malformed gateway response")

	// ErrNotFound means no local transaction matches the lookup key.
	ErrNotFound = errors.New("transaction not found")

	// ErrConfiguration means a required gateway setting (entity id,
	// credentials) is missing.
	ErrConfiguration = errors.New("invalid gateway configuration")
)
