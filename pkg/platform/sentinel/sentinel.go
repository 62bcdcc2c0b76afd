package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entry does not exist in store
// - ErrExpired: session entry exceeded its TTL
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, oversized fields), use pkg/domainerrors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
)
