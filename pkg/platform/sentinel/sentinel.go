package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and collaborator adapters
// return these (optionally wrapped) so services can translate them into
// domain errors or enrichment statuses.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in a store or upstream registry
// - ErrExpired: cached entry outlived its TTL
// - ErrUnavailable: store or upstream service temporarily unavailable
//
// For request validation errors use pkg/domain-errors; for identifier
// validation use pkg/identifier.
var (
	ErrNotFound    = errors.New("not found")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
)
