// Package providers defines the contract every external registry source
// implements, and the registry that holds them in priority order.
package providers

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

type Protocol string

const (
	ProtocolHTTP Protocol = "http"
	ProtocolSOAP Protocol = "soap"
)

// ProviderType is the kind of record a provider answers with. Providers of
// the same type are interchangeable for fallback.
type ProviderType string

const (
	ProviderTypeCompany ProviderType = "company"
	ProviderTypeVAT     ProviderType = "vat"
)

// Filter keys accepted by Lookup.
const (
	FilterSiren     = "siren"
	FilterSiret     = "siret"
	FilterVATNumber = "vat_number"
)

// FieldCapability advertises one field of Evidence.Data.
type FieldCapability struct {
	FieldName  string
	Available  bool
	Filterable bool
}

type Capabilities struct {
	Protocol Protocol
	Type     ProviderType
	Version  string
	Fields   []FieldCapability
	Filters  []string
}

// Evidence is a provider's answer. Data keys are the provider's Field*
// constants; the registry service converts them into typed records.
type Evidence struct {
	ProviderID   string
	ProviderType ProviderType
	Confidence   float64
	Data         map[string]any
	CheckedAt    time.Time
	Metadata     map[string]string
}

// Provider is one external registry source.
type Provider interface {
	ID() string
	Capabilities() Capabilities
	// Lookup receives exactly one Filter* key. Failures are *ProviderError.
	Lookup(ctx context.Context, filters map[string]string) (*Evidence, error)
	Health(ctx context.Context) error
}

// ProviderRegistry holds providers in registration order; earlier ones are
// tried first.
type ProviderRegistry struct {
	mu    sync.RWMutex
	byID  map[string]Provider
	order []Provider
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{byID: make(map[string]Provider)}
}

// Register appends p. IDs must be unique.
func (r *ProviderRegistry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byID[p.ID()]; dup {
		return fmt.Errorf("provider %s already registered", p.ID())
	}
	r.byID[p.ID()] = p
	r.order = append(r.order, p)
	return nil
}

func (r *ProviderRegistry) Get(id string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	return p, ok
}

// ListByType returns the providers of type t, highest priority first.
func (r *ProviderRegistry) ListByType(t ProviderType) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Provider
	for _, p := range r.order {
		if p.Capabilities().Type == t {
			out = append(out, p)
		}
	}
	return out
}

// All returns every provider in priority order.
func (r *ProviderRegistry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}
