// Package service authenticates API keys presented by clients.
package service

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"docverify/internal/apikey/models"
	"docverify/internal/apikey/secrets"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/sentinel"
)

// Store is the key persistence the service needs.
type Store interface {
	FindByID(ctx context.Context, id string) (*models.Key, error)
	List(ctx context.Context) ([]*models.Key, error)
}

const (
	defaultRejectTTL = time.Minute
	maxRejected      = 10_000
)

// Service verifies presented keys against their bcrypt hashes. A successful
// verification is remembered by SHA-256 fingerprint so bcrypt runs once per
// key and process. A rejected key is remembered for a short TTL so repeated
// bad keys do not cost one bcrypt compare per stored key on every request.
type Service struct {
	store     Store
	logger    *slog.Logger
	rejectTTL time.Duration
	now       func() time.Time

	mu       sync.RWMutex
	verified map[[sha256.Size]byte]string
	rejected map[[sha256.Size]byte]time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRejectTTL sets how long a rejected key is answered without bcrypt.
// Zero disables the negative cache.
func WithRejectTTL(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.rejectTTL = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("api key store is required")
	}
	svc := &Service{
		store:     store,
		logger:    slog.Default(),
		rejectTTL: defaultRejectTTL,
		now:       time.Now,
		verified:  make(map[[sha256.Size]byte]string),
		rejected:  make(map[[sha256.Size]byte]time.Time),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

var errInvalidKey = dErrors.New(dErrors.CodeUnauthorized, "invalid API key")

// Authenticate returns the key matching presented.
func (s *Service) Authenticate(ctx context.Context, presented string) (*models.Key, error) {
	if presented == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "API key required")
	}
	fp := sha256.Sum256([]byte(presented))

	s.mu.RLock()
	id, ok := s.verified[fp]
	rejectedUntil, rejected := s.rejected[fp]
	s.mu.RUnlock()
	if rejected && s.now().Before(rejectedUntil) {
		return nil, errInvalidKey
	}
	if ok {
		key, err := s.store.FindByID(ctx, id)
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load API key")
		}
		s.forget(fp)
	}

	keys, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list API keys")
	}
	for _, key := range keys {
		err := secrets.Verify(presented, key.SecretHash)
		if err == nil {
			s.mu.Lock()
			s.verified[fp] = key.ID
			s.mu.Unlock()
			return key, nil
		}
		if !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.logger.ErrorContext(ctx, "api key hash unusable", "api_key_id", key.ID, "error", err)
		}
	}
	s.reject(fp)
	return nil, errInvalidKey
}

// VerifyAPIKey authenticates presented and returns the key ID.
func (s *Service) VerifyAPIKey(ctx context.Context, presented string) (string, error) {
	key, err := s.Authenticate(ctx, presented)
	if err != nil {
		return "", err
	}
	return key.ID, nil
}

// Get returns the key with the given ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Key, error) {
	key, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "unknown API key")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load API key")
	}
	return key, nil
}

// reject remembers fp as invalid. The map is bounded: when full, expired
// entries are swept and, if that is not enough, the map starts over.
func (s *Service) reject(fp [sha256.Size]byte) {
	if s.rejectTTL == 0 {
		return
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rejected) >= maxRejected {
		for k, until := range s.rejected {
			if !now.Before(until) {
				delete(s.rejected, k)
			}
		}
		if len(s.rejected) >= maxRejected {
			clear(s.rejected)
		}
	}
	s.rejected[fp] = now.Add(s.rejectTTL)
}

func (s *Service) forget(fp [sha256.Size]byte) {
	s.mu.Lock()
	delete(s.verified, fp)
	s.mu.Unlock()
}
