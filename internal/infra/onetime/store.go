// Package onetime provides the in-memory store backing the OAuth2 handshake bridge.
package onetime

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/pkg/errors"

	"shopauth/config"
	"shopauth/internal/domain/service"
)

// defaultCodeTTL covers the browser redirect hop between the provider callback
// and the frontend's exchange call.
const defaultCodeTTL = 60 * time.Second

type pending struct {
	result    *service.AuthResult
	expiresAt time.Time
}

// codeStore is a concrete implementation of the OneTimeCodeStore interface.
// Codes are random, single use, and short-lived; an expiry timer removes
// whatever the exchange path has not already claimed.
type codeStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	codes map[string]pending
}

// NewCodeStore is the constructor for codeStore.
func NewCodeStore(cfg *config.Config) service.OneTimeCodeStore {
	ttl := defaultCodeTTL
	if cfg.OAuth2 != nil && cfg.OAuth2.CodeTTL > 0 {
		ttl = cfg.OAuth2.CodeTTL
	}
	return &codeStore{
		ttl:   ttl,
		codes: make(map[string]pending),
	}
}

// Issue parks the result behind a fresh random code and returns the code.
func (s *codeStore) Issue(result *service.AuthResult) (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", errors.Wrap(err, "failed to generate one-time code")
	}
	code := hex.EncodeToString(bytes)

	s.mu.Lock()
	s.codes[code] = pending{result: result, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()

	// Expiry removal is a fallback; the normal path is Exchange claiming the code.
	time.AfterFunc(s.ttl, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if p, ok := s.codes[code]; ok && !time.Now().Before(p.expiresAt) {
			delete(s.codes, code)
		}
	})

	return code, nil
}

// Exchange atomically consumes the code and returns the parked result.
// Unknown, already used, and expired codes are indistinguishable to the caller.
func (s *codeStore) Exchange(code string) (*service.AuthResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.codes[code]
	if !ok {
		return nil, service.ErrCodeNotFound
	}
	delete(s.codes, code)

	if !time.Now().Before(p.expiresAt) {
		return nil, service.ErrCodeNotFound
	}
	return p.result, nil
}
