package fake

import (
	"context"
	"strings"
	"sync"
	"time"

	"go-healthcare-practice/internal/infrastructure/cache"
	"go-healthcare-practice/pkg/jwt"

	"github.com/google/uuid"
)

type TokenStore struct {
	mu   sync.Mutex
	keys map[string]time.Duration

	Err error
}

func NewTokenStore() *TokenStore {
	return &TokenStore{keys: make(map[string]time.Duration)}
}

func (s *TokenStore) Save(ctx context.Context, tokenType jwt.TokenType, userID uuid.UUID, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.keys[cache.TokenKey(tokenType, userID, tokenID)] = ttl
	return nil
}

func (s *TokenStore) Exists(ctx context.Context, tokenType jwt.TokenType, userID uuid.UUID, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	_, ok := s.keys[cache.TokenKey(tokenType, userID, tokenID)]
	return ok, nil
}

func (s *TokenStore) Delete(ctx context.Context, tokenType jwt.TokenType, userID uuid.UUID, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	delete(s.keys, cache.TokenKey(tokenType, userID, tokenID))
	return nil
}

func (s *TokenStore) DeleteAll(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for key := range s.keys {
		if strings.Contains(key, ":"+userID.String()+":") {
			delete(s.keys, key)
		}
	}
	return nil
}

// Len reports how many tokens are live.
func (s *TokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}
