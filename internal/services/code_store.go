package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/campus-gigs/marketplace-service/internal/cache"
)

// CodeTTL is how long a one-time code stays valid.
var CodeTTL = cache.CodeCacheConfig.TTL

// MaxCodeAttempts is the number of wrong guesses that burn a pending code.
const MaxCodeAttempts = 5

// CodeStore keeps one pending one-time code per email. Issuing a new code
// replaces the previous one and resets its attempts.
type CodeStore interface {
	Save(ctx context.Context, email, code string, ttl time.Duration) error
	// Consume reports whether code matches and removes it on success. The
	// check and the removal are atomic, so a code is accepted at most once.
	Consume(ctx context.Context, email, code string) (bool, error)
	// Delete drops the pending code for email, if any.
	Delete(ctx context.Context, email string) error
}

// NewCodeStore uses Redis when available and falls back to process memory,
// which only works for a single instance.
func NewCodeStore(cm *cache.CacheManager) CodeStore {
	if cm != nil && cm.Code.Available() {
		return &RedisCodeStore{helper: cm.Code}
	}
	return NewMemoryCodeStore()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ===== REDIS =====

type RedisCodeStore struct {
	helper *cache.CacheHelper
}

func NewRedisCodeStore(helper *cache.CacheHelper) *RedisCodeStore {
	return &RedisCodeStore{helper: helper}
}

func attemptsKey(key string) string {
	return key + ":attempts"
}

func (s *RedisCodeStore) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	key := normalizeEmail(email)
	if err := s.helper.SetString(ctx, key, code, ttl); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}
	if err := s.helper.Delete(ctx, attemptsKey(key)); err != nil {
		return fmt.Errorf("failed to reset code attempts: %w", err)
	}
	return nil
}

func (s *RedisCodeStore) Consume(ctx context.Context, email, code string) (bool, error) {
	key := normalizeEmail(email)
	ok, err := s.helper.ConsumeString(ctx, key, attemptsKey(key), code, MaxCodeAttempts)
	if err != nil {
		return false, fmt.Errorf("failed to consume code: %w", err)
	}
	return ok, nil
}

func (s *RedisCodeStore) Delete(ctx context.Context, email string) error {
	key := normalizeEmail(email)
	if err := s.helper.Delete(ctx, key, attemptsKey(key)); err != nil {
		return fmt.Errorf("failed to delete code: %w", err)
	}
	return nil
}

// ===== MEMORY =====

type memoryCode struct {
	code      string
	expiresAt time.Time
	misses    int
}

type MemoryCodeStore struct {
	mu      sync.Mutex
	entries map[string]memoryCode
	now     func() time.Time
}

func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{
		entries: make(map[string]memoryCode),
		now:     time.Now,
	}
}

func (s *MemoryCodeStore) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[normalizeEmail(email)] = memoryCode{code: code, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryCodeStore) Consume(ctx context.Context, email, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeEmail(email)
	entry, ok := s.entries[key]
	if !ok {
		return false, nil
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return false, nil
	}
	if entry.code != code {
		entry.misses++
		if entry.misses >= MaxCodeAttempts {
			delete(s.entries, key)
		} else {
			s.entries[key] = entry
		}
		return false, nil
	}
	delete(s.entries, key)
	return true, nil
}

func (s *MemoryCodeStore) Delete(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, normalizeEmail(email))
	return nil
}
