package otpauth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptStore tracks verification attempts per email with a TTL matching
// the code lifetime.
type AttemptStore interface {
	// Incr bumps and returns the attempt count for the email, keeping the
	// counter alive for ttl from its first increment.
	Incr(ctx context.Context, email string, ttl time.Duration) (int, error)
	// Clear drops the counter for the email.
	Clear(ctx context.Context, email string) error
}

// RedisAttemptStore keeps attempt counters in Redis so they survive
// restarts and are shared across instances.
type RedisAttemptStore struct {
	client *redis.Client
	prefix string
}

// NewRedisAttemptStore constructs a RedisAttemptStore.
func NewRedisAttemptStore(client *redis.Client, prefix string) *RedisAttemptStore {
	return &RedisAttemptStore{client: client, prefix: strings.TrimSpace(prefix)}
}

func (s *RedisAttemptStore) key(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if s.prefix == "" {
		return "otp:attempts:" + email
	}
	return s.prefix + ":otp:attempts:" + email
}

// Incr bumps the counter, setting the TTL on first increment.
func (s *RedisAttemptStore) Incr(ctx context.Context, email string, ttl time.Duration) (int, error) {
	key := s.key(email)
	count, errIncr := s.client.Incr(ctx, key).Result()
	if errIncr != nil {
		return 0, errIncr
	}
	if count == 1 {
		if errExpire := s.client.Expire(ctx, key, ttl).Err(); errExpire != nil {
			return int(count), errExpire
		}
	}
	return int(count), nil
}

// Clear drops the counter.
func (s *RedisAttemptStore) Clear(ctx context.Context, email string) error {
	return s.client.Del(ctx, s.key(email)).Err()
}

type memoryAttempt struct {
	count   int
	expires time.Time
}

// MemoryAttemptStore is the in-process fallback used when Redis is not
// configured.
type MemoryAttemptStore struct {
	mu       sync.Mutex
	attempts map[string]*memoryAttempt
	now      func() time.Time
}

// NewMemoryAttemptStore constructs a MemoryAttemptStore.
func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{attempts: make(map[string]*memoryAttempt), now: time.Now}
}

// Incr bumps the counter, resetting it when the TTL has lapsed.
func (s *MemoryAttemptStore) Incr(_ context.Context, email string, ttl time.Duration) (int, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.attempts[email]
	if entry == nil || now.After(entry.expires) {
		entry = &memoryAttempt{expires: now.Add(ttl)}
		s.attempts[email] = entry
	}
	entry.count++
	return entry.count, nil
}

// Clear drops the counter.
func (s *MemoryAttemptStore) Clear(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, strings.ToLower(strings.TrimSpace(email)))
	return nil
}
