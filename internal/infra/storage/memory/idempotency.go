package memory

import (
	"context"
	"sync"
	"time"

	"erent/internal/app/middleware"
)

// IdempotencyStore keeps command results in process memory. Records older
// than the TTL are treated as absent and dropped on the next write.
type IdempotencyStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]middleware.IdempotencyRecord
}

// NewIdempotencyStore keeps records for ttl. A non-positive ttl keeps them
// for the life of the process.
func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{ttl: ttl, now: time.Now, items: make(map[string]middleware.IdempotencyRecord)}
}

func (s *IdempotencyStore) Get(_ context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[key]
	if !ok || s.expired(rec) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	return rec, true, nil
}

func (s *IdempotencyStore) Save(_ context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, old := range s.items {
		if s.expired(old) {
			delete(s.items, key)
		}
	}
	rec.Payload = append([]byte(nil), rec.Payload...)
	s.items[rec.Key] = rec
	return nil
}

func (s *IdempotencyStore) expired(rec middleware.IdempotencyRecord) bool {
	return s.ttl > 0 && s.now().Sub(rec.OccurredAt) > s.ttl
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
