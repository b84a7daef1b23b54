package session

import (
	"sync"
	"time"

	"github.com/bluele/gcache"
	"github.com/google/uuid"
)

// Store keeps the snapshots of recent sessions, least recently used evicted first.
type Store struct {
	loader Loader
	cache  gcache.Cache
	mu     sync.Mutex
}

func NewStore(loader Loader, capacity int, ttl time.Duration) *Store {
	return &Store{
		loader: loader,
		cache: gcache.New(capacity).
			LRU().
			Expiration(ttl).
			Build(),
	}
}

// Get returns the snapshot of id, creating it when the session is unknown or
// expired. An id that is not a UUID is replaced by a fresh one. created reports
// whether a new snapshot was made.
func (s *Store) Get(id string) (snap *Snapshot, created bool) {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if v, err := s.cache.Get(id); err == nil {
		if snap, ok := v.(*Snapshot); ok {
			return snap, false
		}
	}

	snap = NewSnapshot(id, s.loader)
	_ = s.cache.Set(id, snap)
	return snap, true
}

// Len counts live sessions.
func (s *Store) Len() int {
	return s.cache.Len(true)
}
