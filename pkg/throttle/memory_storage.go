package throttle

import (
	"context"
	"sync"
)

// MemoryStorage is an in-process Storage backend. State is lost on
// restart, which for a soft deterrent is acceptable; use RedisStorage
// when counters must survive deploys or span replicas.
type MemoryStorage struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemoryStorage creates an empty in-memory backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Load(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return nil, nil
	}
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out, nil
}

func (s *MemoryStorage) Save(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make([]byte, len(data))
	copy(s.data, data)
	return nil
}

func (s *MemoryStorage) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	return nil
}
