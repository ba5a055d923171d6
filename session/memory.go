package session

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

const defaultTTL = time.Hour

// MemoryStore keeps sessions in process memory with a sliding TTL.
type MemoryStore struct {
	// mu 串行化 Get 的续期写回与 Save，避免旧值覆盖新保存的会话
	mu  sync.Mutex
	c   *cache.Cache
	ttl time.Duration
}

// NewMemoryStore creates an in-memory store; expired entries are swept every ttl/2.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MemoryStore{c: cache.New(ttl, ttl/2), ttl: ttl}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.c.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	s := v.(*Session)
	// 访问即续期
	m.c.Set(id, s, m.ttl)
	return s.clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.c.Set(s.ID, s.clone(), m.ttl)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.c.Delete(id)
	return nil
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int { return m.c.ItemCount() }

func (m *MemoryStore) Close() error {
	m.c.Flush()
	return nil
}
