package cache

import (
	"context"
	"sync"
	"time"
)

// Store 缓存条目的持久化后端
// 实现方约定：键不存在时 Get 返回空串且无错误
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, val string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ── 内存实现（测试与无 Redis 降级场景）──

type memoryEntry struct {
	val      string
	deadline time.Time // 零值表示不过期
}

type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryStore 创建进程内内存 Store
func NewMemoryStore() Store {
	return &memoryStore{entries: make(map[string]memoryEntry)}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return "", nil
	}
	if !e.deadline.IsZero() && time.Now().After(e.deadline) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return "", nil
	}
	return e.val, nil
}

func (m *memoryStore) Set(_ context.Context, key, val string, ttl time.Duration) error {
	e := memoryEntry{val: val}
	if ttl > 0 {
		e.deadline = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}
