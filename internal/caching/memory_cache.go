package caching

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	value     string
	count     int64
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// memoryCacheService is the single-process fallback used when Redis is not
// configured. State is not shared between instances.
type memoryCacheService struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCacheService() CacheService {
	return &memoryCacheService{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *memoryCacheService) get(key string) (memoryEntry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if e.expired(m.now()) {
		delete(m.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (m *memoryCacheService) set(key string, e memoryEntry, ttl time.Duration) {
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = e
}

func (m *memoryCacheService) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	e, ok := m.get(key)
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(e.value), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (m *memoryCacheService) SetJSON(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(key, memoryEntry{value: string(data)}, ttl)
	return nil
}

func (m *memoryCacheService) TakeJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	e, ok := m.get(key)
	delete(m.entries, key)
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(e.value), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (m *memoryCacheService) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *memoryCacheService) HitWindow(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cacheKey := Key("ratelimit", key)
	e, ok := m.get(cacheKey)
	if !ok {
		m.set(cacheKey, memoryEntry{count: 1}, window)
		return 1, window, nil
	}
	e.count++
	m.entries[cacheKey] = e
	return e.count, e.expiresAt.Sub(m.now()), nil
}

func (m *memoryCacheService) IncrementUsage(_ context.Context, businessID uuid.UUID, day time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := usageKey(businessID, day)
	e, ok := m.get(key)
	if !ok {
		m.set(key, memoryEntry{count: 1}, usageTTL)
		return 1, nil
	}
	e.count++
	m.entries[key] = e
	return e.count, nil
}

func (m *memoryCacheService) GetUsage(_ context.Context, businessID uuid.UUID, day time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, _ := m.get(usageKey(businessID, day))
	return e.count, nil
}

func (m *memoryCacheService) InvalidateBusinessCache(_ context.Context, businessID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := Key("metrics", businessID.String()) + ":"
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	return nil
}

func (m *memoryCacheService) Ping(context.Context) error {
	return nil
}
