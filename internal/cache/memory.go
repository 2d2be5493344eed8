package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	createdAt time.Time
	ttl       time.Duration
	value     []byte
}

// Memory is an in-process TTL cache. Values are copied on the way in and out.
type Memory struct {
	mu  sync.Mutex
	m   map[string]entry
	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{m: map[string]entry{}, now: time.Now}
}

func (c *Memory) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return nil, false, nil
	}
	if e.ttl > 0 && !c.now().Before(e.createdAt.Add(e.ttl)) {
		delete(c.m, key)
		return nil, false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

func (c *Memory) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	v := make([]byte, len(value))
	copy(v, value)
	c.mu.Lock()
	c.m[key] = entry{createdAt: c.now(), ttl: ttl, value: v}
	c.mu.Unlock()
	return nil
}
