package cache

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// NewMemoryStore 创建进程内缓存。defaultTTL 只决定清理周期，条目的有效期以 Store 传入的 ttl 为准。
func NewMemoryStore(defaultTTL time.Duration) Store {
	expiration := gocache.NoExpiration
	cleanup := 10 * time.Minute
	if defaultTTL > 0 {
		expiration = defaultTTL
		cleanup = 2 * defaultTTL
	}
	return &memoryStore{items: gocache.New(expiration, cleanup), now: time.Now}
}

type memoryStore struct {
	items *gocache.Cache
	now   func() time.Time
}

func (s *memoryStore) Has(ctx context.Context, key string) bool {
	_, ok := s.lookup(key)
	return ok
}

func (s *memoryStore) CachedTime(ctx context.Context, key string) int64 {
	e, ok := s.lookup(key)
	if !ok {
		return 0
	}
	return e.StoredAt
}

func (s *memoryStore) Fetch(ctx context.Context, key string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, ok := s.lookup(key)
	if !ok {
		return nil, ErrNotFound
	}
	resp := e.Response
	resp.Body = append([]byte(nil), e.Response.Body...)
	return &resp, nil
}

func (s *memoryStore) Store(ctx context.Context, key string, resp *Response, ttl time.Duration) error {
	if resp == nil {
		return errors.New("response required")
	}
	e := newEntry(resp, ttl, s.now())
	e.Response.Body = append([]byte(nil), resp.Body...)
	// 与其它驱动一致，ttl <= 0 表示不过期
	expiration := gocache.NoExpiration
	if ttl > 0 {
		expiration = ttl
	}
	s.items.Set(key, e, expiration)
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	s.items.Delete(key)
	return nil
}

func (s *memoryStore) Close() error {
	s.items.Flush()
	return nil
}

func (s *memoryStore) lookup(key string) (entry, bool) {
	value, ok := s.items.Get(key)
	if !ok {
		return entry{}, false
	}
	e, ok := value.(entry)
	if !ok || e.expired(s.now()) {
		return entry{}, false
	}
	return e, true
}
