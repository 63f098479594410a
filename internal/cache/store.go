package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Store 是响应缓存的契约。所有实现都必须并发安全。
type Store interface {
	// Has 判断 key 是否存在且未过期。
	Has(ctx context.Context, key string) bool

	// CachedTime 返回条目写入时间（Unix 纳秒），不存在时为 0。
	CachedTime(ctx context.Context, key string) int64

	// Fetch 返回缓存的响应，不存在或已过期时返回 ErrNotFound。
	Fetch(ctx context.Context, key string) (*Response, error)

	// Store 写入响应，ttl <= 0 表示不过期。
	Store(ctx context.Context, key string, resp *Response, ttl time.Duration) error

	// Delete 删除条目，条目不存在不视为错误。
	Delete(ctx context.Context, key string) error

	// Close 释放底层资源。
	Close() error
}

// Response 是一次渲染结果的可缓存形式。
type Response struct {
	Status      int               `json:"status"`
	ContentType string            `json:"content_type"`
	Headers     map[string]string `json:"headers,omitempty"`
	Body        []byte            `json:"body"`
}

// entry 是各驱动共用的存储信封。
type entry struct {
	Response  Response `json:"response"`
	StoredAt  int64    `json:"stored_at"`
	ExpiresAt int64    `json:"expires_at,omitempty"`
}

func (e entry) expired(now time.Time) bool {
	return e.ExpiresAt > 0 && now.UnixNano() >= e.ExpiresAt
}

func newEntry(resp *Response, ttl time.Duration, now time.Time) entry {
	e := entry{Response: *resp, StoredAt: now.UnixNano()}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl).UnixNano()
	}
	return e
}

// ErrNotFound 表示缓存不存在。
var ErrNotFound = errors.New("cache entry not found")

// 驱动名称，与配置中的 CacheDriver 对应。
const (
	DriverFile   = "file"
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverNone   = "none"
)

// Open 按驱动名创建缓存实例。none 返回 nil，调用方据此跳过缓存。
func Open(driver, path string, defaultTTL time.Duration) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverFile, "":
		return NewFileStore(path)
	case DriverMemory:
		return NewMemoryStore(defaultTTL), nil
	case DriverSQLite:
		return NewSQLiteStore(path)
	case DriverNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", driver)
	}
}
