package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const entryExt = ".json"

// NewFileStore 以 basePath 为根目录构建磁盘缓存，整站复用一份实例。
func NewFileStore(basePath string) (Store, error) {
	if basePath == "" {
		return nil, errors.New("cache path required")
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve cache path: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create cache path: %w", err)
	}

	return &fileStore{
		basePath: abs,
		locks:    make(map[string]*entryLock),
		now:      time.Now,
	}, nil
}

// fileStore 通过 entryLock 避免同一 key 并发写入。条目文件的 mtime 即写入时间。
type fileStore struct {
	basePath string
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

func (s *fileStore) Has(ctx context.Context, key string) bool {
	_, err := s.Fetch(ctx, key)
	return err == nil
}

func (s *fileStore) CachedTime(ctx context.Context, key string) int64 {
	e, err := s.read(ctx, key)
	if err != nil {
		return 0
	}
	return e.StoredAt
}

func (s *fileStore) Fetch(ctx context.Context, key string) (*Response, error) {
	e, err := s.read(ctx, key)
	if err != nil {
		return nil, err
	}
	resp := e.Response
	return &resp, nil
}

func (s *fileStore) read(ctx context.Context, key string) (*entry, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	filePath, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		// 损坏的条目按未命中处理，下一次写入会覆盖它
		return nil, ErrNotFound
	}
	if e.expired(s.now()) {
		_ = s.Delete(ctx, key)
		return nil, ErrNotFound
	}
	return &e, nil
}

func (s *fileStore) Store(ctx context.Context, key string, resp *Response, ttl time.Duration) error {
	if resp == nil {
		return errors.New("response required")
	}
	unlock := s.lockEntry(key)
	defer unlock()

	filePath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	now := s.now()
	data, err := json.Marshal(newEntry(resp, ttl, now))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(filepath.Dir(filePath), ".cache-*")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()

	_, err = tempFile.Write(data)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return err
	}

	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return err
	}
	return os.Chtimes(filePath, now, now)
}

func (s *fileStore) Delete(ctx context.Context, key string) error {
	unlock := s.lockEntry(key)
	defer unlock()

	filePath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *fileStore) Close() error {
	return nil
}

func (s *fileStore) lockEntry(key string) func() {
	s.mu.Lock()
	lock := s.locks[key]
	if lock == nil {
		lock = &entryLock{}
		s.locks[key] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// path 将路由形式的 key 映射为 basePath 下的 .json 文件，根路由对应 root.json。
func (s *fileStore) path(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("cache key required")
	}

	rel := path.Clean("/" + key)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		rel = "root"
	}

	filePath := filepath.Join(s.basePath, filepath.FromSlash(rel)) + entryExt
	if !strings.HasPrefix(filePath, s.basePath+string(filepath.Separator)) {
		return "", errors.New("invalid cache path")
	}
	return filePath, nil
}
