package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func driverStores(t *testing.T) map[string]Store {
	t.Helper()
	fileStore, err := NewFileStore(filepath.Join(t.TempDir(), "files"))
	if err != nil {
		t.Fatalf("init file store: %v", err)
	}
	sqliteStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("init sqlite store: %v", err)
	}
	stores := map[string]Store{
		DriverFile:   fileStore,
		DriverMemory: NewMemoryStore(0),
		DriverSQLite: sqliteStore,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func sampleResponse(body string) *Response {
	return &Response{Status: 200, ContentType: "application/json", Headers: map[string]string{"X-Page": "1"}, Body: []byte(body)}
}

func TestStoreFetchRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range driverStores(t) {
		before := time.Now().UnixNano()
		if err := store.Store(ctx, "/about/team", sampleResponse(`{"title":"Team"}`), 0); err != nil {
			t.Fatalf("%s: store error: %v", name, err)
		}
		if !store.Has(ctx, "/about/team") {
			t.Fatalf("%s: 写入后应命中", name)
		}
		resp, err := store.Fetch(ctx, "/about/team")
		if err != nil {
			t.Fatalf("%s: fetch error: %v", name, err)
		}
		if string(resp.Body) != `{"title":"Team"}` || resp.Status != 200 || resp.Headers["X-Page"] != "1" {
			t.Fatalf("%s: 缓存内容不一致: %+v", name, resp)
		}
		if cached := store.CachedTime(ctx, "/about/team"); cached < before {
			t.Fatalf("%s: cached time %d 早于写入时间 %d", name, cached, before)
		}
	}
}

func TestStoreFetchMissing(t *testing.T) {
	ctx := context.Background()
	for name, store := range driverStores(t) {
		if _, err := store.Fetch(ctx, "/missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound, got %v", name, err)
		}
		if store.Has(ctx, "/missing") {
			t.Fatalf("%s: 不存在的条目不应命中", name)
		}
		if store.CachedTime(ctx, "/missing") != 0 {
			t.Fatalf("%s: 不存在的条目 cached time 应为 0", name)
		}
	}
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	for name, store := range driverStores(t) {
		if err := store.Store(ctx, "/", sampleResponse("home"), 0); err != nil {
			t.Fatalf("%s: store error: %v", name, err)
		}
		if err := store.Delete(ctx, "/"); err != nil {
			t.Fatalf("%s: delete error: %v", name, err)
		}
		if _, err := store.Fetch(ctx, "/"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: 删除后应未命中, got %v", name, err)
		}
		if err := store.Delete(ctx, "/"); err != nil {
			t.Fatalf("%s: 重复删除不应报错: %v", name, err)
		}
	}
}

func TestStoreExpiry(t *testing.T) {
	ctx := context.Background()
	for name, store := range driverStores(t) {
		if err := store.Store(ctx, "/short", sampleResponse("x"), time.Millisecond); err != nil {
			t.Fatalf("%s: store error: %v", name, err)
		}
		time.Sleep(5 * time.Millisecond)
		if store.Has(ctx, "/short") {
			t.Fatalf("%s: 过期条目不应命中", name)
		}
		if _, err := store.Fetch(ctx, "/short"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: 过期条目应返回 ErrNotFound, got %v", name, err)
		}
	}
}

func TestMemoryStoreZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Millisecond)
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Store(ctx, "/forever", sampleResponse("x"), 0); err != nil {
		t.Fatalf("store error: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if !store.Has(ctx, "/forever") {
		t.Fatalf("ttl 为 0 的条目不应按默认有效期过期")
	}
	if _, err := store.Fetch(ctx, "/forever"); err != nil {
		t.Fatalf("fetch error: %v", err)
	}
}

func TestStoreOverwriteUpdatesCachedTime(t *testing.T) {
	ctx := context.Background()
	for name, store := range driverStores(t) {
		if err := store.Store(ctx, "/page", sampleResponse("v1"), 0); err != nil {
			t.Fatalf("%s: store error: %v", name, err)
		}
		first := store.CachedTime(ctx, "/page")
		time.Sleep(2 * time.Millisecond)
		if err := store.Store(ctx, "/page", sampleResponse("v2"), 0); err != nil {
			t.Fatalf("%s: store error: %v", name, err)
		}
		if store.CachedTime(ctx, "/page") <= first {
			t.Fatalf("%s: 覆盖写入后 cached time 应更新", name)
		}
		resp, _ := store.Fetch(ctx, "/page")
		if resp == nil || string(resp.Body) != "v2" {
			t.Fatalf("%s: 应读到最新内容", name)
		}
	}
}

func TestFileStoreLayoutAndTraversal(t *testing.T) {
	base := t.TempDir()
	store, err := NewFileStore(base)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	ctx := context.Background()
	if err := store.Store(ctx, "/", sampleResponse("home"), 0); err != nil {
		t.Fatalf("store root: %v", err)
	}
	if err := store.Store(ctx, "/about/team", sampleResponse("team"), 0); err != nil {
		t.Fatalf("store nested: %v", err)
	}
	for _, rel := range []string{"root.json", filepath.Join("about", "team.json")} {
		if _, err := os.Stat(filepath.Join(base, rel)); err != nil {
			t.Fatalf("expected %s: %v", rel, err)
		}
	}

	if err := store.Store(ctx, "/../../escape", sampleResponse("x"), 0); err != nil {
		t.Fatalf("store cleaned key: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "escape.json")); err != nil {
		t.Fatalf("路径穿越应被清理到缓存目录内: %v", err)
	}
	if err := store.Store(ctx, "  ", sampleResponse("x"), 0); err == nil {
		t.Fatalf("空 key 应报错")
	}
}

func TestFileStoreCorruptEntryIsMiss(t *testing.T) {
	base := t.TempDir()
	store, err := NewFileStore(base)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	if err := os.WriteFile(filepath.Join(base, "broken.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt entry: %v", err)
	}
	if _, err := store.Fetch(context.Background(), "/broken"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("损坏条目应视为未命中, got %v", err)
	}
}

func TestFileStoreConcurrentWrites(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Store(ctx, "/busy", sampleResponse("payload"), 0); err != nil {
				t.Errorf("concurrent store: %v", err)
			}
		}()
	}
	wg.Wait()
	resp, err := store.Fetch(ctx, "/busy")
	if err != nil || string(resp.Body) != "payload" {
		t.Fatalf("并发写入后读取失败: %v", err)
	}
}

func TestOpenDrivers(t *testing.T) {
	dir := t.TempDir()
	for _, driver := range []string{DriverFile, DriverMemory, DriverSQLite} {
		store, err := Open(driver, filepath.Join(dir, driver), time.Minute)
		if err != nil || store == nil {
			t.Fatalf("open %s: %v", driver, err)
		}
		_ = store.Close()
	}
	store, err := Open(DriverNone, dir, 0)
	if err != nil || store != nil {
		t.Fatalf("none 驱动应返回 nil store")
	}
	if _, err := Open("redis", dir, 0); err == nil {
		t.Fatalf("未知驱动应报错")
	}
}
