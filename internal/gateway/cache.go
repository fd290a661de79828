package gateway

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"go-campaign-site/internal/logx"
	"go-campaign-site/internal/store"
)

// Cache 为查询结果缓存。实现须并发安全；读写失败按未命中处理，不影响查询。
type Cache interface {
	Lookup(ctx context.Context, key string) (body []byte, fetchedAt time.Time, ok bool)
	Save(ctx context.Context, key string, body []byte, fetchedAt time.Time)
}

type memEntry struct {
	body []byte
	at   time.Time
}

// MemoryCache 为进程内 LRU 缓存。
type MemoryCache struct {
	lru *lru.Cache[string, memEntry]
}

// NewMemoryCache 创建容量为 size 的 LRU 缓存。
func NewMemoryCache(size int) (*MemoryCache, error) {
	if size <= 0 {
		size = 256
	}
	c, err := lru.New[string, memEntry](size)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{lru: c}, nil
}

func (m *MemoryCache) Lookup(_ context.Context, key string) ([]byte, time.Time, bool) {
	e, ok := m.lru.Get(key)
	if !ok {
		return nil, time.Time{}, false
	}
	return e.body, e.at, true
}

func (m *MemoryCache) Save(_ context.Context, key string, body []byte, at time.Time) {
	cp := make([]byte, len(body))
	copy(cp, body)
	m.lru.Add(key, memEntry{body: cp, at: at})
}

// Len 返回当前条目数。
func (m *MemoryCache) Len() int { return m.lru.Len() }

// SQLiteCache 把 store.SQLite 适配为 Cache，失败只记日志。
type SQLiteCache struct {
	st   *store.SQLite
	once sync.Once
}

func NewSQLiteCache(st *store.SQLite) *SQLiteCache { return &SQLiteCache{st: st} }

func (s *SQLiteCache) Lookup(ctx context.Context, key string) ([]byte, time.Time, bool) {
	e, ok, err := s.st.Get(ctx, key)
	if err != nil {
		s.once.Do(func() { logx.Warnf("读取查询缓存失败（后续同类错误不再提示）：%v", err) })
		return nil, time.Time{}, false
	}
	if !ok {
		return nil, time.Time{}, false
	}
	return e.Body, e.FetchedAt, true
}

func (s *SQLiteCache) Save(ctx context.Context, key string, body []byte, at time.Time) {
	if err := s.st.Put(ctx, store.Entry{Key: key, Body: body, FetchedAt: at}); err != nil {
		logx.Warnf("写入查询缓存失败：%v", err)
	}
}
