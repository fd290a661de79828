// 包 store 提供内容查询结果的持久化缓存（SQLite），
// 包含表迁移/写入/查询/清理等操作，供网关在进程重启后复用已拉取的内容。
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Entry 为一条缓存记录：Body 为内容仓库返回的 result 原始 JSON。
type Entry struct {
	Key       string
	Body      []byte
	FetchedAt time.Time
}

// Stats 为缓存统计。
type Stats struct {
	Entries int
	Bytes   int64
	Oldest  time.Time
}

// SQLite 封装 *sql.DB，基于 modernc.org/sqlite（纯 Go 实现）。
type SQLite struct {
	db *sql.DB
}

// OpenSQLite 打开 SQLite 数据库并执行自动迁移。
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// Reset 清空缓存表（不删除数据库文件）。
func (s *SQLite) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM query_cache`); err != nil {
		return fmt.Errorf("delete query_cache: %w", err)
	}
	return nil
}

// migrate 执行建表语句，保持幂等。
func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS query_cache (
            key TEXT PRIMARY KEY,
            body BLOB NOT NULL,
            fetched_at INTEGER NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_query_cache_fetched_at ON query_cache(fetched_at);`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("exec migrate: %w", err)
		}
	}
	return nil
}

// Put 插入或覆盖一条缓存（key 唯一约束）。
func (s *SQLite) Put(ctx context.Context, e Entry) error {
	if e.Key == "" {
		return errors.New("entry.key required")
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO query_cache(key, body, fetched_at)
        VALUES(?,?,?)
        ON CONFLICT(key) DO UPDATE SET body=excluded.body, fetched_at=excluded.fetched_at`,
		e.Key, e.Body, nowOr(e.FetchedAt).UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert cache %s: %w", e.Key, err)
	}
	return nil
}

// Get 读取缓存；不存在时返回 ok=false 且 err 为 nil。
func (s *SQLite) Get(ctx context.Context, key string) (Entry, bool, error) {
	var e Entry
	var ms int64
	err := s.db.QueryRowContext(ctx, `SELECT key, body, fetched_at FROM query_cache WHERE key = ?`, key).
		Scan(&e.Key, &e.Body, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("query cache %s: %w", key, err)
	}
	e.FetchedAt = time.UnixMilli(ms)
	return e, true, nil
}

// PurgeOlderThan 按时间阈值清理过期缓存，返回删除条数。
func (s *SQLite) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	if age <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-age).UnixMilli()
	res, err := s.db.ExecContext(ctx, `DELETE FROM query_cache WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return res.RowsAffected()
}

// Stats 统计条数、总字节与最早拉取时间。
func (s *SQLite) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var oldest sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1), COALESCE(SUM(LENGTH(body)), 0), MIN(fetched_at) FROM query_cache`).
		Scan(&st.Entries, &st.Bytes, &oldest)
	if err != nil {
		return st, fmt.Errorf("cache stats: %w", err)
	}
	if oldest.Valid {
		st.Oldest = time.UnixMilli(oldest.Int64)
	}
	return st, nil
}

func nowOr(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
