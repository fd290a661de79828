package aggregate

import (
	"sort"
	"strings"
	"sync"
	"time"

	"go-campaign-site/internal/model"
)

// PressBuffer 在内存中保存聚合到的媒体报道，按链接去重。
type PressBuffer struct {
	mu        sync.Mutex
	items     map[string]model.MediaLink // key: 归一化链接
	sources   map[string]SourceStatus    // key: 来源 URL
	updatedAt time.Time
}

// SourceStatus 为单个来源最近一次抓取的结果。
type SourceStatus struct {
	Name    string    `json:"name"`
	URL     string    `json:"url"`
	FeedURL string    `json:"feedUrl,omitempty"`
	Items   int       `json:"items"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

func NewPressBuffer() *PressBuffer {
	return &PressBuffer{
		items:   make(map[string]model.MediaLink),
		sources: make(map[string]SourceStatus),
	}
}

func linkKey(u string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(u)), "/")
}

// AddItems 写入一批条目；同一链接后写覆盖先写。
func (b *PressBuffer) AddItems(list []model.MediaLink) {
	b.mu.Lock()
	for _, m := range list {
		k := linkKey(m.URL)
		if k == "" {
			continue
		}
		b.items[k] = m
	}
	b.updatedAt = time.Now()
	b.mu.Unlock()
}

// SetStatus 记录来源抓取状态。
func (b *PressBuffer) SetStatus(s SourceStatus) {
	b.mu.Lock()
	b.sources[s.URL] = s
	b.mu.Unlock()
}

// Items 返回副本，按发布时间倒序；实现 content.PressSource。
func (b *PressBuffer) Items() []model.MediaLink {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.MediaLink, 0, len(b.items))
	for _, v := range b.items {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].PublishedAt.After(out[j].PublishedAt)
		}
		return out[i].URL < out[j].URL
	})
	return out
}

// Statuses 返回来源状态副本，按名称排序。
func (b *PressBuffer) Statuses() []SourceStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]SourceStatus, 0, len(b.sources))
	for _, v := range b.sources {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// UpdatedAt 返回最近一次写入条目的时间。
func (b *PressBuffer) UpdatedAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.updatedAt
}
