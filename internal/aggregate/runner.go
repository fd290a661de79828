// 包 aggregate 负责外部媒体报道的聚合：
// - 并发发现各来源订阅并解析条目；配置了预设的来源按 rules.yaml 抓取列表页
// - 结果写入内存缓冲区，供内容仓库并入媒体页
// - serve 模式下按间隔后台刷新
package aggregate

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"go-campaign-site/internal/config"
	"go-campaign-site/internal/feeds"
	"go-campaign-site/internal/logx"
	"go-campaign-site/internal/model"
	"go-campaign-site/internal/rules"
)

// Runner 聚合执行器，持有来源配置、HTTP 客户端、页面规则与缓冲区。
type Runner struct {
	cfg   config.Press
	fetch feeds.Getter
	rules *rules.Rules
	buf   *PressBuffer
}

// New 创建 Runner；rl 可为 nil（此时配置了预设的来源记为失败）。
func New(cfg config.Press, cl feeds.Getter, rl *rules.Rules) *Runner {
	return &Runner{cfg: cfg, fetch: cl, rules: rl, buf: NewPressBuffer()}
}

// Run 执行一轮聚合：去重来源→并发发现订阅→解析条目→写入缓冲区。
// 单个来源失败只记日志，不影响其他来源。
func (r *Runner) Run(ctx context.Context) error {
	sources := dedup(r.cfg.Sources)
	if len(sources) == 0 {
		return nil
	}
	logx.Infof("媒体来源=%d，开始聚合", len(sources))

	sem := make(chan struct{}, max(1, r.cfg.Concurrency))
	var wg sync.WaitGroup
	for _, src := range sources {
		src := src
		wg.Add(1)
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Done()
			wg.Wait()
			return ctx.Err()
		}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			r.processSource(ctx, src)
		}()
	}
	wg.Wait()
	return nil
}

// processSource 处理单个来源：订阅发现→解析→写缓冲区。
func (r *Runner) processSource(ctx context.Context, src config.PressSource) {
	host := hostOf(src.URL)
	st := SourceStatus{Name: src.Name, URL: src.URL, At: time.Now()}
	defer func() { r.buf.SetStatus(st) }()

	if src.Preset != "" {
		preset, ok := r.rules.GetPreset(src.Preset)
		if !ok || preset.PressPage == nil {
			st.Error = "preset " + src.Preset + " not found"
			logx.Warnf("[%s|%s] 未找到页面预设 %s", src.Name, host, src.Preset)
			return
		}
		items, err := feeds.ParsePage(ctx, r.fetch, src.URL, src.Name, preset, r.cfg.MaxItems)
		if err != nil {
			st.Error = err.Error()
			logx.Warnf("[%s|%s] 解析报道列表页失败：%v", src.Name, host, err)
			return
		}
		st.Items = len(items)
		r.buf.AddItems(items)
		logx.Infof("[%s|%s] 列表页解析完成：%d", src.Name, host, len(items))
		return
	}

	feedURL, err := feeds.DiscoverFeed(ctx, r.fetch, src.URL, src.FeedSuffix)
	if err != nil {
		st.Error = err.Error()
		logx.Warnf("[%s|%s] 发现订阅失败：%v", src.Name, host, err)
		return
	}
	st.FeedURL = feedURL
	items, err := feeds.ParseFeed(ctx, r.fetch, feedURL, src.Name, r.cfg.MaxItems)
	if err != nil {
		st.Error = err.Error()
		logx.Warnf("[%s|%s] 解析订阅失败：%v", src.Name, host, err)
		return
	}
	st.Items = len(items)
	r.buf.AddItems(items)
	logx.Infof("[%s|%s] 报道解析完成：%d", src.Name, host, len(items))
}

// Start 立即执行一轮，然后按 interval 刷新，直到 ctx 结束。interval<=0 时只执行一轮。
func (r *Runner) Start(ctx context.Context, interval time.Duration) {
	if err := r.Run(ctx); err != nil {
		logx.Warnf("媒体聚合中断：%v", err)
	}
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := r.Run(ctx); err != nil {
				logx.Warnf("媒体聚合中断：%v", err)
			}
		}
	}
}

// Items 返回聚合到的报道；实现 content.PressSource。
func (r *Runner) Items() []model.MediaLink {
	if r == nil || r.buf == nil {
		return nil
	}
	return r.buf.Items()
}

// Statuses 返回各来源最近一次的抓取状态。
func (r *Runner) Statuses() []SourceStatus {
	if r == nil || r.buf == nil {
		return nil
	}
	return r.buf.Statuses()
}

// dedup 按 URL 去重，保持配置顺序。
func dedup(in []config.PressSource) []config.PressSource {
	seen := map[string]bool{}
	out := make([]config.PressSource, 0, len(in))
	for _, s := range in {
		k := linkKey(s.URL)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// hostOf 提取链接的主机名，失败时做字符串兜底，便于日志定位。
func hostOf(raw string) string {
	if raw == "" {
		return ""
	}
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return u.Host
	}
	s := raw
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if j := strings.IndexAny(s, "/?#"); j >= 0 {
		s = s[:j]
	}
	return s
}
