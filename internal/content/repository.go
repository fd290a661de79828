// 包 content 为内容仓库：对每类内容先经网关查询，缺省或为空时替换为兜底数据，
// 统一做 ID 归一化、排序与字段级兜底。这里的方法不会因为缺数据而返回错误。
package content

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"go-campaign-site/internal/fallback"
	"go-campaign-site/internal/gateway"
	"go-campaign-site/internal/logx"
	"go-campaign-site/internal/model"
	"go-campaign-site/internal/richtext"
	"go-campaign-site/internal/visuals"
)

// ErrNotFound 表示单条内容（文章/施政重点）在实时与兜底数据中都不存在。
var ErrNotFound = errors.New("content: not found")

// Querier 为仓库依赖的查询能力（由 gateway.Client 实现）。
type Querier interface {
	Fetch(ctx context.Context, query string, params gateway.Params, opts gateway.Options) (json.RawMessage, bool)
}

// PressSource 提供聚合的媒体报道条目（可选）。
type PressSource interface {
	Items() []model.MediaLink
}

// Options 为仓库构造参数。
type Options struct {
	Revalidate time.Duration  // 一般内容的缓存时长；站点设置与视觉配置总是不走缓存
	Location   *time.Location // 仅含日期的时间按此时区解析
	Press      PressSource
}

// Repository 为内容仓库。无可变状态，可并发使用。
type Repository struct {
	q    Querier
	fb   *fallback.Dataset
	opts Options
}

// New 创建仓库；fb 为 nil 时使用嵌入的兜底数据集。
func New(q Querier, fb *fallback.Dataset, opts Options) *Repository {
	if fb == nil {
		fb = fallback.Default()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Repository{q: q, fb: fb, opts: opts}
}

func (r *Repository) cached() gateway.Options {
	return gateway.Options{Revalidate: r.opts.Revalidate}
}

// fetchList 查询集合并逐条转换；转换失败的记录被丢弃并记日志。整体解码失败视为缺省。
func fetchList[W any, M any](ctx context.Context, r *Repository, kind, query string, params gateway.Params, opts gateway.Options, conv func(W) (M, error)) []M {
	raw, ok := r.q.Fetch(ctx, query, params, opts)
	if !ok {
		return nil
	}
	log := logx.FromContext(ctx)
	wires, err := decode[[]W](raw)
	if err != nil {
		log.Warn("内容解码失败，使用兜底数据", "kind", kind, "err", err)
		return nil
	}
	out := make([]M, 0, len(wires))
	for _, w := range wires {
		m, err := conv(w)
		if err != nil {
			log.Warn("跳过无效内容记录", "kind", kind, "err", err)
			continue
		}
		out = append(out, m)
	}
	return out
}

// ---- 文章 ----

func sortPostsDesc(ps []model.Post) {
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].PublishedAt.After(ps[j].PublishedAt) })
}

// PostsAll 返回全部文章，按发布时间倒序（无论来源）。
func (r *Repository) PostsAll(ctx context.Context) []model.Post {
	posts := fetchList(ctx, r, "post", qPostsAll, nil, r.cached(), func(w wirePost) (model.Post, error) {
		return w.toModel(r.opts.Location)
	})
	if len(posts) == 0 {
		posts = r.fb.Posts()
	}
	sortPostsDesc(posts)
	return posts
}

// PostsRecent 返回最新的 limit 篇；limit<=0 返回空切片，不足时不补齐。
func (r *Repository) PostsRecent(ctx context.Context, limit int) []model.Post {
	if limit <= 0 {
		return []model.Post{}
	}
	all := r.PostsAll(ctx)
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

// PostBySlug 先查实时数据，缺省时在兜底文章中按 slug 查找；都没有时返回 false。
func (r *Repository) PostBySlug(ctx context.Context, slug string) (model.Post, bool) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return model.Post{}, false
	}
	if raw, ok := r.q.Fetch(ctx, qPostBySlug, gateway.Params{"slug": slug}, r.cached()); ok {
		p, err := decodePost(raw, r.opts.Location)
		if err == nil {
			return p, true
		}
		logx.FromContext(ctx).Warn("文章解码失败，查找兜底数据", "slug", slug, "err", err)
	}
	for _, p := range r.fb.Posts() {
		if p.Slug == slug {
			return p, true
		}
	}
	return model.Post{}, false
}

// ---- 活动 ----

// EventsUpcoming 返回全部活动，按开始时间正序。
func (r *Repository) EventsUpcoming(ctx context.Context) []model.Event {
	events := fetchList(ctx, r, "event", qEvents, nil, r.cached(), func(w wireEvent) (model.Event, error) {
		return w.toModel(r.opts.Location)
	})
	if len(events) == 0 {
		events = r.fb.Events()
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].StartsAt.Before(events[j].StartsAt) })
	return events
}

// ---- 媒体 ----

// Media 返回媒体报道：实时数据缺省或为空时使用兜底数据，再并入聚合的报道条目
// （按 URL 去重，前者优先）；按发布时间倒序，limit<=0 表示全部。
func (r *Repository) Media(ctx context.Context, limit int) []model.MediaLink {
	items := fetchList(ctx, r, "media", qMedia, nil, r.cached(), func(w wireMedia) (model.MediaLink, error) {
		return w.toModel(r.opts.Location)
	})
	if len(items) == 0 {
		items = r.fb.Media()
	}
	if r.opts.Press != nil {
		items = mergeByURL(items, r.opts.Press.Items())
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].PublishedAt.After(items[j].PublishedAt) })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func normURL(u string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(u)), "/")
}

// mergeByURL 只对非空 URL 去重；没有 URL 的条目原样保留。
func mergeByURL(primary, extra []model.MediaLink) []model.MediaLink {
	seen := make(map[string]struct{}, len(primary)+len(extra))
	out := make([]model.MediaLink, 0, len(primary)+len(extra))
	for _, list := range [][]model.MediaLink{primary, extra} {
		for _, m := range list {
			if k := normURL(m.URL); k != "" {
				if _, dup := seen[k]; dup {
					continue
				}
				seen[k] = struct{}{}
			}
			out = append(out, m)
		}
	}
	return out
}

// ---- 筹款 ----

// FundraisingLinks 按优先级倒序（稳定排序，缺省优先级为 0）。
func (r *Repository) FundraisingLinks(ctx context.Context) []model.FundraisingLink {
	links := fetchList(ctx, r, "fundraising", qFundraising, nil, r.cached(), func(w wireFundraising) (model.FundraisingLink, error) {
		return w.toModel(), nil
	})
	if len(links) == 0 {
		links = r.fb.FundraisingLinks()
	}
	sort.SliceStable(links, func(i, j int) bool { return links[i].Priority > links[j].Priority })
	return links
}

// ---- 站点设置 ----

// SiteSettings 不走缓存。缺省时返回完整兜底设置；否则逐字段兜底。
func (r *Repository) SiteSettings(ctx context.Context) model.SiteSettings {
	fb := r.fb.Settings()
	raw, ok := r.q.Fetch(ctx, qSettings, nil, gateway.NoCache)
	if !ok {
		return fb
	}
	live, err := decode[wireSettings](raw)
	if err != nil {
		logx.FromContext(ctx).Warn("站点设置解码失败，使用兜底数据", "err", err)
		return fb
	}
	return mergeSettings(live.toModel(), fb)
}

func mergeSettings(live, fb model.SiteSettings) model.SiteSettings {
	return model.SiteSettings{
		Title:         Coalesce(live.Title, fb.Title),
		Tagline:       Coalesce(live.Tagline, fb.Tagline),
		Description:   Coalesce(live.Description, fb.Description),
		CandidateName: Coalesce(live.CandidateName, fb.CandidateName),
		Hero: model.Hero{
			Heading:    Coalesce(live.Hero.Heading, fb.Hero.Heading),
			Subheading: Coalesce(live.Hero.Subheading, fb.Hero.Subheading),
			Image:      CoalescePtr(emptyImage(live.Hero.Image), fb.Hero.Image),
			Actions:    CoalesceSlice(live.Hero.Actions, fb.Hero.Actions),
		},
		SocialLinks:    CoalesceSlice(live.SocialLinks, fb.SocialLinks),
		HeaderNav:      CoalesceSlice(live.HeaderNav, fb.HeaderNav),
		FocusItems:     CoalesceSlice(live.FocusItems, fb.FocusItems),
		SectionCards:   CoalesceSlice(live.SectionCards, fb.SectionCards),
		DonateURL:      Coalesce(live.DonateURL, fb.DonateURL),
		ContactEmail:   Coalesce(live.ContactEmail, fb.ContactEmail),
		FooterText:     Coalesce(live.FooterText, fb.FooterText),
		PageVisibility: CoalesceMap(knownPages(live.PageVisibility), fb.PageVisibility),
	}
}

// knownPages 丢弃未知页面键。
func knownPages(m model.PageVisibility) model.PageVisibility {
	if len(m) == 0 {
		return m
	}
	out := make(model.PageVisibility, len(m))
	for k, v := range m {
		if k.Valid() {
			out[k] = v
		}
	}
	return out
}

// ---- 关于/施政重点 ----

// About 与站点设置相同的逐字段兜底，并对每个施政重点补齐正文与链接。
func (r *Repository) About(ctx context.Context) model.About {
	fb := r.fb.About()
	out := fb
	if raw, ok := r.q.Fetch(ctx, qAbout, nil, r.cached()); ok {
		live, err := decode[model.About](raw)
		if err != nil {
			logx.FromContext(ctx).Warn("关于页解码失败，使用兜底数据", "err", err)
		} else {
			out = model.About{
				Heading:    Coalesce(live.Heading, fb.Heading),
				Intro:      Coalesce(live.Intro, fb.Intro),
				Bio:        CoalesceSlice(live.Bio, fb.Bio),
				Portrait:   CoalescePtr(emptyImage(live.Portrait), fb.Portrait),
				Priorities: CoalesceSlice(live.Priorities, fb.Priorities),
			}
		}
	}
	out.Bio = nonNil(out.Bio)
	ps := make([]model.Priority, len(out.Priorities))
	for i, p := range out.Priorities {
		ps[i] = completePriority(p)
	}
	out.Priorities = ps
	return out
}

// completePriority 正文为空时用摘要构造单段落；链接永不为 nil。
func completePriority(p model.Priority) model.Priority {
	p.Slug = slugOr(p.Slug, p.Title)
	if len(p.Body) == 0 {
		p.Body = richtext.Paragraph(p.Summary)
	}
	p.Links = nonNil(p.Links)
	return p
}

// PriorityBySlug 在解析后的关于页中按 slug 查找施政重点。
func (r *Repository) PriorityBySlug(ctx context.Context, slug string) (model.Priority, bool) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return model.Priority{}, false
	}
	for _, p := range r.About(ctx).Priorities {
		if p.Slug == slug {
			return p, true
		}
	}
	return model.Priority{}, false
}

// ---- 视觉配置 ----

// PageVisual 不走缓存。缺省时返回页面默认配置；存在时逐维度校验，非法值替换为维度默认值。
func (r *Repository) PageVisual(ctx context.Context, key model.PageKey) model.PageVisualConfig {
	raw, ok := r.q.Fetch(ctx, qPageVisual, gateway.Params{"page": string(key)}, gateway.NoCache)
	if !ok {
		return visuals.Default(key)
	}
	live, err := decode[model.PageVisualConfig](raw)
	if err != nil {
		logx.FromContext(ctx).Warn("视觉配置解码失败，使用页面默认值", "page", key, "err", err)
		return visuals.Default(key)
	}
	if err := visuals.Validate(live); err != nil {
		logx.FromContext(ctx).Warn("视觉配置含非法取值，按维度默认值修正", "page", key, "err", err)
	}
	return visuals.Normalize(live)
}
