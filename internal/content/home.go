package content

import (
	"context"

	"golang.org/x/sync/errgroup"

	"go-campaign-site/internal/model"
)

// HomeRecentPosts 为首页展示的最新文章数。
const HomeRecentPosts = 3

// HomeData 为首页所需的全部内容。
type HomeData struct {
	Settings model.SiteSettings
	Posts    []model.Post
	Events   []model.Event
	Visual   model.PageVisualConfig
}

// SettingsSource 提供站点设置；调用方可传入请求内复用的快照。
type SettingsSource interface {
	SiteSettings(ctx context.Context) model.SiteSettings
}

// Home 并发拉取首页内容并一起等待。各查询互不依赖，缺省时各自兜底。
// settings 为 nil 时直接查询站点设置。
func (r *Repository) Home(ctx context.Context, settings SettingsSource) HomeData {
	if settings == nil {
		settings = r
	}
	var (
		d HomeData
		g errgroup.Group
	)
	g.Go(func() error { d.Settings = settings.SiteSettings(ctx); return nil })
	g.Go(func() error { d.Posts = r.PostsRecent(ctx, HomeRecentPosts); return nil })
	g.Go(func() error { d.Events = r.EventsUpcoming(ctx); return nil })
	g.Go(func() error { d.Visual = r.PageVisual(ctx, model.PageHome); return nil })
	_ = g.Wait()
	return d
}

// Snapshot 为全部内容的解析结果（导出静态数据使用）。
type Snapshot struct {
	Settings    model.SiteSettings                       `json:"settings"`
	About       model.About                              `json:"about"`
	Posts       []model.Post                             `json:"posts"`
	Events      []model.Event                            `json:"events"`
	Media       []model.MediaLink                        `json:"media"`
	Fundraising []model.FundraisingLink                  `json:"fundraising"`
	Visuals     map[model.PageKey]model.PageVisualConfig `json:"visuals"`
}

// All 并发解析全部内容与每个页面的视觉配置。
func (r *Repository) All(ctx context.Context) Snapshot {
	var (
		s Snapshot
		g errgroup.Group
	)
	g.Go(func() error { s.Settings = r.SiteSettings(ctx); return nil })
	g.Go(func() error { s.About = r.About(ctx); return nil })
	g.Go(func() error { s.Posts = r.PostsAll(ctx); return nil })
	g.Go(func() error { s.Events = r.EventsUpcoming(ctx); return nil })
	g.Go(func() error { s.Media = r.Media(ctx, 0); return nil })
	g.Go(func() error { s.Fundraising = r.FundraisingLinks(ctx); return nil })
	keys := model.PageKeys()
	vs := make([]model.PageVisualConfig, len(keys))
	for i, k := range keys {
		i, k := i, k
		g.Go(func() error { vs[i] = r.PageVisual(ctx, k); return nil })
	}
	_ = g.Wait()
	s.Visuals = make(map[model.PageKey]model.PageVisualConfig, len(keys))
	for i, k := range keys {
		s.Visuals[k] = vs[i]
	}
	return s
}
