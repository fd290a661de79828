package site

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"go-campaign-site/internal/content"
	"go-campaign-site/internal/listing"
	"go-campaign-site/internal/model"
	"go-campaign-site/internal/visibility"
)

const localsSettings = "siteSettings"

// requestSettings 在单个请求内只读取一次站点设置（守卫、布局与错误页共用）。
type requestSettings struct {
	once sync.Once
	repo Content
	v    model.SiteSettings
}

func (r *requestSettings) SiteSettings(ctx context.Context) model.SiteSettings {
	r.once.Do(func() { r.v = r.repo.SiteSettings(ctx) })
	return r.v
}

func (s *Server) settingsFor(c *fiber.Ctx) *requestSettings {
	if rs, ok := c.Locals(localsSettings).(*requestSettings); ok {
		return rs
	}
	rs := &requestSettings{repo: s.repo}
	c.Locals(localsSettings, rs)
	return rs
}

// guard 必须在页面的任何内容查询之前调用。
func (s *Server) guard(c *fiber.Ctx, key model.PageKey) error {
	return visibility.NewGate(s.settingsFor(c)).AssertPageEnabled(c.UserContext(), key)
}

// pageView 为布局模板的数据。
type pageView struct {
	Title      string
	Key        model.PageKey
	Settings   model.SiteSettings
	Nav        []model.NavItem
	Shell      string
	ShellAttrs map[string]string
	RequestID  string
	Year       int
	Data       any
}

func (s *Server) view(c *fiber.Ctx, settings model.SiteSettings, key model.PageKey, visual model.PageVisualConfig, title string, data any) pageView {
	if title == "" {
		title = settings.Title
	} else if settings.Title != "" {
		title = title + " · " + settings.Title
	}
	return pageView{
		Title:      title,
		Key:        key,
		Settings:   settings,
		Nav:        visibility.FilterNav(settings.HeaderNav, settings.PageVisibility),
		Shell:      s.resolver.ClassString(visual),
		ShellAttrs: s.resolver.ShellDataAttributes(visual),
		RequestID:  requestID(c),
		Year:       s.now().In(s.loc).Year(),
		Data:       data,
	}
}

// page 守卫通过后并发读取设置、视觉配置与页面内容，再渲染模板 name。
func (s *Server) page(c *fiber.Ctx, key model.PageKey, name, title string, load func(ctx context.Context) (any, error)) error {
	if err := s.guard(c, key); err != nil {
		return err
	}
	ctx := c.UserContext()
	rs := s.settingsFor(c)
	var (
		settings model.SiteSettings
		visual   model.PageVisualConfig
		data     any
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { settings = rs.SiteSettings(gctx); return nil })
	g.Go(func() error { visual = s.repo.PageVisual(gctx, key); return nil })
	g.Go(func() error {
		var err error
		data, err = load(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	return c.Render(name, s.view(c, settings, key, visual, title, data))
}

type homeView struct {
	Hero   model.Hero
	Focus  []model.FocusItem
	Cards  []model.SectionCard
	Posts  []model.Post
	Events []listing.PreparedItem
}

func (s *Server) home(c *fiber.Ctx) error {
	if err := s.guard(c, model.PageHome); err != nil {
		return err
	}
	d := s.repo.Home(c.UserContext(), s.settingsFor(c))
	events := s.upcoming(listing.FromEvents(d.Events))
	v := homeView{
		Hero:   d.Settings.Hero,
		Focus:  d.Settings.FocusItems,
		Cards:  visibility.FilterCards(d.Settings.SectionCards, d.Settings.PageVisibility),
		Posts:  d.Posts,
		Events: events,
	}
	return c.Render("home", s.view(c, d.Settings, model.PageHome, d.Visual, "", v))
}

// upcoming 只保留未结束的活动，最多三条。
func (s *Server) upcoming(items []listing.Item) []listing.PreparedItem {
	const max = 3
	now := s.now()
	out := make([]listing.PreparedItem, 0, max)
	for _, p := range listing.PrepareAll(items, s.prep, now) {
		if p.HasPassed {
			continue
		}
		out = append(out, p)
		if len(out) == max {
			break
		}
	}
	return out
}

func (s *Server) about(c *fiber.Ctx) error {
	return s.page(c, model.PageAbout, "about", "About", func(ctx context.Context) (any, error) {
		return s.repo.About(ctx), nil
	})
}

func (s *Server) priority(c *fiber.Ctx) error {
	slug := c.Params("slug")
	return s.page(c, model.PageAbout, "priority", "", func(ctx context.Context) (any, error) {
		p, ok := s.repo.PriorityBySlug(ctx, slug)
		if !ok {
			return nil, content.ErrNotFound
		}
		return p, nil
	})
}

func (s *Server) post(c *fiber.Ctx) error {
	slug := c.Params("slug")
	return s.page(c, model.PageNews, "post", "", func(ctx context.Context) (any, error) {
		p, ok := s.repo.PostBySlug(ctx, slug)
		if !ok {
			return nil, content.ErrNotFound
		}
		return p, nil
	})
}

type mediaView struct {
	Items []model.MediaLink
}

func (s *Server) media(c *fiber.Ctx) error {
	return s.page(c, model.PageMedia, "media", "In the news", func(ctx context.Context) (any, error) {
		return mediaView{Items: s.repo.Media(ctx, 0)}, nil
	})
}

type donateView struct {
	Links []model.FundraisingLink
}

func (s *Server) donate(c *fiber.Ctx) error {
	return s.page(c, model.PageDonate, "donate", "Donate", func(ctx context.Context) (any, error) {
		return donateView{Links: s.repo.FundraisingLinks(ctx)}, nil
	})
}

// ---- 列表页（新闻/活动） ----

type tagLink struct {
	Label  string
	Count  int
	Href   string
	Active bool
}

type sortLink struct {
	Mode   listing.SortMode
	Href   string
	Active bool
}

type listView struct {
	Base     string
	Kind     string
	State    listing.State
	Total    int
	Items    []listing.PreparedItem
	Tags     []tagLink
	AllHref  string
	Sorts    []sortLink
	HasMore  bool
	MoreHref string
}

func href(base string, st listing.State) string {
	if q := st.Query(); q != "" {
		return base + "?" + q
	}
	return base
}

func (s *Server) buildList(base, kind string, items []listing.Item, st listing.State, now time.Time) listView {
	pg := listing.Apply(items, st)
	v := listView{
		Base:    base,
		Kind:    kind,
		State:   st,
		Total:   pg.Total,
		Items:   listing.PrepareAll(pg.Items, s.prep, now),
		AllHref: href(base, st.WithTag("")),
		HasMore: st.HasMore(pg.Total),
	}
	for _, t := range pg.Tags {
		v.Tags = append(v.Tags, tagLink{
			Label:  t.Label,
			Count:  t.Count,
			Href:   href(base, st.WithTag(t.Label)),
			Active: t.Matches(st.Tag),
		})
	}
	for _, m := range listing.SortModes() {
		v.Sorts = append(v.Sorts, sortLink{Mode: m, Href: href(base, st.WithSort(m)), Active: m == st.Sort})
	}
	if v.HasMore {
		v.MoreHref = href(base, st.Grow(pg.Total))
	}
	return v
}

// listPage 渲染列表页；partial=1 时只渲染列表片段，供客户端“加载更多”替换。
func (s *Server) listPage(c *fiber.Ctx, key model.PageKey, name, title string, def listing.SortMode, load func(ctx context.Context) []listing.Item) error {
	st := listing.FromQuery(c.Query("tag"), c.Query("sort"), c.Query("show"), def)
	base := c.Path()
	if c.QueryBool("partial") {
		if err := s.guard(c, key); err != nil {
			return err
		}
		items := load(c.UserContext())
		return c.Render(name, s.buildList(base, string(key), items, st, s.now()), "feed-items")
	}
	return s.page(c, key, name, title, func(ctx context.Context) (any, error) {
		return s.buildList(base, string(key), load(ctx), st, s.now()), nil
	})
}

func (s *Server) news(c *fiber.Ctx) error {
	return s.listPage(c, model.PageNews, "news", "News", listing.SortDateDesc, func(ctx context.Context) []listing.Item {
		return listing.FromPosts(s.repo.PostsAll(ctx))
	})
}

func (s *Server) events(c *fiber.Ctx) error {
	return s.listPage(c, model.PageEvents, "events", "Events", listing.SortDateAsc, func(ctx context.Context) []listing.Item {
		return listing.FromEvents(s.repo.EventsUpcoming(ctx))
	})
}
