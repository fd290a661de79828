// 包 site 为竞选站点的 HTTP 层（fiber）：页面处理函数先经页面开关守卫，
// 再从内容仓库取数并渲染 html/template 模板。内容缺失与页面关闭统一返回 404。
package site

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"go-campaign-site/internal/aggregate"
	"go-campaign-site/internal/content"
	"go-campaign-site/internal/imageurl"
	"go-campaign-site/internal/listing"
	"go-campaign-site/internal/logx"
	"go-campaign-site/internal/model"
	"go-campaign-site/internal/visuals"
)

// Content 为处理函数使用的内容能力（由 content.Repository 实现）。
type Content interface {
	SiteSettings(ctx context.Context) model.SiteSettings
	PageVisual(ctx context.Context, key model.PageKey) model.PageVisualConfig
	Home(ctx context.Context, settings content.SettingsSource) content.HomeData
	About(ctx context.Context) model.About
	PriorityBySlug(ctx context.Context, slug string) (model.Priority, bool)
	PostsAll(ctx context.Context) []model.Post
	PostBySlug(ctx context.Context, slug string) (model.Post, bool)
	EventsUpcoming(ctx context.Context) []model.Event
	Media(ctx context.Context, limit int) []model.MediaLink
	FundraisingLinks(ctx context.Context) []model.FundraisingLink
}

// StatusSource 提供媒体订阅抓取状态（健康检查展示，可选）。
type StatusSource interface {
	Statuses() []aggregate.SourceStatus
}

// Options 为站点构造参数。
type Options struct {
	Content      Content
	Visuals      visuals.Flags
	Images       imageurl.Builder
	Location     *time.Location
	TemplatesDir string // 为空时使用嵌入模板
	Press        StatusSource
	Now          func() time.Time
}

// Server 为站点服务器。
type Server struct {
	app      *fiber.App
	views    *Views
	repo     Content
	resolver visuals.Resolver
	prep     listing.PrepareOptions
	loc      *time.Location
	press    StatusSource
	now      func() time.Time
}

// New 加载模板并注册路由。
func New(opts Options) (*Server, error) {
	if opts.Content == nil {
		return nil, errors.New("site: content is required")
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	views := NewViews(opts.TemplatesDir, templateFuncs(opts.Location))
	if err := views.Load(); err != nil {
		return nil, err
	}
	s := &Server{
		views:    views,
		repo:     opts.Content,
		resolver: visuals.NewResolver(opts.Visuals),
		prep:     listing.PrepareOptions{Images: opts.Images, Location: opts.Location},
		loc:      opts.Location,
		press:    opts.Press,
		now:      opts.Now,
	}
	s.app = fiber.New(fiber.Config{
		AppName:               "campaign-site",
		Views:                 views,
		ErrorHandler:          s.handleError,
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
	})
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.app.Use(requestContext())
	s.app.Use(recover.New())

	static, _ := fs.Sub(assets, "static")
	s.app.Use("/static", filesystem.New(filesystem.Config{
		Root:   http.FS(static),
		MaxAge: 3600,
	}))

	s.app.Get("/healthz", s.healthz)
	s.app.Get("/", s.home)
	s.app.Get("/about", s.about)
	s.app.Get("/about/priorities/:slug", s.priority)
	s.app.Get("/news", s.news)
	s.app.Get("/news/:slug", s.post)
	s.app.Get("/events", s.events)
	s.app.Get("/media", s.media)
	s.app.Get("/donate", s.donate)
	s.app.Use(func(c *fiber.Ctx) error { return content.ErrNotFound })
}

// App 返回底层 fiber 应用（测试使用 App().Test）。
func (s *Server) App() *fiber.App { return s.app }

// Views 返回模板集（用于开启热加载）。
func (s *Server) Views() *Views { return s.views }

// Listen 阻塞监听 addr。
func (s *Server) Listen(addr string) error {
	logx.Infof("站点监听：%s", addr)
	return s.app.Listen(addr)
}

// Shutdown 在 ctx 超时前等待进行中的请求结束。
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.Is(err, content.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.As(err, &fe):
		code = fe.Code
	}
	log := logx.FromContext(c.UserContext())
	if code >= fiber.StatusInternalServerError {
		log.Error("请求处理失败", "path", c.Path(), "err", err)
	} else {
		log.Debug("请求未命中", "path", c.Path(), "status", code)
	}

	name := "error"
	if code == fiber.StatusNotFound {
		name = "notfound"
	}
	settings := s.settingsFor(c).SiteSettings(c.UserContext())
	v := s.view(c, settings, "", visuals.Default(""), http.StatusText(code), nil)
	c.Status(code)
	if rerr := c.Render(name, v); rerr != nil {
		log.Error("错误页渲染失败", "err", rerr)
		return c.Status(code).SendString(http.StatusText(code))
	}
	return nil
}

func (s *Server) healthz(c *fiber.Ctx) error {
	out := fiber.Map{"status": "ok"}
	if s.press != nil {
		out["press"] = s.press.Statuses()
	}
	return c.JSON(out)
}
