// 包 fallback 为兜底内容数据集：内容仓库不可用或返回空集合时使用。
// 数据随二进制嵌入（data/ 下的 yaml 与带 front matter 的 markdown），
// 进程内只解析一次，运行期只读；对外返回的都是副本。
package fallback

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/adrg/frontmatter"
	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"

	"go-campaign-site/internal/model"
	"go-campaign-site/internal/richtext"
)

// ReferenceZone 为解析仅含日期的时间时使用的时区。
const ReferenceZone = "America/New_York"

// Location 返回 ReferenceZone 对应的时区（时区数据随二进制嵌入）。
func Location() *time.Location {
	loc, err := time.LoadLocation(ReferenceZone)
	if err != nil {
		panic(fmt.Sprintf("fallback: load %s: %v", ReferenceZone, err))
	}
	return loc
}

//go:embed data
var embedded embed.FS

// Dataset 为解析完成的兜底数据。字段只读，调用方应使用访问方法获取副本。
type Dataset struct {
	posts       []model.Post
	events      []model.Event
	media       []model.MediaLink
	fundraising []model.FundraisingLink
	settings    model.SiteSettings
	about       model.About
}

var (
	defaultOnce sync.Once
	defaultSet  *Dataset
	defaultErr  error
)

// Default 返回嵌入数据集（首次调用时解析）。嵌入数据有误属于构建期错误，直接 panic。
func Default() *Dataset {
	defaultOnce.Do(func() {
		sub, err := fs.Sub(embedded, "data")
		if err != nil {
			defaultErr = err
			return
		}
		defaultSet, defaultErr = Load(sub, Location())
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("fallback: embedded dataset: %v", defaultErr))
	}
	return defaultSet
}

// Load 从 fsys 解析数据集；loc 用于仅含日期的时间。
func Load(fsys fs.FS, loc *time.Location) (*Dataset, error) {
	if loc == nil {
		loc = time.UTC
	}
	d := &Dataset{}
	var err error
	if d.posts, err = loadPosts(fsys, loc); err != nil {
		return nil, err
	}
	if d.events, err = loadEvents(fsys, loc); err != nil {
		return nil, err
	}
	if d.media, err = loadMedia(fsys, loc); err != nil {
		return nil, err
	}
	if d.fundraising, err = loadFundraising(fsys); err != nil {
		return nil, err
	}
	if d.settings, err = loadSettings(fsys); err != nil {
		return nil, err
	}
	if d.about, err = loadAbout(fsys); err != nil {
		return nil, err
	}
	return d, nil
}

// ---- 访问方法（返回副本） ----

// Posts 返回全部兜底文章（顺序与文件名顺序一致，排序由内容仓库负责）。
func (d *Dataset) Posts() []model.Post {
	out := make([]model.Post, len(d.posts))
	for i, p := range d.posts {
		p.Tags = cloneSlice(p.Tags)
		p.Body = cloneBlocks(p.Body)
		p.Image = cloneImage(p.Image)
		out[i] = p
	}
	return out
}

func (d *Dataset) Events() []model.Event {
	out := make([]model.Event, len(d.events))
	for i, e := range d.events {
		e.Tags = cloneSlice(e.Tags)
		e.Image = cloneImage(e.Image)
		if e.EndsAt != nil {
			t := *e.EndsAt
			e.EndsAt = &t
		}
		out[i] = e
	}
	return out
}

func (d *Dataset) Media() []model.MediaLink {
	out := make([]model.MediaLink, len(d.media))
	for i, m := range d.media {
		m.Image = cloneImage(m.Image)
		out[i] = m
	}
	return out
}

func (d *Dataset) FundraisingLinks() []model.FundraisingLink {
	return cloneSlice(d.fundraising)
}

func (d *Dataset) Settings() model.SiteSettings {
	s := d.settings
	s.Hero.Image = cloneImage(s.Hero.Image)
	s.Hero.Actions = cloneSlice(s.Hero.Actions)
	s.SocialLinks = cloneSlice(s.SocialLinks)
	s.HeaderNav = cloneSlice(s.HeaderNav)
	s.FocusItems = cloneSlice(s.FocusItems)
	s.SectionCards = make([]model.SectionCard, len(d.settings.SectionCards))
	for i, c := range d.settings.SectionCards {
		c.Image = cloneImage(c.Image)
		s.SectionCards[i] = c
	}
	s.PageVisibility = make(model.PageVisibility, len(d.settings.PageVisibility))
	for k, v := range d.settings.PageVisibility {
		s.PageVisibility[k] = v
	}
	return s
}

func (d *Dataset) About() model.About {
	a := d.about
	a.Bio = cloneBlocks(a.Bio)
	a.Portrait = cloneImage(a.Portrait)
	a.Priorities = make([]model.Priority, len(d.about.Priorities))
	for i, p := range d.about.Priorities {
		p.Body = cloneBlocks(p.Body)
		p.Links = cloneSlice(p.Links)
		a.Priorities[i] = p
	}
	return a
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneImage(i *model.Image) *model.Image {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

func cloneBlocks(in []model.Block) []model.Block {
	if in == nil {
		return nil
	}
	out := make([]model.Block, len(in))
	for i, b := range in {
		b.Children = make([]model.Span, len(in[i].Children))
		for j, s := range in[i].Children {
			s.Marks = cloneSlice(s.Marks)
			b.Children[j] = s
		}
		b.MarkDefs = cloneSlice(b.MarkDefs)
		out[i] = b
	}
	return out
}

// ---- 解析 ----

// ID 生成兜底记录的确定性 ID：fallback-<kind>-<key>。
func ID(kind, key string) string { return "fallback-" + kind + "-" + key }

// ParseTime 接受 RFC3339 或仅日期（按 loc 的零点）；第二个返回值表示是否仅含日期。
func ParseTime(s string, loc *time.Location) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, true, nil
}

type postMeta struct {
	Title       string       `yaml:"title"`
	Slug        string       `yaml:"slug"`
	PublishedAt string       `yaml:"published_at"`
	Excerpt     string       `yaml:"excerpt"`
	Author      string       `yaml:"author"`
	Tags        []string     `yaml:"tags"`
	Image       *model.Image `yaml:"image"`
}

func loadPosts(fsys fs.FS, loc *time.Location) ([]model.Post, error) {
	names, err := fs.Glob(fsys, "posts/*.md")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	out := make([]model.Post, 0, len(names))
	seen := map[string]string{}
	for _, name := range names {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		var meta postMeta
		body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
		if err != nil {
			return nil, fmt.Errorf("front matter %s: %w", name, err)
		}
		if strings.TrimSpace(meta.Title) == "" {
			return nil, fmt.Errorf("%s: title required", name)
		}
		s := strings.TrimSpace(meta.Slug)
		if s == "" {
			s = slug.Make(meta.Title)
		}
		if prev, dup := seen[s]; dup {
			return nil, fmt.Errorf("%s: duplicate slug %q (also in %s)", name, s, prev)
		}
		seen[s] = path.Base(name)
		at, _, err := ParseTime(meta.PublishedAt, loc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, model.Post{
			ID:          ID("post", s),
			Title:       meta.Title,
			Slug:        s,
			PublishedAt: at,
			Excerpt:     meta.Excerpt,
			Body:        richtext.FromMarkdown(body),
			Tags:        nonNil(meta.Tags),
			Image:       meta.Image,
			Author:      meta.Author,
		})
	}
	return out, nil
}

type eventDoc struct {
	Title       string       `yaml:"title"`
	Slug        string       `yaml:"slug"`
	StartsAt    string       `yaml:"starts_at"`
	EndsAt      string       `yaml:"ends_at"`
	AllDay      bool         `yaml:"all_day"`
	Location    string       `yaml:"location"`
	Description string       `yaml:"description"`
	Tags        []string     `yaml:"tags"`
	Image       *model.Image `yaml:"image"`
	RSVPURL     string       `yaml:"rsvp_url"`
}

func loadEvents(fsys fs.FS, loc *time.Location) ([]model.Event, error) {
	var docs []eventDoc
	if err := readYAML(fsys, "events.yaml", &docs); err != nil {
		return nil, err
	}
	out := make([]model.Event, 0, len(docs))
	for i, d := range docs {
		s := strings.TrimSpace(d.Slug)
		if s == "" {
			s = slug.Make(d.Title)
		}
		start, dateOnly, err := ParseTime(d.StartsAt, loc)
		if err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}
		ev := model.Event{
			ID:          ID("event", s),
			Title:       d.Title,
			Slug:        s,
			StartsAt:    start,
			AllDay:      d.AllDay || dateOnly,
			Location:    d.Location,
			Description: d.Description,
			Tags:        nonNil(d.Tags),
			Image:       d.Image,
			RSVPURL:     d.RSVPURL,
		}
		if d.EndsAt != "" {
			end, _, err := ParseTime(d.EndsAt, loc)
			if err != nil {
				return nil, fmt.Errorf("events[%d]: %w", i, err)
			}
			ev.EndsAt = &end
		}
		out = append(out, ev)
	}
	return out, nil
}

type mediaDoc struct {
	Title       string       `yaml:"title"`
	Outlet      string       `yaml:"outlet"`
	URL         string       `yaml:"url"`
	Kind        string       `yaml:"kind"`
	PublishedAt string       `yaml:"published_at"`
	Summary     string       `yaml:"summary"`
	Image       *model.Image `yaml:"image"`
}

func loadMedia(fsys fs.FS, loc *time.Location) ([]model.MediaLink, error) {
	var docs []mediaDoc
	if err := readYAML(fsys, "media.yaml", &docs); err != nil {
		return nil, err
	}
	out := make([]model.MediaLink, 0, len(docs))
	for i, d := range docs {
		at, _, err := ParseTime(d.PublishedAt, loc)
		if err != nil {
			return nil, fmt.Errorf("media[%d]: %w", i, err)
		}
		out = append(out, model.MediaLink{
			ID:          ID("media", fmt.Sprint(i)),
			Title:       d.Title,
			Outlet:      d.Outlet,
			URL:         d.URL,
			Kind:        d.Kind,
			PublishedAt: at,
			Summary:     d.Summary,
			Image:       d.Image,
		})
	}
	return out, nil
}

type fundraisingDoc struct {
	Label       string `yaml:"label"`
	URL         string `yaml:"url"`
	Description string `yaml:"description"`
	Priority    *int   `yaml:"priority"`
}

func loadFundraising(fsys fs.FS) ([]model.FundraisingLink, error) {
	var docs []fundraisingDoc
	if err := readYAML(fsys, "fundraising.yaml", &docs); err != nil {
		return nil, err
	}
	out := make([]model.FundraisingLink, 0, len(docs))
	for i, d := range docs {
		l := model.FundraisingLink{
			ID:          ID("fundraising", fmt.Sprint(i)),
			Label:       d.Label,
			URL:         d.URL,
			Description: d.Description,
		}
		if d.Priority != nil {
			l.Priority = *d.Priority
		}
		out = append(out, l)
	}
	return out, nil
}

type settingsDoc struct {
	Title          string              `yaml:"title"`
	Tagline        string              `yaml:"tagline"`
	Description    string              `yaml:"description"`
	CandidateName  string              `yaml:"candidate_name"`
	Hero           model.Hero          `yaml:"hero"`
	SocialLinks    []model.SocialLink  `yaml:"social_links"`
	HeaderNav      []model.NavItem     `yaml:"header_nav"`
	FocusItems     []model.FocusItem   `yaml:"focus_items"`
	SectionCards   []model.SectionCard `yaml:"section_cards"`
	DonateURL      string              `yaml:"donate_url"`
	ContactEmail   string              `yaml:"contact_email"`
	FooterText     string              `yaml:"footer_text"`
	PageVisibility map[string]bool     `yaml:"page_visibility"`
}

func loadSettings(fsys fs.FS) (model.SiteSettings, error) {
	var d settingsDoc
	if err := readYAML(fsys, "settings.yaml", &d); err != nil {
		return model.SiteSettings{}, err
	}
	vis := make(model.PageVisibility, len(d.PageVisibility))
	for k, v := range d.PageVisibility {
		key := model.PageKey(k)
		if !key.Valid() {
			return model.SiteSettings{}, fmt.Errorf("settings.yaml: unknown page key %q", k)
		}
		vis[key] = v
	}
	d.Hero.Actions = nonNil(d.Hero.Actions)
	return model.SiteSettings{
		Title:          d.Title,
		Tagline:        d.Tagline,
		Description:    d.Description,
		CandidateName:  d.CandidateName,
		Hero:           d.Hero,
		SocialLinks:    nonNil(d.SocialLinks),
		HeaderNav:      nonNil(d.HeaderNav),
		FocusItems:     nonNil(d.FocusItems),
		SectionCards:   nonNil(d.SectionCards),
		DonateURL:      d.DonateURL,
		ContactEmail:   d.ContactEmail,
		FooterText:     d.FooterText,
		PageVisibility: vis,
	}, nil
}

type priorityDoc struct {
	Slug    string       `yaml:"slug"`
	Title   string       `yaml:"title"`
	Summary string       `yaml:"summary"`
	Icon    string       `yaml:"icon"`
	Body    string       `yaml:"body"`
	Links   []model.Link `yaml:"links"`
}

type aboutDoc struct {
	Heading    string        `yaml:"heading"`
	Intro      string        `yaml:"intro"`
	Bio        string        `yaml:"bio"`
	Portrait   *model.Image  `yaml:"portrait"`
	Priorities []priorityDoc `yaml:"priorities"`
}

// loadAbout 解析关于页。正文为空的施政重点保持空块，由内容仓库统一补齐。
func loadAbout(fsys fs.FS) (model.About, error) {
	var d aboutDoc
	if err := readYAML(fsys, "about.yaml", &d); err != nil {
		return model.About{}, err
	}
	ps := make([]model.Priority, 0, len(d.Priorities))
	for _, p := range d.Priorities {
		s := strings.TrimSpace(p.Slug)
		if s == "" {
			s = slug.Make(p.Title)
		}
		ps = append(ps, model.Priority{
			Slug:    s,
			Title:   p.Title,
			Summary: p.Summary,
			Icon:    p.Icon,
			Body:    richtext.FromMarkdown([]byte(p.Body)),
			Links:   p.Links,
		})
	}
	return model.About{
		Heading:    d.Heading,
		Intro:      d.Intro,
		Bio:        richtext.FromMarkdown([]byte(d.Bio)),
		Portrait:   d.Portrait,
		Priorities: ps,
	}, nil
}

func readYAML(fsys fs.FS, name string, v any) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
