// 包 listing 为列表页（新闻/活动）的展示逻辑，全部是纯函数：
// - 标签索引与按标签过滤（大小写不敏感）
// - 排序模式（日期倒序/日期正序/标题）
// - 分批显示窗口（初始数量，每次增长固定数量，不会缩小）
// - 单条派生属性（图片地址与宽高比、摘要截断、活动是否已结束）
package listing

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"go-campaign-site/internal/model"
	"go-campaign-site/internal/richtext"
)

const (
	KindPost  = "post"
	KindEvent = "event"
)

// Item 为列表条目（文章或活动的统一视图）。
type Item struct {
	Kind   string
	ID     string
	Title  string
	Href   string
	Date   time.Time // 文章为发布时间，活动为开始时间
	EndsAt *time.Time
	AllDay bool
	Tags   []string
	Text   string // 摘要/描述，可能含 HTML
	Meta   string // 作者或地点
	Image  *model.Image
}

// FromPosts 把文章转换为列表条目；摘要为空时使用正文纯文本。
func FromPosts(ps []model.Post) []Item {
	out := make([]Item, 0, len(ps))
	for _, p := range ps {
		text := p.Excerpt
		if strings.TrimSpace(text) == "" {
			text = richtext.PlainText(p.Body)
		}
		out = append(out, Item{
			Kind:  KindPost,
			ID:    p.ID,
			Title: p.Title,
			Href:  "/news/" + p.Slug,
			Date:  p.PublishedAt,
			Tags:  p.Tags,
			Text:  text,
			Meta:  p.Author,
			Image: p.Image,
		})
	}
	return out
}

// FromEvents 把活动转换为列表条目。
func FromEvents(es []model.Event) []Item {
	out := make([]Item, 0, len(es))
	for _, e := range es {
		out = append(out, Item{
			Kind:   KindEvent,
			ID:     e.ID,
			Title:  e.Title,
			Href:   e.RSVPURL,
			Date:   e.StartsAt,
			EndsAt: e.EndsAt,
			AllDay: e.AllDay,
			Tags:   e.Tags,
			Text:   e.Description,
			Meta:   e.Location,
			Image:  e.Image,
		})
	}
	return out
}

// ---- 标签 ----

// Tag 为标签索引项。Key 为折叠后的比较键。
type Tag struct {
	Key   string
	Label string
	Count int
}

// Matches 判断 tag 是否与该标签相同（大小写不敏感）。
func (t Tag) Matches(tag string) bool { return t.Key == foldKey(tag) }

func foldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// TagIndex 统计标签：按出现次数倒序，次数相同按键字母序。
// 显示名取首次出现的写法并做标题化（保留原有大写）。
func TagIndex(items []Item) []Tag {
	title := cases.Title(language.English, cases.NoLower)
	idx := map[string]*Tag{}
	for _, it := range items {
		seen := map[string]bool{}
		for _, raw := range it.Tags {
			k := foldKey(raw)
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			t, ok := idx[k]
			if !ok {
				t = &Tag{Key: k, Label: title.String(strings.TrimSpace(raw))}
				idx[k] = t
			}
			t.Count++
		}
	}
	out := make([]Tag, 0, len(idx))
	for _, t := range idx {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// HasTag 判断条目是否带有标签（大小写不敏感）。
func HasTag(it Item, tag string) bool {
	k := foldKey(tag)
	for _, t := range it.Tags {
		if foldKey(t) == k {
			return true
		}
	}
	return false
}

// Filter 按标签过滤；空标签返回全部。返回新切片。
func Filter(items []Item, tag string) []Item {
	out := make([]Item, 0, len(items))
	if strings.TrimSpace(tag) == "" {
		return append(out, items...)
	}
	for _, it := range items {
		if HasTag(it, tag) {
			out = append(out, it)
		}
	}
	return out
}

// ---- 排序 ----

// SortMode 为排序模式。
type SortMode string

const (
	SortDateDesc SortMode = "date-desc"
	SortDateAsc  SortMode = "date-asc"
	SortTitle    SortMode = "title"
)

// SortModes 返回全部排序模式（界面选项顺序）。
func SortModes() []SortMode { return []SortMode{SortDateDesc, SortDateAsc, SortTitle} }

// ParseSort 解析排序模式；未知值返回 def。
func ParseSort(s string, def SortMode) SortMode {
	for _, m := range SortModes() {
		if string(m) == s {
			return m
		}
	}
	return def
}

// Sort 返回按 mode 排序后的新切片（稳定排序）。
func Sort(items []Item, mode SortMode) []Item {
	out := append([]Item(nil), items...)
	switch mode {
	case SortDateAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	case SortTitle:
		col := cases.Fold()
		sort.SliceStable(out, func(i, j int) bool { return col.String(out[i].Title) < col.String(out[j].Title) })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	}
	return out
}

// ---- 分批窗口 ----

const (
	Initial   = 6
	Increment = 6
)

// State 为一次列表浏览的临时状态（随请求参数传递，不持久化）。
type State struct {
	Tag    string
	Sort   SortMode
	Window int
}

// NewState 返回初始状态；def 为页面默认排序。
func NewState(def SortMode) State {
	return State{Sort: def, Window: Initial}
}

// FromQuery 从请求参数恢复状态；show 非法或小于初始值时取初始值。
func FromQuery(tag, sortMode, show string, def SortMode) State {
	s := NewState(def)
	s.Tag = strings.TrimSpace(tag)
	s.Sort = ParseSort(sortMode, def)
	if n, err := strconv.Atoi(show); err == nil && n > Initial {
		s.Window = n
	}
	return s
}

// WithTag 切换标签并重置窗口。
func (s State) WithTag(tag string) State {
	s.Tag = strings.TrimSpace(tag)
	s.Window = Initial
	return s
}

// WithSort 切换排序并重置窗口。
func (s State) WithSort(m SortMode) State {
	s.Sort = m
	s.Window = Initial
	return s
}

// Grow 增长窗口：每次加 Increment，不超过 total，也不会缩小。
func (s State) Grow(total int) State {
	next := s.Window + Increment
	if next > total {
		next = total
	}
	if next > s.Window {
		s.Window = next
	}
	return s
}

// Visible 返回窗口内可见条数。
func (s State) Visible(total int) int {
	if s.Window < total {
		return s.Window
	}
	return total
}

// HasMore 判断是否还有未显示的条目。
func (s State) HasMore(total int) bool { return s.Window < total }

// Page 为一次应用状态后的结果。
type Page struct {
	State State
	Items []Item // 窗口内条目
	Total int    // 过滤后的总数
	Tags  []Tag  // 全量标签索引（过滤前）
}

// Apply 依次做过滤、排序与窗口截取。
func Apply(items []Item, s State) Page {
	filtered := Sort(Filter(items, s.Tag), s.Sort)
	return Page{
		State: s,
		Items: filtered[:s.Visible(len(filtered))],
		Total: len(filtered),
		Tags:  TagIndex(items),
	}
}

// Query 生成保持当前状态的查询串（供“加载更多”与过滤链接使用）。
func (s State) Query() string {
	var parts []string
	if s.Tag != "" {
		parts = append(parts, "tag="+url.QueryEscape(s.Tag))
	}
	if s.Sort != "" {
		parts = append(parts, "sort="+string(s.Sort))
	}
	if s.Window != Initial {
		parts = append(parts, "show="+strconv.Itoa(s.Window))
	}
	return strings.Join(parts, "&")
}
