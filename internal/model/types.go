// 包 model 定义站点渲染所需的内容模型（文章/活动/媒体/筹款/站点设置/关于/视觉配置）。
// 所有类型都是解析完成后的形态：只携带归一化后的 ID，不保留内容仓库的 _id 字段。
package model

import "time"

// PageKey 为页面键，取值属于固定的封闭集合。
type PageKey string

const (
	PageHome   PageKey = "home"
	PageAbout  PageKey = "about"
	PageNews   PageKey = "news"
	PageEvents PageKey = "events"
	PageMedia  PageKey = "media"
	PageDonate PageKey = "donate"
)

// PageKeys 返回全部页面键（顺序固定）。
func PageKeys() []PageKey {
	return []PageKey{PageHome, PageAbout, PageNews, PageEvents, PageMedia, PageDonate}
}

// Valid 判断是否为已知页面键。
func (k PageKey) Valid() bool {
	for _, v := range PageKeys() {
		if v == k {
			return true
		}
	}
	return false
}

// PageVisibility 为页面开关：缺省（未设置）视为开启，只有显式 false 才关闭。
type PageVisibility map[PageKey]bool

// Image 为图片引用：Asset 可以是资产引用（image-xxx-WxH-fmt）、绝对 URL 或 /static 路径。
type Image struct {
	Asset       string  `json:"asset" yaml:"asset"`
	Alt         string  `json:"alt,omitempty" yaml:"alt"`
	AspectRatio float64 `json:"aspectRatio,omitempty" yaml:"aspect_ratio"`
}

// Empty 判断图片是否缺省。
func (i *Image) Empty() bool { return i == nil || i.Asset == "" }

// Span 为富文本块中的一段行内文本。
type Span struct {
	Text  string   `json:"text"`
	Marks []string `json:"marks,omitempty"`
}

// MarkDef 为行内标注定义（当前仅链接）。
type MarkDef struct {
	Key  string `json:"_key"`
	Type string `json:"_type"`
	Href string `json:"href,omitempty"`
}

// Block 为一段富文本（段落/标题/引用/列表项）。
type Block struct {
	Key      string    `json:"_key,omitempty"`
	Style    string    `json:"style"`
	ListItem string    `json:"listItem,omitempty"`
	Level    int       `json:"level,omitempty"`
	Children []Span    `json:"children"`
	MarkDefs []MarkDef `json:"markDefs,omitempty"`
}

// Link 为通用链接（按钮/导航/相关链接）。
type Link struct {
	Label string `json:"label" yaml:"label"`
	URL   string `json:"url" yaml:"url"`
}

// Post 为新闻文章。
type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	PublishedAt time.Time `json:"publishedAt"`
	Excerpt     string    `json:"excerpt,omitempty"`
	Body        []Block   `json:"body"`
	Tags        []string  `json:"tags"`
	Image       *Image    `json:"image,omitempty"`
	Author      string    `json:"author,omitempty"`
}

// Event 为竞选活动。EndsAt 可为空；AllDay 表示只有日期没有具体时间。
type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	StartsAt    time.Time  `json:"startsAt"`
	EndsAt      *time.Time `json:"endsAt,omitempty"`
	AllDay      bool       `json:"allDay,omitempty"`
	Location    string     `json:"location,omitempty"`
	Description string     `json:"description,omitempty"`
	Tags        []string   `json:"tags"`
	Image       *Image     `json:"image,omitempty"`
	RSVPURL     string     `json:"rsvpUrl,omitempty"`
}

// MediaLink 为媒体报道链接（文章/视频/播客）。
type MediaLink struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Outlet      string    `json:"outlet,omitempty"`
	URL         string    `json:"url"`
	Kind        string    `json:"kind,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
	Summary     string    `json:"summary,omitempty"`
	Image       *Image    `json:"image,omitempty"`
}

// FundraisingLink 为筹款链接，Priority 越大越靠前。
type FundraisingLink struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Priority    int    `json:"priority"`
}

// SocialLink 为社交账号链接。
type SocialLink struct {
	Platform string `json:"platform" yaml:"platform"`
	URL      string `json:"url" yaml:"url"`
	Handle   string `json:"handle,omitempty" yaml:"handle"`
}

// NavItem 为顶部导航项；Page 非空时受页面开关控制。
type NavItem struct {
	Label string  `json:"label" yaml:"label"`
	Href  string  `json:"href" yaml:"href"`
	Page  PageKey `json:"page,omitempty" yaml:"page"`
}

// FocusItem 为首页“关注议题”条目。
type FocusItem struct {
	Title string `json:"title" yaml:"title"`
	Text  string `json:"text" yaml:"text"`
	Icon  string `json:"icon,omitempty" yaml:"icon"`
}

// SectionCard 为首页分区卡片。
type SectionCard struct {
	Title string  `json:"title" yaml:"title"`
	Text  string  `json:"text" yaml:"text"`
	Href  string  `json:"href" yaml:"href"`
	Page  PageKey `json:"page,omitempty" yaml:"page"`
	Image *Image  `json:"image,omitempty" yaml:"image"`
}

// Hero 为首页头图区。
type Hero struct {
	Heading    string `json:"heading" yaml:"heading"`
	Subheading string `json:"subheading" yaml:"subheading"`
	Image      *Image `json:"image,omitempty" yaml:"image"`
	Actions    []Link `json:"actions" yaml:"actions"`
}

// SiteSettings 为站点级设置（单例文档）。
type SiteSettings struct {
	Title          string         `json:"title"`
	Tagline        string         `json:"tagline"`
	Description    string         `json:"description"`
	CandidateName  string         `json:"candidateName"`
	Hero           Hero           `json:"hero"`
	SocialLinks    []SocialLink   `json:"socialLinks"`
	HeaderNav      []NavItem      `json:"headerNav"`
	FocusItems     []FocusItem    `json:"focusItems"`
	SectionCards   []SectionCard  `json:"sectionCards"`
	DonateURL      string         `json:"donateUrl"`
	ContactEmail   string         `json:"contactEmail"`
	FooterText     string         `json:"footerText"`
	PageVisibility PageVisibility `json:"pageVisibility,omitempty"`
}

// Priority 为一项施政重点。Links 永不为 nil。
type Priority struct {
	Slug    string  `json:"slug"`
	Title   string  `json:"title"`
	Summary string  `json:"summary"`
	Icon    string  `json:"icon,omitempty"`
	Body    []Block `json:"body"`
	Links   []Link  `json:"links"`
}

// About 为“关于/施政重点”页。
type About struct {
	Heading    string     `json:"heading"`
	Intro      string     `json:"intro"`
	Bio        []Block    `json:"bio"`
	Portrait   *Image     `json:"portrait,omitempty"`
	Priorities []Priority `json:"priorities"`
}

// PageVisualConfig 为页面视觉配置：每个视觉维度恰好一个取值。
type PageVisualConfig struct {
	Background              string `json:"background"`
	Container               string `json:"container"`
	Tone                    string `json:"tone"`
	Motion                  string `json:"motion"`
	TextLinkAnimation       string `json:"textLinkAnimation"`
	PageBackgroundAnimation string `json:"pageBackgroundAnimation"`
	ScrollReveal            string `json:"scrollReveal"`
}
