package listing

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"go-campaign-site/internal/imageurl"
)

// 摘要长度（字符数）。无图布局的预算大于带图布局，二者都限制在 [MinPreview, MaxPreview]。
const (
	DefaultPhotoPreview = 140
	DefaultTextPreview  = 320
	MinPreview          = 80
	MaxPreview          = 480

	DefaultAspectRatio = 16.0 / 9.0
	DefaultImageWidth  = 800
)

// PrepareOptions 为派生属性的参数。
type PrepareOptions struct {
	Images       imageurl.Builder
	ImageWidth   int
	PhotoPreview int
	TextPreview  int
	Location     *time.Location // 全天活动按此时区计算当天结束
}

func (o PrepareOptions) withDefaults() PrepareOptions {
	if o.ImageWidth <= 0 {
		o.ImageWidth = DefaultImageWidth
	}
	if o.PhotoPreview == 0 {
		o.PhotoPreview = DefaultPhotoPreview
	}
	if o.TextPreview == 0 {
		o.TextPreview = DefaultTextPreview
	}
	o.PhotoPreview = clamp(o.PhotoPreview, MinPreview, MaxPreview)
	o.TextPreview = clamp(o.TextPreview, MinPreview, MaxPreview)
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PreparedItem 为单条派生视图，每次渲染重新计算。
type PreparedItem struct {
	Item
	ImageURL       string
	ImageAlt       string
	HasImage       bool
	AspectRatio    float64
	PaddingPercent float64 // 100/宽高比，用于占位
	Preview        string
	HasPassed      bool
}

// Prepare 计算单条派生属性。
func Prepare(it Item, opts PrepareOptions, now time.Time) PreparedItem {
	opts = opts.withDefaults()
	p := PreparedItem{Item: it, AspectRatio: DefaultAspectRatio}
	if !it.Image.Empty() {
		if r := it.Image.AspectRatio; r > 0 {
			p.AspectRatio = r
		} else if r := imageurl.AspectRatio(it.Image.Asset); r > 0 {
			p.AspectRatio = r
		}
		h := int(math.Round(float64(opts.ImageWidth) / p.AspectRatio))
		if u, ok := opts.Images.URL(it.Image.Asset, opts.ImageWidth, h); ok {
			p.ImageURL, p.HasImage = u, true
			p.ImageAlt = it.Image.Alt
		}
	}
	p.PaddingPercent = math.Round(10000/p.AspectRatio) / 100

	budget := opts.TextPreview
	if p.HasImage {
		budget = opts.PhotoPreview
	}
	p.Preview = Truncate(StripHTML(it.Text), budget)

	if it.Kind == KindEvent {
		p.HasPassed = HasPassed(it, now, opts.Location)
	}
	return p
}

// PrepareAll 对列表逐条计算派生属性。
func PrepareAll(items []Item, opts PrepareOptions, now time.Time) []PreparedItem {
	out := make([]PreparedItem, len(items))
	for i, it := range items {
		out[i] = Prepare(it, opts, now)
	}
	return out
}

// HasPassed 以结束时间（缺省为开始时间）与 now 比较；
// 全天活动以参考时区中该日期的结束为界。
func HasPassed(it Item, now time.Time, loc *time.Location) bool {
	end := it.Date
	if it.EndsAt != nil {
		end = *it.EndsAt
	}
	if it.AllDay {
		if loc == nil {
			loc = time.UTC
		}
		y, m, d := end.In(loc).Date()
		return !now.Before(time.Date(y, m, d+1, 0, 0, 0, 0, loc))
	}
	return now.After(end)
}

// StripHTML 去掉 HTML 标签并折叠空白；不含 '<' 的文本只做空白折叠。
func StripHTML(s string) string {
	if strings.ContainsRune(s, '<') {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// Truncate 在不超过 budget 个字符的最后一个词边界处截断并追加省略号。
func Truncate(s string, budget int) string {
	rs := []rune(s)
	if budget <= 0 || len(rs) <= budget {
		return s
	}
	cut := budget
	for i := budget; i > 0; i-- {
		if unicode.IsSpace(rs[i]) {
			cut = i
			break
		}
	}
	out := strings.TrimRightFunc(string(rs[:cut]), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	return out + "…"
}
