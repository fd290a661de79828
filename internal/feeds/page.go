package feeds

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"go-campaign-site/internal/model"
	"go-campaign-site/internal/rules"
)

// ParsePage 根据选择器预设从没有订阅的报道列表页抽取条目（最多 max 条，0 表示不限制）。
// 规则语法：
// - 文本：".title" 或 "."（取当前项文本）
// - 属性："a@href"/"time@datetime"/"@href"（当前项属性）
// - 回退：使用 "||" 连接多个候选，按先后尝试
func ParsePage(ctx context.Context, cl Getter, pageURL, outlet string, preset rules.Preset, max int) ([]model.MediaLink, error) {
	if preset.PressPage == nil {
		return nil, nil
	}
	resp, err := cl.Get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("GET press page %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("parse press page html: %w", err)
	}
	pp := preset.PressPage
	var out []model.MediaLink
	doc.Find(pp.Item).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title := strings.Join(strings.Fields(getVal(s, pp.Title)), " ")
		link := abs(pageURL, getVal(s, pp.Link))
		if title == "" || link == "" {
			return true
		}
		m := model.MediaLink{
			ID:          PressID(link),
			Title:       title,
			Outlet:      outlet,
			URL:         link,
			Kind:        "article",
			PublishedAt: parseDate(getVal(s, pp.Date)),
			Summary:     plain(getVal(s, pp.Summary)),
		}
		if img := abs(pageURL, getVal(s, pp.Image)); img != "" {
			m.Image = &model.Image{Asset: img, Alt: title}
		}
		out = append(out, m)
		return max <= 0 || len(out) < max
	})
	return out, nil
}

// getVal 解析表达式并支持使用 "||" 作为回退分隔，例如："a@href||@href" 或 ".title||h2||."。
func getVal(scope *goquery.Selection, expr string) string {
	for _, p := range strings.Split(strings.TrimSpace(expr), "||") {
		if v := getValSingle(scope, strings.TrimSpace(p)); v != "" {
			return v
		}
	}
	return ""
}

// getValSingle 解析单个表达式：文本或属性读取。
func getValSingle(scope *goquery.Selection, expr string) string {
	if expr == "" {
		return ""
	}
	if expr == "." {
		return strings.TrimSpace(scope.Text())
	}
	if at := strings.Index(expr, "@"); at != -1 {
		sel := strings.TrimSpace(expr[:at])
		attr := strings.TrimSpace(expr[at+1:])
		el := scope
		if sel != "" {
			el = scope.Find(sel).First()
		}
		val, _ := el.Attr(attr)
		return strings.TrimSpace(val)
	}
	return strings.TrimSpace(scope.Find(expr).First().Text())
}

// abs 将相对链接转换为绝对 URL。
func abs(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	bu, err := url.Parse(base)
	if err != nil {
		return ref
	}
	ru, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return bu.ResolveReference(ru).String()
}

var pageDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	time.RFC1123Z,
	time.RFC1123,
}

// parseDate 尝试常见日期格式，均失败时返回零值（排序时沉底）。
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range pageDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
