// 包 feeds 负责外部媒体订阅的发现与解析：
// - DiscoverFeed：先试常见订阅路径，再解析 HTML <link rel=alternate>
// - ParseFeed：使用 gofeed 解析 RSS/Atom/JSON Feed，转换为媒体报道条目
package feeds

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"go-campaign-site/internal/logx"
	"go-campaign-site/internal/model"
)

// Getter 为订阅抓取所需的 HTTP 能力（由 fetch.Client 实现）。
type Getter interface {
	Get(ctx context.Context, rawURL string) (*http.Response, error)
}

// DiscoverFeed 依次探测候选订阅地址；都失败时解析站点 HTML 的 <link>。
func DiscoverFeed(ctx context.Context, cl Getter, site string, feedSuffix string) (string, error) {
	var candidates []string
	if feedSuffix != "" {
		// 站点根与子路径两种拼接语义都试
		candidates = append(candidates, joinURL(site, feedSuffix), joinURLDir(site, feedSuffix))
	}
	// 媒体栏目常挂在子路径下（/tag/candidate、/author/x），先按目录拼接
	for _, p := range []string{"feed", "rss", "index.xml", "atom.xml", "feed.xml"} {
		candidates = append(candidates, joinURLDir(site, p))
	}
	for _, p := range []string{"/feed", "/rss", "/feed.xml", "/rss.xml", "/atom.xml", "/index.xml", "/feed.json", "/?feed=rss2"} {
		candidates = append(candidates, joinURL(site, p))
	}

	tried := map[string]bool{}
	for _, u := range candidates {
		if tried[u] {
			continue
		}
		tried[u] = true
		logx.Debugf("探测候选订阅：%s", u)
		if probeFeed(ctx, cl, u) {
			return u, nil
		}
	}

	resp, err := cl.Get(ctx, site)
	if err != nil {
		return "", fmt.Errorf("GET site %s: %w", site, err)
	}
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	var found string
	doc.Find(`link[rel~="alternate"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := strings.ToLower(s.AttrOr("type", ""))
		href := s.AttrOr("href", "")
		if href != "" && (strings.Contains(t, "rss") || strings.Contains(t, "atom") || strings.Contains(t, "json")) {
			found = joinURL(site, href)
			return false
		}
		return true
	})
	if found != "" && probeFeed(ctx, cl, found) {
		logx.Debugf("从 <link> 发现订阅：%s", found)
		return found, nil
	}
	return "", fmt.Errorf("no feed discovered for %s", site)
}

// probeFeed 根据 Content-Type 与内容头部粗略判断是否为订阅。
func probeFeed(ctx context.Context, cl Getter, feedURL string) bool {
	prCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	resp, err := cl.Get(prCtx, feedURL)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	head, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	lb := bytes.ToLower(head)
	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	switch {
	case strings.Contains(ct, "rss"), strings.Contains(ct, "atom"), strings.Contains(ct, "xml"):
		return true
	case strings.Contains(ct, "json"):
		return bytes.Contains(lb, []byte("jsonfeed.org/version"))
	}
	return bytes.Contains(lb, []byte("<rss")) || bytes.Contains(lb, []byte("<feed")) ||
		bytes.Contains(lb, []byte("<rdf")) || bytes.Contains(lb, []byte("jsonfeed.org/version"))
}

// joinURL 将 ref 解析为相对 base 的绝对 URL。
func joinURL(base, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	u, err := url.Parse(base)
	if err != nil {
		return base + ref
	}
	ru, err := url.Parse(ref)
	if err != nil {
		return base + ref
	}
	return u.ResolveReference(ru).String()
}

// joinURLDir 把 base 当作目录拼接 ref（即便 base 不以 / 结尾）。
func joinURLDir(base, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	ref = strings.TrimPrefix(ref, "/")
	u, err := url.Parse(base)
	if err != nil {
		return strings.TrimSuffix(base, "/") + "/" + ref
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	ru, err := url.Parse(ref)
	if err != nil {
		return u.String() + ref
	}
	return u.ResolveReference(ru).String()
}

// ParseFeed 解析订阅并转换为媒体报道条目（最多 max 条，0 表示不限制）。
// outlet 为来源名称；为空时使用订阅标题。
func ParseFeed(ctx context.Context, cl Getter, feedURL, outlet string, max int) ([]model.MediaLink, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 25*time.Second)
	defer cancel()
	// gofeed 不接收自定义 http.Client，先抓取再解析
	resp, err := cl.Get(reqCtx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("GET feed %s: %w", feedURL, err)
	}
	defer resp.Body.Close()
	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}
	if outlet == "" {
		outlet = strings.TrimSpace(feed.Title)
	}
	out := make([]model.MediaLink, 0, len(feed.Items))
	for _, it := range feed.Items {
		link := strings.TrimSpace(it.Link)
		if link == "" {
			continue
		}
		link = joinURL(feedURL, link)
		m := model.MediaLink{
			ID:          PressID(link),
			Title:       strings.TrimSpace(it.Title),
			Outlet:      outlet,
			URL:         link,
			Kind:        kindOf(it),
			PublishedAt: pickTime(it.PublishedParsed, it.UpdatedParsed),
			Summary:     plain(it.Description),
		}
		if it.Image != nil && it.Image.URL != "" {
			m.Image = &model.Image{Asset: joinURL(feedURL, it.Image.URL), Alt: it.Image.Title}
		}
		out = append(out, m)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out, nil
}

// PressID 为聚合条目生成稳定 ID（按链接的 UUIDv5）。
func PressID(link string) string {
	return "press-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(link)).String()
}

// kindOf 根据附件类型推断报道形式。
func kindOf(it *gofeed.Item) string {
	for _, e := range it.Enclosures {
		switch {
		case strings.HasPrefix(e.Type, "audio/"):
			return "podcast"
		case strings.HasPrefix(e.Type, "video/"):
			return "video"
		}
	}
	return "article"
}

func pickTime(a, b *time.Time) time.Time {
	if a != nil {
		return *a
	}
	if b != nil {
		return *b
	}
	return time.Time{}
}

// plain 去掉摘要中的 HTML。
func plain(s string) string {
	s = strings.TrimSpace(s)
	if strings.ContainsRune(s, '<') {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}
