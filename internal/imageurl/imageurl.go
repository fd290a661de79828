// 包 imageurl 根据图片资产引用生成图片服务的变换 URL（裁剪、自动格式）。
// 资产引用形如 image-<id>-<W>x<H>-<fmt>；绝对 URL 与站内 /static 路径原样返回。
package imageurl

import (
	"net/url"
	"strconv"
	"strings"
)

// Builder 为图片 URL 构造器（只读，可并发使用）。
type Builder struct {
	BaseURL   string // 默认 https://cdn.sanity.io
	ProjectID string
	Dataset   string
}

type asset struct {
	id     string
	width  int
	height int
	format string
}

// parse 解析 image-<id>-<W>x<H>-<fmt>。
func parse(ref string) (asset, bool) {
	if !strings.HasPrefix(ref, "image-") {
		return asset{}, false
	}
	parts := strings.Split(strings.TrimPrefix(ref, "image-"), "-")
	if len(parts) < 3 {
		return asset{}, false
	}
	format := parts[len(parts)-1]
	dims := strings.SplitN(parts[len(parts)-2], "x", 2)
	if len(dims) != 2 {
		return asset{}, false
	}
	w, err1 := strconv.Atoi(dims[0])
	h, err2 := strconv.Atoi(dims[1])
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 || format == "" {
		return asset{}, false
	}
	return asset{
		id:     strings.Join(parts[:len(parts)-2], "-"),
		width:  w,
		height: h,
		format: format,
	}, true
}

func passthrough(ref string) bool {
	return strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// URL 返回变换后的图片地址；width/height 为 0 表示不限制。引用为空时返回 ok=false。
func (b Builder) URL(ref string, width, height int) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	if passthrough(ref) {
		return ref, true
	}
	a, ok := parse(ref)
	if !ok {
		return "", false
	}
	base := strings.TrimRight(b.BaseURL, "/")
	if base == "" {
		base = "https://cdn.sanity.io"
	}
	u := base + "/images/" + url.PathEscape(b.ProjectID) + "/" + url.PathEscape(b.Dataset) + "/" +
		a.id + "-" + strconv.Itoa(a.width) + "x" + strconv.Itoa(a.height) + "." + a.format
	q := url.Values{}
	if width > 0 {
		q.Set("w", strconv.Itoa(width))
	}
	if height > 0 {
		q.Set("h", strconv.Itoa(height))
	}
	if width > 0 && height > 0 {
		q.Set("fit", "crop")
	}
	q.Set("auto", "format")
	return u + "?" + q.Encode(), true
}

// AspectRatio 从资产引用中解析宽高比；无法解析时返回 0。
func AspectRatio(ref string) float64 {
	a, ok := parse(strings.TrimSpace(ref))
	if !ok {
		return 0
	}
	return float64(a.width) / float64(a.height)
}
