// 包 gateway 为内容仓库查询网关：
// - 以 GET 方式把查询文本与参数（JSON 编码）拼到查询 URL 上
// - 可选缓存（按查询 URL 为键，按 Revalidate 判定是否过期）
// - 任何网络/状态码/解码失败或 result 为 null 都返回“缺省”信号，不返回错误、不重试
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go-campaign-site/internal/logx"
)

// MinBuildRevalidate 为生产构建阶段 Revalidate=0 时使用的最小缓存时长。
const MinBuildRevalidate = 60 * time.Second

// maxBody 限制单次响应体大小。
const maxBody = 8 << 20

// Getter 为网关依赖的 HTTP 能力（由 fetch.Client 实现，重试次数须为 0）。
type Getter interface {
	GetWithHeaders(ctx context.Context, rawURL string, headers map[string]string) (*http.Response, error)
}

// Params 为命名查询参数，值按 JSON 编码传输（3 与 "3" 可区分）。
type Params map[string]any

// Options 为单次查询的缓存选项：Revalidate=0 表示不使用缓存。
type Options struct {
	Revalidate time.Duration
}

// NoCache 为总是重新拉取的选项（站点设置/视觉配置使用）。
var NoCache = Options{}

// Settings 为网关构造参数。
type Settings struct {
	Endpoint        string // 为空时使用 https://<ProjectID>.api.sanity.io
	ProjectID       string
	Dataset         string
	APIVersion      string
	ProductionBuild bool
	Cache           Cache // 可为空
}

// Client 为内容查询网关。并发安全：除缓存外不持有可变状态。
type Client struct {
	http            Getter
	queryURL        string
	productionBuild bool
	cache           Cache
	now             func() time.Time
}

// New 创建网关。
func New(g Getter, s Settings) (*Client, error) {
	base := strings.TrimRight(s.Endpoint, "/")
	if base == "" {
		if s.ProjectID == "" {
			return nil, fmt.Errorf("gateway: project id or endpoint required")
		}
		base = "https://" + s.ProjectID + ".api.sanity.io"
	}
	version := strings.TrimPrefix(s.APIVersion, "v")
	if version == "" {
		version = "2024-06-01"
	}
	dataset := s.Dataset
	if dataset == "" {
		dataset = "production"
	}
	return &Client{
		http:            g,
		queryURL:        fmt.Sprintf("%s/v%s/data/query/%s", base, version, url.PathEscape(dataset)),
		productionBuild: s.ProductionBuild,
		cache:           s.Cache,
		now:             time.Now,
	}, nil
}

// BuildURL 生成查询 URL：query、perspective=published 以及每个参数一项 $name=<json>。
func (c *Client) BuildURL(query string, params Params) (string, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("perspective", "published")
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b, err := json.Marshal(params[name])
		if err != nil {
			return "", fmt.Errorf("encode param %s: %w", name, err)
		}
		q.Set("$"+name, string(b))
	}
	return c.queryURL + "?" + q.Encode(), nil
}

// ttl 返回有效缓存时长：生产构建阶段 0 会被替换为 MinBuildRevalidate。
func (c *Client) ttl(o Options) time.Duration {
	if o.Revalidate > 0 {
		return o.Revalidate
	}
	if c.productionBuild {
		return MinBuildRevalidate
	}
	return 0
}

// Fetch 执行查询并返回 result 原始 JSON；第二个返回值为 false 表示缺省。
func (c *Client) Fetch(ctx context.Context, query string, params Params, opts Options) (json.RawMessage, bool) {
	log := logx.FromContext(ctx)
	u, err := c.BuildURL(query, params)
	if err != nil {
		log.Warn("内容查询参数编码失败", "err", err)
		return nil, false
	}
	ttl := c.ttl(opts)
	if ttl > 0 && c.cache != nil {
		if body, at, ok := c.cache.Lookup(ctx, u); ok && c.now().Sub(at) < ttl {
			log.Debug("内容查询命中缓存", "age", c.now().Sub(at).Round(time.Millisecond))
			return json.RawMessage(body), true
		}
	}

	result, err := c.do(ctx, u)
	if err != nil {
		log.Warn("内容查询失败，使用兜底数据", "err", err)
		return nil, false
	}
	if ttl > 0 && c.cache != nil {
		c.cache.Save(ctx, u, result, c.now())
	}
	return result, true
}

func (c *Client) do(ctx context.Context, u string) (json.RawMessage, error) {
	resp, err := c.http.GetWithHeaders(ctx, u, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fmt.Errorf("GET content store: %w", err)
	}
	defer resp.Body.Close()
	var env struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if r := bytes.TrimSpace(env.Result); len(r) == 0 || bytes.Equal(r, []byte("null")) {
		return nil, fmt.Errorf("empty result")
	}
	return env.Result, nil
}
