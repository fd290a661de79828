// 包 fetch 封装 HTTP 客户端（代理/超时/可选重试/UA），
// 供内容仓库网关（不重试）与外部媒体订阅抓取（可重试）共用。
package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"
)

// DefaultUserAgent 可被环境变量 CAMPAIGN_UA 或 Options.UserAgent 覆盖。
const DefaultUserAgent = "go-campaign-site/1.0 (+https://github.com/)"

// Client 为可选重试的 HTTP 客户端。
type Client struct {
	http  *http.Client
	retry int
	ua    string
}

// Options 为客户端构造参数；Retry 为 0 时每次 Get 只发一次请求。
type Options struct {
	ProxyHTTP  string
	ProxyHTTPS string
	Timeout    time.Duration
	Retry      int
	UserAgent  string
}

// New 创建客户端，支持 http/https 代理与基础超时配置。
func New(opts Options) (*Client, error) {
	for _, p := range []string{opts.ProxyHTTP, opts.ProxyHTTPS} {
		if p == "" {
			continue
		}
		if _, err := url.Parse(p); err != nil {
			return nil, fmt.Errorf("parse proxy %s: %w", p, err)
		}
	}
	transport := &http.Transport{
		Proxy: func(req *http.Request) (*url.URL, error) {
			if req.URL.Scheme == "https" && opts.ProxyHTTPS != "" {
				return url.Parse(opts.ProxyHTTPS)
			}
			if req.URL.Scheme == "http" && opts.ProxyHTTP != "" {
				return url.Parse(opts.ProxyHTTP)
			}
			return http.ProxyFromEnvironment(req)
		},
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConnsPerHost:   8,
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Retry < 0 {
		opts.Retry = 0
	}
	ua := opts.UserAgent
	if v := os.Getenv("CAMPAIGN_UA"); v != "" {
		ua = v
	}
	if ua == "" {
		ua = DefaultUserAgent
	}
	return &Client{
		http:  &http.Client{Transport: transport, Timeout: opts.Timeout},
		retry: opts.Retry,
		ua:    ua,
	}, nil
}

// Get 发起 GET；非 2xx 视为失败。重试次数为 Retry，回退为线性递增。
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	return c.GetWithHeaders(ctx, rawURL, nil)
}

// GetWithHeaders 与 Get 相同，附加请求头（如 Accept）。
func (c *Client) GetWithHeaders(ctx context.Context, rawURL string, headers map[string]string) (*http.Response, error) {
	var lastErr error
	for i := 0; i <= c.retry; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i) * 300 * time.Millisecond):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("User-Agent", c.ua)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}
		lastErr = fmt.Errorf("http status: %s", resp.Status)
		resp.Body.Close()
	}
	return nil, lastErr
}

// CloseIdle 关闭空闲连接（测试与进程退出时使用）。
func (c *Client) CloseIdle() { c.http.CloseIdleConnections() }
