package cmd

import (
	"context"
	"fmt"
	"time"

	"go-campaign-site/internal/aggregate"
	"go-campaign-site/internal/config"
	"go-campaign-site/internal/content"
	"go-campaign-site/internal/fetch"
	"go-campaign-site/internal/gateway"
	"go-campaign-site/internal/logx"
	"go-campaign-site/internal/rules"
	"go-campaign-site/internal/store"
)

const userAgent = "campaign-site/1.0 (+content-gateway)"

// deps 为一次命令执行所需的组件。
type deps struct {
	store   *store.SQLite
	gwHTTP  *fetch.Client
	press   *aggregate.Runner
	pressCl *fetch.Client
	gateway *gateway.Client
	repo    *content.Repository
}

// openStore 在 cache.type=sqlite 时打开持久化缓存，按需在启动时清空。
func openStore(ctx context.Context, c *config.Config) (*store.SQLite, error) {
	if c.Cache.Type != config.CacheSQLite {
		return nil, nil
	}
	st, err := store.OpenSQLite(c.Cache.DSN)
	if err != nil {
		return nil, err
	}
	if c.Cache.ResetOnStart {
		if err := st.Reset(ctx); err != nil {
			logx.Warnf("启动清理缓存失败：%v", err)
		} else {
			logx.Infof("已清理查询缓存")
		}
	}
	return st, nil
}

// build 按配置组装网关、缓存、媒体聚合与内容仓库。
// 网关的 HTTP 客户端不重试：失败直接按缺省处理并走兜底数据。
func build(ctx context.Context, c *config.Config) (*deps, error) {
	d := &deps{}
	var err error
	if d.store, err = openStore(ctx, c); err != nil {
		return nil, err
	}

	var cache gateway.Cache
	if d.store != nil {
		cache = gateway.NewSQLiteCache(d.store)
	} else {
		mc, err := gateway.NewMemoryCache(c.Cache.Size)
		if err != nil {
			d.Close()
			return nil, err
		}
		cache = mc
	}

	d.gwHTTP, err = fetch.New(fetch.Options{Timeout: c.Timeout(), Retry: 0, UserAgent: userAgent})
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("http client: %w", err)
	}
	d.gateway, err = gateway.New(d.gwHTTP, gateway.Settings{
		Endpoint:        c.ContentStore.Endpoint,
		ProjectID:       c.ContentStore.ProjectID,
		Dataset:         c.ContentStore.Dataset,
		APIVersion:      c.ContentStore.APIVersion,
		ProductionBuild: c.ProductionBuild(),
		Cache:           cache,
	})
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("content gateway: %w", err)
	}

	opts := content.Options{Revalidate: c.Revalidate(), Location: c.Location()}
	if len(c.Press.Sources) > 0 {
		d.pressCl, err = fetch.New(fetch.Options{Timeout: 20 * time.Second, Retry: c.Press.Retry, UserAgent: userAgent})
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("press client: %w", err)
		}
		rl, err := loadRules(c)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.press = aggregate.New(c.Press, d.pressCl, rl)
		opts.Press = d.press
	}
	d.repo = content.New(d.gateway, nil, opts)
	return d, nil
}

// loadRules 在配置了 press.rules 时加载页面抓取预设。
func loadRules(c *config.Config) (*rules.Rules, error) {
	if c.Press.Rules == "" {
		return nil, nil
	}
	rl, err := rules.Load(c.Press.Rules)
	if err != nil {
		return nil, fmt.Errorf("press rules: %w", err)
	}
	return rl, nil
}

// Close 释放连接与数据库。
func (d *deps) Close() {
	if d.gwHTTP != nil {
		d.gwHTTP.CloseIdle()
	}
	if d.pressCl != nil {
		d.pressCl.CloseIdle()
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			logx.Warnf("关闭缓存数据库失败：%v", err)
		}
	}
}
