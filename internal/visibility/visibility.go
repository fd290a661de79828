// 包 visibility 为页面开关：页面处理函数在任何内容查询之前先检查页面是否启用。
package visibility

import (
	"context"
	"errors"
	"fmt"

	"go-campaign-site/internal/content"
	"go-campaign-site/internal/logx"
	"go-campaign-site/internal/model"
)

// ErrPageDisabled 表示页面被站点设置关闭；它包装 content.ErrNotFound，按 404 处理。
var ErrPageDisabled = fmt.Errorf("page disabled: %w", content.ErrNotFound)

// IsPageEnabled 只有显式 false 才返回 false；缺省视为启用。
func IsPageEnabled(m model.PageVisibility, key model.PageKey) bool {
	enabled, set := m[key]
	return !set || enabled
}

// SettingsSource 提供解析后的站点设置（由 content.Repository 实现）。
type SettingsSource interface {
	SiteSettings(ctx context.Context) model.SiteSettings
}

// Gate 为页面开关守卫。
type Gate struct {
	src SettingsSource
}

func NewGate(src SettingsSource) *Gate { return &Gate{src: src} }

// AssertPageEnabled 读取站点设置（不走缓存），页面关闭时返回 ErrPageDisabled。
func (g *Gate) AssertPageEnabled(ctx context.Context, key model.PageKey) error {
	if IsPageEnabled(g.src.SiteSettings(ctx).PageVisibility, key) {
		return nil
	}
	logx.FromContext(ctx).Debug("页面已关闭", "page", key)
	return ErrPageDisabled
}

// IsDisabled 判断错误是否为页面关闭。
func IsDisabled(err error) bool { return errors.Is(err, ErrPageDisabled) }

// FilterNav 过滤掉指向已关闭页面的导航项。
func FilterNav(items []model.NavItem, m model.PageVisibility) []model.NavItem {
	out := make([]model.NavItem, 0, len(items))
	for _, it := range items {
		if it.Page != "" && !IsPageEnabled(m, it.Page) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// FilterCards 过滤掉指向已关闭页面的首页卡片。
func FilterCards(cards []model.SectionCard, m model.PageVisibility) []model.SectionCard {
	out := make([]model.SectionCard, 0, len(cards))
	for _, c := range cards {
		if c.Page != "" && !IsPageEnabled(m, c.Page) {
			continue
		}
		out = append(out, c)
	}
	return out
}
