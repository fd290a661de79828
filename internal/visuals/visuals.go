// 包 visuals 负责页面视觉配置：
// - 每个页面键恰好一份编译期默认配置（Default）
// - 各视觉维度的取值集合与维度默认值（Normalize 用于内容仓库边界的逐字段兜底）
// - 由配置推导页面外壳的 class 列表与 data 属性（Resolver，纯函数）
package visuals

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"go-campaign-site/internal/model"
)

// 各维度取值。
var (
	Backgrounds       = []string{"stately-gradient", "paper-texture", "flag-wash", "plain"}
	Containers        = []string{"narrow", "standard", "wide"}
	Tones             = []string{"default", "warm", "cool", "bold"}
	Motions           = []string{"none", "calm", "lively"}
	TextLinkAnims     = []string{"none", "underline-grow", "highlight"}
	BackgroundAnims   = []string{"none", "drift", "pulse"}
	ScrollReveals     = []string{"none", "fade-up", "slide-in"}
	TimingStrategies  = []string{"keyframes", "transition"}
	DefaultTone       = "default"
	BaseShellClass    = "page-shell"
	ScrollRevealAttr  = "data-scroll-reveal"
	defaultTimingMode = "keyframes"
)

// AxisDefaults 为各维度的命名默认值（查询层 coalesce 与解码兜底都使用它）。
var AxisDefaults = model.PageVisualConfig{
	Background:              "stately-gradient",
	Container:               "standard",
	Tone:                    DefaultTone,
	Motion:                  "calm",
	TextLinkAnimation:       "underline-grow",
	PageBackgroundAnimation: "none",
	ScrollReveal:            "fade-up",
}

var defaults = map[model.PageKey]model.PageVisualConfig{
	model.PageHome: {
		Background: "stately-gradient", Container: "standard", Tone: DefaultTone, Motion: "calm",
		TextLinkAnimation: "underline-grow", PageBackgroundAnimation: "drift", ScrollReveal: "fade-up",
	},
	model.PageAbout: {
		Background: "paper-texture", Container: "narrow", Tone: "warm", Motion: "calm",
		TextLinkAnimation: "underline-grow", PageBackgroundAnimation: "none", ScrollReveal: "fade-up",
	},
	model.PageNews: {
		Background: "plain", Container: "standard", Tone: DefaultTone, Motion: "calm",
		TextLinkAnimation: "highlight", PageBackgroundAnimation: "none", ScrollReveal: "fade-up",
	},
	model.PageEvents: {
		Background: "flag-wash", Container: "wide", Tone: "bold", Motion: "lively",
		TextLinkAnimation: "underline-grow", PageBackgroundAnimation: "pulse", ScrollReveal: "slide-in",
	},
	model.PageMedia: {
		Background: "plain", Container: "wide", Tone: "cool", Motion: "calm",
		TextLinkAnimation: "highlight", PageBackgroundAnimation: "none", ScrollReveal: "fade-up",
	},
	model.PageDonate: {
		Background: "stately-gradient", Container: "narrow", Tone: "bold", Motion: "none",
		TextLinkAnimation: "none", PageBackgroundAnimation: "none", ScrollReveal: "none",
	},
}

// Default 返回页面键对应的默认配置。所有已知页面键都有条目（测试保证）；
// 未知键返回维度默认值。
func Default(key model.PageKey) model.PageVisualConfig {
	if c, ok := defaults[key]; ok {
		return c
	}
	return AxisDefaults
}

func in(values []string) validation.Rule {
	vs := make([]interface{}, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return validation.In(vs...)
}

// Validate 校验配置：每个维度都必须有值且属于取值集合。
func Validate(c model.PageVisualConfig) error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Background, validation.Required, in(Backgrounds)),
		validation.Field(&c.Container, validation.Required, in(Containers)),
		validation.Field(&c.Tone, validation.Required, in(Tones)),
		validation.Field(&c.Motion, validation.Required, in(Motions)),
		validation.Field(&c.TextLinkAnimation, validation.Required, in(TextLinkAnims)),
		validation.Field(&c.PageBackgroundAnimation, validation.Required, in(BackgroundAnims)),
		validation.Field(&c.ScrollReveal, validation.Required, in(ScrollReveals)),
	)
}

// Normalize 逐字段兜底：空值或不在取值集合中的维度替换为该维度默认值。
func Normalize(c model.PageVisualConfig) model.PageVisualConfig {
	pick := func(v string, allowed []string, def string) string {
		v = strings.TrimSpace(v)
		for _, a := range allowed {
			if a == v {
				return v
			}
		}
		return def
	}
	return model.PageVisualConfig{
		Background:              pick(c.Background, Backgrounds, AxisDefaults.Background),
		Container:               pick(c.Container, Containers, AxisDefaults.Container),
		Tone:                    pick(c.Tone, Tones, AxisDefaults.Tone),
		Motion:                  pick(c.Motion, Motions, AxisDefaults.Motion),
		TextLinkAnimation:       pick(c.TextLinkAnimation, TextLinkAnims, AxisDefaults.TextLinkAnimation),
		PageBackgroundAnimation: pick(c.PageBackgroundAnimation, BackgroundAnims, AxisDefaults.PageBackgroundAnimation),
		ScrollReveal:            pick(c.ScrollReveal, ScrollReveals, AxisDefaults.ScrollReveal),
	}
}

// Flags 为环境级开关，进程启动时由配置构造一次。
type Flags struct {
	BackgroundAnimation bool
	TimingStrategy      string // keyframes|transition
}

// Resolver 把视觉配置推导为外壳 class 与 data 属性。
type Resolver struct {
	flags Flags
}

func NewResolver(f Flags) Resolver {
	if f.TimingStrategy != "keyframes" && f.TimingStrategy != "transition" {
		f.TimingStrategy = defaultTimingMode
	}
	return Resolver{flags: f}
}

// ShellClasses 返回顺序稳定的 class 列表：
// page-shell, bg-*, container-*, [tone-*], motion-*, link-anim-*, bg-anim-*, reveal-*, timing-*。
// 背景动画开关关闭时 bg-anim 固定为 none；tone 只在非默认时输出。
func (r Resolver) ShellClasses(c model.PageVisualConfig) []string {
	out := make([]string, 0, 9)
	out = append(out, BaseShellClass, "bg-"+c.Background, "container-"+c.Container)
	if c.Tone != "" && c.Tone != DefaultTone {
		out = append(out, "tone-"+c.Tone)
	}
	bgAnim := c.PageBackgroundAnimation
	if !r.flags.BackgroundAnimation || bgAnim == "" {
		bgAnim = "none"
	}
	out = append(out,
		"motion-"+c.Motion,
		"link-anim-"+c.TextLinkAnimation,
		"bg-anim-"+bgAnim,
		"reveal-"+c.ScrollReveal,
		"timing-"+r.flags.TimingStrategy,
	)
	return out
}

// ClassString 以空格连接 ShellClasses，供模板使用。
func (r Resolver) ClassString(c model.PageVisualConfig) string {
	return strings.Join(r.ShellClasses(c), " ")
}

// ShellDataAttributes 透传滚动显现维度，供客户端观察脚本读取。
func (r Resolver) ShellDataAttributes(c model.PageVisualConfig) map[string]string {
	return map[string]string{ScrollRevealAttr: c.ScrollReveal}
}
