// 包 config 负责加载与校验应用配置（settings.yaml + CAMPAIGN_* 环境变量），
// 对外提供结构体 Config 及默认值/合法性校验。配置在进程启动时构造一次，
// 之后以参数形式传给各组件，业务代码不直接读取环境变量。
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

const (
	PhaseServe           = "serve"
	PhaseProductionBuild = "production-build"

	TimingKeyframes  = "keyframes"
	TimingTransition = "transition"

	CacheMemory = "memory"
	CacheSQLite = "sqlite"
)

// EnvPrefix 为环境变量前缀，例如 CAMPAIGN_CONTENT_STORE_PROJECT_ID。
const EnvPrefix = "CAMPAIGN"

type Config struct {
	ContentStore ContentStore `mapstructure:"content_store"`
	Cache        Cache        `mapstructure:"cache"`
	Features     Features     `mapstructure:"features"`
	Phase        string       `mapstructure:"phase"` // serve|production-build
	Server       Server       `mapstructure:"server"`
	Press        Press        `mapstructure:"press"`
	Images       Images       `mapstructure:"images"`
	TimeZone     string       `mapstructure:"time_zone"`
	Log          Log          `mapstructure:"log"`
}

// ContentStore 为内容仓库连接参数。Endpoint 为空时按 project_id 推导。
type ContentStore struct {
	ProjectID         string `mapstructure:"project_id"`
	Dataset           string `mapstructure:"dataset"`
	APIVersion        string `mapstructure:"api_version"`
	Endpoint          string `mapstructure:"endpoint"`
	RevalidateSeconds int    `mapstructure:"revalidate_seconds"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
}

type Cache struct {
	Type         string `mapstructure:"type"` // memory|sqlite
	Size         int    `mapstructure:"size"`
	DSN          string `mapstructure:"dsn"`
	ResetOnStart bool   `mapstructure:"reset_on_start"`
}

// Features 为全局视觉开关。
type Features struct {
	BackgroundAnimation bool   `mapstructure:"background_animation"`
	TimingStrategy      string `mapstructure:"timing_strategy"` // keyframes|transition
}

type Server struct {
	Addr         string `mapstructure:"addr"`
	TemplatesDir string `mapstructure:"templates_dir"`
	Watch        bool   `mapstructure:"watch"`
}

// PressSource 为外部媒体来源：FeedSuffix 可选，用于提升订阅发现命中率；
// Preset 非空时不做订阅发现，按 rules.yaml 中的同名预设直接抓取列表页。
type PressSource struct {
	Name       string `mapstructure:"name"`
	URL        string `mapstructure:"url"`
	FeedSuffix string `mapstructure:"feed_suffix"`
	Preset     string `mapstructure:"preset"`
}

type Press struct {
	Sources     []PressSource `mapstructure:"sources"`
	Rules       string        `mapstructure:"rules"`
	MaxItems    int           `mapstructure:"max_items"`
	Concurrency int           `mapstructure:"concurrency"`
	Retry       int           `mapstructure:"retry"`
	// RefreshMinutes 为 serve 模式下后台刷新间隔，0 表示只在启动时抓取一次。
	RefreshMinutes int `mapstructure:"refresh_minutes"`
}

type Images struct {
	BaseURL string `mapstructure:"base_url"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text|json|pretty
	Locale string `mapstructure:"locale"` // zh-CN|en
	Color  string `mapstructure:"color"`  // auto|always|never
}

// Load 读取配置文件（可为空）与环境变量并完成校验。
// path 为空时在当前目录查找 settings.yaml，找不到则只使用默认值与环境变量。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("settings")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("content_store.project_id", "")
	v.SetDefault("content_store.dataset", "production")
	v.SetDefault("content_store.api_version", "2024-06-01")
	v.SetDefault("content_store.endpoint", "")
	v.SetDefault("content_store.revalidate_seconds", 60)
	v.SetDefault("content_store.timeout_seconds", 10)
	v.SetDefault("cache.type", CacheMemory)
	v.SetDefault("cache.size", 256)
	v.SetDefault("cache.dsn", "./cache.db")
	v.SetDefault("cache.reset_on_start", false)
	v.SetDefault("features.background_animation", false)
	v.SetDefault("features.timing_strategy", TimingKeyframes)
	v.SetDefault("phase", PhaseServe)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.templates_dir", "")
	v.SetDefault("server.watch", false)
	v.SetDefault("press.rules", "")
	v.SetDefault("press.max_items", 10)
	v.SetDefault("press.concurrency", 4)
	v.SetDefault("press.retry", 1)
	v.SetDefault("press.refresh_minutes", 30)
	v.SetDefault("images.base_url", "https://cdn.sanity.io")
	v.SetDefault("time_zone", "America/New_York")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "pretty")
	v.SetDefault("log.locale", "zh-CN")
	v.SetDefault("log.color", "auto")
}

// Validate 负责合法性检查与默认值设置，避免在业务层分散判空逻辑。
func (c *Config) Validate() error {
	if c.Phase == "" {
		c.Phase = PhaseServe
	}
	if c.Cache.Type == "" {
		c.Cache.Type = CacheMemory
	}
	if c.Cache.Size <= 0 {
		c.Cache.Size = 256
	}
	if c.Cache.DSN == "" {
		c.Cache.DSN = "./cache.db"
	}
	if c.Features.TimingStrategy == "" {
		c.Features.TimingStrategy = TimingKeyframes
	}
	if c.TimeZone == "" {
		c.TimeZone = "America/New_York"
	}
	if c.Press.Concurrency <= 0 {
		c.Press.Concurrency = 4
	}
	if c.Log.Format == "" {
		c.Log.Format = "pretty"
	}
	if c.Log.Locale == "" {
		c.Log.Locale = "zh-CN"
	}
	if c.Log.Color == "" {
		c.Log.Color = "auto"
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.ContentStore),
		validation.Field(&c.Cache),
		validation.Field(&c.Features),
		validation.Field(&c.Phase, validation.In(PhaseServe, PhaseProductionBuild)),
		validation.Field(&c.Press),
		validation.Field(&c.TimeZone, validation.By(checkZone)),
		validation.Field(&c.Log),
	)
}

func (s ContentStore) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.ProjectID, validation.When(s.Endpoint == "", validation.Required.Error("project_id or endpoint is required"))),
		validation.Field(&s.Dataset, validation.Required),
		validation.Field(&s.APIVersion, validation.Required),
		validation.Field(&s.RevalidateSeconds, validation.Min(0)),
		validation.Field(&s.TimeoutSeconds, validation.Min(0)),
	)
}

func (c Cache) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Type, validation.In(CacheMemory, CacheSQLite)),
	)
}

func (f Features) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.TimingStrategy, validation.In(TimingKeyframes, TimingTransition)),
	)
}

func (p Press) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.MaxItems, validation.Min(0)),
		validation.Field(&p.Retry, validation.Min(0)),
		validation.Field(&p.RefreshMinutes, validation.Min(0)),
		validation.Field(&p.Sources, validation.Each(validation.By(func(v interface{}) error {
			src, _ := v.(PressSource)
			if strings.TrimSpace(src.URL) == "" {
				return errors.New("press source url is required")
			}
			if src.Preset != "" && p.Rules == "" {
				return fmt.Errorf("press source %q uses preset %q but press.rules is empty", src.Name, src.Preset)
			}
			return nil
		}))),
	)
}

func (l Log) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Format, validation.In("text", "json", "pretty")),
		validation.Field(&l.Color, validation.In("auto", "always", "never")),
	)
}

func checkZone(v interface{}) error {
	name, _ := v.(string)
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("unknown time zone %q", name)
	}
	return nil
}

// Location 返回参考时区；校验已保证可加载。
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ProductionBuild 表示当前是否处于生产构建阶段（影响缓存绕过策略）。
func (c *Config) ProductionBuild() bool { return c.Phase == PhaseProductionBuild }

// Revalidate 返回内容查询的缓存时长。
func (c *Config) Revalidate() time.Duration {
	return time.Duration(c.ContentStore.RevalidateSeconds) * time.Second
}

// Timeout 返回内容仓库请求超时，0 表示使用 HTTP 客户端默认值。
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.ContentStore.TimeoutSeconds) * time.Second
}
