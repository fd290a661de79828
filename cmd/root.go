// 包 cmd 为命令行入口（cobra）：
// - 全局 --config 指定 settings.yaml，加载配置并初始化日志
// - serve 启动站点（含媒体报道后台聚合与模板热加载）
// - export 以生产构建语义导出 data.json
// - cache 查看/清理持久化查询缓存
// - press 抓取一次媒体来源并打印结果（调试来源配置）
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go-campaign-site/internal/config"
	"go-campaign-site/internal/logx"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "campaign-site",
	Short:         "Campaign website content layer and server",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = c
		logx.Init(logx.Options{
			Level:  c.Log.Level,
			Format: c.Log.Format,
			Locale: c.Log.Locale,
			Color:  c.Log.Color,
		})
		return nil
	},
}

// Execute 执行根命令，出错时打印并以非零状态退出。
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./settings.yaml when present)")
	rootCmd.AddCommand(serveCmd, exportCmd, cacheCmd, pressCmd)
}
