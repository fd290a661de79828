package cmd

import (
	"github.com/spf13/cobra"

	"go-campaign-site/internal/config"
	"go-campaign-site/internal/export"
	"go-campaign-site/internal/logx"
)

var exportPath string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Resolve all content and write data.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		// 导出总是按生产构建语义运行，使 Revalidate=0 的查询也能复用缓存。
		cfg.Phase = config.PhaseProductionBuild
		ctx := cmd.Context()
		d, err := build(ctx, cfg)
		if err != nil {
			return err
		}
		defer d.Close()
		if d.press != nil {
			if err := d.press.Run(ctx); err != nil {
				logx.Warnf("媒体聚合中断：%v", err)
			}
		}
		return export.Snapshot(ctx, d.repo, exportPath)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportPath, "out", "o", "public/data.json", "output path")
}
