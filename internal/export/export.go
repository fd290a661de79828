// 包 export 负责静态构建导出：把解析后的全部内容写为 data.json。
package export

import (
	"context"
	"fmt"

	"go-campaign-site/internal/content"
	"go-campaign-site/internal/logx"
)

// Source 为导出所需的内容来源（由 content.Repository 实现）。
type Source interface {
	All(ctx context.Context) content.Snapshot
}

// Snapshot 解析全部内容并写入 path（带缩进格式）。
// 调用方应以生产构建阶段构造网关，使 Revalidate=0 的查询也能复用缓存。
func Snapshot(ctx context.Context, src Source, path string) error {
	snap := src.All(ctx)
	if err := ToJSONData(ctx, snap, path); err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	logx.Infof("导出完成：文章=%d 活动=%d 媒体=%d 筹款=%d -> %s",
		len(snap.Posts), len(snap.Events), len(snap.Media), len(snap.Fundraising), path)
	return nil
}
