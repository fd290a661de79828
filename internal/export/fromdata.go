package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-campaign-site/internal/content"
)

// Stats 为导出统计。FallbackPosts 为来自兜底数据集的文章数。
type Stats struct {
	Posts         int       `json:"posts"`
	FallbackPosts int       `json:"fallbackPosts"`
	Events        int       `json:"events"`
	Media         int       `json:"media"`
	Fundraising   int       `json:"fundraising"`
	Priorities    int       `json:"priorities"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

// Document 为 data.json 的顶层结构。
type Document struct {
	Stats Stats `json:"stats"`
	content.Snapshot
}

// ToJSONData 直接把内存中的快照写成 JSON，先写临时文件再原子改名。
func ToJSONData(_ context.Context, snap content.Snapshot, path string) error {
	st := Stats{
		Posts:       len(snap.Posts),
		Events:      len(snap.Events),
		Media:       len(snap.Media),
		Fundraising: len(snap.Fundraising),
		Priorities:  len(snap.About.Priorities),
		GeneratedAt: time.Now().UTC(),
	}
	for _, p := range snap.Posts {
		if strings.HasPrefix(p.ID, "fallback-") {
			st.FallbackPosts++
		}
	}
	out := Document{Stats: st, Snapshot: snap}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode json to %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
