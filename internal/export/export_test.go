package export

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go-campaign-site/internal/content"
	"go-campaign-site/internal/fallback"
	"go-campaign-site/internal/model"
)

type fixed content.Snapshot

func (f fixed) All(context.Context) content.Snapshot { return content.Snapshot(f) }

func TestSnapshot_WritesDocument(t *testing.T) {
	fb := fallback.Default()
	snap := content.Snapshot{
		Settings:    fb.Settings(),
		About:       fb.About(),
		Posts:       append(fb.Posts(), model.Post{ID: "live-1", Title: "live", Slug: "live"}),
		Events:      fb.Events(),
		Media:       fb.Media(),
		Fundraising: fb.FundraisingLinks(),
		Visuals:     map[model.PageKey]model.PageVisualConfig{model.PageHome: {Background: "plain"}},
	}
	out := filepath.Join(t.TempDir(), "public", "data.json")
	if err := Snapshot(context.Background(), fixed(snap), out); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Stats.Posts != len(snap.Posts) || doc.Stats.FallbackPosts != len(snap.Posts)-1 {
		t.Fatalf("stats=%+v", doc.Stats)
	}
	if doc.Stats.GeneratedAt.IsZero() {
		t.Fatalf("generatedAt missing")
	}
	if doc.Visuals[model.PageHome].Background != "plain" || doc.Settings.Title != snap.Settings.Title {
		t.Fatalf("document content mismatch")
	}
	if _, err := os.Stat(out + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}
