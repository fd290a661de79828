package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go-campaign-site/internal/export"
	"go-campaign-site/internal/fallback"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeSettings(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	return p
}

func TestExport_ContentStoreDownWritesFallback(t *testing.T) {
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer store.Close()

	cfgPath := writeSettings(t, "content_store:\n  endpoint: "+store.URL+"\nlog:\n  level: off\n")
	out := filepath.Join(t.TempDir(), "data.json")
	if _, err := run(t, "--config", cfgPath, "export", "--out", out); err != nil {
		t.Fatalf("export: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var doc export.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	fb := fallback.Default()
	if doc.Settings.Title != fb.Settings().Title {
		t.Fatalf("title=%q", doc.Settings.Title)
	}
	if doc.Stats.Posts != len(fb.Posts()) || doc.Stats.FallbackPosts != doc.Stats.Posts {
		t.Fatalf("stats=%+v", doc.Stats)
	}
	if len(doc.Visuals) != 6 {
		t.Fatalf("visuals=%d", len(doc.Visuals))
	}
}

func TestCache_SQLiteCommands(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "cache.db")
	cfgPath := writeSettings(t, "content_store:\n  project_id: p\ncache:\n  type: sqlite\n  dsn: "+dsn+"\nlog:\n  level: off\n")

	out, err := run(t, "--config", cfgPath, "cache", "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "entries=0") {
		t.Fatalf("stats output=%q", out)
	}
	out, err = run(t, "--config", cfgPath, "cache", "purge", "--older-than", "1h")
	if err != nil || !strings.Contains(out, "purged=0") {
		t.Fatalf("purge: out=%q err=%v", out, err)
	}
	out, err = run(t, "--config", cfgPath, "cache", "reset")
	if err != nil || !strings.Contains(out, "cache cleared") {
		t.Fatalf("reset: out=%q err=%v", out, err)
	}
}

func TestCache_MemoryRejected(t *testing.T) {
	cfgPath := writeSettings(t, "content_store:\n  project_id: p\nlog:\n  level: off\n")
	if _, err := run(t, "--config", cfgPath, "cache", "stats"); err == nil {
		t.Fatalf("expected error for memory cache")
	}
}

func TestPress_RequiresSources(t *testing.T) {
	cfgPath := writeSettings(t, "content_store:\n  project_id: p\nlog:\n  level: off\n")
	if _, err := run(t, "--config", cfgPath, "press"); err == nil {
		t.Fatalf("expected error without sources")
	}
}
