package rules

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_AndGetPreset(t *testing.T) {
	p := filepath.Join(t.TempDir(), "rules.yaml")
	body := `
Default:
  press_page:
    item: ".post"
    title: "h2"
    link: "a@href"
wordpress:
  press_page:
    item: "article"
    title: ".entry-title"
    link: ".entry-title a@href"
    date: "time@datetime"
`
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	wp, ok := r.GetPreset("WordPress")
	if !ok || wp.PressPage == nil || wp.PressPage.Date != "time@datetime" {
		t.Fatalf("case-insensitive lookup failed: %+v", wp)
	}
	def, ok := r.GetPreset("")
	if !ok || def.PressPage.Item != ".post" {
		t.Fatalf("empty name should resolve Default: %+v", def)
	}
}

func TestGetPreset_UnknownFallsBackToDefault(t *testing.T) {
	r := &Rules{Presets: map[string]Preset{
		"default": {PressPage: &PressPage{Item: ".d"}},
		"other":   {PressPage: &PressPage{Item: ".o"}},
	}}
	p, ok := r.GetPreset("missing")
	if !ok || p.PressPage.Item != ".d" {
		t.Fatalf("fallback failed: %+v", p)
	}
	var nilRules *Rules
	if _, ok := nilRules.GetPreset("x"); ok {
		t.Fatalf("nil rules should not resolve")
	}
	if _, ok := (&Rules{Presets: map[string]Preset{"a": {}}}).GetPreset("b"); ok {
		t.Fatalf("no default preset should not resolve")
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	p := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(p, []byte("x:\n  press_page:\n    title: h2\n"), 0o644)
	if _, err := Load(p); err == nil {
		t.Fatalf("expected error for preset without item")
	}
}
