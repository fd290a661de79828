package content

import (
	"testing"

	"go-campaign-site/internal/model"
)

func TestCoalesce(t *testing.T) {
	if Coalesce("", "fb") != "fb" || Coalesce("live", "fb") != "live" {
		t.Fatalf("string coalesce")
	}
	if Coalesce(0, 5) != 5 || Coalesce(3, 5) != 3 {
		t.Fatalf("int coalesce")
	}
	if got := CoalesceSlice([]string{}, []string{"fb"}); len(got) != 1 || got[0] != "fb" {
		t.Fatalf("empty slice should fall back: %v", got)
	}
	if got := CoalesceSlice([]string{"a"}, []string{"fb"}); got[0] != "a" {
		t.Fatalf("live slice kept: %v", got)
	}
	fbVis := model.PageVisibility{model.PageNews: true}
	if got := CoalesceMap(model.PageVisibility{}, fbVis); !got[model.PageNews] {
		t.Fatalf("empty map should fall back")
	}
	img := &model.Image{Asset: "a"}
	if CoalescePtr(nil, img) != img {
		t.Fatalf("nil pointer should fall back")
	}
}
