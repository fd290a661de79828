package listing

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"go-campaign-site/internal/imageurl"
	"go-campaign-site/internal/model"
)

func day(d int) time.Time { return time.Date(2026, 10, d, 12, 0, 0, 0, time.UTC) }

func sample() []Item {
	return []Item{
		{ID: "1", Title: "banana", Date: day(3), Tags: []string{"Housing", "transit"}},
		{ID: "2", Title: "Apple", Date: day(1), Tags: []string{"housing"}},
		{ID: "3", Title: "cherry", Date: day(2), Tags: []string{"Volunteer", "HOUSING"}},
		{ID: "4", Title: "date", Date: day(4), Tags: []string{"transit", "AI"}},
	}
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestTagIndex(t *testing.T) {
	got := TagIndex(sample())
	want := []Tag{
		{Key: "housing", Label: "Housing", Count: 3},
		{Key: "transit", Label: "Transit", Count: 2},
		{Key: "ai", Label: "AI", Count: 1},
		{Key: "volunteer", Label: "Volunteer", Count: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tag index (-want +got):\n%s", diff)
	}
}

func TestFilter_CaseInsensitive(t *testing.T) {
	require.Equal(t, []string{"1", "2", "3"}, ids(Filter(sample(), "HouSing")))
	require.Equal(t, []string{"1", "2", "3", "4"}, ids(Filter(sample(), "")))
	require.Empty(t, Filter(sample(), "nope"))
}

func TestSort(t *testing.T) {
	require.Equal(t, []string{"4", "1", "3", "2"}, ids(Sort(sample(), SortDateDesc)))
	require.Equal(t, []string{"2", "3", "1", "4"}, ids(Sort(sample(), SortDateAsc)))
	require.Equal(t, []string{"2", "1", "3", "4"}, ids(Sort(sample(), SortTitle)))
	require.Equal(t, SortDateDesc, ParseSort("bogus", SortDateDesc))
}

func TestState_WindowRules(t *testing.T) {
	s := NewState(SortDateDesc)
	require.Equal(t, Initial, s.Window)

	s = s.Grow(20)
	require.Equal(t, Initial+Increment, s.Window)
	s = s.Grow(14)
	require.Equal(t, 14, s.Window, "bounded by total")
	s = s.Grow(3)
	require.Equal(t, 14, s.Window, "never decreases")

	require.Equal(t, Initial, s.WithTag("housing").Window)
	require.Equal(t, Initial, s.WithSort(SortTitle).Window)

	small := NewState(SortDateDesc)
	require.Equal(t, 3, small.Visible(3))
	require.False(t, small.HasMore(3))
	require.True(t, small.HasMore(7))
}

func TestFromQueryAndApply(t *testing.T) {
	s := FromQuery("housing", "title", "1", SortDateDesc)
	require.Equal(t, Initial, s.Window)
	require.Equal(t, SortTitle, s.Sort)

	var many []Item
	for i := 0; i < 15; i++ {
		many = append(many, Item{ID: string(rune('a' + i)), Title: string(rune('a' + i)), Date: day(i + 1), Tags: []string{"x"}})
	}
	p := Apply(many, FromQuery("X", "date-asc", "12", SortDateDesc))
	require.Equal(t, 15, p.Total)
	require.Len(t, p.Items, 12)
	require.Equal(t, "a", p.Items[0].ID)
	require.Equal(t, "tag=X&sort=date-asc&show=12", p.State.Query())
	require.Equal(t, "tag=X&sort=date-asc&show=15", p.State.Grow(p.Total).Query())
}

func TestTruncate(t *testing.T) {
	s := strings.Repeat("word ", 100)
	got := Truncate(s, 80)
	require.True(t, strings.HasSuffix(got, "…"))
	require.LessOrEqual(t, utf8.RuneCountInString(got), 81)
	require.False(t, strings.HasSuffix(strings.TrimSuffix(got, "…"), " "))
	require.Equal(t, "short", Truncate("short", 80))
	require.Equal(t, "Hello there…", Truncate("Hello there, general", 13))
}

func TestStripHTML(t *testing.T) {
	require.Equal(t, "Hello world and friends", StripHTML("<p>Hello <b>world</b></p>\n<p>and   friends</p>"))
	require.Equal(t, "a b", StripHTML(" a \n b "))
}

func TestPrepare_ImageAndPreviewBudgets(t *testing.T) {
	opts := PrepareOptions{Images: imageurl.Builder{ProjectID: "p", Dataset: "d"}}
	long := strings.Repeat("lorem ipsum ", 60)

	withImg := Prepare(Item{Text: long, Image: &model.Image{Asset: "image-abc-1200x600-jpg", Alt: "x"}}, opts, day(1))
	require.True(t, withImg.HasImage)
	require.InDelta(t, 2.0, withImg.AspectRatio, 1e-9)
	require.Equal(t, 50.0, withImg.PaddingPercent)
	require.Contains(t, withImg.ImageURL, "w=800")
	require.Contains(t, withImg.ImageURL, "h=400")

	noImg := Prepare(Item{Text: long}, opts, day(1))
	require.False(t, noImg.HasImage)
	require.InDelta(t, DefaultAspectRatio, noImg.AspectRatio, 1e-9)
	require.Greater(t, utf8.RuneCountInString(noImg.Preview), utf8.RuneCountInString(withImg.Preview))
	require.LessOrEqual(t, utf8.RuneCountInString(noImg.Preview), DefaultTextPreview+1)

	explicit := Prepare(Item{Image: &model.Image{Asset: "/static/img/a.jpg", AspectRatio: 1.5}}, opts, day(1))
	require.Equal(t, "/static/img/a.jpg", explicit.ImageURL)
	require.Equal(t, 1.5, explicit.AspectRatio)
}

func TestPrepare_BudgetsClamped(t *testing.T) {
	o := PrepareOptions{PhotoPreview: 10, TextPreview: 5000}.withDefaults()
	require.Equal(t, MinPreview, o.PhotoPreview)
	require.Equal(t, MaxPreview, o.TextPreview)
}

func TestHasPassed(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	start := time.Date(2026, 10, 20, 18, 0, 0, 0, ny)
	end := start.Add(2 * time.Hour)
	timed := Item{Kind: KindEvent, Date: start, EndsAt: &end}
	require.False(t, HasPassed(timed, start.Add(time.Hour), ny), "in progress")
	require.True(t, HasPassed(timed, end.Add(time.Minute), ny))

	noEnd := Item{Kind: KindEvent, Date: start}
	require.True(t, HasPassed(noEnd, start.Add(time.Second), ny))

	allDay := Item{Kind: KindEvent, Date: time.Date(2026, 10, 31, 0, 0, 0, 0, ny), AllDay: true}
	// 23:30 纽约时间已是 UTC 次日，但当天尚未结束。
	require.False(t, HasPassed(allDay, time.Date(2026, 10, 31, 23, 30, 0, 0, ny), ny))
	require.True(t, HasPassed(allDay, time.Date(2026, 11, 1, 0, 0, 0, 0, ny), ny))

	p := Prepare(allDay, PrepareOptions{Location: ny}, time.Date(2026, 11, 2, 0, 0, 0, 0, ny))
	require.True(t, p.HasPassed)
	post := Prepare(Item{Kind: KindPost, Date: day(1)}, PrepareOptions{}, day(20))
	require.False(t, post.HasPassed)
}

func TestFromPostsAndEvents(t *testing.T) {
	items := FromPosts([]model.Post{{ID: "p", Slug: "hello", Body: []model.Block{{Children: []model.Span{{Text: "body text"}}}}}})
	require.Equal(t, "/news/hello", items[0].Href)
	require.Equal(t, "body text", items[0].Text)

	ev := FromEvents([]model.Event{{ID: "e", Description: "desc", Location: "Hall", RSVPURL: "https://rsvp"}})
	require.Equal(t, KindEvent, ev[0].Kind)
	require.Equal(t, "Hall", ev[0].Meta)
}
