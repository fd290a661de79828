package content

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"go-campaign-site/internal/fallback"
	"go-campaign-site/internal/fetch"
	"go-campaign-site/internal/gateway"
	"go-campaign-site/internal/model"
	"go-campaign-site/internal/richtext"
	"go-campaign-site/internal/visuals"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeQuerier 按查询文本返回预设结果；未预设的查询视为缺省。
type fakeQuerier struct {
	mu      sync.Mutex
	results map[string]string
	calls   []string
	params  []gateway.Params
	opts    []gateway.Options
}

func (f *fakeQuerier) Fetch(_ context.Context, query string, params gateway.Params, opts gateway.Options) (json.RawMessage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, query)
	f.params = append(f.params, params)
	f.opts = append(f.opts, opts)
	body, ok := f.results[query]
	if !ok {
		return nil, false
	}
	return json.RawMessage(body), true
}

func newRepo(results map[string]string) (*Repository, *fakeQuerier) {
	q := &fakeQuerier{results: results}
	return New(q, fallback.Default(), Options{Revalidate: time.Minute}), q
}

func isSortedDesc(ps []model.Post) bool {
	return sort.SliceIsSorted(ps, func(i, j int) bool { return ps[i].PublishedAt.After(ps[j].PublishedAt) })
}

func TestPostsAll_SortedForEverySource(t *testing.T) {
	live := `[
	  {"_id":"a","title":"Old","slug":"old","publishedAt":"2026-01-01T00:00:00Z"},
	  {"_id":"b","title":"New","slug":"new","publishedAt":"2026-03-01T00:00:00Z"},
	  {"_id":"c","title":"Mid","slug":"mid","publishedAt":"2026-02-01T00:00:00Z"}
	]`
	r, _ := newRepo(map[string]string{qPostsAll: live})
	got := r.PostsAll(context.Background())
	require.Len(t, got, 3)
	require.Equal(t, []string{"b", "c", "a"}, []string{got[0].ID, got[1].ID, got[2].ID})
	require.NotNil(t, got[0].Tags)
	require.NotNil(t, got[0].Body)

	for name, res := range map[string]map[string]string{
		"absent": {},
		"empty":  {qPostsAll: `[]`},
		"broken": {qPostsAll: `{"not":"a list"}`},
	} {
		r, _ := newRepo(res)
		got := r.PostsAll(context.Background())
		require.Len(t, got, len(fallback.Default().Posts()), name)
		require.True(t, isSortedDesc(got), name)
	}
}

func TestPostsRecent(t *testing.T) {
	r, _ := newRepo(nil)
	require.Empty(t, r.PostsRecent(context.Background(), 0))
	require.NotNil(t, r.PostsRecent(context.Background(), 0))

	got := r.PostsRecent(context.Background(), 3)
	require.Len(t, got, 3)
	all := r.PostsAll(context.Background())
	require.Equal(t, all[:3], got)

	require.Len(t, r.PostsRecent(context.Background(), 100), len(all), "never pads")
}

func TestPostBySlug(t *testing.T) {
	r, q := newRepo(map[string]string{
		qPostBySlug: `{"_id":"live-1","title":"Live","slug":"live","publishedAt":"2026-05-01T00:00:00Z"}`,
	})
	p, ok := r.PostBySlug(context.Background(), "live")
	require.True(t, ok)
	require.Equal(t, "live-1", p.ID)
	require.Equal(t, gateway.Params{"slug": "live"}, q.params[0])

	r, _ = newRepo(nil)
	p, ok = r.PostBySlug(context.Background(), "launching-an-ai-first-campaign")
	require.True(t, ok)
	require.Equal(t, "launching-an-ai-first-campaign", p.Slug)

	_, ok = r.PostBySlug(context.Background(), "unknown-slug-xyz")
	require.False(t, ok)
	_, ok = r.PostBySlug(context.Background(), "  ")
	require.False(t, ok)
}

func TestEventsUpcoming_IDNormalizedAndSortedAsc(t *testing.T) {
	live := `[
	  {"_id":"e2","title":"Later","startsAt":"2026-11-02T18:00:00Z"},
	  {"_id":"e1","title":"Sooner","startsAt":"2026-11-01T18:00:00Z","endsAt":"2026-11-01T20:00:00Z"},
	  {"_id":"e3","title":"All day","startsAt":"2026-10-30"}
	]`
	r, _ := newRepo(map[string]string{qEvents: live})
	got := r.EventsUpcoming(context.Background())
	require.Len(t, got, 3)
	require.Equal(t, []string{"e3", "e1", "e2"}, []string{got[0].ID, got[1].ID, got[2].ID})
	require.True(t, got[0].AllDay)
	require.NotNil(t, got[1].EndsAt)
	require.Equal(t, "sooner", got[1].Slug)

	raw, err := json.Marshal(got[0])
	require.NoError(t, err)
	require.NotContains(t, string(raw), "_id")

	r, _ = newRepo(nil)
	fb := r.EventsUpcoming(context.Background())
	require.NotEmpty(t, fb)
	require.True(t, sort.SliceIsSorted(fb, func(i, j int) bool { return fb[i].StartsAt.Before(fb[j].StartsAt) }))
}

type staticPress []model.MediaLink

func (s staticPress) Items() []model.MediaLink { return s }

func TestMedia(t *testing.T) {
	live := `[
	  {"_id":"m1","title":"A","url":"https://x.example/a","publishedAt":"2026-01-01T00:00:00Z"},
	  {"_id":"m2","title":"B","url":"https://x.example/b","publishedAt":"2026-03-01T00:00:00Z"}
	]`
	q := &fakeQuerier{results: map[string]string{qMedia: live}}
	press := staticPress{
		{ID: "p1", Title: "dup", URL: "https://X.example/a/", PublishedAt: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "p2", Title: "C", URL: "https://y.example/c", PublishedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
	}
	r := New(q, nil, Options{Press: press})
	got := r.Media(context.Background(), 0)
	require.Equal(t, []string{"m2", "p2", "m1"}, []string{got[0].ID, got[1].ID, got[2].ID})
	require.Len(t, r.Media(context.Background(), 2), 2)

	r, _ = newRepo(nil)
	fb := r.Media(context.Background(), -1)
	require.Len(t, fb, len(fallback.Default().Media()))
	require.True(t, sort.SliceIsSorted(fb, func(i, j int) bool { return fb[i].PublishedAt.After(fb[j].PublishedAt) }))
}

func TestMedia_StoreDownKeepsFallbackAlongsidePress(t *testing.T) {
	press := staticPress{
		{ID: "p1", Title: "Press", URL: "https://y.example/p", PublishedAt: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)},
	}
	r := New(&fakeQuerier{}, nil, Options{Press: press})
	got := r.Media(context.Background(), 0)
	require.Len(t, got, len(fallback.Default().Media())+1)
	ids := map[string]bool{}
	for _, m := range got {
		ids[m.ID] = true
	}
	require.True(t, ids["p1"])
	for _, m := range fallback.Default().Media() {
		require.True(t, ids[m.ID], m.ID)
	}
}

func TestMedia_KeepsLiveItemsWithoutURL(t *testing.T) {
	live := `[
	  {"_id":"m1","title":"Radio spot","publishedAt":"2026-01-01T00:00:00Z"},
	  {"_id":"m2","title":"Print","url":"https://x.example/b","publishedAt":"2026-03-01T00:00:00Z"},
	  {"_id":"m3","title":"TV spot","publishedAt":"2026-02-01T00:00:00Z"}
	]`
	press := staticPress{{ID: "p1", Title: "dup", URL: "https://x.example/b", PublishedAt: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)}}
	r := New(&fakeQuerier{results: map[string]string{qMedia: live}}, nil, Options{Press: press})
	got := r.Media(context.Background(), 0)
	ids := make([]string, len(got))
	for i, m := range got {
		ids[i] = m.ID
	}
	require.Equal(t, []string{"m2", "m3", "m1"}, ids)
}

func TestFundraisingLinks_PriorityDefaultsAndOrder(t *testing.T) {
	live := `[
	  {"_id":"f1","label":"one","url":"u1","priority":1},
	  {"_id":"f2","label":"none","url":"u2"},
	  {"_id":"f3","label":"three","url":"u3","priority":3},
	  {"_id":"f4","label":"none too","url":"u4","priority":null}
	]`
	r, _ := newRepo(map[string]string{qFundraising: live})
	got := r.FundraisingLinks(context.Background())
	ids := make([]string, len(got))
	for i, l := range got {
		ids[i] = l.ID
	}
	require.Equal(t, []string{"f3", "f1", "f2", "f4"}, ids)
	require.Equal(t, 0, got[2].Priority)

	r, _ = newRepo(nil)
	fb := r.FundraisingLinks(context.Background())
	require.True(t, sort.SliceIsSorted(fb, func(i, j int) bool { return fb[i].Priority > fb[j].Priority }))
	require.Equal(t, 0, fb[len(fb)-1].Priority)
}

func TestSiteSettings_FieldLevelFallback(t *testing.T) {
	fb := fallback.Default().Settings()

	r, q := newRepo(map[string]string{qSettings: `{"title":"Live title","socialLinks":[],"headerNav":[{"label":"Home","href":"/"}],"hero":{"heading":"Live hero"}}`})
	got := r.SiteSettings(context.Background())
	require.Equal(t, gateway.NoCache, q.opts[0])
	require.Equal(t, "Live title", got.Title)
	require.Equal(t, fb.Tagline, got.Tagline)
	require.Equal(t, fb.SocialLinks, got.SocialLinks)
	require.Equal(t, []model.NavItem{{Label: "Home", Href: "/"}}, got.HeaderNav)
	require.Equal(t, "Live hero", got.Hero.Heading)
	require.Equal(t, fb.Hero.Actions, got.Hero.Actions)
	require.Equal(t, fb.FocusItems, got.FocusItems)

	social := `{"socialLinks":[{"platform":"bluesky","url":"https://bsky.app/profile/x"}]}`
	r, _ = newRepo(map[string]string{qSettings: social})
	got = r.SiteSettings(context.Background())
	require.Equal(t, []model.SocialLink{{Platform: "bluesky", URL: "https://bsky.app/profile/x"}}, got.SocialLinks)

	r, _ = newRepo(nil)
	if diff := cmp.Diff(fb, r.SiteSettings(context.Background())); diff != "" {
		t.Fatalf("absent settings (-want +got):\n%s", diff)
	}
}

func TestSiteSettings_PageVisibility(t *testing.T) {
	r, _ := newRepo(map[string]string{qSettings: `{"pageVisibility":{"news":false,"blog":false}}`})
	got := r.SiteSettings(context.Background())
	require.Equal(t, model.PageVisibility{model.PageNews: false}, got.PageVisibility)
}

func TestSiteSettings_PageVisibilityNullIsUnset(t *testing.T) {
	r, _ := newRepo(map[string]string{qSettings: `{"title":"x","pageVisibility":{"news":null,"media":false}}`})
	got := r.SiteSettings(context.Background())
	_, set := got.PageVisibility[model.PageNews]
	require.False(t, set, "null must not disable the page")
	require.Equal(t, model.PageVisibility{model.PageMedia: false}, got.PageVisibility)
	require.Equal(t, "x", got.Title)

	r, _ = newRepo(map[string]string{qSettings: `{"pageVisibility":{"news":null}}`})
	got = r.SiteSettings(context.Background())
	require.Empty(t, got.PageVisibility)
}

func TestAbout_PriorityCompletion(t *testing.T) {
	live := `{"heading":"Live","priorities":[
	  {"slug":"jobs","title":"Jobs","summary":"Good jobs for all.","body":[]},
	  {"title":"Clean Air","summary":"Breathe.","links":[{"label":"Plan","url":"https://x.example"}]}
	]}`
	r, _ := newRepo(map[string]string{qAbout: live})
	a := r.About(context.Background())
	require.Equal(t, "Live", a.Heading)
	require.Equal(t, fallback.Default().About().Intro, a.Intro)
	require.Len(t, a.Priorities, 2)

	jobs := a.Priorities[0]
	require.Equal(t, richtext.Paragraph("Good jobs for all."), jobs.Body)
	require.NotNil(t, jobs.Links)
	require.Empty(t, jobs.Links)

	require.Equal(t, "clean-air", a.Priorities[1].Slug)
	require.Len(t, a.Priorities[1].Links, 1)

	p, ok := r.PriorityBySlug(context.Background(), "clean-air")
	require.True(t, ok)
	require.Equal(t, "Clean Air", p.Title)
	_, ok = r.PriorityBySlug(context.Background(), "nope")
	require.False(t, ok)
}

func TestAbout_FallbackPrioritiesAreComplete(t *testing.T) {
	r, _ := newRepo(nil)
	for _, p := range r.About(context.Background()).Priorities {
		require.NotEmpty(t, p.Body, p.Slug)
		require.NotNil(t, p.Links, p.Slug)
	}
	transit, ok := r.PriorityBySlug(context.Background(), "transit")
	require.True(t, ok)
	require.Equal(t, transit.Summary, richtext.PlainText(transit.Body))
}

func TestPageVisual(t *testing.T) {
	r, q := newRepo(nil)
	require.Equal(t, visuals.Default(model.PageEvents), r.PageVisual(context.Background(), model.PageEvents))
	require.Equal(t, gateway.NoCache, q.opts[0])
	require.Equal(t, gateway.Params{"page": "events"}, q.params[0])

	r, _ = newRepo(map[string]string{qPageVisual: `{"background":"plain","container":"huge","tone":"warm","motion":"calm",
	  "textLinkAnimation":"highlight","pageBackgroundAnimation":"drift","scrollReveal":""}`})
	got := r.PageVisual(context.Background(), model.PageAbout)
	require.Equal(t, model.PageVisualConfig{
		Background: "plain", Container: visuals.AxisDefaults.Container, Tone: "warm", Motion: "calm",
		TextLinkAnimation: "highlight", PageBackgroundAnimation: "drift", ScrollReveal: visuals.AxisDefaults.ScrollReveal,
	}, got)
}

func TestHome_ContentStoreDown(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cl, err := fetch.New(fetch.Options{Timeout: 5 * time.Second, Retry: 0})
	require.NoError(t, err)
	defer cl.CloseIdle()
	gw, err := gateway.New(cl, gateway.Settings{Endpoint: srv.URL, Dataset: "production", APIVersion: "2024-06-01"})
	require.NoError(t, err)

	r := New(gw, nil, Options{Revalidate: time.Minute})
	home := r.Home(context.Background(), nil)
	require.Equal(t, int32(4), hits.Load(), "one request per query, no retries")

	fb := fallback.Default()
	require.Equal(t, fb.Settings().Title, home.Settings.Title)
	require.Len(t, home.Posts, HomeRecentPosts)
	require.True(t, isSortedDesc(home.Posts))
	require.Equal(t, r.PostsAll(context.Background())[:HomeRecentPosts], home.Posts)
	require.Len(t, home.Events, len(fb.Events()))
	require.True(t, home.Events[0].StartsAt.Before(home.Events[1].StartsAt))
	require.Equal(t, "stately-gradient", home.Visual.Background)
	require.Equal(t, "standard", home.Visual.Container)
	require.Equal(t, "calm", home.Visual.Motion)
}

type fixedSettings model.SiteSettings

func (f fixedSettings) SiteSettings(context.Context) model.SiteSettings { return model.SiteSettings(f) }

func TestHome_UsesGivenSettingsSource(t *testing.T) {
	r, q := newRepo(map[string]string{qSettings: `{"title":"Second read"}`})
	home := r.Home(context.Background(), fixedSettings{Title: "Guarded"})
	require.Equal(t, "Guarded", home.Settings.Title)
	for _, call := range q.calls {
		require.NotEqual(t, qSettings, call, "settings must come from the given source")
	}
}

func TestAll_CoversEveryPage(t *testing.T) {
	r, _ := newRepo(nil)
	s := r.All(context.Background())
	require.Len(t, s.Visuals, len(model.PageKeys()))
	for _, k := range model.PageKeys() {
		require.Equal(t, visuals.Default(k), s.Visuals[k])
	}
	require.NotEmpty(t, s.Posts)
	require.NotEmpty(t, s.Fundraising)
}
