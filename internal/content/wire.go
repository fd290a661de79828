package content

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"go-campaign-site/internal/fallback"
	"go-campaign-site/internal/model"
)

// 线上形态：只在解码边界存在，_id 在这里改名为 ID。

type wirePost struct {
	ID          string        `json:"_id"`
	Title       string        `json:"title"`
	Slug        string        `json:"slug"`
	PublishedAt string        `json:"publishedAt"`
	Excerpt     string        `json:"excerpt"`
	Body        []model.Block `json:"body"`
	Tags        []string      `json:"tags"`
	Image       *model.Image  `json:"image"`
	Author      string        `json:"author"`
}

// wireSettings 覆盖 pageVisibility：null 值视为未设置，而不是 false。
type wireSettings struct {
	model.SiteSettings
	PageVisibility map[string]*bool `json:"pageVisibility"`
}

func (w wireSettings) toModel() model.SiteSettings {
	s := w.SiteSettings
	s.PageVisibility = nil
	for k, v := range w.PageVisibility {
		if v == nil {
			continue
		}
		if s.PageVisibility == nil {
			s.PageVisibility = make(model.PageVisibility, len(w.PageVisibility))
		}
		s.PageVisibility[model.PageKey(k)] = *v
	}
	return s
}

type wireEvent struct {
	ID          string       `json:"_id"`
	Title       string       `json:"title"`
	Slug        string       `json:"slug"`
	StartsAt    string       `json:"startsAt"`
	EndsAt      string       `json:"endsAt"`
	AllDay      bool         `json:"allDay"`
	Location    string       `json:"location"`
	Description string       `json:"description"`
	Tags        []string     `json:"tags"`
	Image       *model.Image `json:"image"`
	RSVPURL     string       `json:"rsvpUrl"`
}

type wireMedia struct {
	ID          string       `json:"_id"`
	Title       string       `json:"title"`
	Outlet      string       `json:"outlet"`
	URL         string       `json:"url"`
	Kind        string       `json:"kind"`
	PublishedAt string       `json:"publishedAt"`
	Summary     string       `json:"summary"`
	Image       *model.Image `json:"image"`
}

type wireFundraising struct {
	ID          string `json:"_id"`
	Label       string `json:"label"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Priority    *int   `json:"priority"`
}

func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode %T: %w", v, err)
	}
	return v, nil
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func slugOr(s, title string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return slug.Make(title)
}

func emptyImage(i *model.Image) *model.Image {
	if i.Empty() {
		return nil
	}
	return i
}

func (w wirePost) toModel(loc *time.Location) (model.Post, error) {
	at, _, err := fallback.ParseTime(w.PublishedAt, loc)
	if err != nil {
		return model.Post{}, fmt.Errorf("post %s: %w", w.ID, err)
	}
	return model.Post{
		ID:          w.ID,
		Title:       w.Title,
		Slug:        slugOr(w.Slug, w.Title),
		PublishedAt: at,
		Excerpt:     w.Excerpt,
		Body:        nonNil(w.Body),
		Tags:        nonNil(w.Tags),
		Image:       emptyImage(w.Image),
		Author:      w.Author,
	}, nil
}

func decodePost(raw json.RawMessage, loc *time.Location) (model.Post, error) {
	w, err := decode[wirePost](raw)
	if err != nil {
		return model.Post{}, err
	}
	return w.toModel(loc)
}

func (w wireEvent) toModel(loc *time.Location) (model.Event, error) {
	start, dateOnly, err := fallback.ParseTime(w.StartsAt, loc)
	if err != nil {
		return model.Event{}, fmt.Errorf("event %s: %w", w.ID, err)
	}
	ev := model.Event{
		ID:          w.ID,
		Title:       w.Title,
		Slug:        slugOr(w.Slug, w.Title),
		StartsAt:    start,
		AllDay:      w.AllDay || dateOnly,
		Location:    w.Location,
		Description: w.Description,
		Tags:        nonNil(w.Tags),
		Image:       emptyImage(w.Image),
		RSVPURL:     w.RSVPURL,
	}
	if strings.TrimSpace(w.EndsAt) != "" {
		end, _, err := fallback.ParseTime(w.EndsAt, loc)
		if err != nil {
			return model.Event{}, fmt.Errorf("event %s: %w", w.ID, err)
		}
		ev.EndsAt = &end
	}
	return ev, nil
}

func (w wireMedia) toModel(loc *time.Location) (model.MediaLink, error) {
	at, _, err := fallback.ParseTime(w.PublishedAt, loc)
	if err != nil {
		return model.MediaLink{}, fmt.Errorf("media %s: %w", w.ID, err)
	}
	return model.MediaLink{
		ID:          w.ID,
		Title:       w.Title,
		Outlet:      w.Outlet,
		URL:         w.URL,
		Kind:        w.Kind,
		PublishedAt: at,
		Summary:     w.Summary,
		Image:       emptyImage(w.Image),
	}, nil
}

func (w wireFundraising) toModel() model.FundraisingLink {
	l := model.FundraisingLink{ID: w.ID, Label: w.Label, URL: w.URL, Description: w.Description}
	if w.Priority != nil {
		l.Priority = *w.Priority
	}
	return l
}
