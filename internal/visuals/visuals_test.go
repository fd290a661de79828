package visuals

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"go-campaign-site/internal/model"
)

func TestDefault_EveryPageKeyHasValidEntry(t *testing.T) {
	if len(defaults) != len(model.PageKeys()) {
		t.Fatalf("defaults=%d page keys=%d", len(defaults), len(model.PageKeys()))
	}
	for _, k := range model.PageKeys() {
		c, ok := defaults[k]
		if !ok {
			t.Fatalf("no default for %s", k)
		}
		if err := Validate(c); err != nil {
			t.Fatalf("default for %s invalid: %v", k, err)
		}
	}
}

func TestDefault_Home(t *testing.T) {
	c := Default(model.PageHome)
	if c.Background != "stately-gradient" || c.Container != "standard" || c.Motion != "calm" || c.Tone != "default" {
		t.Fatalf("home default=%+v", c)
	}
}

func TestDefault_UnknownKey(t *testing.T) {
	if diff := cmp.Diff(AxisDefaults, Default(model.PageKey("blog"))); diff != "" {
		t.Fatalf("unknown key (-want +got):\n%s", diff)
	}
}

func TestNormalize(t *testing.T) {
	in := model.PageVisualConfig{
		Background: "flag-wash",
		Container:  "gigantic",
		Tone:       "",
		Motion:     " lively ",
	}
	got := Normalize(in)
	want := model.PageVisualConfig{
		Background:              "flag-wash",
		Container:               AxisDefaults.Container,
		Tone:                    AxisDefaults.Tone,
		Motion:                  "lively",
		TextLinkAnimation:       AxisDefaults.TextLinkAnimation,
		PageBackgroundAnimation: AxisDefaults.PageBackgroundAnimation,
		ScrollReveal:            AxisDefaults.ScrollReveal,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("normalize (-want +got):\n%s", diff)
	}
	if err := Validate(got); err != nil {
		t.Fatalf("normalized config invalid: %v", err)
	}
}

func TestShellClasses(t *testing.T) {
	cfg := model.PageVisualConfig{
		Background: "flag-wash", Container: "wide", Tone: "bold", Motion: "lively",
		TextLinkAnimation: "highlight", PageBackgroundAnimation: "pulse", ScrollReveal: "slide-in",
	}
	cases := []struct {
		name  string
		flags Flags
		cfg   model.PageVisualConfig
		want  []string
	}{
		{
			name:  "animation on",
			flags: Flags{BackgroundAnimation: true, TimingStrategy: "transition"},
			cfg:   cfg,
			want: []string{"page-shell", "bg-flag-wash", "container-wide", "tone-bold", "motion-lively",
				"link-anim-highlight", "bg-anim-pulse", "reveal-slide-in", "timing-transition"},
		},
		{
			name:  "animation off forces none",
			flags: Flags{BackgroundAnimation: false, TimingStrategy: "keyframes"},
			cfg:   cfg,
			want: []string{"page-shell", "bg-flag-wash", "container-wide", "tone-bold", "motion-lively",
				"link-anim-highlight", "bg-anim-none", "reveal-slide-in", "timing-keyframes"},
		},
		{
			name:  "default tone omitted, unknown timing falls back",
			flags: Flags{BackgroundAnimation: true, TimingStrategy: "css-magic"},
			cfg:   Default(model.PageHome),
			want: []string{"page-shell", "bg-stately-gradient", "container-standard", "motion-calm",
				"link-anim-underline-grow", "bg-anim-drift", "reveal-fade-up", "timing-keyframes"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NewResolver(tc.flags).ShellClasses(tc.cfg)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("classes (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClassStringAndDataAttributes(t *testing.T) {
	r := NewResolver(Flags{})
	c := Default(model.PageDonate)
	if got := r.ClassString(c); got != "page-shell bg-stately-gradient container-narrow tone-bold motion-none link-anim-none bg-anim-none reveal-none timing-keyframes" {
		t.Fatalf("class string=%q", got)
	}
	attrs := r.ShellDataAttributes(Default(model.PageEvents))
	if attrs[ScrollRevealAttr] != "slide-in" || len(attrs) != 1 {
		t.Fatalf("attrs=%v", attrs)
	}
}
