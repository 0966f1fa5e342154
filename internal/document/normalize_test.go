// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package document

import (
	"reflect"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	t.Run("nil input yields full defaults", func(t *testing.T) {
		doc := Normalize(nil, "acme")
		if !reflect.DeepEqual(doc, Default("acme")) {
			t.Errorf("got %+v, want defaults", doc)
		}
	})

	t.Run("hero headline is seeded from the username", func(t *testing.T) {
		doc := Normalize(nil, "acme")
		if doc.Hero.Headline != "acme" {
			t.Errorf("headline: got %q, want %q", doc.Hero.Headline, "acme")
		}
	})

	t.Run("empty object yields full defaults", func(t *testing.T) {
		doc := Normalize(map[string]any{}, "acme")
		if !reflect.DeepEqual(doc, Default("acme")) {
			t.Errorf("got %+v, want defaults", doc)
		}
	})

	t.Run("invalid JSON bytes yield full defaults", func(t *testing.T) {
		doc := Normalize([]byte(`{not json`), "acme")
		if !reflect.DeepEqual(doc, Default("acme")) {
			t.Errorf("got %+v, want defaults", doc)
		}
	})
}

func TestNormalizeFieldByField(t *testing.T) {
	raw := map[string]any{
		"theme": "dark",
		"hero": map[string]any{
			"headline": "Pizza Roma",
			// subheadline missing — default expected
		},
		"about": map[string]any{
			"title": 42, // wrong type — default expected
			"body":  "Family-run since 1982.",
		},
	}

	doc := Normalize(raw, "pizzaroma")

	if doc.Theme != ThemeDark {
		t.Errorf("theme: got %q, want dark", doc.Theme)
	}
	if doc.Hero.Headline != "Pizza Roma" {
		t.Errorf("headline: got %q", doc.Hero.Headline)
	}
	if doc.Hero.Subheadline != Default("pizzaroma").Hero.Subheadline {
		t.Errorf("subheadline should fall back to default, got %q", doc.Hero.Subheadline)
	}
	if doc.About.Title != Default("pizzaroma").About.Title {
		t.Errorf("wrong-typed about.title should fall back, got %q", doc.About.Title)
	}
	if doc.About.Body != "Family-run since 1982." {
		t.Errorf("about.body: got %q", doc.About.Body)
	}
}

func TestNormalizeTheme(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Theme
	}{
		{"light kept", map[string]any{"theme": "light"}, ThemeLight},
		{"dark kept", map[string]any{"theme": "dark"}, ThemeDark},
		{"unknown value falls back", map[string]any{"theme": "neon"}, ThemeLight},
		{"wrong type falls back", map[string]any{"theme": 7}, ThemeLight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in, "acme").Theme; got != tt.want {
				t.Errorf("theme: got %q, want %q", got, tt.want)
			}
		})
	}
}

// TestNormalizeListCoercion verifies lists are coerced element-wise:
// malformed elements become empty items rather than being dropped, and
// only a non-array at the list's root falls back to the default list.
func TestNormalizeListCoercion(t *testing.T) {
	t.Run("malformed element is coerced, not dropped", func(t *testing.T) {
		raw := map[string]any{
			"services": map[string]any{
				"items": []any{
					map[string]any{"title": "Cleaning"}, // missing description
					"not an object",
					map[string]any{"title": "Repairs", "description": "Fast."},
				},
			},
		}
		doc := Normalize(raw, "acme")

		if len(doc.Services.Items) != 3 {
			t.Fatalf("items: got %d, want 3", len(doc.Services.Items))
		}
		if doc.Services.Items[0].Description != "" {
			t.Errorf("missing description should coerce to empty string")
		}
		if doc.Services.Items[1].Title != "" || doc.Services.Items[1].Description != "" {
			t.Errorf("non-object element should coerce to empty item, got %+v", doc.Services.Items[1])
		}
		if doc.Services.Items[2].Description != "Fast." {
			t.Errorf("well-formed element mangled: %+v", doc.Services.Items[2])
		}
	})

	t.Run("non-array list root falls back to default list", func(t *testing.T) {
		raw := map[string]any{
			"services": map[string]any{"items": "oops"},
		}
		doc := Normalize(raw, "acme")
		if !reflect.DeepEqual(doc.Services.Items, Default("acme").Services.Items) {
			t.Errorf("expected default items, got %+v", doc.Services.Items)
		}
	})

	t.Run("empty list is preserved, not defaulted", func(t *testing.T) {
		raw := map[string]any{
			"trust": map[string]any{"enabled": true, "metrics": []any{}},
		}
		doc := Normalize(raw, "acme")
		if len(doc.Trust.Metrics) != 0 {
			t.Errorf("explicit empty list should stay empty, got %d items", len(doc.Trust.Metrics))
		}
		if !doc.Trust.Enabled {
			t.Error("enabled flag lost")
		}
	})
}

// TestNormalizeTotality feeds in deliberately broken shapes for every
// section; normalization must never fail and always produce lists where
// lists belong.
func TestNormalizeTotality(t *testing.T) {
	inputs := []any{
		nil,
		map[string]any{},
		map[string]any{"hero": "string"},
		map[string]any{"services": map[string]any{"items": "a string instead of a list"}},
		map[string]any{"trust": []any{"wrong shape"}},
		map[string]any{"testimonial": 3.14},
		[]byte(`[1,2,3]`),
		[]byte(`"just a string"`),
		42,
	}

	for _, in := range inputs {
		doc := Normalize(in, "acme")
		if doc.Services.Items == nil {
			t.Errorf("input %v: services.items must be a list", in)
		}
		if doc.Trust.Metrics == nil {
			t.Errorf("input %v: trust.metrics must be a list", in)
		}
		if doc.Process.Steps == nil {
			t.Errorf("input %v: process.steps must be a list", in)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []any{
		nil,
		map[string]any{},
		map[string]any{"hero": map[string]any{"headline": "Custom"}, "theme": "dark"},
		map[string]any{"services": map[string]any{"items": []any{map[string]any{"title": "A"}}}},
	}

	for _, in := range inputs {
		first := Normalize(in, "acme")
		second := Normalize(first, "acme")
		if !reflect.DeepEqual(first, second) {
			t.Errorf("normalize not idempotent for %v:\nfirst  %+v\nsecond %+v", in, first, second)
		}
	}
}

// A document stored without a testimonial section must come back with the
// default testimonial, and re-normalizing must not change anything — the
// editor relies on this to report clean immediately after load.
func TestNormalizeMissingSection(t *testing.T) {
	raw := []byte(`{"theme":"light","hero":{"headline":"acme"}}`)
	doc := Normalize(raw, "acme")

	def := Default("acme")
	if !reflect.DeepEqual(doc.Testimonial, def.Testimonial) {
		t.Errorf("testimonial: got %+v, want default", doc.Testimonial)
	}

	if Snapshot(doc) != Snapshot(Normalize(doc, "acme")) {
		t.Error("re-normalizing a normalized document changed its snapshot")
	}
}
