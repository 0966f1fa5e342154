// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package document

import "encoding/json"

// Normalize converts an arbitrary raw value — as returned by persistence —
// into a fully-populated document. Missing or malformed fields are filled
// from the defaults for the given username, field by field; the input is
// never rejected wholesale and Normalize never fails.
//
// Accepted inputs: nil, JSON bytes, a generic map, a Document, or a
// SavePayload. Normalize is pure and idempotent: normalizing an already
// normalized document returns a deep-equal result.
func Normalize(raw any, username string) Document {
	def := Default(username)

	m := toMap(raw)
	if m == nil {
		return def
	}

	var doc Document

	if theme, ok := stringAt(m, "theme"); ok && (Theme(theme) == ThemeLight || Theme(theme) == ThemeDark) {
		doc.Theme = Theme(theme)
	} else {
		doc.Theme = def.Theme
	}

	hero := section(m, "hero")
	doc.Hero = Hero{
		Headline:    stringOr(hero, "headline", def.Hero.Headline),
		Subheadline: stringOr(hero, "subheadline", def.Hero.Subheadline),
		Image:       stringOr(hero, "image", def.Hero.Image),
		CTAText:     stringOr(hero, "cta_text", def.Hero.CTAText),
		CTALink:     stringOr(hero, "cta_link", def.Hero.CTALink),
	}

	trust := section(m, "trust")
	doc.Trust = Trust{
		Enabled: boolOr(trust, "enabled", def.Trust.Enabled),
		Metrics: listOr(trust, "metrics", def.Trust.Metrics, func(el map[string]any) Metric {
			return Metric{
				Label: stringOr(el, "label", ""),
				Value: stringOr(el, "value", ""),
			}
		}),
	}

	about := section(m, "about")
	doc.About = About{
		Title: stringOr(about, "title", def.About.Title),
		Body:  stringOr(about, "body", def.About.Body),
		Image: stringOr(about, "image", def.About.Image),
	}

	services := section(m, "services")
	doc.Services = Services{
		Title:    stringOr(services, "title", def.Services.Title),
		Subtitle: stringOr(services, "subtitle", def.Services.Subtitle),
		Items: listOr(services, "items", def.Services.Items, func(el map[string]any) ServiceItem {
			return ServiceItem{
				Title:       stringOr(el, "title", ""),
				Description: stringOr(el, "description", ""),
			}
		}),
	}

	process := section(m, "process")
	doc.Process = Process{
		Title: stringOr(process, "title", def.Process.Title),
		Steps: listOr(process, "steps", def.Process.Steps, func(el map[string]any) ProcessStep {
			return ProcessStep{
				Title:       stringOr(el, "title", ""),
				Description: stringOr(el, "description", ""),
			}
		}),
	}

	testimonial := section(m, "testimonial")
	doc.Testimonial = Testimonial{
		Enabled: boolOr(testimonial, "enabled", def.Testimonial.Enabled),
		Quote:   stringOr(testimonial, "quote", def.Testimonial.Quote),
		Author:  stringOr(testimonial, "author", def.Testimonial.Author),
		Role:    stringOr(testimonial, "role", def.Testimonial.Role),
	}

	contact := section(m, "contact")
	doc.Contact = Contact{
		Title:    stringOr(contact, "title", def.Contact.Title),
		Subtitle: stringOr(contact, "subtitle", def.Contact.Subtitle),
		Phone:    stringOr(contact, "phone", def.Contact.Phone),
		Email:    stringOr(contact, "email", def.Contact.Email),
		Address:  stringOr(contact, "address", def.Contact.Address),
		City:     stringOr(contact, "city", def.Contact.City),
	}

	footer := section(m, "footer")
	doc.Footer = Footer{
		Note: stringOr(footer, "note", def.Footer.Note),
	}

	return doc
}

// toMap converts the accepted raw input shapes into a generic map.
// Returns nil when the input is absent or cannot be interpreted.
func toMap(raw any) map[string]any {
	switch v := raw.(type) {
	case nil:
		return nil
	case map[string]any:
		return v
	case []byte:
		return unmarshalMap(v)
	case json.RawMessage:
		return unmarshalMap(v)
	case string:
		return unmarshalMap([]byte(v))
	default:
		// Document, SavePayload, or anything else JSON-shaped: round-trip
		// through encoding so typed and generic inputs normalize identically.
		b, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return unmarshalMap(b)
	}
}

func unmarshalMap(b []byte) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}

// section returns the named sub-object, or nil when absent or not an object.
func section(m map[string]any, key string) map[string]any {
	sub, _ := m[key].(map[string]any)
	return sub
}

func stringAt(m map[string]any, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	s, ok := m[key].(string)
	return s, ok
}

func stringOr(m map[string]any, key, fallback string) string {
	if s, ok := stringAt(m, key); ok {
		return s
	}
	return fallback
}

func boolOr(m map[string]any, key string, fallback bool) bool {
	if m == nil {
		return fallback
	}
	if b, ok := m[key].(bool); ok {
		return b
	}
	return fallback
}

// listOr coerces a list field element-wise. A malformed element becomes an
// item with empty fields rather than being dropped; only a non-array at the
// list's root falls back to the full default list.
func listOr[T any](m map[string]any, key string, fallback []T, coerce func(map[string]any) T) []T {
	if m == nil {
		return append([]T(nil), fallback...)
	}
	rawList, ok := m[key].([]any)
	if !ok {
		return append([]T(nil), fallback...)
	}
	out := make([]T, 0, len(rawList))
	for _, el := range rawList {
		obj, _ := el.(map[string]any)
		out = append(out, coerce(obj))
	}
	return out
}
