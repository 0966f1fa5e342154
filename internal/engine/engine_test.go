package engine

import (
	"strings"
	"testing"

	"tenantpress/internal/document"
)

func TestNewCompilesAllTemplates(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, tt := range []document.TemplateType{document.TemplateBusiness, document.TemplateRestaurant} {
		if e.templates[tt] == nil {
			t.Errorf("missing compiled template for %s", tt)
		}
	}
}

func TestRenderBusinessDefaults(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	doc := document.Default("acme")
	html, err := e.Render("acme", document.TemplateBusiness, doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	page := string(html)
	for _, want := range []string{
		doc.Hero.Headline,
		doc.About.Title,
		doc.Services.Items[0].Title,
		doc.Process.Steps[0].Title,
		doc.Contact.Title,
		`class="theme-light"`,
		`class="template-business"`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("rendered page missing %q", want)
		}
	}
}

func TestRenderRestaurantTemplate(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	doc := document.Default("bistro")
	doc.Theme = document.ThemeDark
	html, err := e.Render("bistro", document.TemplateRestaurant, doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	page := string(html)
	if !strings.Contains(page, `class="template-restaurant"`) {
		t.Error("expected restaurant template body class")
	}
	if !strings.Contains(page, `class="theme-dark"`) {
		t.Error("expected dark theme class")
	}
}

func TestRenderHidesDisabledSections(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	doc := document.Default("acme")
	doc.Trust.Enabled = false
	doc.Testimonial = document.Testimonial{Enabled: true, Quote: "Great work", Author: "Jo", Role: "Owner"}

	html, err := e.Render("acme", document.TemplateBusiness, doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	page := string(html)
	if strings.Contains(page, `class="trust"`) {
		t.Error("disabled trust section should not render")
	}
	if !strings.Contains(page, "Great work") {
		t.Error("enabled testimonial should render")
	}
}

func TestRenderEscapesContent(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	doc := document.Default("acme")
	doc.Hero.Headline = `<script>alert("xss")</script>`

	html, err := e.Render("acme", document.TemplateBusiness, doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	page := string(html)
	if strings.Contains(page, `<script>alert`) {
		t.Error("tenant content must be HTML-escaped")
	}
}

func TestRenderUnknownTemplateFallsBack(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	doc := document.Default("acme")
	html, err := e.Render("acme", document.TemplateType("bogus"), doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(html), `class="template-business"`) {
		t.Error("unknown template type should fall back to business")
	}
}
