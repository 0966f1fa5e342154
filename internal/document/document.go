// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package document defines the editable content document behind a tenant's
// generated micro-site, along with normalization, canonical snapshotting,
// and the structural mutators used by the editor.
package document

// FormatVersion is the template format version stamped on every save
// payload. Bumped when the document shape changes incompatibly.
const FormatVersion = 2

// TemplateType selects which site template renders the document.
type TemplateType string

const (
	TemplateBusiness   TemplateType = "business"
	TemplateRestaurant TemplateType = "restaurant"
)

// ValidTemplate reports whether t is a known template type.
func ValidTemplate(t TemplateType) bool {
	return t == TemplateBusiness || t == TemplateRestaurant
}

// Theme is the site-wide color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Hero is the top-of-page section.
type Hero struct {
	Headline    string `json:"headline"`
	Subheadline string `json:"subheadline"`
	Image       string `json:"image"` // empty when no image is set
	CTAText     string `json:"cta_text"`
	CTALink     string `json:"cta_link"`
}

// Metric is a single label/value pair in the trust bar.
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Trust is the social-proof metrics bar. Enabled gates rendering of the
// whole section independent of its metric values.
type Trust struct {
	Enabled bool     `json:"enabled"`
	Metrics []Metric `json:"metrics"`
}

// About is the company description section.
type About struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Image string `json:"image"` // empty when no image is set
}

// ServiceItem is one offered service.
type ServiceItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Services lists what the business offers.
type Services struct {
	Title    string        `json:"title"`
	Subtitle string        `json:"subtitle"`
	Items    []ServiceItem `json:"items"`
}

// ProcessStep is one step in the how-it-works section.
type ProcessStep struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Process is the ordered how-it-works section.
type Process struct {
	Title string        `json:"title"`
	Steps []ProcessStep `json:"steps"`
}

// Testimonial is a single customer quote. Enabled gates rendering.
type Testimonial struct {
	Enabled bool   `json:"enabled"`
	Quote   string `json:"quote"`
	Author  string `json:"author"`
	Role    string `json:"role"`
}

// Contact holds the contact section details.
type Contact struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	City     string `json:"city"`
}

// Footer is the free-text footer note.
type Footer struct {
	Note string `json:"note"`
}

// Document is the full editable content tree for one tenant site.
// Every field carries a non-null default; see Normalize.
type Document struct {
	Theme       Theme       `json:"theme"`
	Hero        Hero        `json:"hero"`
	Trust       Trust       `json:"trust"`
	About       About       `json:"about"`
	Services    Services    `json:"services"`
	Process     Process     `json:"process"`
	Testimonial Testimonial `json:"testimonial"`
	Contact     Contact     `json:"contact"`
	Footer      Footer      `json:"footer"`
}

// SavePayload is the flat unit persisted on every save: format version,
// template tag, and the full set of section documents. Partial saves are
// not supported; the document is small enough to send whole.
type SavePayload struct {
	Version     int          `json:"version"`
	Template    TemplateType `json:"template"`
	Theme       Theme        `json:"theme"`
	Hero        Hero         `json:"hero"`
	Trust       Trust        `json:"trust"`
	About       About        `json:"about"`
	Services    Services     `json:"services"`
	Process     Process      `json:"process"`
	Testimonial Testimonial  `json:"testimonial"`
	Contact     Contact      `json:"contact"`
	Footer      Footer       `json:"footer"`
}

// NewSavePayload wraps a document in the persisted payload shape.
func NewSavePayload(template TemplateType, doc Document) SavePayload {
	return SavePayload{
		Version:     FormatVersion,
		Template:    template,
		Theme:       doc.Theme,
		Hero:        doc.Hero,
		Trust:       doc.Trust,
		About:       doc.About,
		Services:    doc.Services,
		Process:     doc.Process,
		Testimonial: doc.Testimonial,
		Contact:     doc.Contact,
		Footer:      doc.Footer,
	}
}

// Document extracts the section documents back out of a save payload.
func (p SavePayload) Document() Document {
	return Document{
		Theme:       p.Theme,
		Hero:        p.Hero,
		Trust:       p.Trust,
		About:       p.About,
		Services:    p.Services,
		Process:     p.Process,
		Testimonial: p.Testimonial,
		Contact:     p.Contact,
		Footer:      p.Footer,
	}
}

// Default returns the fully-populated default document for a tenant.
// The hero headline is seeded from the tenant's username so a freshly
// generated site never renders blank.
func Default(username string) Document {
	if username == "" {
		username = "Your Business"
	}
	return Document{
		Theme: ThemeLight,
		Hero: Hero{
			Headline:    username,
			Subheadline: "Quality service you can rely on.",
			Image:       "",
			CTAText:     "Get in touch",
			CTALink:     "#contact",
		},
		Trust: Trust{
			Enabled: true,
			Metrics: []Metric{
				{Label: "Years in business", Value: "10+"},
				{Label: "Happy customers", Value: "500+"},
				{Label: "Projects completed", Value: "1000+"},
			},
		},
		About: About{
			Title: "About us",
			Body:  "We are a local business dedicated to serving our community.",
			Image: "",
		},
		Services: Services{
			Title:    "Our services",
			Subtitle: "What we can do for you",
			Items: []ServiceItem{
				{Title: "Service one", Description: "Describe your first service here."},
				{Title: "Service two", Description: "Describe your second service here."},
				{Title: "Service three", Description: "Describe your third service here."},
			},
		},
		Process: Process{
			Title: "How it works",
			Steps: []ProcessStep{
				{Title: "Reach out", Description: "Tell us what you need."},
				{Title: "Get a plan", Description: "We propose a clear approach and quote."},
				{Title: "See results", Description: "We deliver on time, every time."},
			},
		},
		Testimonial: Testimonial{
			Enabled: true,
			Quote:   "Working with this team was a fantastic experience.",
			Author:  "A happy customer",
			Role:    "Local resident",
		},
		Contact: Contact{
			Title:    "Contact us",
			Subtitle: "We usually respond within one business day.",
			Phone:    "",
			Email:    "",
			Address:  "",
			City:     "",
		},
		Footer: Footer{
			Note: "© " + username + ". All rights reserved.",
		},
	}
}

// Clone returns a deep copy of the document. Section structs are value
// types; only the repeatable lists need explicit copying so the clone
// shares no backing arrays with the original.
func (d Document) Clone() Document {
	out := d
	out.Trust.Metrics = append([]Metric(nil), d.Trust.Metrics...)
	out.Services.Items = append([]ServiceItem(nil), d.Services.Items...)
	out.Process.Steps = append([]ProcessStep(nil), d.Process.Steps...)
	return out
}
