// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package engine renders public tenant pages. Templates are embedded in
// the binary, one per site template type, and compiled once at startup.
// Rendering injects the tenant's normalized content document.
package engine

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"tenantpress/internal/document"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// PageData holds all variables available to a site template when rendering
// a tenant page.
type PageData struct {
	Username string
	Doc      document.Document
	Year     int
}
// Engine holds the compiled site templates, one per template type.
type Engine struct {
	templates map[document.TemplateType]*template.Template
}

// New compiles the embedded site templates. Fails if any template is
// missing or has invalid syntax, so a broken build is caught at startup.
func New() (*Engine, error) {
	e := &Engine{templates: make(map[document.TemplateType]*template.Template)}

	for _, tt := range []document.TemplateType{document.TemplateBusiness, document.TemplateRestaurant} {
		name := string(tt) + ".html.tmpl"
		tmpl, err := template.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		e.templates[tt] = tmpl
	}

	return e, nil
}

// Render produces the complete HTML page for a tenant's site. The document
// must already be normalized; unknown template types fall back to business.
func (e *Engine) Render(username string, tt document.TemplateType, doc document.Document) ([]byte, error) {
	tmpl, ok := e.templates[tt]
	if !ok {
		tmpl = e.templates[document.TemplateBusiness]
	}

	data := PageData{
		Username: username,
		Doc:      doc,
		Year:     time.Now().Year(),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s for %s: %w", tt, username, err)
	}
	return buf.Bytes(), nil
}
