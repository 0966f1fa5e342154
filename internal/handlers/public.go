// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tenantpress/internal/cache"
	"tenantpress/internal/document"
	"tenantpress/internal/engine"
	"tenantpress/internal/store"
)

// Public serves rendered tenant pages. It checks the Valkey page cache
// before invoking the template engine, and stores rendered results on miss.
// Requests land here either directly via /t/{username} or rewritten onto
// that route by the tenant middleware for custom domains.
type Public struct {
	engine    *engine.Engine
	siteStore *store.SiteStore
	pageCache *cache.PageCache
}

// NewPublic creates a new Public handler group. pageCache may be nil when
// Valkey is not configured.
func NewPublic(eng *engine.Engine, siteStore *store.SiteStore, pageCache *cache.PageCache) *Public {
	return &Public{engine: eng, siteStore: siteStore, pageCache: pageCache}
}

// Page renders a tenant's site. All paths under /t/{username} render the
// same single-page site; unknown tenants get a 404.
func (p *Public) Page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := chi.URLParam(r, "username")

	key := cache.TenantKey(username, "/")
	if p.pageCache != nil {
		if cached, ok := p.pageCache.Get(ctx, key); ok {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(cached)
			return
		}
	}

	site, err := p.siteStore.FindByUsername(username)
	if err != nil {
		slog.Error("find site failed", "username", username, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if site == nil {
		http.NotFound(w, r)
		return
	}

	doc := document.Normalize(site.Content, username)
	rendered, err := p.engine.Render(username, site.Template, doc)
	if err != nil {
		slog.Error("render site failed", "username", username, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if p.pageCache != nil {
		p.pageCache.Set(ctx, key, rendered)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(rendered)
}
