// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tenantpress/internal/cache"
	"tenantpress/internal/document"
	"tenantpress/internal/middleware"
	"tenantpress/internal/store"
)

// Sites groups the site content API: fetching the normalized document and
// persisting saves from the editor.
type Sites struct {
	siteStore *store.SiteStore
	userStore *store.UserStore
	pageCache *cache.PageCache
}

// NewSites creates a new Sites handler group. pageCache may be nil when
// Valkey is not configured.
func NewSites(siteStore *store.SiteStore, userStore *store.UserStore, pageCache *cache.PageCache) *Sites {
	return &Sites{siteStore: siteStore, userStore: userStore, pageCache: pageCache}
}

// Get returns the tenant's site content, normalized to the current format.
// Legacy or partial stored documents come back fully defaulted, so the
// editor always loads a complete document. A tenant who exists but has
// never saved gets the default document; unknown tenants get 404.
func (s *Sites) Get(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	site, err := s.siteStore.FindByUsername(username)
	if err != nil {
		slog.Error("fetch site failed", "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if site == nil {
		user, err := s.userStore.FindByUsername(username)
		if err != nil {
			slog.Error("fetch site user lookup failed", "username", username, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if user == nil {
			writeError(w, http.StatusNotFound, "site not found")
			return
		}
		writeJSON(w, http.StatusOK, document.NewSavePayload(document.TemplateBusiness, document.Default(username)))
		return
	}

	doc := document.Normalize(site.Content, username)
	writeJSON(w, http.StatusOK, document.NewSavePayload(site.Template, doc))
}

// Save persists a full save payload for the tenant's site. Only the site
// owner may save. The stored document is the normalized form of whatever
// the editor sent, and every cached page for the tenant is invalidated so
// the change goes live immediately.
func (s *Sites) Save(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	id := middleware.IdentityFromCtx(r.Context())
	if id == nil || id.Username != username {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	var payload document.SavePayload
	if err := readJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	template := payload.Template
	if !document.ValidTemplate(template) {
		template = document.TemplateBusiness
	}

	doc := document.Normalize(payload.Document(), username)
	content, err := json.Marshal(document.NewSavePayload(template, doc))
	if err != nil {
		slog.Error("marshal site content failed", "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := s.siteStore.Upsert(username, template, content); err != nil {
		slog.Error("save site failed", "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if s.pageCache != nil {
		s.pageCache.InvalidateTenant(r.Context(), username)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}
