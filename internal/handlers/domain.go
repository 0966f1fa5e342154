// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"tenantpress/internal/middleware"
	"tenantpress/internal/store"
	"tenantpress/internal/tenant"
)

// Domains groups the custom-domain API: the resolution endpoint consulted
// by the routing middleware, and domain management for tenants.
type Domains struct {
	domainStore *store.DomainStore
	hostCache   *tenant.ValkeyHostCache
}

// NewDomains creates a new Domains handler group. hostCache may be nil
// when Valkey is not configured.
func NewDomains(domainStore *store.DomainStore, hostCache *tenant.ValkeyHostCache) *Domains {
	return &Domains{domainStore: domainStore, hostCache: hostCache}
}

// Resolve maps a custom domain to its tenant username. Returns 404 when
// the domain is not attached to any tenant; the routing middleware treats
// that as "serve the request as-is".
func (d *Domains) Resolve(w http.ResponseWriter, r *http.Request) {
	domain := strings.TrimSpace(r.URL.Query().Get("domain"))
	if domain == "" {
		writeError(w, http.StatusBadRequest, "missing domain parameter")
		return
	}

	username, err := d.domainStore.Resolve(domain)
	if err != nil {
		slog.Error("domain resolve failed", "domain", domain, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if username == "" {
		writeError(w, http.StatusNotFound, "domain not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"username": username})
}

// List returns the authenticated tenant's attached domains.
func (d *Domains) List(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromCtx(r.Context())

	domains, err := d.domainStore.ListByUsername(id.Username)
	if err != nil {
		slog.Error("list domains failed", "username", id.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"domains": domains})
}

// Attach binds a custom domain to the authenticated tenant.
func (d *Domains) Attach(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromCtx(r.Context())

	var req struct {
		Domain string `json:"domain"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	domain := strings.ToLower(strings.TrimSpace(req.Domain))
	if domain == "" || !strings.Contains(domain, ".") {
		writeError(w, http.StatusBadRequest, "invalid domain")
		return
	}

	attached, err := d.domainStore.Attach(domain, id.Username)
	if err != nil {
		slog.Error("attach domain failed", "domain", domain, "username", id.Username, "error", err)
		writeError(w, http.StatusConflict, "domain already attached")
		return
	}

	// Drop any stale negative or foreign mapping for the host.
	if d.hostCache != nil {
		d.hostCache.Invalidate(r.Context(), domain)
	}

	writeJSON(w, http.StatusCreated, attached)
}

// Detach removes a custom domain from the authenticated tenant.
func (d *Domains) Detach(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromCtx(r.Context())

	var req struct {
		Domain string `json:"domain"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	domain := strings.ToLower(strings.TrimSpace(req.Domain))
	if err := d.domainStore.Detach(domain, id.Username); err != nil {
		slog.Error("detach domain failed", "domain", domain, "username", id.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if d.hostCache != nil {
		d.hostCache.Invalidate(r.Context(), domain)
	}

	w.WriteHeader(http.StatusNoContent)
}
