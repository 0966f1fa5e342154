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
	"tenantpress/internal/token"
)

// Auth groups authentication handlers for the dashboard API.
type Auth struct {
	tokens    *token.Store
	userStore *store.UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(tokens *token.Store, userStore *store.UserStore) *Auth {
	return &Auth{tokens: tokens, userStore: userStore}
}

// Login verifies credentials and issues a bearer token.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := a.userStore.FindByUsername(strings.ToLower(strings.TrimSpace(req.Username)))
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if user == nil || !a.userStore.CheckPassword(user, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	tok, err := a.tokens.Issue(r.Context(), &token.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Plan:     user.Plan,
	})
	if err != nil {
		slog.Error("token issue failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"token":    tok,
		"username": user.Username,
	})
}

// Logout revokes the current bearer token.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(h, prefix) {
		if err := a.tokens.Revoke(r.Context(), strings.TrimSpace(h[len(prefix):])); err != nil {
			slog.Warn("token revoke failed", "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated identity.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromCtx(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, id)
}
