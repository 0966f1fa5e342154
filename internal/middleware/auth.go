// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"
	"strings"

	"tenantpress/internal/token"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// IdentityKey is the context key for the authenticated identity.
	IdentityKey contextKey = "identity"
)

// LoadIdentity resolves the Authorization bearer token against Valkey and
// stores the identity in the request context. Downstream handlers access
// it via IdentityFromCtx(). This middleware does NOT enforce
// authentication, it just loads the identity if the token is valid.
func LoadIdentity(store *token.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := bearerToken(r)
			if tok == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := store.Get(r.Context(), tok)
			if err != nil {
				// Valkey trouble: treat as unauthenticated rather than failing.
				next.ServeHTTP(w, r)
				return
			}

			if id != nil {
				ctx := context.WithValue(r.Context(), IdentityKey, id)
				r = r.WithContext(ctx)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth returns 401 for requests without a valid identity.
// Must be applied after LoadIdentity in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFromCtx(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// IdentityFromCtx extracts the authenticated identity from the request
// context. Returns nil if no identity is loaded.
func IdentityFromCtx(ctx context.Context) *token.Identity {
	id, _ := ctx.Value(IdentityKey).(*token.Identity)
	return id
}

// bearerToken extracts the token from an "Authorization: Bearer ..." header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
