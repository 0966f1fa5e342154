// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package tenant implements host-based tenant routing: requests arriving
// on a customer's custom domain are rewritten to that tenant's canonical
// page route. Resolution failures never block traffic — the documented
// contract is fail-open, treating the host as an ordinary app host.
package tenant

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"path"
	"strings"
	"time"
)

// PagePrefix is the canonical route prefix for tenant pages.
const PagePrefix = "/t"

// resolveTimeout bounds the outbound lookup so a slow resolution service
// cannot stall page loads.
const resolveTimeout = 3 * time.Second

// Resolver maps a custom domain to a tenant username. Implemented by
// api.Client; any error means "not a tenant host".
type Resolver interface {
	ResolveDomain(ctx context.Context, host string) (string, error)
}

// HostCache is an optional short-TTL cache in front of the resolver.
// Implemented by the Valkey-backed cache in this package; a nil cache
// simply resolves every request.
type HostCache interface {
	Get(ctx context.Context, host string) (string, bool)
	Set(ctx context.Context, host, username string)
}

// staticExtensions never trigger resolution; asset requests on a custom
// domain are served as-is.
var staticExtensions = map[string]bool{
	".css": true, ".js": true, ".map": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".ico": true, ".webp": true,
	".txt": true, ".xml": true,
	".woff": true, ".woff2": true, ".ttf": true,
}

// internalPrefixes are app routes that must never be rewritten, on any host.
var internalPrefixes = []string{PagePrefix + "/", "/api/", "/static/"}

// Rewriter decides per request whether to forward it unchanged or rewrite
// it onto a tenant page route.
type Rewriter struct {
	canonical map[string]bool // normalized canonical app hosts
	resolver  Resolver
	cache     HostCache // may be nil
}

// NewRewriter builds a rewriter for the fixed set of canonical application
// hosts. Host entries may include ports; matching ignores case.
func NewRewriter(canonicalHosts []string, resolver Resolver, cache HostCache) *Rewriter {
	canonical := make(map[string]bool, len(canonicalHosts))
	for _, h := range canonicalHosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		canonical[h] = true
		// Also accept the bare hostname so "app.example.com:443" and
		// "app.example.com" both count as canonical.
		if bare := stripPort(h); bare != h {
			canonical[bare] = true
		}
	}
	return &Rewriter{canonical: canonical, resolver: resolver, cache: cache}
}

// Middleware intercepts every inbound request. Custom-domain requests are
// rewritten to PagePrefix/{username}{original-path}; everything else —
// canonical hosts, already-rewritten paths, internal and asset routes,
// and every resolution failure — passes through unchanged.
func (rw *Rewriter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := normalizeHost(r.Host)
		if host == "" || rw.canonical[host] || rw.canonical[strings.ToLower(r.Host)] {
			next.ServeHTTP(w, r)
			return
		}

		if skipPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		username, ok := rw.lookup(r.Context(), host)
		if !ok {
			// Fail open: an unresolvable host is an ordinary app host.
			next.ServeHTTP(w, r)
			return
		}

		rewritten := PagePrefix + "/" + username
		if r.URL.Path != "/" {
			rewritten += r.URL.Path
		}

		slog.Debug("tenant host rewrite",
			"host", host,
			"tenant", username,
			"from", r.URL.Path,
			"to", rewritten,
		)
		r.URL.Path = rewritten
		r.URL.RawPath = ""
		next.ServeHTTP(w, r)
	})
}

// lookup resolves host to a username, consulting the cache first. Only
// successful resolutions are cached; misses and failures always retry on
// the next request.
func (rw *Rewriter) lookup(ctx context.Context, host string) (string, bool) {
	if rw.cache != nil {
		if username, ok := rw.cache.Get(ctx, host); ok {
			return username, true
		}
	}

	ctx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()

	username, err := rw.resolver.ResolveDomain(ctx, host)
	if err != nil {
		slog.Debug("tenant host resolution failed", "host", host, "error", err)
		return "", false
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return "", false
	}

	if rw.cache != nil {
		rw.cache.Set(ctx, host, username)
	}
	return username, true
}

// skipPath reports whether a path is internal to the app and must never
// be rewritten: tenant pages themselves (loop guard), API and static
// routes, the health check, and fixed static-file extensions.
func skipPath(p string) bool {
	for _, prefix := range internalPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	if p == PagePrefix || p == "/health" || p == "/favicon.ico" {
		return true
	}
	return staticExtensions[strings.ToLower(path.Ext(p))]
}

// normalizeHost lowercases the Host header and strips any port.
func normalizeHost(host string) string {
	return stripPort(strings.ToLower(strings.TrimSpace(host)))
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
