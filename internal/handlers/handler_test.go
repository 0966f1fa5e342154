// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler
// integration tests. Tests are skipped when PostgreSQL or Valkey are
// unavailable. The full router is served over httptest so the editor's
// API client talks to the same server under test.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"tenantpress/internal/api"
	"tenantpress/internal/cache"
	"tenantpress/internal/database"
	"tenantpress/internal/engine"
	"tenantpress/internal/middleware"
	"tenantpress/internal/store"
	"tenantpress/internal/tenant"
	"tenantpress/internal/token"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "tenantpress")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "tenantpress")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"token:*", "page:*", "tenanthost:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB          *sql.DB
	Valkey      *redis.Client
	Tokens      *token.Store
	UserStore   *store.UserStore
	SiteStore   *store.SiteStore
	DomainStore *store.DomainStore
	MediaStore  *store.MediaStore
	PageCache   *cache.PageCache
	Server      *httptest.Server
	Client      *api.Client
}

// newTestEnv wires the full router behind an httptest server. Handlers
// that need the server's own URL (the editor) get it via a late-bound
// handler holder.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	env := &testEnv{
		DB:          db,
		Valkey:      vk,
		Tokens:      token.NewStore(vk),
		UserStore:   store.NewUserStore(db),
		SiteStore:   store.NewSiteStore(db),
		DomainStore: store.NewDomainStore(db),
		MediaStore:  store.NewMediaStore(db),
		PageCache:   cache.NewPageCache(vk, 1*time.Minute),
	}

	var handler http.Handler
	env.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(env.Server.Close)

	env.Client = api.New(env.Server.URL, nil)

	eng, err := engine.New()
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}

	hostCache := tenant.NewValkeyHostCache(vk, tenant.DefaultHostTTL)
	rewriter := tenant.NewRewriter([]string{"localhost"}, env.Client, hostCache)

	editorHandlers := NewEditor(env.Client, time.Hour)
	t.Cleanup(editorHandlers.Stop)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(rewriter.Middleware)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.LoadIdentity(env.Tokens))
		r.Post("/login", NewAuth(env.Tokens, env.UserStore).Login)
		r.Get("/domains/resolve", NewDomains(env.DomainStore, hostCache).Resolve)
		r.Get("/sites/{username}", NewSites(env.SiteStore, env.UserStore, env.PageCache).Get)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/me", NewAuth(env.Tokens, env.UserStore).Me)
			r.Post("/sites/{username}", NewSites(env.SiteStore, env.UserStore, env.PageCache).Save)
			r.Get("/domains", NewDomains(env.DomainStore, hostCache).List)
			r.Post("/domains", NewDomains(env.DomainStore, hostCache).Attach)
			r.Delete("/domains", NewDomains(env.DomainStore, hostCache).Detach)
			r.Route("/editor", func(r chi.Router) {
				r.Post("/sessions", editorHandlers.Open)
				r.Get("/sessions/{sessionID}", editorHandlers.State)
				r.Post("/sessions/{sessionID}/apply", editorHandlers.Apply)
				r.Post("/sessions/{sessionID}/save", editorHandlers.Save)
				r.Delete("/sessions/{sessionID}", editorHandlers.Close)
			})
		})
	})
	r.Get("/t/{username}", NewPublic(eng, env.SiteStore, env.PageCache).Page)
	r.Get("/t/{username}/*", NewPublic(eng, env.SiteStore, env.PageCache).Page)
	handler = r

	return env
}

// createTenant inserts a user with a random username and returns the
// username and a bearer token from a real login.
func (env *testEnv) createTenant(t *testing.T) (username, bearer string) {
	t.Helper()

	username = "t" + uuid.NewString()[:8]
	if _, err := env.UserStore.Create(username, username+"@example.test", "secret123", "free"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() {
		env.SiteStore.Delete(username)
		env.DB.Exec("DELETE FROM media WHERE username = $1", username)
		env.DB.Exec("DELETE FROM domains WHERE username = $1", username)
		env.DB.Exec("DELETE FROM users WHERE username = $1", username)
	})

	body := fmt.Sprintf(`{"username":%q,"password":"secret123"}`, username)
	resp := env.do(t, "POST", "/api/login", "", bytes.NewBufferString(body))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return username, out.Token
}

// do performs a request against the test server.
func (env *testEnv) do(t *testing.T, method, path, bearer string, body *bytes.Buffer) *http.Response {
	t.Helper()

	if body == nil {
		body = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, env.Server.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

// decodeBody decodes a JSON response body into out and closes it.
func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
