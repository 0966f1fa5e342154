package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"tenantpress/internal/document"
)

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	username, _ := env.createTenant(t)

	body := fmt.Sprintf(`{"username":%q,"password":"wrong"}`, username)
	resp := env.do(t, "POST", "/api/login", "", bytes.NewBufferString(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestMeRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "GET", "/api/me", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}

	username, bearer := env.createTenant(t)
	resp = env.do(t, "GET", "/api/me", bearer, nil)
	var me struct {
		Username string `json:"username"`
	}
	decodeBody(t, resp, &me)
	if me.Username != username {
		t.Errorf("me.Username = %q, want %q", me.Username, username)
	}
}

func TestSiteGetNormalizesStoredContent(t *testing.T) {
	env := newTestEnv(t)
	username, _ := env.createTenant(t)

	// Store a partial legacy document; the fetch must come back complete.
	partial := []byte(`{"hero":{"headline":"Legacy Co"}}`)
	if err := env.SiteStore.Upsert(username, document.TemplateBusiness, partial); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	resp := env.do(t, "GET", "/api/sites/"+username, "", nil)
	var payload document.SavePayload
	decodeBody(t, resp, &payload)

	if payload.Version != document.FormatVersion {
		t.Errorf("version = %d, want %d", payload.Version, document.FormatVersion)
	}
	if payload.Hero.Headline != "Legacy Co" {
		t.Errorf("headline = %q, want %q", payload.Hero.Headline, "Legacy Co")
	}
	if len(payload.Services.Items) == 0 {
		t.Error("expected defaulted service items")
	}
	if payload.Theme != document.ThemeLight {
		t.Errorf("theme = %q, want default light", payload.Theme)
	}
}

func TestSiteGetUnknownTenant(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "GET", "/api/sites/nobody-here", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestSiteSaveRequiresOwnership(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.createTenant(t)
	_, otherBearer := env.createTenant(t)

	payload := document.NewSavePayload(document.TemplateBusiness, document.Default(owner))
	body, _ := json.Marshal(payload)

	// No token: 401 from RequireAuth.
	resp := env.do(t, "POST", "/api/sites/"+owner, "", bytes.NewBuffer(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous save status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}

	// Someone else's token: 403.
	resp = env.do(t, "POST", "/api/sites/"+owner, otherBearer, bytes.NewBuffer(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("foreign save status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}
}

func TestSiteSaveRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	username, bearer := env.createTenant(t)

	doc := document.Default(username)
	doc.Hero.Headline = "Fresh paint"
	payload := document.NewSavePayload(document.TemplateRestaurant, doc)
	body, _ := json.Marshal(payload)

	resp := env.do(t, "POST", "/api/sites/"+username, bearer, bytes.NewBuffer(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save status = %d", resp.StatusCode)
	}

	site, err := env.SiteStore.FindByUsername(username)
	if err != nil || site == nil {
		t.Fatalf("find site: %v", err)
	}
	if site.Template != document.TemplateRestaurant {
		t.Errorf("template = %q, want restaurant", site.Template)
	}
	if !bytes.Contains(site.Content, []byte("Fresh paint")) {
		t.Error("stored content missing saved headline")
	}
}

func TestDomainAttachResolveDetach(t *testing.T) {
	env := newTestEnv(t)
	username, bearer := env.createTenant(t)
	domain := username + ".example.com"

	// Attach.
	body := fmt.Sprintf(`{"domain":%q}`, domain)
	resp := env.do(t, "POST", "/api/domains", bearer, bytes.NewBufferString(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("attach status = %d", resp.StatusCode)
	}

	// Resolve.
	resp = env.do(t, "GET", "/api/domains/resolve?domain="+domain, "", nil)
	var got struct {
		Username string `json:"username"`
	}
	decodeBody(t, resp, &got)
	if got.Username != username {
		t.Errorf("resolved username = %q, want %q", got.Username, username)
	}

	// Detach, then resolution misses.
	resp = env.do(t, "DELETE", "/api/domains", bearer, bytes.NewBufferString(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("detach status = %d", resp.StatusCode)
	}

	resp = env.do(t, "GET", "/api/domains/resolve?domain="+domain, "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("resolve after detach status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestPublicPageRenders(t *testing.T) {
	env := newTestEnv(t)
	username, _ := env.createTenant(t)

	doc := document.Default(username)
	doc.Hero.Headline = "Corner Bakery"
	content, _ := json.Marshal(document.NewSavePayload(document.TemplateBusiness, doc))
	if err := env.SiteStore.Upsert(username, document.TemplateBusiness, content); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	resp := env.do(t, "GET", "/t/"+username, "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	page, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(page), "Corner Bakery") {
		t.Error("rendered page missing the saved headline")
	}
}

func TestCustomDomainServesTenantPage(t *testing.T) {
	env := newTestEnv(t)
	username, bearer := env.createTenant(t)
	domain := username + ".example.com"

	content, _ := json.Marshal(document.NewSavePayload(document.TemplateBusiness, document.Default(username)))
	if err := env.SiteStore.Upsert(username, document.TemplateBusiness, content); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	body := fmt.Sprintf(`{"domain":%q}`, domain)
	resp := env.do(t, "POST", "/api/domains", bearer, bytes.NewBufferString(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("attach status = %d", resp.StatusCode)
	}

	// A root request on the custom domain is rewritten to the tenant page.
	req, _ := http.NewRequest("GET", env.Server.URL+"/", nil)
	req.Host = domain
	pageResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer pageResp.Body.Close()
	if pageResp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", pageResp.StatusCode)
	}
	page, _ := io.ReadAll(pageResp.Body)
	if !strings.Contains(string(page), username) {
		t.Error("custom domain did not serve the tenant page")
	}
}
