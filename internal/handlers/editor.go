// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tenantpress/internal/api"
	"tenantpress/internal/document"
	"tenantpress/internal/editor"
	"tenantpress/internal/middleware"
)

const (
	// sessionIdleTTL is how long an editor session survives without a
	// request before the janitor discards it.
	sessionIdleTTL = 30 * time.Minute
)

// editorEntry pairs a live session with bookkeeping for expiry.
type editorEntry struct {
	session  *editor.Session
	username string

	mu       sync.Mutex
	lastSeen time.Time
	notices  []editor.Notice
}

func (e *editorEntry) touch() {
	e.mu.Lock()
	e.lastSeen = time.Now()
	e.mu.Unlock()
}

// drainNotices returns and clears accumulated transient notices.
func (e *editorEntry) drainNotices() []editor.Notice {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.notices
	e.notices = nil
	return out
}

func (e *editorEntry) pushNotice(n editor.Notice) {
	e.mu.Lock()
	e.notices = append(e.notices, n)
	e.mu.Unlock()
}

// Editor exposes the site editor over HTTP: the dashboard opens a session,
// applies mutations, and the server owns dirty tracking, debounced
// autosave, and upload gating. Persistence goes through the same JSON API
// clients outside this process use, carrying the tenant's own token.
type Editor struct {
	client   *api.Client
	debounce time.Duration

	mu       sync.Mutex
	sessions map[string]*editorEntry
	stopCh   chan struct{}
}

// NewEditor creates the editor handler group. client is the API client
// pointed at this server's own base URL; each session re-binds it with
// the opening tenant's bearer token.
func NewEditor(client *api.Client, debounce time.Duration) *Editor {
	e := &Editor{
		client:   client,
		debounce: debounce,
		sessions: make(map[string]*editorEntry),
		stopCh:   make(chan struct{}),
	}

	// Janitor for abandoned sessions.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.expire()
			case <-e.stopCh:
				return
			}
		}
	}()

	return e
}

// Stop terminates the janitor goroutine and closes all sessions.
func (e *Editor) Stop() {
	close(e.stopCh)
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, entry := range e.sessions {
		entry.session.Close()
		delete(e.sessions, id)
	}
}

// expire closes sessions idle past the TTL.
func (e *Editor) expire() {
	cutoff := time.Now().Add(-sessionIdleTTL)

	e.mu.Lock()
	defer e.mu.Unlock()
	for id, entry := range e.sessions {
		entry.mu.Lock()
		stale := entry.lastSeen.Before(cutoff)
		entry.mu.Unlock()
		if stale {
			entry.session.Close()
			delete(e.sessions, id)
			slog.Info("editor session expired", "session", id, "username", entry.username)
		}
	}
}

// lookup finds a session owned by the authenticated tenant.
func (e *Editor) lookup(r *http.Request) *editorEntry {
	id := middleware.IdentityFromCtx(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	e.mu.Lock()
	entry := e.sessions[sessionID]
	e.mu.Unlock()

	if entry == nil || id == nil || entry.username != id.Username {
		return nil
	}
	entry.touch()
	return entry
}

// Open loads the tenant's site through the JSON API and starts an editor
// session over it. The response carries the session ID and the normalized
// working document.
func (e *Editor) Open(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromCtx(r.Context())

	// Persist through the API with the caller's own credentials.
	client := e.client.WithToken(api.StaticToken(bearerFromRequest(r)))

	raw, err := client.FetchSite(r.Context(), id.Username)
	if err != nil {
		slog.Error("editor open fetch failed", "username", id.Username, "error", err)
		writeError(w, http.StatusBadGateway, "could not load site")
		return
	}

	// Pull just the template tag out of the stored content; malformed
	// content leaves the zero value and NewSession falls back to the
	// default template.
	var stored struct {
		Template document.TemplateType `json:"template"`
	}
	_ = json.Unmarshal(raw, &stored)

	entry := &editorEntry{username: id.Username, lastSeen: time.Now()}
	entry.session = editor.NewSession(id.Username, stored.Template, raw, editor.Options{
		Saver:    client,
		Uploader: client,
		Debounce: e.debounce,
		Notify:   entry.pushNotice,
	})

	sessionID := uuid.NewString()
	e.mu.Lock()
	e.sessions[sessionID] = entry
	e.mu.Unlock()

	slog.Info("editor session opened", "session", sessionID, "username", id.Username)

	writeJSON(w, http.StatusCreated, map[string]any{
		"session":  sessionID,
		"template": entry.session.Template(),
		"document": entry.session.Document(),
		"dirty":    entry.session.Dirty(),
	})
}

// State reports the session's current document and flags.
func (e *Editor) State(w http.ResponseWriter, r *http.Request) {
	entry := e.lookup(r)
	if entry == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"template":     entry.session.Template(),
		"document":     entry.session.Document(),
		"dirty":        entry.session.Dirty(),
		"saving":       entry.session.Saving(),
		"uploading":    entry.session.Uploading(),
		"confirmClose": entry.session.ShouldConfirmClose(),
		"notices":      entry.drainNotices(),
	})
}

// applyRequest is one mutation from the dashboard.
type applyRequest struct {
	Op        string                `json:"op"`
	Document  any                   `json:"document,omitempty"` // op=update: full document
	Metric    *document.Metric      `json:"metric,omitempty"`
	Service   *document.ServiceItem `json:"service,omitempty"`
	Step      *document.ProcessStep `json:"step,omitempty"`
	Index     int                   `json:"index"`
	Direction string                `json:"direction,omitempty"` // "up" or "down"
}

// Apply applies one mutation to the working document. Edits mark the
// session dirty and arm the debounced autosave.
func (e *Editor) Apply(w http.ResponseWriter, r *http.Request) {
	entry := e.lookup(r)
	if entry == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req applyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dir := document.MoveUp
	if req.Direction == "down" {
		dir = document.MoveDown
	}

	username := entry.username
	switch req.Op {
	case "update":
		entry.session.Apply(func(document.Document) document.Document {
			return document.Normalize(req.Document, username)
		})
	case "toggle_theme":
		entry.session.Apply(document.ToggleTheme)
	case "trust_add":
		m := document.Metric{}
		if req.Metric != nil {
			m = *req.Metric
		}
		entry.session.Apply(func(d document.Document) document.Document {
			return document.AddTrustMetric(d, m)
		})
	case "trust_remove":
		entry.session.Apply(func(d document.Document) document.Document {
			return document.RemoveTrustMetric(d, req.Index)
		})
	case "trust_move":
		entry.session.Apply(func(d document.Document) document.Document {
			return document.MoveTrustMetric(d, req.Index, dir)
		})
	case "service_add":
		item := document.ServiceItem{}
		if req.Service != nil {
			item = *req.Service
		}
		entry.session.Apply(func(d document.Document) document.Document {
			return document.AddServiceItem(d, item)
		})
	case "service_remove":
		entry.session.Apply(func(d document.Document) document.Document {
			return document.RemoveServiceItem(d, req.Index)
		})
	case "service_move":
		entry.session.Apply(func(d document.Document) document.Document {
			return document.MoveServiceItem(d, req.Index, dir)
		})
	case "step_add":
		step := document.ProcessStep{}
		if req.Step != nil {
			step = *req.Step
		}
		entry.session.Apply(func(d document.Document) document.Document {
			return document.AddProcessStep(d, step)
		})
	case "step_remove":
		entry.session.Apply(func(d document.Document) document.Document {
			return document.RemoveProcessStep(d, req.Index)
		})
	case "step_move":
		entry.session.Apply(func(d document.Document) document.Document {
			return document.MoveProcessStep(d, req.Index, dir)
		})
	default:
		writeError(w, http.StatusBadRequest, "unknown op")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"document": entry.session.Document(),
		"dirty":    entry.session.Dirty(),
	})
}

// Save triggers a manual save. A clean session is a no-op; a save already
// in flight reports 409.
func (e *Editor) Save(w http.ResponseWriter, r *http.Request) {
	entry := e.lookup(r)
	if entry == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	saved, err := entry.session.Save(r.Context())
	if err != nil {
		if errors.Is(err, editor.ErrSaveInFlight) {
			writeError(w, http.StatusConflict, "save already in progress")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"saved":   false,
			"dirty":   entry.session.Dirty(),
			"notices": entry.drainNotices(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"saved":   saved,
		"dirty":   entry.session.Dirty(),
		"notices": entry.drainNotices(),
	})
}

// Upload stores a hero or about image through the session, which blocks
// autosave for the duration and keeps the prior image on failure.
func (e *Editor) Upload(w http.ResponseWriter, r *http.Request) {
	entry := e.lookup(r)
	if entry == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	target := editor.ImageTarget(r.FormValue("target"))
	if target != editor.ImageHero && target != editor.ImageAbout {
		writeError(w, http.StatusBadRequest, "invalid image target")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedUploadTypes[contentType] {
		writeError(w, http.StatusUnsupportedMediaType, "unsupported file type")
		return
	}

	if err := entry.session.UploadImage(r.Context(), target, header.Filename, contentType, file); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":   "upload failed",
			"notices": entry.drainNotices(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"document": entry.session.Document(),
		"dirty":    entry.session.Dirty(),
	})
}

// Close ends a session. When the document has unsaved edits and no save
// or upload is in flight, the response asks the dashboard to confirm
// unless force is set.
func (e *Editor) Close(w http.ResponseWriter, r *http.Request) {
	entry := e.lookup(r)
	if entry == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	force := r.URL.Query().Get("force") == "true"
	if entry.session.ShouldConfirmClose() && !force {
		writeJSON(w, http.StatusConflict, map[string]any{
			"confirmClose": true,
		})
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	e.mu.Lock()
	delete(e.sessions, sessionID)
	e.mu.Unlock()

	entry.session.Close()
	slog.Info("editor session closed", "session", sessionID, "username", entry.username)
	w.WriteHeader(http.StatusNoContent)
}

// bearerFromRequest extracts the raw bearer token, or "".
func bearerFromRequest(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

