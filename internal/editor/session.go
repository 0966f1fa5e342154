// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package editor implements the edit-session state machine that owns a
// tenant's content document while it is being edited: dirty tracking
// against the last persisted snapshot, debounced autosave, manual save
// with single-flight semantics, and asset uploads that gate autosave.
package editor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"tenantpress/internal/api"
	"tenantpress/internal/document"
)

// DefaultDebounce is the autosave quiet period measured from the most
// recent mutation.
const DefaultDebounce = 2 * time.Second

// saveTimeout bounds autosave dispatches, which run without a caller ctx.
const saveTimeout = 30 * time.Second

// ErrSaveInFlight is returned when a manual save is requested while
// another save is still running. Only one save may be in flight; the
// next save always carries the latest state, so nothing is queued.
var ErrSaveInFlight = errors.New("save already in flight")

// Saver persists the full document payload for a tenant.
type Saver interface {
	SaveSite(ctx context.Context, username string, payload document.SavePayload) error
}

// Uploader stores a binary asset and returns its public URL.
type Uploader interface {
	UploadAsset(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
}

// ImageTarget names a document image field an upload writes into.
type ImageTarget string

const (
	ImageHero  ImageTarget = "hero"
	ImageAbout ImageTarget = "about"
)

// Notice is a transient user-facing notification emitted by the session.
type Notice struct {
	Kind    string // "error" or "info"
	Message string
}

// Options configures a session. Saver is required; the rest are optional.
type Options struct {
	Saver    Saver
	Uploader Uploader
	Debounce time.Duration  // autosave quiet period; DefaultDebounce if zero
	Notify   func(Notice)   // transient notifications; nil to discard
}

// Session owns one tenant's working document for the duration of an edit
// visit. All methods are safe for concurrent use; the mutex stands in for
// the single UI thread of the original page-scoped session, so every
// mutation is atomic with respect to in-flight saves and uploads.
type Session struct {
	mu        sync.Mutex
	username  string
	template  document.TemplateType
	doc       document.Document
	lastSaved string // canonical snapshot of the last persisted payload
	saving    bool
	uploading bool
	timer     *time.Timer
	closed    bool

	saver    Saver
	uploader Uploader
	debounce time.Duration
	notify   func(Notice)
}

// NewSession normalizes the externally-supplied initial content and takes
// ownership of it. The freshly normalized document is adopted as the
// persisted baseline, so a session opened on a partial stored document
// starts clean — normalization alone never produces a dirty state.
func NewSession(username string, template document.TemplateType, initial any, opts Options) *Session {
	if !document.ValidTemplate(template) {
		template = document.TemplateBusiness
	}
	doc := document.Normalize(initial, username)
	s := &Session{
		username: username,
		template: template,
		doc:      doc,
		saver:    opts.Saver,
		uploader: opts.Uploader,
		debounce: opts.Debounce,
		notify:   opts.Notify,
	}
	if s.debounce <= 0 {
		s.debounce = DefaultDebounce
	}
	s.lastSaved = s.snapshotLocked()
	return s
}

// Reset replaces the working copy with newly-supplied initial content,
// e.g. after navigation to a different tenant's page. Pending autosaves
// for the previous document are cancelled.
func (s *Session) Reset(username string, initial any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
	s.doc = document.Normalize(initial, username)
	s.lastSaved = s.snapshotLocked()
	s.stopTimerLocked()
}

// Document returns a deep copy of the working document.
func (s *Session) Document() document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Username returns the tenant this session edits.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// Template returns the site template this session edits.
func (s *Session) Template() document.TemplateType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.template
}

// Dirty reports whether the working document differs from the last
// persisted snapshot.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirtyLocked()
}

// Saving reports whether a save is currently in flight.
func (s *Session) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

// Uploading reports whether an asset upload is currently in flight.
func (s *Session) Uploading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploading
}

// ShouldConfirmClose reports whether leaving the page should prompt the
// user: there are unsaved changes and no save or upload is in flight.
func (s *Session) ShouldConfirmClose() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirtyLocked() && !s.saving && !s.uploading
}

// Apply runs a mutator against the working document and replaces it
// wholesale. Mutators receive a deep copy, so a mutator that returns its
// input unchanged leaves the session state untouched. Every application
// recomputes dirty status and re-arms the autosave timer.
func (s *Session) Apply(mutate func(document.Document) document.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.doc = mutate(s.doc.Clone())
	s.afterMutationLocked()
}

// Save performs a manual save. When the session is already clean it
// reports saved=false without touching the network. On success the sent
// serialization becomes the new persisted baseline and the session turns
// clean; on failure the session stays dirty and a notification is
// emitted. A 404/405 from the endpoint surfaces as api.ErrNotWired.
func (s *Session) Save(ctx context.Context) (saved bool, err error) {
	s.mu.Lock()
	if !s.dirtyLocked() {
		s.mu.Unlock()
		return false, nil
	}
	if s.saving {
		s.mu.Unlock()
		return false, ErrSaveInFlight
	}
	s.saving = true
	s.stopTimerLocked()
	payload := document.NewSavePayload(s.template, s.doc)
	snap := document.Snapshot(payload)
	username := s.username
	s.mu.Unlock()

	err = s.saver.SaveSite(ctx, username, payload)

	s.mu.Lock()
	s.saving = false
	if err == nil {
		s.lastSaved = snap
		s.rearmAfterSaveLocked(snap)
		s.mu.Unlock()
		return true, nil
	}
	s.rearmAfterSaveLocked(snap)
	s.mu.Unlock()

	if errors.Is(err, api.ErrNotWired) {
		s.emit(Notice{Kind: "error", Message: "Saving isn't available yet — the backend route is not wired."})
	} else {
		s.emit(Notice{Kind: "error", Message: "Could not save your changes. They are kept locally; try again."})
	}
	return false, err
}

// UploadImage sends a binary asset to the upload endpoint and, on
// success, stores the returned URL in the chosen image field as a tracked
// mutation. While the upload is in flight autosave stays parked, but
// edits continue to be accepted. On failure the prior image value is left
// untouched and a notification is emitted; no retry is scheduled.
func (s *Session) UploadImage(ctx context.Context, target ImageTarget, filename, contentType string, body io.Reader) error {
	if s.uploader == nil {
		return errors.New("no uploader configured")
	}

	s.mu.Lock()
	s.uploading = true
	s.stopTimerLocked()
	s.mu.Unlock()

	url, err := s.uploader.UploadAsset(ctx, filename, contentType, body)

	s.mu.Lock()
	s.uploading = false
	if err != nil {
		// Re-arm autosave if edits accumulated during the upload.
		if s.dirtyLocked() {
			s.armTimerLocked()
		}
		s.mu.Unlock()
		s.emit(Notice{Kind: "error", Message: "Image upload failed. The previous image was kept."})
		return err
	}

	out := s.doc.Clone()
	switch target {
	case ImageAbout:
		out.About.Image = url
	default:
		out.Hero.Image = url
	}
	s.doc = out
	s.afterMutationLocked()
	s.mu.Unlock()
	return nil
}

// Close cancels any pending autosave. In-flight saves and uploads are
// abandoned best-effort, mirroring page navigation.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopTimerLocked()
}

// afterMutationLocked recomputes dirty status and manages the autosave
// timer. Called with the mutex held after every document replacement.
func (s *Session) afterMutationLocked() {
	if !s.dirtyLocked() {
		// Reverted to the persisted state; nothing left to save.
		s.stopTimerLocked()
		return
	}
	if s.saving || s.uploading {
		// Autosave declines to schedule while a save or upload runs; the
		// next mutation after it finishes re-arms the timer.
		return
	}
	s.armTimerLocked()
}

// armTimerLocked starts or resets the single pending debounce timer.
func (s *Session) armTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.autosave)
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// autosave fires when the quiet period elapses with no further mutations.
// It serializes the document at dispatch time, so edits that accumulated
// during the debounce window are included. Failures are silent: the
// session stays dirty and a later mutation re-arms the timer.
func (s *Session) autosave() {
	s.mu.Lock()
	if s.closed || s.saving || s.uploading || !s.dirtyLocked() {
		s.mu.Unlock()
		return
	}
	s.saving = true
	payload := document.NewSavePayload(s.template, s.doc)
	snap := document.Snapshot(payload)
	username := s.username
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	err := s.saver.SaveSite(ctx, username, payload)

	s.mu.Lock()
	s.saving = false
	if err == nil {
		s.lastSaved = snap
	} else {
		slog.Debug("autosave failed", "tenant", username, "error", err)
	}
	s.rearmAfterSaveLocked(snap)
	s.mu.Unlock()
}

// rearmAfterSaveLocked reschedules autosave for edits that accumulated
// while a save was in flight. It deliberately does not re-arm when the
// document still matches the serialization just attempted: a failed save
// with no new edits waits for the next mutation rather than retrying in
// a loop against an unavailable backend.
func (s *Session) rearmAfterSaveLocked(sent string) {
	if s.closed || s.uploading || !s.dirtyLocked() {
		return
	}
	if s.snapshotLocked() == sent {
		return
	}
	s.armTimerLocked()
}

// dirtyLocked compares the canonical snapshot of the current payload
// against the last persisted snapshot. Called with the mutex held.
func (s *Session) dirtyLocked() bool {
	return s.snapshotLocked() != s.lastSaved
}

func (s *Session) snapshotLocked() string {
	return document.Snapshot(document.NewSavePayload(s.template, s.doc))
}

func (s *Session) emit(n Notice) {
	if s.notify != nil {
		s.notify(n)
	}
}
