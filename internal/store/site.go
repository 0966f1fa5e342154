// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"tenantpress/internal/document"
	"tenantpress/internal/models"
)

// SiteStore handles site content database operations. Content is stored
// as the raw JSON the save endpoint received; readers normalize it.
type SiteStore struct {
	db *sql.DB
}

// NewSiteStore creates a new SiteStore with the given database connection.
func NewSiteStore(db *sql.DB) *SiteStore {
	return &SiteStore{db: db}
}

// FindByUsername retrieves a tenant's site. Returns nil if the tenant has
// no site yet.
func (s *SiteStore) FindByUsername(username string) (*models.Site, error) {
	site := &models.Site{}
	err := s.db.QueryRow(`
		SELECT id, username, template, content, created_at, updated_at
		FROM sites WHERE username = $1
	`, username).Scan(
		&site.ID, &site.Username, &site.Template, &site.Content,
		&site.CreatedAt, &site.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find site by username: %w", err)
	}
	return site, nil
}

// Upsert stores the full content document for a tenant, creating the row
// on first save. The whole document is replaced; partial updates are not
// part of the persistence contract.
func (s *SiteStore) Upsert(username string, template document.TemplateType, content json.RawMessage) error {
	_, err := s.db.Exec(`
		INSERT INTO sites (username, template, content)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE SET
			template = EXCLUDED.template,
			content = EXCLUDED.content,
			updated_at = NOW()
	`, username, string(template), content)
	if err != nil {
		return fmt.Errorf("upsert site: %w", err)
	}
	return nil
}

// Delete removes a tenant's site.
func (s *SiteStore) Delete(username string) error {
	_, err := s.db.Exec(`DELETE FROM sites WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("delete site: %w", err)
	}
	return nil
}
