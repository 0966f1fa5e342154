// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"strings"

	"tenantpress/internal/models"
)

// DomainStore handles custom-domain mapping database operations.
type DomainStore struct {
	db *sql.DB
}

// NewDomainStore creates a new DomainStore with the given database connection.
func NewDomainStore(db *sql.DB) *DomainStore {
	return &DomainStore{db: db}
}

// Resolve returns the username owning a custom domain, or "" when the
// domain is not attached to any tenant. Lookup is case-insensitive.
func (s *DomainStore) Resolve(domain string) (string, error) {
	var username string
	err := s.db.QueryRow(`
		SELECT username FROM domains WHERE domain = $1
	`, strings.ToLower(strings.TrimSpace(domain))).Scan(&username)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve domain: %w", err)
	}
	return username, nil
}

// Attach maps a custom domain to a tenant. Fails if the domain is
// already claimed by any tenant.
func (s *DomainStore) Attach(domain, username string) (*models.Domain, error) {
	d := &models.Domain{}
	err := s.db.QueryRow(`
		INSERT INTO domains (domain, username)
		VALUES ($1, $2)
		RETURNING id, domain, username, created_at
	`, strings.ToLower(strings.TrimSpace(domain)), username).Scan(
		&d.ID, &d.Domain, &d.Username, &d.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("attach domain: %w", err)
	}
	return d, nil
}

// Detach removes a custom domain mapping owned by the given tenant.
func (s *DomainStore) Detach(domain, username string) error {
	_, err := s.db.Exec(`
		DELETE FROM domains WHERE domain = $1 AND username = $2
	`, strings.ToLower(strings.TrimSpace(domain)), username)
	if err != nil {
		return fmt.Errorf("detach domain: %w", err)
	}
	return nil
}

// ListByUsername returns all custom domains attached to a tenant.
func (s *DomainStore) ListByUsername(username string) ([]models.Domain, error) {
	rows, err := s.db.Query(`
		SELECT id, domain, username, created_at
		FROM domains WHERE username = $1
		ORDER BY created_at
	`, username)
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	defer rows.Close()

	var domains []models.Domain
	for rows.Next() {
		var d models.Domain
		if err := rows.Scan(&d.ID, &d.Domain, &d.Username, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan domain: %w", err)
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}
