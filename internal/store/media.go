// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"tenantpress/internal/models"
)

// MediaStore handles uploaded asset metadata database operations.
type MediaStore struct {
	db *sql.DB
}

// NewMediaStore creates a new MediaStore with the given database connection.
func NewMediaStore(db *sql.DB) *MediaStore {
	return &MediaStore{db: db}
}

// Create records an uploaded asset and returns it with the generated ID.
func (s *MediaStore) Create(m *models.Media) (*models.Media, error) {
	result := &models.Media{}
	err := s.db.QueryRow(`
		INSERT INTO media (username, filename, content_type, size_bytes, s3_key, thumb_s3_key, url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, username, filename, content_type, size_bytes, s3_key, thumb_s3_key, url, created_at
	`, m.Username, m.Filename, m.ContentType, m.SizeBytes, m.S3Key, m.ThumbS3Key, m.URL).Scan(
		&result.ID, &result.Username, &result.Filename, &result.ContentType,
		&result.SizeBytes, &result.S3Key, &result.ThumbS3Key, &result.URL, &result.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create media: %w", err)
	}
	return result, nil
}

// ListByUsername returns a tenant's uploads, newest first.
func (s *MediaStore) ListByUsername(username string, limit, offset int) ([]models.Media, error) {
	rows, err := s.db.Query(`
		SELECT id, username, filename, content_type, size_bytes, s3_key, thumb_s3_key, url, created_at
		FROM media WHERE username = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, username, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	var items []models.Media
	for rows.Next() {
		var m models.Media
		if err := rows.Scan(
			&m.ID, &m.Username, &m.Filename, &m.ContentType,
			&m.SizeBytes, &m.S3Key, &m.ThumbS3Key, &m.URL, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// Delete removes an asset record owned by the given tenant. Returns the
// removed record so the caller can delete the stored objects, or nil when
// nothing matched.
func (s *MediaStore) Delete(id uuid.UUID, username string) (*models.Media, error) {
	m := &models.Media{}
	err := s.db.QueryRow(`
		DELETE FROM media WHERE id = $1 AND username = $2
		RETURNING id, username, filename, content_type, size_bytes, s3_key, thumb_s3_key, url, created_at
	`, id, username).Scan(
		&m.ID, &m.Username, &m.Filename, &m.ContentType,
		&m.SizeBytes, &m.S3Key, &m.ThumbS3Key, &m.URL, &m.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete media: %w", err)
	}
	return m, nil
}
