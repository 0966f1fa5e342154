// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the persistent aggregates: tenant accounts,
// their sites, custom domain mappings, and uploaded media.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a tenant account. The username doubles as the tenant identifier
// in page routes and the sites/domains tables.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Plan         string    `json:"plan"` // "free", "pro"
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
