// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"tenantpress/internal/document"
)

// Site is one tenant's generated micro-site: which template renders it
// and the raw content document as last saved. Content is stored verbatim;
// normalization happens on read so historical rows with missing fields
// keep loading.
type Site struct {
	ID        uuid.UUID             `json:"id"`
	Username  string                `json:"username"`
	Template  document.TemplateType `json:"template"`
	Content   json.RawMessage       `json:"content"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// Domain maps a custom domain to the tenant that owns it.
type Domain struct {
	ID        uuid.UUID `json:"id"`
	Domain    string    `json:"domain"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}
