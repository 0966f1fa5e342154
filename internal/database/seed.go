package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"tenantpress/internal/document"
)

// Seed populates the database with initial development data: a demo
// tenant "acme" with a default business site and a custom domain, so the
// routing middleware and editor have something to resolve and edit.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("acme"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO users (username, email, password_hash, plan)
		VALUES ($1, $2, $3, $4)
	`, "acme", "owner@acme.example", string(hash), "free")
	if err != nil {
		return fmt.Errorf("seed insert user: %w", err)
	}

	content, err := json.Marshal(document.Default("acme"))
	if err != nil {
		return fmt.Errorf("seed marshal content: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO sites (username, template, content)
		VALUES ($1, $2, $3)
	`, "acme", string(document.TemplateBusiness), content)
	if err != nil {
		return fmt.Errorf("seed insert site: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO domains (domain, username)
		VALUES ($1, $2)
	`, "acme.localtest.me", "acme")
	if err != nil {
		return fmt.Errorf("seed insert domain: %w", err)
	}

	slog.Info("database seeded with demo tenant",
		"username", "acme",
		"password", "acme",
		"domain", "acme.localtest.me",
	)

	return nil
}
