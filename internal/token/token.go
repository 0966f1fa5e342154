// Package token provides Valkey-backed bearer token management for the
// dashboard API. Tokens are random opaque strings stored as JSON in Valkey
// with automatic TTL expiry.
package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL is how long a token lives in Valkey before automatic expiry.
	DefaultTTL = 24 * time.Hour

	// keyPrefix namespaces token keys in Valkey to avoid collisions.
	keyPrefix = "token:"

	// idLength is the byte length of the random token (32 bytes = 64 hex chars).
	idLength = 32
)

// Identity holds the token payload stored in Valkey. It identifies the
// authenticated tenant owner.
type Identity struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
}

// Store manages bearer token lifecycle in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a token store backed by the given Valkey client.
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		ttl:    DefaultTTL,
	}
}

// Issue generates a new token for the identity and stores it in Valkey.
func (s *Store) Issue(ctx context.Context, id *Identity) (string, error) {
	tok, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("token issue: %w", err)
	}

	id.CreatedAt = time.Now()

	payload, err := json.Marshal(id)
	if err != nil {
		return "", fmt.Errorf("token marshal: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+tok, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("token store: %w", err)
	}

	return tok, nil
}

// Get retrieves the identity bound to a token. Returns nil if the token
// is unknown or expired (not an error).
func (s *Store) Get(ctx context.Context, tok string) (*Identity, error) {
	if tok == "" {
		return nil, nil
	}

	payload, err := s.client.Get(ctx, keyPrefix+tok).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("token get: %w", err)
	}

	var id Identity
	if err := json.Unmarshal(payload, &id); err != nil {
		return nil, fmt.Errorf("token unmarshal: %w", err)
	}

	// Sliding expiry: each use extends the token's lifetime.
	s.client.Expire(ctx, keyPrefix+tok, s.ttl)

	return &id, nil
}

// Revoke deletes a token from Valkey.
func (s *Store) Revoke(ctx context.Context, tok string) error {
	if tok == "" {
		return nil
	}
	if err := s.client.Del(ctx, keyPrefix+tok).Err(); err != nil {
		return fmt.Errorf("token revoke: %w", err)
	}
	return nil
}

// generateToken creates a cryptographically random hex token.
func generateToken() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("random token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
