package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const refreshTokenBytes = 32

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// TokenStore persists the single active refresh token of a user.
type TokenStore interface {
	UpdateRefreshToken(ctx context.Context, userID int64, token *string) error
}

// Manager handles refresh token creation, storage, and rotation.
type Manager struct {
	store TokenStore
}

// NewManager constructs a session manager backed by the users table.
func NewManager(store TokenStore) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("token store is required")
	}
	return &Manager{store: store}, nil
}

// Generate creates a refresh token for the user and stores it, replacing any previous one.
func (m *Manager) Generate(ctx context.Context, userID int64) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("user id is required")
	}
	token, err := generateRefreshToken()
	if err != nil {
		return "", err
	}
	if err := m.store.UpdateRefreshToken(ctx, userID, &token); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate checks the presented token against the stored one and issues a replacement.
// A mismatch revokes the stored token so a leaked token cannot be replayed.
func (m *Manager) Rotate(ctx context.Context, userID int64, stored *string, provided string) (string, error) {
	if userID <= 0 || strings.TrimSpace(provided) == "" {
		return "", ErrInvalidRefreshToken
	}
	if stored == nil || subtle.ConstantTimeCompare([]byte(*stored), []byte(provided)) != 1 {
		if err := m.Revoke(ctx, userID); err != nil {
			return "", err
		}
		return "", ErrInvalidRefreshToken
	}
	return m.Generate(ctx, userID)
}

// Revoke clears the refresh token of the user.
func (m *Manager) Revoke(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("user id is required")
	}
	return m.store.UpdateRefreshToken(ctx, userID, nil)
}

func generateRefreshToken() (string, error) {
	bytes := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
