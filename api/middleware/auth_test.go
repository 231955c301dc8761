package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kubitskyi/contacts-api/pkg/auth"
	"github.com/kubitskyi/contacts-api/pkg/config"
	"github.com/kubitskyi/contacts-api/pkg/db/models"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWT, stubIdentityStore{}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWT, stubIdentityStore{}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsEmailConfirmationToken(t *testing.T) {
	cfg := testJWT
	cfg.EmailTokenTTLMinutes = 10
	token, err := auth.MintEmailToken(cfg, time.Now(), "ann@example.com")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	handler := Auth(cfg, stubIdentityStore{}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthAllowsValidToken(t *testing.T) {
	token := mintTestToken(t, 42, "ann@example.com")
	store := stubIdentityStore{users: map[int64]*models.User{42: {ID: 42, Email: "ann@example.com"}}}

	var captured struct {
		user  int64
		email string
	}
	handler := Auth(testJWT, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.user = UserIDFromContext(r.Context())
		captured.email = UserEmailFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.user != 42 {
		t.Fatalf("expected user 42 in context, got %d", captured.user)
	}
	if captured.email != "ann@example.com" {
		t.Fatalf("unexpected email %q", captured.email)
	}
}

func TestAuthRejectsDeletedUser(t *testing.T) {
	token := mintTestToken(t, 7, "gone@example.com")
	handler := Auth(testJWT, stubIdentityStore{}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthStoreFailureIsUnavailable(t *testing.T) {
	token := mintTestToken(t, 7, "ann@example.com")
	handler := Auth(testJWT, stubIdentityStore{err: errors.New("db down")}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestUserIDFromContextDefaults(t *testing.T) {
	if got := UserIDFromContext(context.Background()); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	ctx := WithUser(context.Background(), 9, "x@example.com")
	if UserIDFromContext(ctx) != 9 || UserEmailFromContext(ctx) != "x@example.com" {
		t.Fatal("expected identity to round trip through context")
	}
}

func mintTestToken(t *testing.T, userID int64, email string) string {
	t.Helper()
	token, err := auth.MintAccessToken(testJWT, time.Now(), auth.AccessTokenPayload{UserID: userID, Email: email})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

type stubIdentityStore struct {
	users map[int64]*models.User
	err   error
}

func (s stubIdentityStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.users[id], nil
}
