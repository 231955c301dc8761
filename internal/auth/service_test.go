package auth

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kubitskyi/contacts-api/internal/users"
	pkgAuth "github.com/kubitskyi/contacts-api/pkg/auth"
	"github.com/kubitskyi/contacts-api/pkg/auth/session"
	"github.com/kubitskyi/contacts-api/pkg/config"
	"github.com/kubitskyi/contacts-api/pkg/db/models"
	pkgerrors "github.com/kubitskyi/contacts-api/pkg/errors"
	"github.com/kubitskyi/contacts-api/pkg/logger"
	"github.com/kubitskyi/contacts-api/pkg/security"
)

var testJWTConfig = config.JWTConfig{
	Secret:               "secret",
	Issuer:               "contacts-api",
	ExpirationMinutes:    30,
	EmailTokenTTLMinutes: 60,
}

func TestServiceLoginIssuesTokens(t *testing.T) {
	repo := newStubUserRepo()
	user := repo.add(t, "ann@example.com", "secret1", true)
	svc, _ := buildTestService(t, repo, true)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "Ann@Example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id %d, got %d", user.ID, claims.UserID)
	}
	if resp.RefreshToken == "" || resp.TokenType != "bearer" {
		t.Fatalf("unexpected token response %+v", resp)
	}
	if user.RefreshToken == nil || *user.RefreshToken != resp.RefreshToken {
		t.Fatalf("expected refresh token to be stored")
	}
}

func TestServiceLoginRejectsBadCredentials(t *testing.T) {
	repo := newStubUserRepo()
	repo.add(t, "ann@example.com", "secret1", true)
	svc, _ := buildTestService(t, repo, true)

	cases := []LoginRequest{
		{Email: "ann@example.com", Password: "wrong"},
		{Email: "nobody@example.com", Password: "secret1"},
		{Email: "  ", Password: "secret1"},
	}
	for _, req := range cases {
		_, err := svc.Login(context.Background(), req)
		if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			t.Fatalf("expected unauthorized for %+v, got %v", req, err)
		}
	}
}

func TestServiceLoginRequiresConfirmedEmail(t *testing.T) {
	repo := newStubUserRepo()
	repo.add(t, "new@example.com", "secret1", false)

	svc, _ := buildTestService(t, repo, true)
	_, err := svc.Login(context.Background(), LoginRequest{Email: "new@example.com", Password: "secret1"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized || typed.Message() != "email not confirmed" {
		t.Fatalf("expected unconfirmed rejection, got %v", err)
	}

	relaxed, _ := buildTestService(t, repo, false)
	if _, err := relaxed.Login(context.Background(), LoginRequest{Email: "new@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("expected login without confirmation requirement, got %v", err)
	}
}

func TestServiceRefreshRotatesToken(t *testing.T) {
	repo := newStubUserRepo()
	user := repo.add(t, "ann@example.com", "secret1", true)
	svc, _ := buildTestService(t, repo, true)

	login, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "secret1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), RefreshRequest{Email: user.Email, RefreshToken: login.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Fatalf("expected a new refresh token")
	}
	if *user.RefreshToken != refreshed.RefreshToken {
		t.Fatalf("expected rotated token to be stored")
	}

	_, err = svc.Refresh(context.Background(), RefreshRequest{Email: user.Email, RefreshToken: login.RefreshToken})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected replayed token to be rejected, got %v", err)
	}
	if user.RefreshToken != nil {
		t.Fatalf("expected stored token to be revoked after mismatch")
	}
}

func TestServiceRefreshUnknownUser(t *testing.T) {
	svc, _ := buildTestService(t, newStubUserRepo(), true)
	_, err := svc.Refresh(context.Background(), RefreshRequest{Email: "ghost@example.com", RefreshToken: "x"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceLogoutClearsToken(t *testing.T) {
	repo := newStubUserRepo()
	user := repo.add(t, "ann@example.com", "secret1", true)
	svc, _ := buildTestService(t, repo, true)

	if _, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "secret1"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(context.Background(), user.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if user.RefreshToken != nil {
		t.Fatalf("expected refresh token to be cleared")
	}
	if err := svc.Logout(context.Background(), 0); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for missing user id, got %v", err)
	}
}

func TestServiceLookupFailureIsDependencyError(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = errors.New("connection reset")
	svc, _ := buildTestService(t, repo, true)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "ann@example.com", Password: "secret1"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected missing repository to fail")
	}
	if _, err := NewService(ServiceParams{UserRepo: newStubUserRepo()}); err == nil {
		t.Fatal("expected missing session manager to fail")
	}
}

func buildTestService(t *testing.T, repo *stubUserRepo, requireConfirmed bool) (Service, *bytes.Buffer) {
	t.Helper()
	manager, err := session.NewManager(repo)
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	var buf bytes.Buffer
	svc, err := NewService(ServiceParams{
		UserRepo:              repo,
		SessionManager:        manager,
		JWTConfig:             testJWTConfig,
		RequireConfirmedEmail: requireConfirmed,
		Logger:                logger.New(logger.Options{ServiceName: "auth-test", Output: &buf}),
		Clock:                 func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, &buf
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	byEmail map[string]*models.User
	nextID  int64
	findErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byEmail: map[string]*models.User{}}
}

func (s *stubUserRepo) add(t *testing.T, email, password string, confirmed bool) *models.User {
	t.Helper()
	s.nextID++
	user := &models.User{
		ID:        s.nextID,
		Username:  strings.Split(email, "@")[0],
		Email:     email,
		Password:  mustHashPassword(t, password),
		Confirmed: confirmed,
	}
	s.byEmail[email] = user
	return user
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.byEmail[users.NormalizeEmail(email)], nil
}

func (s *stubUserRepo) Create(ctx context.Context, input users.CreateUserInput) (*models.User, error) {
	user := input.ToModel()
	if _, ok := s.byEmail[user.Email]; ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "account already exists")
	}
	s.nextID++
	user.ID = s.nextID
	s.byEmail[user.Email] = user
	return user, nil
}

func (s *stubUserRepo) MarkEmailConfirmed(ctx context.Context, email string) error {
	user, ok := s.byEmail[users.NormalizeEmail(email)]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	user.Confirmed = true
	return nil
}

func (s *stubUserRepo) UpdateRefreshToken(ctx context.Context, userID int64, token *string) error {
	for _, user := range s.byEmail {
		if user.ID == userID {
			user.RefreshToken = token
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}
