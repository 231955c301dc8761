package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kubitskyi/contacts-api/internal/users"
	pkgAuth "github.com/kubitskyi/contacts-api/pkg/auth"
	"github.com/kubitskyi/contacts-api/pkg/auth/session"
	"github.com/kubitskyi/contacts-api/pkg/config"
	"github.com/kubitskyi/contacts-api/pkg/db/models"
	pkgerrors "github.com/kubitskyi/contacts-api/pkg/errors"
	"github.com/kubitskyi/contacts-api/pkg/logger"
	"github.com/kubitskyi/contacts-api/pkg/security"
)

const (
	invalidCredentialsMessage = "invalid credentials"
	tokenTypeBearer           = "bearer"
)

// Service defines the behavior needed by the auth controller.
type Service interface {
	Signup(ctx context.Context, req SignupRequest) (*users.UserDTO, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error)
	Logout(ctx context.Context, userID int64) error
	ConfirmEmail(ctx context.Context, token string) (*MessageResponse, error)
	RequestEmail(ctx context.Context, email string) (*MessageResponse, error)
}

type service struct {
	users            userRepository
	session          sessionManager
	jwtCfg           config.JWTConfig
	passwordCfg      config.PasswordConfig
	requireConfirmed bool
	logg             *logger.Logger
	now              func() time.Time
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, input users.CreateUserInput) (*models.User, error)
	MarkEmailConfirmed(ctx context.Context, email string) error
}

type sessionManager interface {
	Generate(ctx context.Context, userID int64) (string, error)
	Rotate(ctx context.Context, userID int64, stored *string, provided string) (string, error)
	Revoke(ctx context.Context, userID int64) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo              userRepository
	SessionManager        sessionManager
	JWTConfig             config.JWTConfig
	PasswordConfig        config.PasswordConfig
	RequireConfirmedEmail bool
	Logger                *logger.Logger
	Clock                 func() time.Time
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		users:            params.UserRepo,
		session:          params.SessionManager,
		jwtCfg:           params.JWTConfig,
		passwordCfg:      params.PasswordConfig,
		requireConfirmed: params.RequireConfirmedEmail,
		logg:             params.Logger,
		now:              clock,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.lookup(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if s.requireConfirmed && !user.Confirmed {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "email not confirmed")
	}

	valid, err := security.VerifyPassword(req.Password, user.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	refreshToken, err := s.session.Generate(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}
	return s.issue(user, refreshToken)
}

func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error) {
	user, err := s.lookup(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}

	refreshToken, err := s.session.Rotate(ctx, user.ID, user.RefreshToken, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate refresh token")
	}
	return s.issue(user, refreshToken)
}

func (s *service) Logout(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if err := s.session.Revoke(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke refresh token")
	}
	return nil
}

func (s *service) issue(user *models.User, refreshToken string) (*TokenResponse, error) {
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenTypeBearer,
		User:         users.FromModel(user),
	}, nil
}

// lookup returns nil without error for blank or unknown addresses.
func (s *service) lookup(ctx context.Context, email string) (*models.User, error) {
	input := strings.TrimSpace(email)
	if input == "" {
		return nil, nil
	}
	user, err := s.users.FindByEmail(ctx, strings.ToLower(input))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	return user, nil
}
