package auth

import (
	"context"

	"github.com/kubitskyi/contacts-api/internal/users"
	pkgAuth "github.com/kubitskyi/contacts-api/pkg/auth"
	pkgerrors "github.com/kubitskyi/contacts-api/pkg/errors"
	"github.com/kubitskyi/contacts-api/pkg/security"
)

const (
	confirmationSentMessage = "check your email for confirmation"
	alreadyConfirmedMessage = "your email is already confirmed"
	emailConfirmedMessage   = "email confirmed"
)

// Signup hashes the password and creates the account. A confirmation token is
// issued right away for the new address.
func (s *service) Signup(ctx context.Context, req SignupRequest) (*users.UserDTO, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	existing, err := s.lookup(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "account already exists")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserInput{
		Username:     req.Username,
		Email:        email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	if err := s.sendConfirmation(ctx, user.Email); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "confirmation token not issued")
	}
	return users.FromModel(user), nil
}

// ConfirmEmail marks the address carried by a confirmation token as confirmed.
func (s *service) ConfirmEmail(ctx context.Context, token string) (*MessageResponse, error) {
	email, err := pkgAuth.ParseEmailToken(s.jwtCfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid token for email verification")
	}

	user, err := s.lookup(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "verification error")
	}
	if user.Confirmed {
		return &MessageResponse{Message: alreadyConfirmedMessage}, nil
	}

	if err := s.users.MarkEmailConfirmed(ctx, user.Email); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm email")
	}
	return &MessageResponse{Message: emailConfirmedMessage}, nil
}

// RequestEmail re-issues a confirmation token. Unknown addresses get the same
// answer as known ones.
func (s *service) RequestEmail(ctx context.Context, email string) (*MessageResponse, error) {
	user, err := s.lookup(ctx, email)
	if err != nil {
		return nil, err
	}
	if user != nil && user.Confirmed {
		return &MessageResponse{Message: alreadyConfirmedMessage}, nil
	}
	if user != nil {
		if err := s.sendConfirmation(ctx, user.Email); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint confirmation token")
		}
	}
	return &MessageResponse{Message: confirmationSentMessage}, nil
}

// sendConfirmation logs the token in place of mail delivery.
func (s *service) sendConfirmation(ctx context.Context, email string) error {
	token, err := pkgAuth.MintEmailToken(s.jwtCfg, s.now(), email)
	if err != nil {
		return err
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"email":              email,
		"confirmation_token": token,
	})
	s.logg.Info(logCtx, "email confirmation issued")
	return nil
}
