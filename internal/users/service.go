package users

import (
	"context"
	"strings"

	"github.com/kubitskyi/contacts-api/pkg/db/models"
	pkgerrors "github.com/kubitskyi/contacts-api/pkg/errors"
)

// UpdateAvatarRequest is the body accepted by the avatar endpoint.
type UpdateAvatarRequest struct {
	URL string `json:"url" validate:"required,url,max=255"`
}

// Service exposes the profile operations used by the HTTP layer.
type Service interface {
	Me(ctx context.Context, userID int64) (*UserDTO, error)
	UpdateAvatar(ctx context.Context, email, url string) (*UserDTO, error)
}

type profileRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	UpdateAvatar(ctx context.Context, email, url string) (*models.User, error)
}

type service struct {
	repo profileRepository
}

// NewService builds the profile service.
func NewService(repo profileRepository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "users repo is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Me(ctx context.Context, userID int64) (*UserDTO, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return FromModel(user), nil
}

func (s *service) UpdateAvatar(ctx context.Context, email, url string) (*UserDTO, error) {
	if strings.TrimSpace(email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	user, err := s.repo.UpdateAvatar(ctx, email, strings.TrimSpace(url))
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update avatar")
	}
	return FromModel(user), nil
}
