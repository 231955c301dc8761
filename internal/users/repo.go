package users

import (
	"context"

	"github.com/kubitskyi/contacts-api/internal/repo"
	"github.com/kubitskyi/contacts-api/pkg/db"
	"github.com/kubitskyi/contacts-api/pkg/db/models"
	pkgerrors "github.com/kubitskyi/contacts-api/pkg/errors"
	"github.com/kubitskyi/contacts-api/pkg/gravatar"
	"github.com/kubitskyi/contacts-api/pkg/logger"
	"gorm.io/gorm"
)

type avatarRecorder interface {
	Inc(status string)
}

// RepositoryParams groups dependencies for the users repository.
type RepositoryParams struct {
	DB            *gorm.DB
	Avatars       gravatar.Resolver
	AvatarMetrics avatarRecorder
	Logger        *logger.Logger
}

// Repository exposes user-related persistence operations.
type Repository struct {
	repo.Base
	avatars gravatar.Resolver
	metrics avatarRecorder
	logg    *logger.Logger
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(params RepositoryParams) *Repository {
	return &Repository{
		Base:    repo.NewBase(params.DB),
		avatars: params.Avatars,
		metrics: params.AvatarMetrics,
		logg:    params.Logger,
	}
}

// Create looks up an avatar for the address and inserts the user. A failed lookup only
// leaves the avatar empty.
func (r *Repository) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	user := input.ToModel()
	user.Avatar = r.resolveAvatar(ctx, user.Email)

	if err := r.DB(ctx).Create(user).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "account already exists")
		}
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email, or nil.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(r.DB(ctx).Where("email = ?", NormalizeEmail(email)))
}

// FindByID loads a user by id, or nil.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return r.findOne(r.DB(ctx).Where("id = ?", id))
}

// UpdateRefreshToken stores the token; nil clears it.
func (r *Repository) UpdateRefreshToken(ctx context.Context, userID int64, token *string) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("refresh_token", token).Error
}

// MarkEmailConfirmed flags the address as confirmed.
func (r *Repository) MarkEmailConfirmed(ctx context.Context, email string) error {
	res := r.DB(ctx).
		Model(&models.User{}).
		Where("email = ?", NormalizeEmail(email)).
		Update("confirmed", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

// UpdateAvatar sets the avatar URL and returns the updated user.
func (r *Repository) UpdateAvatar(ctx context.Context, email, url string) (*models.User, error) {
	normalized := NormalizeEmail(email)
	res := r.DB(ctx).
		Model(&models.User{}).
		Where("email = ?", normalized).
		Update("avatar", url)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return r.FindByEmail(ctx, normalized)
}

func (r *Repository) findOne(query *gorm.DB) (*models.User, error) {
	var user models.User
	if err := query.First(&user).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) resolveAvatar(ctx context.Context, email string) *string {
	if r.avatars == nil {
		return nil
	}
	res := r.avatars.Resolve(ctx, email)
	if r.metrics != nil {
		r.metrics.Inc(string(res.Status))
	}
	if res.Status == gravatar.StatusSkipped && r.logg != nil {
		r.logg.Warn(r.logg.WithField(ctx, "reason", res.Reason), "avatar lookup skipped")
	}
	return res.Avatar()
}
