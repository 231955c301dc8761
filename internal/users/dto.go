package users

import (
	"strings"
	"time"

	"github.com/kubitskyi/contacts-api/pkg/db/models"
)

// UserDTO is the transport shape that omits credentials and tokens.
type UserDTO struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Avatar    *string   `json:"avatar"`
	Confirmed bool      `json:"confirmed"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateUserInput holds the data required by the repo to persist a new user.
type CreateUserInput struct {
	Username     string
	Email        string
	PasswordHash string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Avatar:    u.Avatar,
		Confirmed: u.Confirmed,
		CreatedAt: u.CreatedAt,
	}
}

func (c CreateUserInput) ToModel() *models.User {
	return &models.User{
		Username: strings.TrimSpace(c.Username),
		Email:    NormalizeEmail(c.Email),
		Password: c.PasswordHash,
	}
}

// NormalizeEmail is applied on every write and lookup so the unique index is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
