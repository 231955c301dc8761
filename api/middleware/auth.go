package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/kubitskyi/contacts-api/api/responses"
	pkgAuth "github.com/kubitskyi/contacts-api/pkg/auth"
	"github.com/kubitskyi/contacts-api/pkg/config"
	"github.com/kubitskyi/contacts-api/pkg/db/models"
	pkgerrors "github.com/kubitskyi/contacts-api/pkg/errors"
	"github.com/kubitskyi/contacts-api/pkg/logger"
)

// IdentityStore resolves the account behind a verified token.
type IdentityStore interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// Auth validates a bearer token and seeds the request context with the user identity.
func Auth(cfg config.JWTConfig, users IdentityStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "could not validate credentials"))
				return
			}

			email := claims.Email
			if users != nil {
				user, err := users.FindByID(r.Context(), claims.UserID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user"))
					return
				}
				if user == nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "could not validate credentials"))
					return
				}
				email = user.Email
			}

			ctx := WithUser(r.Context(), claims.UserID, email)
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
