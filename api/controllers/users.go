package controllers

import (
	"net/http"

	"github.com/kubitskyi/contacts-api/api/middleware"
	"github.com/kubitskyi/contacts-api/api/responses"
	"github.com/kubitskyi/contacts-api/api/validators"
	"github.com/kubitskyi/contacts-api/internal/users"
	pkgerrors "github.com/kubitskyi/contacts-api/pkg/errors"
	"github.com/kubitskyi/contacts-api/pkg/logger"
)

// UserMe returns the authenticated user's profile.
func UserMe(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		user, err := svc.Me(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// UserUpdateAvatar points the caller's avatar at a new URL.
func UserUpdateAvatar(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		var body users.UpdateAvatarRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.UpdateAvatar(r.Context(), middleware.UserEmailFromContext(r.Context()), body.URL)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}
