package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kubitskyi/contacts-api/api/middleware"
	"github.com/kubitskyi/contacts-api/api/responses"
	"github.com/kubitskyi/contacts-api/api/validators"
	"github.com/kubitskyi/contacts-api/internal/contacts"
	pkgerrors "github.com/kubitskyi/contacts-api/pkg/errors"
	"github.com/kubitskyi/contacts-api/pkg/logger"
	"github.com/kubitskyi/contacts-api/pkg/pagination"
	"github.com/kubitskyi/contacts-api/pkg/types"
)

const (
	contactIDParam    = "contactID"
	searchQueryParam  = "query"
	maxSearchQueryLen = 250
	maxOffset         = 1 << 30
)

func contactsUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contacts service unavailable"))
}

// ContactList returns a page of the caller's contacts.
func ContactList(svc contacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			contactsUnavailable(w, r, logg)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, maxOffset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := pagination.Params{Limit: limit, Offset: offset}
		list, err := svc.List(r.Context(), middleware.UserIDFromContext(r.Context()), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WritePage(w, list, types.PageMeta{Limit: limit, Offset: offset, Count: len(list)})
	}
}

// ContactSearch matches the query against first name, last name and email.
func ContactSearch(svc contacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			contactsUnavailable(w, r, logg)
			return
		}

		query, err := validators.RequiredQueryString(r, searchQueryParam, maxSearchQueryLen)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.Search(r.Context(), middleware.UserIDFromContext(r.Context()), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ContactBirthdays lists contacts celebrating within the next week.
func ContactBirthdays(svc contacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			contactsUnavailable(w, r, logg)
			return
		}

		list, err := svc.UpcomingBirthdays(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ContactGet(svc contacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			contactsUnavailable(w, r, logg)
			return
		}

		id, err := contactIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		contact, err := svc.Get(r.Context(), middleware.UserIDFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, contact)
	}
}

func ContactCreate(svc contacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			contactsUnavailable(w, r, logg)
			return
		}

		var body contacts.CreateContactInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		contact, err := svc.Create(r.Context(), middleware.UserIDFromContext(r.Context()), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, contact)
	}
}

// ContactUpdate replaces every mutable field of the contact.
func ContactUpdate(svc contacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			contactsUnavailable(w, r, logg)
			return
		}

		id, err := contactIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body contacts.UpdateContactInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		contact, err := svc.Update(r.Context(), middleware.UserIDFromContext(r.Context()), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, contact)
	}
}

func ContactDelete(svc contacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			contactsUnavailable(w, r, logg)
			return
		}

		id, err := contactIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.Remove(r.Context(), middleware.UserIDFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func contactIDFromPath(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, contactIDParam)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid contact id").
			WithDetails(map[string]any{"field": contactIDParam})
	}
	return id, nil
}
