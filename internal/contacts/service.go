package contacts

import (
	"context"
	"time"

	"github.com/kubitskyi/contacts-api/pkg/db/models"
	pkgerrors "github.com/kubitskyi/contacts-api/pkg/errors"
	"github.com/kubitskyi/contacts-api/pkg/pagination"
)

const notFoundMessage = "contact not found"

// Service exposes the owner-scoped contact operations used by the HTTP layer.
type Service interface {
	Create(ctx context.Context, ownerID int64, input CreateContactInput) (*ContactDTO, error)
	List(ctx context.Context, ownerID int64, page pagination.Params) ([]ContactDTO, error)
	Get(ctx context.Context, ownerID, id int64) (*ContactDTO, error)
	Update(ctx context.Context, ownerID, id int64, input UpdateContactInput) (*ContactDTO, error)
	Remove(ctx context.Context, ownerID, id int64) (*ContactDTO, error)
	Search(ctx context.Context, ownerID int64, query string) ([]ContactDTO, error)
	UpcomingBirthdays(ctx context.Context, ownerID int64) ([]BirthdayDTO, error)
}

type contactsRepository interface {
	Create(ctx context.Context, ownerID int64, input CreateContactInput) (*models.Contact, error)
	List(ctx context.Context, ownerID int64, limit, offset int) ([]models.Contact, error)
	Get(ctx context.Context, ownerID, id int64) (*models.Contact, error)
	Update(ctx context.Context, ownerID, id int64, input UpdateContactInput) (*models.Contact, error)
	Remove(ctx context.Context, ownerID, id int64) (*models.Contact, error)
	Search(ctx context.Context, ownerID int64, text string) ([]models.Contact, error)
	UpcomingBirthdays(ctx context.Context, ownerID int64, today time.Time) ([]BirthdayDTO, error)
}

// ServiceParams groups dependencies for the contacts service.
type ServiceParams struct {
	Repo  contactsRepository
	Clock func() time.Time
}

type service struct {
	repo  contactsRepository
	clock func() time.Time
}

// NewService builds a contacts service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contacts repo is required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{repo: params.Repo, clock: clock}, nil
}

func (s *service) Create(ctx context.Context, ownerID int64, input CreateContactInput) (*ContactDTO, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	contact, err := s.repo.Create(ctx, ownerID, input)
	if err != nil {
		return nil, storageError(err, "create contact")
	}
	return FromModel(contact), nil
}

func (s *service) List(ctx context.Context, ownerID int64, page pagination.Params) ([]ContactDTO, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	page = page.Normalize()
	rows, err := s.repo.List(ctx, ownerID, page.Limit, page.Offset)
	if err != nil {
		return nil, storageError(err, "list contacts")
	}
	return FromModels(rows), nil
}

func (s *service) Get(ctx context.Context, ownerID, id int64) (*ContactDTO, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	contact, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, storageError(err, "load contact")
	}
	if contact == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
	}
	return FromModel(contact), nil
}

func (s *service) Update(ctx context.Context, ownerID, id int64, input UpdateContactInput) (*ContactDTO, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	contact, err := s.repo.Update(ctx, ownerID, id, input)
	if err != nil {
		return nil, storageError(err, "update contact")
	}
	if contact == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
	}
	return FromModel(contact), nil
}

func (s *service) Remove(ctx context.Context, ownerID, id int64) (*ContactDTO, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	contact, err := s.repo.Remove(ctx, ownerID, id)
	if err != nil {
		return nil, storageError(err, "remove contact")
	}
	if contact == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
	}
	return FromModel(contact), nil
}

func (s *service) Search(ctx context.Context, ownerID int64, query string) ([]ContactDTO, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	rows, err := s.repo.Search(ctx, ownerID, query)
	if err != nil {
		return nil, storageError(err, "search contacts")
	}
	return FromModels(rows), nil
}

func (s *service) UpcomingBirthdays(ctx context.Context, ownerID int64) ([]BirthdayDTO, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	rows, err := s.repo.UpcomingBirthdays(ctx, ownerID, s.clock())
	if err != nil {
		return nil, storageError(err, "list upcoming birthdays")
	}
	if rows == nil {
		rows = []BirthdayDTO{}
	}
	return rows, nil
}

func requireOwner(ownerID int64) error {
	if ownerID <= 0 {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated user required")
	}
	return nil
}

// storageError keeps typed errors raised by the repository and marks the rest as
// dependency failures.
func storageError(err error, msg string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
