package contacts

import (
	"context"
	"strings"
	"time"

	"github.com/kubitskyi/contacts-api/internal/repo"
	"github.com/kubitskyi/contacts-api/pkg/db"
	"github.com/kubitskyi/contacts-api/pkg/db/models"
	pkgerrors "github.com/kubitskyi/contacts-api/pkg/errors"
	"github.com/kubitskyi/contacts-api/pkg/pagination"
	"gorm.io/gorm"
)

// search_key holds the lower-cased first name, last name and email; see models.ContactSearchKey.
const searchCondition = `search_key LIKE ? ESCAPE '\'`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Repository persists contacts. Every query is filtered by the owning user; a contact
// that belongs to someone else is indistinguishable from one that does not exist.
type Repository struct {
	repo.Base
}

// NewRepository builds a contacts repository bound to the provided DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

// Create inserts a contact owned by ownerID.
func (r *Repository) Create(ctx context.Context, ownerID int64, input CreateContactInput) (*models.Contact, error) {
	contact := input.ToModel(ownerID)
	if err := r.DB(ctx).Create(contact).Error; err != nil {
		return nil, mapWriteError(err)
	}
	return contact, nil
}

// List returns a page of owned contacts ordered by id.
func (r *Repository) List(ctx context.Context, ownerID int64, limit, offset int) ([]models.Contact, error) {
	page := pagination.Params{Limit: limit, Offset: offset}.Normalize()

	var rows []models.Contact
	err := r.DB(ctx).
		Scopes(repo.OwnedBy(ownerID)).
		Order("id ASC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Get returns the owned contact or nil when it is not visible to ownerID.
func (r *Repository) Get(ctx context.Context, ownerID, id int64) (*models.Contact, error) {
	return findOwned(r.DB(ctx), ownerID, id)
}

// Update applies input to the owned contact inside a transaction and returns the saved
// row, or nil when the contact is not visible to ownerID.
func (r *Repository) Update(ctx context.Context, ownerID, id int64, input UpdateContactInput) (*models.Contact, error) {
	var updated *models.Contact
	err := r.InTx(ctx, func(tx *gorm.DB) error {
		contact, err := findOwned(tx, ownerID, id)
		if err != nil || contact == nil {
			return err
		}
		input.Apply(contact)
		if err := tx.Save(contact).Error; err != nil {
			return err
		}
		updated = contact
		return nil
	})
	if err != nil {
		return nil, mapWriteError(err)
	}
	return updated, nil
}

// Remove deletes the owned contact and returns its last state, or nil when it is not
// visible to ownerID.
func (r *Repository) Remove(ctx context.Context, ownerID, id int64) (*models.Contact, error) {
	var removed *models.Contact
	err := r.InTx(ctx, func(tx *gorm.DB) error {
		contact, err := findOwned(tx, ownerID, id)
		if err != nil || contact == nil {
			return err
		}
		if err := tx.Where("id = ? AND user_id = ?", id, ownerID).Delete(&models.Contact{}).Error; err != nil {
			return err
		}
		removed = contact
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// Search returns owned contacts whose first name, last name or email contains text,
// ignoring case. An empty text matches every owned contact.
func (r *Repository) Search(ctx context.Context, ownerID int64, text string) ([]models.Contact, error) {
	pattern := "%" + likeEscaper.Replace(models.ContactSearchNeedle(text)) + "%"

	var rows []models.Contact
	err := r.DB(ctx).
		Scopes(repo.OwnedBy(ownerID)).
		Where(searchCondition, pattern).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpcomingBirthdays returns owned contacts whose birthday is observed within the next
// seven days, today included.
func (r *Repository) UpcomingBirthdays(ctx context.Context, ownerID int64, today time.Time) ([]BirthdayDTO, error) {
	var rows []BirthdayDTO
	err := r.DB(ctx).
		Model(&models.Contact{}).
		Select("id", "first_name", "last_name", "birthday").
		Where("user_id = ? AND birthday IS NOT NULL", ownerID).
		Order("id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return selectUpcoming(rows, today), nil
}

func findOwned(tx *gorm.DB, ownerID, id int64) (*models.Contact, error) {
	var contact models.Contact
	err := tx.Scopes(repo.OwnedBy(ownerID)).Where("id = ?", id).First(&contact).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &contact, nil
}

func mapWriteError(err error) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a contact with this email already exists")
	}
	return err
}
