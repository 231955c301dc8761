package contacts

import (
	"strings"

	"github.com/kubitskyi/contacts-api/pkg/db/models"
	dbtypes "github.com/kubitskyi/contacts-api/pkg/db/types"
)

// ContactDTO is the transport shape of a contact.
type ContactDTO struct {
	ID             int64         `json:"id"`
	FirstName      string        `json:"first_name"`
	LastName       string        `json:"last_name"`
	Email          string        `json:"email"`
	PhoneNumber    string        `json:"phone_number"`
	Birthday       *dbtypes.Date `json:"birthday"`
	AdditionalInfo *string       `json:"additional_info"`
}

// BirthdayDTO is the projection returned by the upcoming-birthdays lookup.
type BirthdayDTO struct {
	ID        int64        `json:"id"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	Birthday  dbtypes.Date `json:"birthday"`
}

// CreateContactInput carries the fields of a new contact.
type CreateContactInput struct {
	FirstName      string        `json:"first_name" validate:"required,max=50"`
	LastName       string        `json:"last_name" validate:"required,max=50"`
	Email          string        `json:"email" validate:"required,email,max=50"`
	PhoneNumber    string        `json:"phone_number" validate:"required,max=15"`
	Birthday       *dbtypes.Date `json:"birthday"`
	AdditionalInfo *string       `json:"additional_info"`
}

// UpdateContactInput replaces every mutable field of an existing contact.
type UpdateContactInput CreateContactInput

// ToModel builds the row for ownerID.
func (in CreateContactInput) ToModel(ownerID int64) *models.Contact {
	contact := &models.Contact{UserID: &ownerID}
	UpdateContactInput(in).Apply(contact)
	return contact
}

// Apply overwrites the mutable fields of contact. Identity and ownership are left alone.
func (in UpdateContactInput) Apply(contact *models.Contact) {
	contact.FirstName = strings.TrimSpace(in.FirstName)
	contact.LastName = strings.TrimSpace(in.LastName)
	contact.Email = strings.TrimSpace(in.Email)
	contact.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	contact.Birthday = cloneDate(in.Birthday)
	contact.AdditionalInfo = in.AdditionalInfo
}

// FromModel maps a contact row to its transport shape.
func FromModel(c *models.Contact) *ContactDTO {
	if c == nil {
		return nil
	}
	return &ContactDTO{
		ID:             c.ID,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		Email:          c.Email,
		PhoneNumber:    c.PhoneNumber,
		Birthday:       cloneDate(c.Birthday),
		AdditionalInfo: c.AdditionalInfo,
	}
}

// FromModels maps a slice of rows, never returning nil.
func FromModels(rows []models.Contact) []ContactDTO {
	out := make([]ContactDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

func cloneDate(d *dbtypes.Date) *dbtypes.Date {
	if d == nil {
		return nil
	}
	copy := *d
	return &copy
}
