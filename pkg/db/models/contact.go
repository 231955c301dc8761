package models

import (
	"strings"
	"time"

	"gorm.io/gorm"

	dbtypes "github.com/kubitskyi/contacts-api/pkg/db/types"
)

// searchKeySeparator cannot appear in a search needle, so a match never spans two fields.
const searchKeySeparator = "\n"

// Contact is a personal address-book entry owned by exactly one user.
type Contact struct {
	ID             int64         `gorm:"primaryKey;autoIncrement"`
	FirstName      string        `gorm:"column:first_name;size:50;not null;index"`
	LastName       string        `gorm:"column:last_name;size:50;not null;index"`
	Email          string        `gorm:"column:email;size:50;not null;uniqueIndex"`
	PhoneNumber    string        `gorm:"column:phone_number;size:15;not null"`
	Birthday       *dbtypes.Date `gorm:"column:birthday;type:date"`
	AdditionalInfo *string       `gorm:"column:additional_info;type:text"`
	SearchKey      string        `gorm:"column:search_key;type:text;not null;default:''"`
	UserID         *int64        `gorm:"column:user_id;index"`
	User           *User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeSave refreshes SearchKey on every insert and full save.
func (c *Contact) BeforeSave(*gorm.DB) error {
	c.SearchKey = ContactSearchKey(c.FirstName, c.LastName, c.Email)
	return nil
}

// ContactSearchKey is the Unicode lower-cased form of the searchable columns. Folding
// happens here rather than in SQL because SQLite's LOWER only handles ASCII.
func ContactSearchKey(firstName, lastName, email string) string {
	return strings.ToLower(strings.Join([]string{firstName, lastName, email}, searchKeySeparator))
}

// ContactSearchNeedle folds text the same way as ContactSearchKey.
func ContactSearchNeedle(text string) string {
	return strings.ToLower(strings.ReplaceAll(text, searchKeySeparator, " "))
}
