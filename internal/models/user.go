package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account keyed by email (no username).
type User struct {
	UserID               uuid.UUID      `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	FirstName            string         `gorm:"column:first_name;not null" json:"first_name"`
	MiddleName           *string        `gorm:"column:middle_name" json:"middle_name"`
	LastName             string         `gorm:"column:last_name;not null" json:"last_name"`
	Country              string         `gorm:"column:country;not null" json:"country"`
	DateOfBirth          time.Time      `gorm:"column:date_of_birth;not null" json:"date_of_birth"`
	Email                string         `gorm:"column:email;not null;uniqueIndex" json:"email"`
	PasswordHash         string         `gorm:"column:password_hash;not null" json:"-"`
	PreferencesCompleted bool           `gorm:"column:preferences_completed;not null;default:false" json:"preferences_completed"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "Users"
}

// BeforeCreate sets UUID if not set (for DBs without gen_random_uuid).
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == uuid.Nil {
		u.UserID = uuid.New()
	}
	return nil
}

// FullName joins the name parts, skipping an empty middle name.
func (u *User) FullName() string {
	if u.MiddleName != nil && *u.MiddleName != "" {
		return u.FirstName + " " + *u.MiddleName + " " + u.LastName
	}
	return u.FirstName + " " + u.LastName
}
