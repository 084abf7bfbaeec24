package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the authenticated identity resolved from a bearer token. It is
// owned by the identity provider and never persisted here.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type JobPosting struct {
	ID        string         `gorm:"primaryKey;type:uuid" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID        string     `gorm:"index;not null" json:"user_id"`
	Title         string     `gorm:"not null" json:"title"`
	Company       string     `gorm:"not null" json:"company"`
	Description   string     `gorm:"type:text" json:"description"`
	ContactPerson string     `json:"contact_person"`
	URL           string     `json:"url"`
	Deadline      *time.Time `gorm:"type:date" json:"deadline,omitempty"`
}

// GeneratedLetter belongs to exactly one JobPosting through JobID.
type GeneratedLetter struct {
	ID        string         `gorm:"primaryKey;type:uuid" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID  string `gorm:"index;not null" json:"user_id"`
	JobID   string `gorm:"index;not null;type:uuid" json:"job_id"`
	Content string `gorm:"type:text" json:"content"`
}

func (GeneratedLetter) TableName() string { return "cover_letters" }

// UserProfile is the applicant data used to personalise generated letters.
type UserProfile struct {
	UserID    string    `gorm:"primaryKey" json:"user_id"`
	UpdatedAt time.Time `json:"updated_at"`

	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	Experience string `gorm:"type:text" json:"experience"`
	Education  string `gorm:"type:text" json:"education"`
	Skills     string `gorm:"type:text" json:"skills"`
}

func (UserProfile) TableName() string { return "profiles" }
