package docstore

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Account represents a password credential for an identity
type Account struct {
	BaseModel
	Email        string    `json:"email" gorm:"unique;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Name         string    `json:"name"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Document is one record in a named collection, stored as a JSON payload.
// Role and profile data live in the "users" collection keyed by account ID.
type Document struct {
	BaseModel
	Collection string    `json:"collection" gorm:"not null;uniqueIndex:idx_collection_doc"`
	DocID      string    `json:"doc_id" gorm:"not null;uniqueIndex:idx_collection_doc"`
	Data       string    `json:"data" gorm:"type:text;not null"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Account{}, &Document{})
}
