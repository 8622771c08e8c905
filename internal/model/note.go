package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Note represents a note owned by exactly one user.
type Note struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID `json:"user" gorm:"type:char(36);not null;index"`
	Title     string    `json:"title" gorm:"uniqueIndex;size:255;not null"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	Completed bool      `json:"completed" gorm:"default:false;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations. RESTRICT keeps the referential guard enforced by the store
	// even if a delete slips past the service-level check.
	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// BeforeCreate sets UUID before creating the record.
func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
