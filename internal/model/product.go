package model

import (
	"time"

	"github.com/google/uuid"
)

// Product is an electronics item owned by exactly one network node.
// Deleting the node deletes its products.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"index;not null"`
	Model       string    `gorm:"not null"`
	ReleaseDate time.Time `gorm:"type:date;index;not null"`

	NodeID uuid.UUID `gorm:"type:uuid;index;not null"`
	Node   *Node     `gorm:"foreignKey:NodeID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
