package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Node is a participant in the distribution network: a factory, a regional
// distributor or an individual retailer. Level is derived from the supplier
// chain and is never written directly by callers; see service.ChainService.
type Node struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"not null"`
	Email       string    `gorm:"not null"`
	Country     string    `gorm:"size:100;index;not null"`
	City        string    `gorm:"size:100;index;not null"`
	Street      string    `gorm:"not null"`
	HouseNumber string    `gorm:"size:20;not null"`

	// Level is 0 for root nodes and supplier.Level+1 otherwise.
	Level int `gorm:"index;not null;default:0"`

	SupplierID *uuid.UUID `gorm:"type:uuid;index"`
	Supplier   *Node      `gorm:"foreignKey:SupplierID;constraint:OnDelete:SET NULL"`

	// Debt owed to the supplier. Kept >= 0 by the service layer and by a
	// check constraint as a last line of defense.
	Debt decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`

	CreatedAt time.Time `gorm:"index"`

	Products []Product `gorm:"foreignKey:NodeID;constraint:OnDelete:CASCADE"`
}

func (Node) TableName() string { return "network_nodes" }

// LevelDisplay returns the human-readable hierarchy label used by the read model.
func (n Node) LevelDisplay() string {
	switch n.Level {
	case 0:
		return "Factory"
	case 1:
		return "Retail chain"
	case 2:
		return "Sole trader"
	default:
		return fmt.Sprintf("Level %d", n.Level)
	}
}
