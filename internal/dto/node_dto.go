package dto

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CreateNodeRequest deliberately has no level or debt field: level is always
// derived from the supplier chain, debt starts at zero.
type CreateNodeRequest struct {
	Name        string  `json:"name"         validate:"required,min=2,max=255"`
	Email       string  `json:"email"        validate:"required,email"`
	Country     string  `json:"country"      validate:"required,max=100"`
	City        string  `json:"city"         validate:"required,max=100"`
	Street      string  `json:"street"       validate:"required,max=255"`
	HouseNumber string  `json:"house_number" validate:"required,max=20"`
	Supplier    *string `json:"supplier"     validate:"omitempty,uuid"`
}

// UpdateNodeRequest uses pointer fields for partial updates. Supplier uses
// OptionalID so that {"supplier": null} (detach from supplier) can be told
// apart from the field being absent (leave unchanged).
type UpdateNodeRequest struct {
	Name        *string          `json:"name"         validate:"omitempty,min=2,max=255"`
	Email       *string          `json:"email"        validate:"omitempty,email"`
	Country     *string          `json:"country"      validate:"omitempty,max=100"`
	City        *string          `json:"city"         validate:"omitempty,max=100"`
	Street      *string          `json:"street"       validate:"omitempty,max=255"`
	HouseNumber *string          `json:"house_number" validate:"omitempty,max=20"`
	Supplier    OptionalID       `json:"supplier"`
	Debt        *decimal.Decimal `json:"debt"`
}

// OptionalID distinguishes "field absent" from "field: null" in PATCH-style
// payloads. Set is true whenever the field appeared in the JSON body.
type OptionalID struct {
	Set   bool
	Value *uuid.UUID
}

func (o *OptionalID) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("supplier must be a uuid string or null")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return errors.New("supplier must be a valid uuid")
	}
	o.Value = &id
	return nil
}

type ClearDebtRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,uuid"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type NodeFilter struct {
	Country string `form:"country"`
	City    string `form:"city"`
	Level   *int   `form:"level"`
	Search  string `form:"search"`
	// Ordering accepts name, created_at, debt, optionally "-" prefixed.
	Ordering string `form:"ordering"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type NodeResponse struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Level        int               `json:"level"`
	LevelDisplay string            `json:"level_display"`
	Email        string            `json:"email"`
	Country      string            `json:"country"`
	City         string            `json:"city"`
	Street       string            `json:"street"`
	HouseNumber  string            `json:"house_number"`
	Supplier     *string           `json:"supplier"`
	SupplierName *string           `json:"supplier_name"`
	Debt         decimal.Decimal   `json:"debt"`
	CreatedAt    string            `json:"created_at"`
	Products     []ProductResponse `json:"products"`
}

type NodeListResponse struct {
	Data       []NodeResponse `json:"data"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

type ClearDebtResponse struct {
	UpdatedCount int64 `json:"updated_count"`
}
