package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product status values.
const (
	ProductActive       = "active"
	ProductDiscontinued = "discontinued"
)

// Product is a catalog entry that inventory lots and recipe ingredients refer to.
type Product struct {
	ID           string           `bson:"_id" json:"id"`
	CompanyID    string           `bson:"company_id" json:"company_id"`
	SKU          string           `bson:"sku" json:"sku"`
	Name         string           `bson:"name" json:"name"`
	Category     string           `bson:"category,omitempty" json:"category,omitempty"`
	DefaultUnit  string           `bson:"default_unit,omitempty" json:"default_unit,omitempty"`
	ReorderPoint *decimal.Decimal `bson:"reorder_point,omitempty" json:"reorder_point,omitempty"`
	Status       string           `bson:"status" json:"status"`
	CreatedAt    time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `bson:"updated_at" json:"updated_at"`
}
