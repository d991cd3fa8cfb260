package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe status values.
const (
	RecipeActive   = "active"
	RecipeInactive = "inactive"
)

// Ingredient is one product requirement of a recipe.
type Ingredient struct {
	ProductID string          `bson:"product_id" json:"product_id"`
	Quantity  decimal.Decimal `bson:"quantity" json:"quantity"`
	Unit      string          `bson:"unit" json:"unit"`
}

// Recipe describes the inputs consumed to produce an output quantity.
type Recipe struct {
	ID             string          `bson:"_id" json:"id"`
	CompanyID      string          `bson:"company_id" json:"company_id"`
	Name           string          `bson:"name" json:"name"`
	Category       string          `bson:"category,omitempty" json:"category,omitempty"`
	Ingredients    []Ingredient    `bson:"ingredients" json:"ingredients"`
	OutputQuantity decimal.Decimal `bson:"output_quantity" json:"output_quantity"`
	OutputUnit     string          `bson:"output_unit,omitempty" json:"output_unit,omitempty"`
	Status         string          `bson:"status" json:"status"`
	UsageCount     int             `bson:"usage_count" json:"usage_count"`
	LastUsedDate   *time.Time      `bson:"last_used_date,omitempty" json:"last_used_date,omitempty"`
	CreatedAt      time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `bson:"updated_at" json:"updated_at"`
}
