package models

import "github.com/shopspring/decimal"

// LowStockAlert reports a product whose facility stock fell to or below its reorder point.
type LowStockAlert struct {
	FacilityID   string
	ProductID    string
	SKU          string
	ProductName  string
	Unit         string
	Available    decimal.Decimal
	ReorderPoint decimal.Decimal
}
