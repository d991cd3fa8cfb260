package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LotStatus enumerates the lifecycle states of an inventory lot.
type LotStatus string

const (
	LotAvailable  LotStatus = "available"
	LotReserved   LotStatus = "reserved"
	LotQuarantine LotStatus = "quarantine"
	LotExpired    LotStatus = "expired"
	LotDisposed   LotStatus = "disposed"
)

// ParseLotStatus validates a raw status value.
func ParseLotStatus(value string) (LotStatus, error) {
	switch s := LotStatus(value); s {
	case LotAvailable, LotReserved, LotQuarantine, LotExpired, LotDisposed:
		return s, nil
	default:
		return "", fmt.Errorf("invalid lot status %q", value)
	}
}

// InventoryLot is a distinct received batch of a product held in an area.
type InventoryLot struct {
	ID                string          `bson:"_id" json:"id"`
	ProductID         string          `bson:"product_id" json:"product_id"`
	AreaID            string          `bson:"area_id" json:"area_id"`
	FacilityID        string          `bson:"facility_id" json:"facility_id"`
	LotNumber         string          `bson:"lot_number,omitempty" json:"lot_number,omitempty"`
	QuantityAvailable decimal.Decimal `bson:"quantity_available" json:"quantity_available"`
	QuantityReserved  decimal.Decimal `bson:"quantity_reserved" json:"quantity_reserved"`
	QuantityCommitted decimal.Decimal `bson:"quantity_committed" json:"quantity_committed"`
	Unit              string          `bson:"unit" json:"unit"`
	ReceivedDate      *time.Time      `bson:"received_date,omitempty" json:"received_date,omitempty"`
	ExpirationDate    *time.Time      `bson:"expiration_date,omitempty" json:"expiration_date,omitempty"`
	Status            LotStatus       `bson:"lot_status" json:"lot_status"`
	CreatedAt         time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `bson:"updated_at" json:"updated_at"`
}

// Expired reports whether the lot's expiration date lies before now.
func (l InventoryLot) Expired(now time.Time) bool {
	return l.ExpirationDate != nil && l.ExpirationDate.Before(now)
}
