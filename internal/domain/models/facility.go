package models

import "time"

// Status values shared by facilities and areas.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Facility is a licensed cultivation site owned by a company.
type Facility struct {
	ID            string    `bson:"_id" json:"id"`
	CompanyID     string    `bson:"company_id" json:"company_id"`
	Name          string    `bson:"name" json:"name"`
	LicenseNumber string    `bson:"license_number,omitempty" json:"license_number,omitempty"`
	Status        string    `bson:"status" json:"status"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

// Area is a physical location inside a facility where lots are stored.
type Area struct {
	ID         string    `bson:"_id" json:"id"`
	FacilityID string    `bson:"facility_id" json:"facility_id"`
	Name       string    `bson:"name" json:"name"`
	AreaType   string    `bson:"area_type,omitempty" json:"area_type,omitempty"`
	Status     string    `bson:"status" json:"status"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}
