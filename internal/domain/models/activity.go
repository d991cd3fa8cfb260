package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Activity and entity types recorded in the activity log.
const (
	ActivityRecipeExecution = "recipe_execution"

	EntityRecipe = "recipe"
	EntityBatch  = "batch"
)

// MaterialConsumption captures the quantity drawn from a single lot.
type MaterialConsumption struct {
	LotID     string          `bson:"lot_id" json:"lot_id"`
	ProductID string          `bson:"product_id" json:"product_id"`
	Quantity  decimal.Decimal `bson:"quantity" json:"quantity"`
	Unit      string          `bson:"unit" json:"unit"`
}

// ActivityRecord is an append-only audit entry. It is never mutated after creation.
type ActivityRecord struct {
	ID                string                `bson:"_id" json:"id"`
	ActivityType      string                `bson:"activity_type" json:"activity_type"`
	EntityType        string                `bson:"entity_type" json:"entity_type"`
	EntityID          string                `bson:"entity_id" json:"entity_id"`
	RecipeID          string                `bson:"recipe_id,omitempty" json:"recipe_id,omitempty"`
	FacilityID        string                `bson:"facility_id" json:"facility_id"`
	Multiplier        decimal.Decimal       `bson:"multiplier" json:"multiplier"`
	MaterialsConsumed []MaterialConsumption `bson:"materials_consumed" json:"materials_consumed"`
	PerformedBy       string                `bson:"performed_by" json:"performed_by"`
	Timestamp         time.Time             `bson:"timestamp" json:"timestamp"`
	Notes             string                `bson:"notes,omitempty" json:"notes,omitempty"`
}
