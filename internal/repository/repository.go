// Package repository declares the storage contracts shared by the MongoDB and
// in-memory backends.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/alquemist/internal/domain/models"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientQuantity is returned when a decrement would drive a lot negative.
	ErrInsufficientQuantity = errors.New("lot quantity would become negative")
)

// FacilityFilter narrows facility listings. Empty fields match everything.
type FacilityFilter struct {
	CompanyID string
	Status    string
}

// AreaFilter narrows area listings.
type AreaFilter struct {
	FacilityID string
	Status     string
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	CompanyID string
	Category  string
	Status    string
}

// LotFilter narrows lot listings. A nil AreaIDs matches every area, an empty
// non-nil slice matches none.
type LotFilter struct {
	ProductID      string
	FacilityID     string
	AreaIDs        []string
	Status         models.LotStatus
	ExpiringBefore *time.Time
}

// RecipeFilter narrows recipe listings.
type RecipeFilter struct {
	CompanyID string
	Category  string
	Status    string
}

// ActivityFilter narrows activity listings. Results are newest first.
// Since and Until are inclusive; After is exclusive.
type ActivityFilter struct {
	EntityType string
	EntityID   string
	FacilityID string
	Since      *time.Time
	After      *time.Time
	Until      *time.Time
	Limit      int
}

// FacilityRepository persists facilities.
type FacilityRepository interface {
	Insert(ctx context.Context, facility models.Facility) error
	Get(ctx context.Context, id string) (models.Facility, error)
	List(ctx context.Context, filter FacilityFilter) ([]models.Facility, error)
	Update(ctx context.Context, facility models.Facility) error
}

// AreaRepository persists areas.
type AreaRepository interface {
	Insert(ctx context.Context, area models.Area) error
	Get(ctx context.Context, id string) (models.Area, error)
	List(ctx context.Context, filter AreaFilter) ([]models.Area, error)
	Update(ctx context.Context, area models.Area) error
}

// ProductRepository persists products.
type ProductRepository interface {
	Insert(ctx context.Context, product models.Product) error
	Get(ctx context.Context, id string) (models.Product, error)
	FindBySKU(ctx context.Context, companyID, sku string) (models.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	Update(ctx context.Context, product models.Product) error
}

// LotRepository is the inventory ledger.
type LotRepository interface {
	Insert(ctx context.Context, lot models.InventoryLot) error
	Get(ctx context.Context, id string) (models.InventoryLot, error)
	List(ctx context.Context, filter LotFilter) ([]models.InventoryLot, error)
	Update(ctx context.Context, lot models.InventoryLot) error
	// Decrement lowers quantity_available by qty. It never lets the value go
	// negative and returns ErrInsufficientQuantity instead.
	Decrement(ctx context.Context, id string, qty decimal.Decimal, at time.Time) error
}

// RecipeRepository persists recipes.
type RecipeRepository interface {
	Insert(ctx context.Context, recipe models.Recipe) error
	Get(ctx context.Context, id string) (models.Recipe, error)
	List(ctx context.Context, filter RecipeFilter) ([]models.Recipe, error)
	Update(ctx context.Context, recipe models.Recipe) error
	// MarkUsed increments usage_count and sets last_used_date.
	MarkUsed(ctx context.Context, id string, at time.Time) error
}

// ActivityRepository is append-only: there is no update or delete.
type ActivityRepository interface {
	Append(ctx context.Context, record models.ActivityRecord) error
	Get(ctx context.Context, id string) (models.ActivityRecord, error)
	List(ctx context.Context, filter ActivityFilter) ([]models.ActivityRecord, error)
}

// Repositories groups the per-collection repositories.
type Repositories interface {
	Facilities() FacilityRepository
	Areas() AreaRepository
	Products() ProductRepository
	Lots() LotRepository
	Recipes() RecipeRepository
	Activities() ActivityRepository
}

// Store is a Repositories set that can run a function atomically. Writes made
// through the tx argument are committed only when fn returns nil.
type Store interface {
	Repositories
	RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
	Close(ctx context.Context) error
}

// NewID returns a fresh document identifier.
func NewID() string {
	return uuid.NewString()
}

// MatchesAreas reports whether areaID is allowed by the filter's area set.
func (f LotFilter) MatchesAreas(areaID string) bool {
	if f.AreaIDs == nil {
		return true
	}
	for _, id := range f.AreaIDs {
		if id == areaID {
			return true
		}
	}
	return false
}
