// Package memory provides an in-memory implementation of the repository
// contracts used for tests and ephemeral environments.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/alquemist/internal/domain/models"
	"github.com/mamadbah2/alquemist/internal/repository"
)

var _ repository.Store = (*Store)(nil)

type state struct {
	facilities map[string]models.Facility
	areas      map[string]models.Area
	products   map[string]models.Product
	lots       map[string]models.InventoryLot
	recipes    map[string]models.Recipe
	activities map[string]models.ActivityRecord
}

func newState() state {
	return state{
		facilities: map[string]models.Facility{},
		areas:      map[string]models.Area{},
		products:   map[string]models.Product{},
		lots:       map[string]models.InventoryLot{},
		recipes:    map[string]models.Recipe{},
		activities: map[string]models.ActivityRecord{},
	}
}

func (s state) clone() state {
	return state{
		facilities: cloneMap(s.facilities, identity[models.Facility]),
		areas:      cloneMap(s.areas, identity[models.Area]),
		products:   cloneMap(s.products, cloneProduct),
		lots:       cloneMap(s.lots, cloneLot),
		recipes:    cloneMap(s.recipes, cloneRecipe),
		activities: cloneMap(s.activities, cloneActivity),
	}
}

// Store keeps every collection in process memory. Transactions run against a
// cloned state that replaces the live one only when the callback succeeds.
type Store struct {
	mu   sync.Mutex
	data state
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{data: newState()}
}

// db is the handle shared by the per-collection repositories. Outside a
// transaction it locks the store per call; inside one the store lock is
// already held for the whole callback.
type db struct {
	lock   sync.Locker
	handle *state
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

func (s *Store) live() db {
	return db{lock: &s.mu, handle: &s.data}
}

// Facilities returns the facility repository.
func (s *Store) Facilities() repository.FacilityRepository { return facilityRepo{s.live()} }

// Areas returns the area repository.
func (s *Store) Areas() repository.AreaRepository { return areaRepo{s.live()} }

// Products returns the product repository.
func (s *Store) Products() repository.ProductRepository { return productRepo{s.live()} }

// Lots returns the lot repository.
func (s *Store) Lots() repository.LotRepository { return lotRepo{s.live()} }

// Recipes returns the recipe repository.
func (s *Store) Recipes() repository.RecipeRepository { return recipeRepo{s.live()} }

// Activities returns the activity repository.
func (s *Store) Activities() repository.ActivityRepository { return activityRepo{s.live()} }

// RunInTransaction executes fn against a staged copy of the state and commits
// it when fn returns nil. Transactions are serialized.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	staged := s.data.clone()
	if err := fn(ctx, txRepos{db{lock: noopLocker{}, handle: &staged}}); err != nil {
		return err
	}
	s.data = staged
	return nil
}

// Close is a no-op.
func (s *Store) Close(context.Context) error { return nil }

type txRepos struct{ d db }

func (t txRepos) Facilities() repository.FacilityRepository { return facilityRepo{t.d} }
func (t txRepos) Areas() repository.AreaRepository          { return areaRepo{t.d} }
func (t txRepos) Products() repository.ProductRepository    { return productRepo{t.d} }
func (t txRepos) Lots() repository.LotRepository            { return lotRepo{t.d} }
func (t txRepos) Recipes() repository.RecipeRepository      { return recipeRepo{t.d} }
func (t txRepos) Activities() repository.ActivityRepository { return activityRepo{t.d} }

type facilityRepo struct{ db }

func (r facilityRepo) Insert(_ context.Context, f models.Facility) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.handle.facilities[f.ID] = f
	return nil
}

func (r facilityRepo) Get(_ context.Context, id string) (models.Facility, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	f, ok := r.handle.facilities[id]
	if !ok {
		return models.Facility{}, repository.ErrNotFound
	}
	return f, nil
}

func (r facilityRepo) List(_ context.Context, filter repository.FacilityFilter) ([]models.Facility, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := make([]models.Facility, 0, len(r.handle.facilities))
	for _, f := range r.handle.facilities {
		if filter.CompanyID != "" && f.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Status != "" && f.Status != filter.Status {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

func (r facilityRepo) Update(_ context.Context, f models.Facility) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.handle.facilities[f.ID]; !ok {
		return repository.ErrNotFound
	}
	r.handle.facilities[f.ID] = f
	return nil
}

type areaRepo struct{ db }

func (r areaRepo) Insert(_ context.Context, a models.Area) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.handle.areas[a.ID] = a
	return nil
}

func (r areaRepo) Get(_ context.Context, id string) (models.Area, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	a, ok := r.handle.areas[id]
	if !ok {
		return models.Area{}, repository.ErrNotFound
	}
	return a, nil
}

func (r areaRepo) List(_ context.Context, filter repository.AreaFilter) ([]models.Area, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := make([]models.Area, 0)
	for _, a := range r.handle.areas {
		if filter.FacilityID != "" && a.FacilityID != filter.FacilityID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r areaRepo) Update(_ context.Context, a models.Area) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.handle.areas[a.ID]; !ok {
		return repository.ErrNotFound
	}
	r.handle.areas[a.ID] = a
	return nil
}

type productRepo struct{ db }

func (r productRepo) Insert(_ context.Context, p models.Product) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.handle.products[p.ID] = cloneProduct(p)
	return nil
}

func (r productRepo) Get(_ context.Context, id string) (models.Product, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	p, ok := r.handle.products[id]
	if !ok {
		return models.Product{}, repository.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (r productRepo) FindBySKU(_ context.Context, companyID, sku string) (models.Product, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, p := range r.handle.products {
		if p.CompanyID == companyID && strings.EqualFold(p.SKU, sku) {
			return cloneProduct(p), nil
		}
	}
	return models.Product{}, repository.ErrNotFound
}

func (r productRepo) List(_ context.Context, filter repository.ProductFilter) ([]models.Product, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := make([]models.Product, 0)
	for _, p := range r.handle.products {
		if filter.CompanyID != "" && p.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (r productRepo) Update(_ context.Context, p models.Product) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.handle.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	r.handle.products[p.ID] = cloneProduct(p)
	return nil
}

type lotRepo struct{ db }

func (r lotRepo) Insert(_ context.Context, l models.InventoryLot) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.handle.lots[l.ID] = cloneLot(l)
	return nil
}

func (r lotRepo) Get(_ context.Context, id string) (models.InventoryLot, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	l, ok := r.handle.lots[id]
	if !ok {
		return models.InventoryLot{}, repository.ErrNotFound
	}
	return cloneLot(l), nil
}

func (r lotRepo) List(_ context.Context, filter repository.LotFilter) ([]models.InventoryLot, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := make([]models.InventoryLot, 0)
	for _, l := range r.handle.lots {
		if filter.ProductID != "" && l.ProductID != filter.ProductID {
			continue
		}
		if filter.FacilityID != "" && l.FacilityID != filter.FacilityID {
			continue
		}
		if !filter.MatchesAreas(l.AreaID) {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if filter.ExpiringBefore != nil && !l.Expired(*filter.ExpiringBefore) {
			continue
		}
		out = append(out, cloneLot(l))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r lotRepo) Update(_ context.Context, l models.InventoryLot) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.handle.lots[l.ID]; !ok {
		return repository.ErrNotFound
	}
	r.handle.lots[l.ID] = cloneLot(l)
	return nil
}

func (r lotRepo) Decrement(_ context.Context, id string, qty decimal.Decimal, at time.Time) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	l, ok := r.handle.lots[id]
	if !ok {
		return repository.ErrNotFound
	}
	if l.QuantityAvailable.LessThan(qty) {
		return repository.ErrInsufficientQuantity
	}
	l.QuantityAvailable = l.QuantityAvailable.Sub(qty)
	l.UpdatedAt = at
	r.handle.lots[id] = l
	return nil
}

type recipeRepo struct{ db }

func (r recipeRepo) Insert(_ context.Context, rec models.Recipe) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.handle.recipes[rec.ID] = cloneRecipe(rec)
	return nil
}

func (r recipeRepo) Get(_ context.Context, id string) (models.Recipe, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	rec, ok := r.handle.recipes[id]
	if !ok {
		return models.Recipe{}, repository.ErrNotFound
	}
	return cloneRecipe(rec), nil
}

func (r recipeRepo) List(_ context.Context, filter repository.RecipeFilter) ([]models.Recipe, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := make([]models.Recipe, 0)
	for _, rec := range r.handle.recipes {
		if filter.CompanyID != "" && rec.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Category != "" && rec.Category != filter.Category {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		out = append(out, cloneRecipe(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r recipeRepo) Update(_ context.Context, rec models.Recipe) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.handle.recipes[rec.ID]; !ok {
		return repository.ErrNotFound
	}
	r.handle.recipes[rec.ID] = cloneRecipe(rec)
	return nil
}

func (r recipeRepo) MarkUsed(_ context.Context, id string, at time.Time) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	rec, ok := r.handle.recipes[id]
	if !ok {
		return repository.ErrNotFound
	}
	rec.UsageCount++
	used := at
	rec.LastUsedDate = &used
	rec.UpdatedAt = at
	r.handle.recipes[id] = rec
	return nil
}

type activityRepo struct{ db }

func (r activityRepo) Append(_ context.Context, rec models.ActivityRecord) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.handle.activities[rec.ID] = cloneActivity(rec)
	return nil
}

func (r activityRepo) Get(_ context.Context, id string) (models.ActivityRecord, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	rec, ok := r.handle.activities[id]
	if !ok {
		return models.ActivityRecord{}, repository.ErrNotFound
	}
	return cloneActivity(rec), nil
}

func (r activityRepo) List(_ context.Context, filter repository.ActivityFilter) ([]models.ActivityRecord, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := make([]models.ActivityRecord, 0)
	for _, rec := range r.handle.activities {
		if filter.EntityType != "" && rec.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && rec.EntityID != filter.EntityID {
			continue
		}
		if filter.FacilityID != "" && rec.FacilityID != filter.FacilityID {
			continue
		}
		if filter.Since != nil && rec.Timestamp.Before(*filter.Since) {
			continue
		}
		if filter.After != nil && !rec.Timestamp.After(*filter.After) {
			continue
		}
		if filter.Until != nil && rec.Timestamp.After(*filter.Until) {
			continue
		}
		out = append(out, cloneActivity(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func identity[T any](v T) T { return v }

func cloneMap[T any](src map[string]T, clone func(T) T) map[string]T {
	dst := make(map[string]T, len(src))
	for k, v := range src {
		dst[k] = clone(v)
	}
	return dst
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneProduct(p models.Product) models.Product {
	if p.ReorderPoint != nil {
		v := *p.ReorderPoint
		p.ReorderPoint = &v
	}
	return p
}

func cloneLot(l models.InventoryLot) models.InventoryLot {
	l.ReceivedDate = cloneTime(l.ReceivedDate)
	l.ExpirationDate = cloneTime(l.ExpirationDate)
	return l
}

func cloneRecipe(r models.Recipe) models.Recipe {
	r.Ingredients = append([]models.Ingredient(nil), r.Ingredients...)
	r.LastUsedDate = cloneTime(r.LastUsedDate)
	return r
}

func cloneActivity(a models.ActivityRecord) models.ActivityRecord {
	a.MaterialsConsumed = append([]models.MaterialConsumption(nil), a.MaterialsConsumed...)
	return a
}
