package recipes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/alquemist/internal/domain/apperr"
	"github.com/mamadbah2/alquemist/internal/domain/models"
	"github.com/mamadbah2/alquemist/internal/metrics"
	"github.com/mamadbah2/alquemist/internal/repository"
)

// StockAlerter is notified when an execution leaves a product at or below its reorder point.
type StockAlerter interface {
	NotifyLowStock(ctx context.Context, alert models.LowStockAlert) error
}

// RecipePatch carries optional recipe updates.
type RecipePatch struct {
	Name           *string              `json:"name"`
	Category       *string              `json:"category"`
	Ingredients    *[]models.Ingredient `json:"ingredients"`
	OutputQuantity *decimal.Decimal     `json:"output_quantity"`
	OutputUnit     *string              `json:"output_unit"`
	Status         *string              `json:"status"`
}

// Service manages recipes and executes them against the inventory ledger.
type Service struct {
	store   repository.Store
	alerter StockAlerter
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewService wires a recipe service. alerter and m may be nil.
func NewService(store repository.Store, alerter StockAlerter, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		alerter: alerter,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// List returns recipes matching filter.
func (s *Service) List(ctx context.Context, filter repository.RecipeFilter) ([]models.Recipe, error) {
	return s.store.Recipes().List(ctx, filter)
}

// Get returns one recipe.
func (s *Service) Get(ctx context.Context, id string) (models.Recipe, error) {
	r, err := s.store.Recipes().Get(ctx, id)
	if err != nil {
		return models.Recipe{}, apperr.Lookup(err, "recipe", id)
	}
	return r, nil
}

// Create validates and stores a new recipe.
func (s *Service) Create(ctx context.Context, in models.Recipe) (models.Recipe, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.CompanyID == "" {
		return models.Recipe{}, apperr.Invalid("company_id is required")
	}
	if in.Name == "" {
		return models.Recipe{}, apperr.Invalid("recipe name is required")
	}
	if err := checkOutput(in.OutputQuantity); err != nil {
		return models.Recipe{}, err
	}
	if err := s.validateIngredients(ctx, in.Ingredients); err != nil {
		return models.Recipe{}, err
	}
	if in.Status == "" {
		in.Status = models.RecipeActive
	}
	if err := validateStatus(in.Status); err != nil {
		return models.Recipe{}, err
	}

	now := s.now().UTC()
	in.ID = repository.NewID()
	in.UsageCount = 0
	in.LastUsedDate = nil
	in.CreatedAt, in.UpdatedAt = now, now

	if err := s.store.Recipes().Insert(ctx, in); err != nil {
		return models.Recipe{}, fmt.Errorf("insert recipe: %w", err)
	}
	s.logger.Info("recipe created", zap.String("recipe_id", in.ID), zap.Int("ingredients", len(in.Ingredients)))
	return in, nil
}

// Update applies patch to an existing recipe. Usage statistics are not patchable.
func (s *Service) Update(ctx context.Context, id string, patch RecipePatch) (models.Recipe, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return models.Recipe{}, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return models.Recipe{}, apperr.Invalid("recipe name must not be empty")
		}
		r.Name = name
	}
	if patch.Category != nil {
		r.Category = *patch.Category
	}
	if patch.Ingredients != nil {
		if err := s.validateIngredients(ctx, *patch.Ingredients); err != nil {
			return models.Recipe{}, err
		}
		r.Ingredients = append([]models.Ingredient(nil), (*patch.Ingredients)...)
	}
	if patch.OutputQuantity != nil {
		if err := checkOutput(*patch.OutputQuantity); err != nil {
			return models.Recipe{}, err
		}
		r.OutputQuantity = *patch.OutputQuantity
	}
	if patch.OutputUnit != nil {
		r.OutputUnit = *patch.OutputUnit
	}
	if patch.Status != nil {
		if err := validateStatus(*patch.Status); err != nil {
			return models.Recipe{}, err
		}
		r.Status = *patch.Status
	}
	r.UpdatedAt = s.now().UTC()

	if err := s.store.Recipes().Update(ctx, r); err != nil {
		return models.Recipe{}, apperr.Lookup(err, "recipe", id)
	}
	return r, nil
}

// Remove soft-deletes a recipe by marking it inactive.
func (s *Service) Remove(ctx context.Context, id string) error {
	status := models.RecipeInactive
	_, err := s.Update(ctx, id, RecipePatch{Status: &status})
	return err
}

func (s *Service) validateIngredients(ctx context.Context, ings []models.Ingredient) error {
	if len(ings) == 0 {
		return apperr.Invalid("recipe needs at least one ingredient")
	}
	for i, ing := range ings {
		if ing.ProductID == "" {
			return apperr.Invalid("ingredient %d: product_id is required", i)
		}
		if !ing.Quantity.IsPositive() {
			return apperr.Invalid("ingredient %d: quantity must be positive", i)
		}
		if err := models.CheckQuantity(ing.Quantity); err != nil {
			return apperr.Invalid("ingredient %d: %v", i, err)
		}
		if _, err := s.store.Products().Get(ctx, ing.ProductID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.Invalid("ingredient %d: product %s does not exist", i, ing.ProductID)
			}
			return err
		}
	}
	return nil
}

func validateStatus(status string) error {
	switch status {
	case models.RecipeActive, models.RecipeInactive:
		return nil
	default:
		return apperr.Invalid("invalid recipe status %q", status)
	}
}

func checkOutput(q decimal.Decimal) error {
	if q.IsNegative() {
		return apperr.Invalid("output_quantity must not be negative")
	}
	if err := models.CheckQuantity(q); err != nil {
		return apperr.Invalid("output_quantity: %v", err)
	}
	return nil
}
