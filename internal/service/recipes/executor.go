package recipes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/alquemist/internal/domain/apperr"
	"github.com/mamadbah2/alquemist/internal/domain/models"
	"github.com/mamadbah2/alquemist/internal/metrics"
	"github.com/mamadbah2/alquemist/internal/repository"
	"github.com/mamadbah2/alquemist/internal/service/activity"
	"github.com/mamadbah2/alquemist/internal/service/facilities"
)

// ExecuteRequest describes one recipe execution.
type ExecuteRequest struct {
	RecipeID   string
	FacilityID string
	// Multiplier scales every ingredient. Nil means 1.
	Multiplier *decimal.Decimal
	// Selections maps product IDs to caller-chosen lots. Ingredients without
	// selections fall back to FIFO when AutoSelect is set.
	Selections  map[string][]LotSelection
	AutoSelect  bool
	PerformedBy string
	BatchID     string
	Notes       string
}

// ExecutionResult is returned by a successful execution.
type ExecutionResult struct {
	Activity   models.ActivityRecord `json:"activity"`
	UsageCount int                   `json:"usage_count"`
}

// Execute consumes inventory for every ingredient of a recipe. Either every
// requirement is covered and all deductions, the usage update and the activity
// record are written in one transaction, or nothing is written.
func (s *Service) Execute(ctx context.Context, req ExecuteRequest) (ExecutionResult, error) {
	multiplier := decimal.NewFromInt(1)
	if req.Multiplier != nil {
		if !req.Multiplier.IsPositive() {
			return ExecutionResult{}, apperr.Invalid("multiplier must be positive")
		}
		if err := models.CheckQuantity(*req.Multiplier); err != nil {
			return ExecutionResult{}, apperr.Invalid("multiplier: %v", err)
		}
		multiplier = *req.Multiplier
	}
	switch {
	case req.RecipeID == "":
		return ExecutionResult{}, apperr.Invalid("recipe_id is required")
	case req.FacilityID == "":
		return ExecutionResult{}, apperr.Invalid("facility_id is required")
	case req.PerformedBy == "":
		return ExecutionResult{}, apperr.Invalid("performed_by is required")
	}
	for productID, sels := range req.Selections {
		for _, sel := range sels {
			if sel.LotID == "" || !sel.Quantity.IsPositive() {
				return ExecutionResult{}, apperr.Invalid("selection for product %s needs a lot_id and a positive quantity", productID)
			}
			if err := models.CheckQuantity(sel.Quantity); err != nil {
				return ExecutionResult{}, apperr.Invalid("selection for product %s: %v", productID, err)
			}
		}
	}

	var result ExecutionResult
	err := s.store.RunInTransaction(ctx, func(ctx context.Context, tx repository.Repositories) error {
		recipe, err := tx.Recipes().Get(ctx, req.RecipeID)
		if err != nil {
			return apperr.Lookup(err, "recipe", req.RecipeID)
		}
		if recipe.Status != models.RecipeActive {
			return fmt.Errorf("recipe %s: %w", recipe.ID, ErrRecipeInactive)
		}
		facility, err := tx.Facilities().Get(ctx, req.FacilityID)
		if err != nil {
			return apperr.Lookup(err, "facility", req.FacilityID)
		}
		if facility.Status != models.StatusActive {
			return fmt.Errorf("facility %s: %w", facility.ID, ErrFacilityInactive)
		}

		areaIDs, err := facilities.AreaIDs(ctx, tx.Areas(), req.FacilityID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		draws, err := s.plan(ctx, tx.Lots(), recipe, req, multiplier, areaIDs, now)
		if err != nil {
			return err
		}

		for _, d := range draws {
			if err := tx.Lots().Decrement(ctx, d.LotID, d.Quantity, now); err != nil {
				return fmt.Errorf("consume lot %s: %w", d.LotID, err)
			}
		}
		if err := tx.Recipes().MarkUsed(ctx, recipe.ID, now); err != nil {
			return fmt.Errorf("update recipe usage: %w", err)
		}

		record := models.ActivityRecord{
			ID:                repository.NewID(),
			ActivityType:      models.ActivityRecipeExecution,
			EntityType:        models.EntityRecipe,
			EntityID:          recipe.ID,
			RecipeID:          recipe.ID,
			FacilityID:        req.FacilityID,
			Multiplier:        multiplier,
			MaterialsConsumed: draws,
			PerformedBy:       req.PerformedBy,
			Timestamp:         now,
			Notes:             req.Notes,
		}
		if req.BatchID != "" {
			record.EntityType = models.EntityBatch
			record.EntityID = req.BatchID
		}
		if err := activity.Record(ctx, tx.Activities(), record); err != nil {
			return err
		}

		result = ExecutionResult{Activity: record, UsageCount: recipe.UsageCount + 1}
		return nil
	})
	if err != nil {
		s.metrics.ObserveExecution(outcomeOf(err), 0)
		s.logger.Warn("recipe execution failed",
			zap.String("recipe_id", req.RecipeID),
			zap.String("facility_id", req.FacilityID),
			zap.Error(err))
		return ExecutionResult{}, err
	}

	s.metrics.ObserveExecution(metrics.OutcomeSuccess, len(result.Activity.MaterialsConsumed))
	s.logger.Info("recipe executed",
		zap.String("recipe_id", req.RecipeID),
		zap.String("facility_id", req.FacilityID),
		zap.String("activity_id", result.Activity.ID),
		zap.String("multiplier", multiplier.String()),
		zap.Int("lots", len(result.Activity.MaterialsConsumed)))

	s.checkReorderPoints(ctx, req.FacilityID, result.Activity.MaterialsConsumed)
	return result, nil
}

// plan resolves every ingredient to lot draws without writing anything. Lots
// past their expiration date at now are never drawn, even before the expiry
// sweep has marked them.
func (s *Service) plan(ctx context.Context, lots repository.LotRepository, recipe models.Recipe, req ExecuteRequest, multiplier decimal.Decimal, areaIDs []string, now time.Time) ([]models.MaterialConsumption, error) {
	book := ledger{}
	inFacility := make(map[string]struct{}, len(areaIDs))
	for _, id := range areaIDs {
		inFacility[id] = struct{}{}
	}

	ingredients := mergeIngredients(recipe.Ingredients)
	known := make(map[string]struct{}, len(ingredients))
	for _, ing := range ingredients {
		known[ing.ProductID] = struct{}{}
	}
	for productID := range req.Selections {
		if _, ok := known[productID]; !ok {
			return nil, apperr.Invalid("product %s is not an ingredient of recipe %s", productID, recipe.ID)
		}
	}

	var draws []models.MaterialConsumption
	for _, ing := range ingredients {
		required := models.ScaleQuantity(ing.Quantity, multiplier)
		if !required.IsPositive() {
			return nil, apperr.Invalid("product %s: scaled quantity rounds to zero", ing.ProductID)
		}
		if err := models.CheckQuantity(required); err != nil {
			return nil, apperr.Invalid("product %s: %v", ing.ProductID, err)
		}

		if sels := req.Selections[ing.ProductID]; len(sels) > 0 {
			planned, err := planExplicit(ctx, lots, ing, required, sels, inFacility, book, now)
			if err != nil {
				return nil, err
			}
			draws = append(draws, planned...)
			continue
		}

		if !req.AutoSelect {
			return nil, fmt.Errorf("product %s: %w", ing.ProductID, ErrNoLotSelection)
		}

		candidates, err := lots.List(ctx, repository.LotFilter{
			ProductID: ing.ProductID,
			AreaIDs:   areaIDs,
			Status:    models.LotAvailable,
		})
		if err != nil {
			return nil, fmt.Errorf("list lots for product %s: %w", ing.ProductID, err)
		}
		planned, shortfall := planFIFO(ing, required, candidates, book, now)
		if shortfall.IsPositive() {
			return nil, &InsufficientStockError{
				ProductID: ing.ProductID,
				Required:  required,
				Available: required.Sub(shortfall),
			}
		}
		draws = append(draws, planned...)
	}
	return draws, nil
}

func planExplicit(ctx context.Context, lots repository.LotRepository, ing models.Ingredient, required decimal.Decimal, sels []LotSelection, inFacility map[string]struct{}, book ledger, now time.Time) ([]models.MaterialConsumption, error) {
	total := decimal.Zero
	draws := make([]models.MaterialConsumption, 0, len(sels))
	for _, sel := range sels {
		lot, err := lots.Get(ctx, sel.LotID)
		if err != nil {
			return nil, apperr.Lookup(err, "lot", sel.LotID)
		}
		if lot.ProductID != ing.ProductID {
			return nil, fmt.Errorf("lot %s holds product %s, ingredient needs %s: %w", lot.ID, lot.ProductID, ing.ProductID, ErrLotProductMismatch)
		}
		if _, ok := inFacility[lot.AreaID]; !ok {
			return nil, fmt.Errorf("lot %s: %w", lot.ID, ErrLotOutsideFacility)
		}
		if lot.Status != models.LotAvailable {
			return nil, fmt.Errorf("lot %s is %s: %w", lot.ID, lot.Status, ErrLotUnavailable)
		}
		if lot.Expired(now) {
			return nil, fmt.Errorf("lot %s expired on %s: %w", lot.ID, lot.ExpirationDate.Format(time.DateOnly), ErrLotUnavailable)
		}
		if avail := book.available(lot); sel.Quantity.GreaterThan(avail) {
			return nil, fmt.Errorf("lot %s: selected %s, available %s: %w", lot.ID, sel.Quantity.String(), avail.String(), ErrSelectionExceedsAvailable)
		}
		book.take(lot, sel.Quantity)
		total = total.Add(sel.Quantity)
		draws = append(draws, consumption(ing, lot, sel.Quantity))
	}

	switch {
	case total.LessThan(required):
		return nil, &InsufficientStockError{ProductID: ing.ProductID, Required: required, Available: total}
	case total.GreaterThan(required):
		return nil, fmt.Errorf("product %s: selected %s, required %s: %w", ing.ProductID, total.String(), required.String(), ErrOverSelection)
	}
	return draws, nil
}

// checkReorderPoints alerts for consumed products left at or below their
// reorder point. Failures are logged, never returned: the execution has
// already committed.
func (s *Service) checkReorderPoints(ctx context.Context, facilityID string, draws []models.MaterialConsumption) {
	if s.alerter == nil {
		return
	}
	seen := map[string]struct{}{}
	for _, d := range draws {
		if _, ok := seen[d.ProductID]; ok {
			continue
		}
		seen[d.ProductID] = struct{}{}

		product, err := s.store.Products().Get(ctx, d.ProductID)
		if err != nil {
			s.logger.Warn("reorder check: product lookup failed", zap.String("product_id", d.ProductID), zap.Error(err))
			continue
		}
		if product.ReorderPoint == nil {
			continue
		}

		lots, err := s.store.Lots().List(ctx, repository.LotFilter{ProductID: product.ID, FacilityID: facilityID, Status: models.LotAvailable})
		if err != nil {
			s.logger.Warn("reorder check: lot lookup failed", zap.String("product_id", product.ID), zap.Error(err))
			continue
		}
		available := decimal.Zero
		for _, l := range lots {
			available = available.Add(l.QuantityAvailable)
		}
		if available.GreaterThan(*product.ReorderPoint) {
			continue
		}

		alert := models.LowStockAlert{
			FacilityID:   facilityID,
			ProductID:    product.ID,
			SKU:          product.SKU,
			ProductName:  product.Name,
			Unit:         d.Unit,
			Available:    available,
			ReorderPoint: *product.ReorderPoint,
		}
		if err := s.alerter.NotifyLowStock(ctx, alert); err != nil {
			s.logger.Warn("low stock alert failed", zap.String("product_id", product.ID), zap.Error(err))
		}
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		return metrics.OutcomeInsufficient
	case errors.Is(err, apperr.ErrRejected), errors.Is(err, apperr.ErrInvalid), errors.Is(err, apperr.ErrNotFound):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}
