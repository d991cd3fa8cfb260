package recipes

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/alquemist/internal/domain/models"
)

// LotSelection is a caller-chosen draw from a specific lot.
type LotSelection struct {
	LotID    string          `json:"lot_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ledger tracks what remains of each lot while an execution is being planned,
// so two ingredients drawing from the same lot cannot overdraw it.
type ledger map[string]decimal.Decimal

func (l ledger) available(lot models.InventoryLot) decimal.Decimal {
	if v, ok := l[lot.ID]; ok {
		return v
	}
	return lot.QuantityAvailable
}

func (l ledger) take(lot models.InventoryLot, qty decimal.Decimal) {
	l[lot.ID] = l.available(lot).Sub(qty)
}

// sortFIFO orders lots oldest received first. Lots without a received date
// count as oldest. Ties fall back to creation time, then ID.
func sortFIFO(lots []models.InventoryLot) {
	sort.SliceStable(lots, func(i, j int) bool {
		a, b := lots[i], lots[j]
		switch {
		case a.ReceivedDate == nil && b.ReceivedDate != nil:
			return true
		case a.ReceivedDate != nil && b.ReceivedDate == nil:
			return false
		case a.ReceivedDate != nil && !a.ReceivedDate.Equal(*b.ReceivedDate):
			return a.ReceivedDate.Before(*b.ReceivedDate)
		case !a.CreatedAt.Equal(b.CreatedAt):
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.ID < b.ID
		}
	})
}

// planFIFO draws required from lots oldest first, skipping lots expired at now.
// It returns the draws and the quantity it could not cover; the ledger is only
// charged when nothing is missing.
func planFIFO(ing models.Ingredient, required decimal.Decimal, lots []models.InventoryLot, book ledger, now time.Time) ([]models.MaterialConsumption, decimal.Decimal) {
	candidates := make([]models.InventoryLot, 0, len(lots))
	for _, lot := range lots {
		if lot.ProductID != ing.ProductID || lot.Status != models.LotAvailable || lot.Expired(now) {
			continue
		}
		if !book.available(lot).IsPositive() {
			continue
		}
		candidates = append(candidates, lot)
	}
	sortFIFO(candidates)

	remaining := required
	draws := make([]models.MaterialConsumption, 0)
	drawn := make([]models.InventoryLot, 0)
	for _, lot := range candidates {
		if !remaining.IsPositive() {
			break
		}
		qty := decimal.Min(book.available(lot), remaining)
		draws = append(draws, consumption(ing, lot, qty))
		drawn = append(drawn, lot)
		remaining = remaining.Sub(qty)
	}

	if remaining.IsPositive() {
		return nil, remaining
	}
	for i, lot := range drawn {
		book.take(lot, draws[i].Quantity)
	}
	return draws, decimal.Zero
}

func consumption(ing models.Ingredient, lot models.InventoryLot, qty decimal.Decimal) models.MaterialConsumption {
	unit := ing.Unit
	if unit == "" {
		unit = lot.Unit
	}
	return models.MaterialConsumption{
		LotID:     lot.ID,
		ProductID: lot.ProductID,
		Quantity:  qty,
		Unit:      unit,
	}
}

// mergeIngredients folds repeated products into one requirement, keeping the
// first occurrence's position and unit.
func mergeIngredients(ings []models.Ingredient) []models.Ingredient {
	index := make(map[string]int, len(ings))
	out := make([]models.Ingredient, 0, len(ings))
	for _, ing := range ings {
		if i, ok := index[ing.ProductID]; ok {
			out[i].Quantity = out[i].Quantity.Add(ing.Quantity)
			continue
		}
		index[ing.ProductID] = len(out)
		out = append(out, ing)
	}
	return out
}
