package recipes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/alquemist/internal/domain/models"
)

func lotIDs(lots []models.InventoryLot) []string {
	ids := make([]string, 0, len(lots))
	for _, l := range lots {
		ids = append(ids, l.ID)
	}
	return ids
}

func TestSortFIFO(t *testing.T) {
	lots := []models.InventoryLot{
		{ID: "late", ReceivedDate: day(5)},
		{ID: "nodate-b", CreatedAt: day0.AddDate(0, 0, 1)},
		{ID: "early", ReceivedDate: day(1)},
		{ID: "nodate-a", CreatedAt: day0},
		{ID: "early-tie", ReceivedDate: day(1), CreatedAt: day0.AddDate(0, 0, 2)},
	}

	sortFIFO(lots)

	assert.Equal(t, []string{"nodate-a", "nodate-b", "early", "early-tie", "late"}, lotIDs(lots))
}

func TestPlanFIFODoesNotChargeLedgerOnShortfall(t *testing.T) {
	ing := ingredient("px", "10")
	lots := []models.InventoryLot{
		{ID: "a", ProductID: "px", QuantityAvailable: dec("4"), Status: models.LotAvailable},
		{ID: "b", ProductID: "px", QuantityAvailable: dec("5"), Status: models.LotAvailable},
	}
	book := ledger{}

	draws, shortfall := planFIFO(ing, dec("10"), lots, book, clock)
	assert.Nil(t, draws)
	assert.Equal(t, "1", shortfall.String())
	assert.Empty(t, book)

	draws, shortfall = planFIFO(ing, dec("6"), lots, book, clock)
	require.Len(t, draws, 2)
	assert.True(t, shortfall.IsZero())
	assert.Equal(t, "0", book["a"].String())
	assert.Equal(t, "3", book["b"].String())
}

func TestPlanFIFOExactMatchStopsEarly(t *testing.T) {
	lots := []models.InventoryLot{
		{ID: "a", ProductID: "px", QuantityAvailable: dec("4"), ReceivedDate: day(1), Status: models.LotAvailable},
		{ID: "b", ProductID: "px", QuantityAvailable: dec("5"), ReceivedDate: day(2), Status: models.LotAvailable},
	}

	draws, shortfall := planFIFO(ingredient("px", "4"), dec("4"), lots, ledger{}, clock)
	require.Len(t, draws, 1)
	assert.Equal(t, "a", draws[0].LotID)
	assert.True(t, shortfall.IsZero())
}

func TestPlanFIFOSkipsLotsPastExpiration(t *testing.T) {
	lapsed := clock.Add(-time.Minute)
	lots := []models.InventoryLot{
		{ID: "old", ProductID: "px", QuantityAvailable: dec("4"), ReceivedDate: day(1), ExpirationDate: &lapsed, Status: models.LotAvailable},
		{ID: "new", ProductID: "px", QuantityAvailable: dec("5"), ReceivedDate: day(2), Status: models.LotAvailable},
	}

	draws, shortfall := planFIFO(ingredient("px", "4"), dec("4"), lots, ledger{}, clock)
	require.Len(t, draws, 1)
	assert.Equal(t, "new", draws[0].LotID)
	assert.True(t, shortfall.IsZero())

	_, shortfall = planFIFO(ingredient("px", "6"), dec("6"), lots, ledger{}, clock)
	assert.Equal(t, "1", shortfall.String())
}

func TestMergeIngredients(t *testing.T) {
	merged := mergeIngredients([]models.Ingredient{
		ingredient("px", "1"),
		ingredient("py", "2"),
		ingredient("px", "0.5"),
	})

	require.Len(t, merged, 2)
	assert.Equal(t, "px", merged[0].ProductID)
	assert.Equal(t, "1.5", merged[0].Quantity.String())
	assert.Equal(t, "py", merged[1].ProductID)
}
