package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/alquemist/internal/domain/apperr"
	"github.com/mamadbah2/alquemist/internal/domain/models"
	"github.com/mamadbah2/alquemist/internal/repository/memory"
	"github.com/mamadbah2/alquemist/internal/service/inventory"
)

var now = time.Date(2024, 5, 3, 20, 0, 0, 0, time.UTC)

type fakeSheets struct {
	ranges []string
	rows   [][]interface{}
}

func (f *fakeSheets) AppendRows(_ context.Context, sheetRange string, rows [][]interface{}) error {
	f.ranges = append(f.ranges, sheetRange)
	f.rows = append(f.rows, rows...)
	return nil
}

func seed(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Facilities().Insert(ctx, models.Facility{ID: "f1", CompanyID: "c1", Name: "North Greenhouse", Status: models.StatusActive}))
	require.NoError(t, store.Areas().Insert(ctx, models.Area{ID: "a1", FacilityID: "f1", Name: "Store", Status: models.StatusActive}))
	require.NoError(t, store.Products().Insert(ctx, models.Product{ID: "p1", CompanyID: "c1", SKU: "NUT-A", Name: "Nutrient A", DefaultUnit: "l", Status: models.ProductActive}))

	soon := now.Add(72 * time.Hour)
	far := now.Add(30 * 24 * time.Hour)
	require.NoError(t, store.Lots().Insert(ctx, models.InventoryLot{ID: "l1", LotNumber: "LOT-1", ProductID: "p1", AreaID: "a1", FacilityID: "f1", QuantityAvailable: decimal.NewFromInt(3), Unit: "l", ExpirationDate: &soon, Status: models.LotAvailable}))
	require.NoError(t, store.Lots().Insert(ctx, models.InventoryLot{ID: "l2", ProductID: "p1", AreaID: "a1", FacilityID: "f1", QuantityAvailable: decimal.NewFromInt(7), Unit: "l", ExpirationDate: &far, Status: models.LotAvailable}))
	return store
}

func TestInventoryReport(t *testing.T) {
	store := seed(t)
	svc := NewService(store, inventory.NewService(store, nil, nil), nil, nil)

	report, err := svc.InventoryReport(context.Background(), "f1", now)
	require.NoError(t, err)

	want := "Inventory report: North Greenhouse\n" +
		"Generated 2024-05-03 20:00 UTC\n\n" +
		"Stock:\n" +
		"- NUT-A Nutrient A: 10 l (2 lots)\n\n" +
		"Expiring within 7 days:\n" +
		"- lot LOT-1 NUT-A: 3 l on 2024-05-06\n"
	if diff := cmp.Diff(want, report); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}

	_, err = svc.InventoryReport(context.Background(), "missing", now)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestExportsRequireSheets(t *testing.T) {
	store := seed(t)
	svc := NewService(store, inventory.NewService(store, nil, nil), nil, nil)

	assert.False(t, svc.ExportsEnabled())
	_, err := svc.ExportInventory(context.Background(), "f1", now)
	assert.ErrorIs(t, err, ErrExportDisabled)
	_, err = svc.ExportActivities(context.Background(), "f1", now, now)
	assert.ErrorIs(t, err, ErrExportDisabled)
}

func TestExportInventory(t *testing.T) {
	store := seed(t)
	sheets := &fakeSheets{}
	svc := NewService(store, inventory.NewService(store, nil, nil), sheets, nil)

	n, err := svc.ExportInventory(context.Background(), "f1", now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{inventoryRange}, sheets.ranges)
	assert.Equal(t, []interface{}{"2024-05-03", "f1", "NUT-A", "Nutrient A", "10", "l", 2, "2024-05-06"}, sheets.rows[0])
}

func TestExportActivitiesOldestFirst(t *testing.T) {
	store := seed(t)
	ctx := context.Background()
	for i, id := range []string{"act-1", "act-2"} {
		require.NoError(t, store.Activities().Append(ctx, models.ActivityRecord{
			ID:           id,
			ActivityType: models.ActivityRecipeExecution,
			EntityType:   models.EntityRecipe,
			EntityID:     "r1",
			RecipeID:     "r1",
			FacilityID:   "f1",
			MaterialsConsumed: []models.MaterialConsumption{
				{LotID: "l1", ProductID: "p1", Quantity: decimal.NewFromInt(1), Unit: "l"},
			},
			PerformedBy: "u1",
			Timestamp:   now.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, store.Activities().Append(ctx, models.ActivityRecord{ID: "old", FacilityID: "f1", Timestamp: now.Add(-48 * time.Hour)}))

	sheets := &fakeSheets{}
	svc := NewService(store, inventory.NewService(store, nil, nil), sheets, nil)

	n, err := svc.ExportActivities(ctx, "f1", now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 2, n)
	assert.Equal(t, "act-1", sheets.rows[0][1])
	assert.Equal(t, "act-2", sheets.rows[1][1])
	assert.Equal(t, "1", sheets.rows[0][8])
}

func TestExportActivitiesWindowsDoNotOverlap(t *testing.T) {
	store := seed(t)
	ctx := context.Background()
	for i, id := range []string{"act-1", "act-2", "act-3"} {
		require.NoError(t, store.Activities().Append(ctx, models.ActivityRecord{
			ID:          id,
			FacilityID:  "f1",
			PerformedBy: "u1",
			Timestamp:   now.Add(time.Duration(i) * time.Hour),
		}))
	}

	sheets := &fakeSheets{}
	svc := NewService(store, inventory.NewService(store, nil, nil), sheets, nil)

	n, err := svc.ExportActivities(ctx, "f1", now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.ExportActivities(ctx, "f1", now.Add(time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var ids []interface{}
	for _, row := range sheets.rows {
		ids = append(ids, row[1])
	}
	assert.Equal(t, []interface{}{"act-1", "act-2", "act-3"}, ids)
}
