package activity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/alquemist/internal/domain/apperr"
	"github.com/mamadbah2/alquemist/internal/domain/models"
	"github.com/mamadbah2/alquemist/internal/repository"
	"github.com/mamadbah2/alquemist/internal/repository/memory"
)

func TestListAppliesDefaultsAndFilters(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 120; i++ {
		facility := "f1"
		if i%2 == 1 {
			facility = "f2"
		}
		require.NoError(t, store.Activities().Append(ctx, models.ActivityRecord{
			ID:         fmt.Sprintf("act-%03d", i),
			EntityType: models.EntityRecipe,
			EntityID:   "r1",
			FacilityID: facility,
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		}))
	}
	svc := NewService(store.Activities(), nil)

	all, err := svc.List(ctx, repository.ActivityFilter{})
	require.NoError(t, err)
	assert.Len(t, all, defaultLimit)
	assert.Equal(t, "act-119", all[0].ID)

	f1, err := svc.List(ctx, repository.ActivityFilter{FacilityID: "f1", Limit: 5000})
	require.NoError(t, err)
	assert.Len(t, f1, 60)

	since := base.Add(100 * time.Minute)
	recent, err := svc.List(ctx, repository.ActivityFilter{Since: &since})
	require.NoError(t, err)
	assert.Len(t, recent, 20)

	until := base
	_, err = svc.List(ctx, repository.ActivityFilter{Since: &since, Until: &until})
	assert.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestGetMissingActivity(t *testing.T) {
	svc := NewService(memory.NewStore().Activities(), nil)
	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Contains(t, err.Error(), "activity nope")
}

func TestRecordValidatesAndAssignsID(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	err := Record(ctx, store.Activities(), models.ActivityRecord{EntityType: models.EntityRecipe, EntityID: "r1", Timestamp: at})
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	err = Record(ctx, store.Activities(), models.ActivityRecord{ActivityType: models.ActivityRecipeExecution, EntityType: models.EntityRecipe, EntityID: "r1"})
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	require.NoError(t, Record(ctx, store.Activities(), models.ActivityRecord{
		ActivityType: models.ActivityRecipeExecution,
		EntityType:   models.EntityRecipe,
		EntityID:     "r1",
		Timestamp:    at,
	}))
	recs, err := store.Activities().List(ctx, repository.ActivityFilter{EntityID: "r1"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.NotEmpty(t, recs[0].ID)
}
