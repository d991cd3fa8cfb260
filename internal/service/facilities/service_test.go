package facilities

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/alquemist/internal/domain/apperr"
	"github.com/mamadbah2/alquemist/internal/domain/models"
	"github.com/mamadbah2/alquemist/internal/repository"
	"github.com/mamadbah2/alquemist/internal/repository/memory"
)

func newService() *Service {
	svc := NewService(memory.NewStore(), nil)
	svc.now = func() time.Time { return time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC) }
	return svc
}

func TestFacilityLifecycle(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	f, err := svc.CreateFacility(ctx, models.Facility{CompanyID: "c1", Name: " Greenhouse 1 "})
	require.NoError(t, err)
	assert.Equal(t, "Greenhouse 1", f.Name)
	assert.Equal(t, models.StatusActive, f.Status)

	license := "LIC-42"
	f, err = svc.UpdateFacility(ctx, f.ID, FacilityPatch{LicenseNumber: &license})
	require.NoError(t, err)
	assert.Equal(t, "LIC-42", f.LicenseNumber)

	require.NoError(t, svc.RemoveFacility(ctx, f.ID))
	got, err := svc.GetFacility(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, got.Status)

	active, err := svc.ListFacilities(ctx, repository.FacilityFilter{CompanyID: "c1", Status: models.StatusActive})
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestCreateFacilityValidation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.CreateFacility(ctx, models.Facility{Name: "x"})
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	_, err = svc.CreateFacility(ctx, models.Facility{CompanyID: "c1"})
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	_, err = svc.CreateFacility(ctx, models.Facility{CompanyID: "c1", Name: "x", Status: "archived"})
	assert.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestAreasRequireActiveFacility(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.CreateArea(ctx, models.Area{FacilityID: "ghost", Name: "Room"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	f, err := svc.CreateFacility(ctx, models.Facility{CompanyID: "c1", Name: "Site"})
	require.NoError(t, err)

	a, err := svc.CreateArea(ctx, models.Area{FacilityID: f.ID, Name: "Veg room", AreaType: "vegetative"})
	require.NoError(t, err)
	assert.Equal(t, f.ID, a.FacilityID)

	areas, err := svc.ListAreas(ctx, repository.AreaFilter{FacilityID: f.ID})
	require.NoError(t, err)
	require.Len(t, areas, 1)

	require.NoError(t, svc.RemoveArea(ctx, a.ID))
	a, err = svc.GetArea(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, a.Status)

	require.NoError(t, svc.RemoveFacility(ctx, f.ID))
	_, err = svc.CreateArea(ctx, models.Area{FacilityID: f.ID, Name: "Flower room"})
	assert.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestAreaIDs(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	f, err := svc.CreateFacility(ctx, models.Facility{CompanyID: "c1", Name: "Site"})
	require.NoError(t, err)
	other, err := svc.CreateFacility(ctx, models.Facility{CompanyID: "c1", Name: "Other"})
	require.NoError(t, err)

	a1, err := svc.CreateArea(ctx, models.Area{FacilityID: f.ID, Name: "A"})
	require.NoError(t, err)
	a2, err := svc.CreateArea(ctx, models.Area{FacilityID: f.ID, Name: "B"})
	require.NoError(t, err)
	_, err = svc.CreateArea(ctx, models.Area{FacilityID: other.ID, Name: "C"})
	require.NoError(t, err)

	ids, err := svc.AreaIDs(ctx, f.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a1.ID, a2.ID}, ids)

	ids, err = svc.AreaIDs(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
