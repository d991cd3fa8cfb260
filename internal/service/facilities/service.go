package facilities

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/alquemist/internal/domain/apperr"
	"github.com/mamadbah2/alquemist/internal/domain/models"
	"github.com/mamadbah2/alquemist/internal/repository"
)

// FacilityPatch carries optional facility updates.
type FacilityPatch struct {
	Name          *string `json:"name"`
	LicenseNumber *string `json:"license_number"`
	Status        *string `json:"status"`
}

// AreaPatch carries optional area updates.
type AreaPatch struct {
	Name     *string `json:"name"`
	AreaType *string `json:"area_type"`
	Status   *string `json:"status"`
}

// Service manages facilities and the areas inside them.
type Service struct {
	store  repository.Repositories
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a facilities service.
func NewService(store repository.Repositories, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// ListFacilities returns facilities matching filter.
func (s *Service) ListFacilities(ctx context.Context, filter repository.FacilityFilter) ([]models.Facility, error) {
	return s.store.Facilities().List(ctx, filter)
}

// GetFacility returns one facility.
func (s *Service) GetFacility(ctx context.Context, id string) (models.Facility, error) {
	f, err := s.store.Facilities().Get(ctx, id)
	if err != nil {
		return models.Facility{}, apperr.Lookup(err, "facility", id)
	}
	return f, nil
}

// CreateFacility validates and stores a new facility.
func (s *Service) CreateFacility(ctx context.Context, in models.Facility) (models.Facility, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.CompanyID == "" {
		return models.Facility{}, apperr.Invalid("company_id is required")
	}
	if in.Name == "" {
		return models.Facility{}, apperr.Invalid("facility name is required")
	}
	if in.Status == "" {
		in.Status = models.StatusActive
	}
	if err := validateStatus(in.Status); err != nil {
		return models.Facility{}, err
	}

	now := s.now().UTC()
	in.ID = repository.NewID()
	in.CreatedAt, in.UpdatedAt = now, now

	if err := s.store.Facilities().Insert(ctx, in); err != nil {
		return models.Facility{}, fmt.Errorf("insert facility: %w", err)
	}
	s.logger.Info("facility created", zap.String("facility_id", in.ID), zap.String("company_id", in.CompanyID))
	return in, nil
}

// UpdateFacility applies patch to an existing facility.
func (s *Service) UpdateFacility(ctx context.Context, id string, patch FacilityPatch) (models.Facility, error) {
	f, err := s.GetFacility(ctx, id)
	if err != nil {
		return models.Facility{}, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return models.Facility{}, apperr.Invalid("facility name must not be empty")
		}
		f.Name = name
	}
	if patch.LicenseNumber != nil {
		f.LicenseNumber = *patch.LicenseNumber
	}
	if patch.Status != nil {
		if err := validateStatus(*patch.Status); err != nil {
			return models.Facility{}, err
		}
		f.Status = *patch.Status
	}
	f.UpdatedAt = s.now().UTC()

	if err := s.store.Facilities().Update(ctx, f); err != nil {
		return models.Facility{}, apperr.Lookup(err, "facility", id)
	}
	return f, nil
}

// RemoveFacility soft-deletes a facility by marking it inactive.
func (s *Service) RemoveFacility(ctx context.Context, id string) error {
	status := models.StatusInactive
	_, err := s.UpdateFacility(ctx, id, FacilityPatch{Status: &status})
	return err
}

// ListAreas returns areas matching filter.
func (s *Service) ListAreas(ctx context.Context, filter repository.AreaFilter) ([]models.Area, error) {
	return s.store.Areas().List(ctx, filter)
}

// GetArea returns one area.
func (s *Service) GetArea(ctx context.Context, id string) (models.Area, error) {
	a, err := s.store.Areas().Get(ctx, id)
	if err != nil {
		return models.Area{}, apperr.Lookup(err, "area", id)
	}
	return a, nil
}

// CreateArea stores a new area inside an active facility.
func (s *Service) CreateArea(ctx context.Context, in models.Area) (models.Area, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return models.Area{}, apperr.Invalid("area name is required")
	}
	facility, err := s.GetFacility(ctx, in.FacilityID)
	if err != nil {
		return models.Area{}, err
	}
	if facility.Status != models.StatusActive {
		return models.Area{}, apperr.Invalid("facility %s is not active", facility.ID)
	}
	if in.Status == "" {
		in.Status = models.StatusActive
	}
	if err := validateStatus(in.Status); err != nil {
		return models.Area{}, err
	}

	now := s.now().UTC()
	in.ID = repository.NewID()
	in.CreatedAt, in.UpdatedAt = now, now

	if err := s.store.Areas().Insert(ctx, in); err != nil {
		return models.Area{}, fmt.Errorf("insert area: %w", err)
	}
	s.logger.Info("area created", zap.String("area_id", in.ID), zap.String("facility_id", in.FacilityID))
	return in, nil
}

// UpdateArea applies patch to an existing area.
func (s *Service) UpdateArea(ctx context.Context, id string, patch AreaPatch) (models.Area, error) {
	a, err := s.GetArea(ctx, id)
	if err != nil {
		return models.Area{}, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return models.Area{}, apperr.Invalid("area name must not be empty")
		}
		a.Name = name
	}
	if patch.AreaType != nil {
		a.AreaType = *patch.AreaType
	}
	if patch.Status != nil {
		if err := validateStatus(*patch.Status); err != nil {
			return models.Area{}, err
		}
		a.Status = *patch.Status
	}
	a.UpdatedAt = s.now().UTC()

	if err := s.store.Areas().Update(ctx, a); err != nil {
		return models.Area{}, apperr.Lookup(err, "area", id)
	}
	return a, nil
}

// RemoveArea soft-deletes an area by marking it inactive.
func (s *Service) RemoveArea(ctx context.Context, id string) error {
	status := models.StatusInactive
	_, err := s.UpdateArea(ctx, id, AreaPatch{Status: &status})
	return err
}

func validateStatus(status string) error {
	switch status {
	case models.StatusActive, models.StatusInactive:
		return nil
	default:
		return apperr.Invalid("invalid status %q", status)
	}
}

// AreaIDs returns the IDs of every area in a facility.
func (s *Service) AreaIDs(ctx context.Context, facilityID string) ([]string, error) {
	return AreaIDs(ctx, s.store.Areas(), facilityID)
}

// AreaIDs lists the area IDs of a facility through repo, so callers inside a
// transaction can scope lots with the transactional repository.
func AreaIDs(ctx context.Context, repo repository.AreaRepository, facilityID string) ([]string, error) {
	areas, err := repo.List(ctx, repository.AreaFilter{FacilityID: facilityID})
	if err != nil {
		return nil, fmt.Errorf("list facility areas: %w", err)
	}
	ids := make([]string, 0, len(areas))
	for _, a := range areas {
		ids = append(ids, a.ID)
	}
	return ids, nil
}
