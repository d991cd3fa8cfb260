package activity

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/alquemist/internal/domain/apperr"
	"github.com/mamadbah2/alquemist/internal/domain/models"
	"github.com/mamadbah2/alquemist/internal/repository"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Service reads the append-only activity log. Records are written by the
// operations that produce them, inside their own transactions.
type Service struct {
	repo   repository.ActivityRepository
	logger *zap.Logger
}

// NewService wires an activity service.
func NewService(repo repository.ActivityRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// List returns activity records, newest first. The limit defaults to 100 and is capped at 1000.
func (s *Service) List(ctx context.Context, filter repository.ActivityFilter) ([]models.ActivityRecord, error) {
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultLimit
	case filter.Limit > maxLimit:
		filter.Limit = maxLimit
	}
	if filter.Since != nil && filter.Until != nil && filter.Until.Before(*filter.Since) {
		return nil, apperr.Invalid("until must not precede since")
	}
	return s.repo.List(ctx, filter)
}

// Get returns one activity record.
func (s *Service) Get(ctx context.Context, id string) (models.ActivityRecord, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.ActivityRecord{}, apperr.Lookup(err, "activity", id)
	}
	return rec, nil
}

// Record validates and appends one activity record through repo. Callers pass
// the repository of their own transaction so the record commits with the
// changes it describes.
func Record(ctx context.Context, repo repository.ActivityRepository, rec models.ActivityRecord) error {
	switch {
	case rec.ActivityType == "":
		return apperr.Invalid("activity_type is required")
	case rec.EntityType == "" || rec.EntityID == "":
		return apperr.Invalid("activity entity is required")
	case rec.Timestamp.IsZero():
		return apperr.Invalid("activity timestamp is required")
	}
	if rec.ID == "" {
		rec.ID = repository.NewID()
	}
	if err := repo.Append(ctx, rec); err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}
