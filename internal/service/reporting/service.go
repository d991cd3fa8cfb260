// Package reporting renders inventory reports and exports ledger data to
// Google Sheets.
package reporting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/alquemist/internal/domain/apperr"
	"github.com/mamadbah2/alquemist/internal/domain/models"
	"github.com/mamadbah2/alquemist/internal/repository"
	repo "github.com/mamadbah2/alquemist/internal/repository/sheets"
	"github.com/mamadbah2/alquemist/internal/service/inventory"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04"

	inventoryRange  = "Inventory!A:H"
	activitiesRange = "Activities!A:K"

	// ExpiryWindow is how far ahead the report looks for expiring lots.
	ExpiryWindow = 7 * 24 * time.Hour
)

// ErrExportDisabled is returned by exports when no spreadsheet is configured.
var ErrExportDisabled = errors.New("reporting: spreadsheet export is not configured")

// Service builds reports from the inventory ledger and the activity log.
type Service struct {
	store     repository.Repositories
	inventory *inventory.Service
	sheets    repo.Repository
	logger    *zap.Logger
}

// NewService wires a reporting service. sheets may be nil, which disables exports.
func NewService(store repository.Repositories, inv *inventory.Service, sheets repo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, inventory: inv, sheets: sheets, logger: logger}
}

// ExportsEnabled reports whether a spreadsheet is configured.
func (s *Service) ExportsEnabled() bool {
	return s.sheets != nil
}

// InventoryReport renders a plain-text stock summary for a facility: totals
// per product, then lots expiring within ExpiryWindow of now.
func (s *Service) InventoryReport(ctx context.Context, facilityID string, now time.Time) (string, error) {
	facility, err := s.store.Facilities().Get(ctx, facilityID)
	if err != nil {
		return "", apperr.Lookup(err, "facility", facilityID)
	}
	stock, err := s.inventory.Summary(ctx, facilityID)
	if err != nil {
		return "", err
	}

	cutoff := now.Add(ExpiryWindow).UTC()
	expiring, err := s.store.Lots().List(ctx, repository.LotFilter{
		FacilityID:     facilityID,
		Status:         models.LotAvailable,
		ExpiringBefore: &cutoff,
	})
	if err != nil {
		return "", fmt.Errorf("list expiring lots: %w", err)
	}
	sort.SliceStable(expiring, func(i, j int) bool {
		return expiring[i].ExpirationDate.Before(*expiring[j].ExpirationDate)
	})

	skus := make(map[string]string, len(stock))
	var b strings.Builder
	fmt.Fprintf(&b, "Inventory report: %s\n", facility.Name)
	fmt.Fprintf(&b, "Generated %s UTC\n\n", now.UTC().Format(timestampLayout))

	b.WriteString("Stock:\n")
	if len(stock) == 0 {
		b.WriteString("- none\n")
	}
	for _, ps := range stock {
		skus[ps.ProductID] = ps.SKU
		fmt.Fprintf(&b, "- %s %s: %s %s (%d lots)", ps.SKU, ps.Name, ps.Available.String(), ps.Unit, ps.Lots)
		if ps.BelowReorder {
			b.WriteString(" [reorder]")
		}
		b.WriteString("\n")
	}

	b.WriteString("\nExpiring within 7 days:\n")
	if len(expiring) == 0 {
		b.WriteString("- none\n")
	}
	for _, l := range expiring {
		label := l.LotNumber
		if label == "" {
			label = l.ID
		}
		sku := skus[l.ProductID]
		if sku == "" {
			sku = l.ProductID
		}
		fmt.Fprintf(&b, "- lot %s %s: %s %s on %s\n", label, sku, l.QuantityAvailable.String(), l.Unit, l.ExpirationDate.UTC().Format(dateLayout))
	}

	return b.String(), nil
}

// ExportInventory appends one row per stocked product of a facility to the
// Inventory sheet and returns the number of rows written.
func (s *Service) ExportInventory(ctx context.Context, facilityID string, now time.Time) (int, error) {
	if s.sheets == nil {
		return 0, ErrExportDisabled
	}
	stock, err := s.inventory.Summary(ctx, facilityID)
	if err != nil {
		return 0, err
	}

	date := now.UTC().Format(dateLayout)
	rows := make([][]interface{}, 0, len(stock))
	for _, ps := range stock {
		next := ""
		if ps.NextExpiration != nil {
			next = ps.NextExpiration.UTC().Format(dateLayout)
		}
		rows = append(rows, []interface{}{date, facilityID, ps.SKU, ps.Name, ps.Available.String(), ps.Unit, ps.Lots, next})
	}

	if err := s.sheets.AppendRows(ctx, inventoryRange, rows); err != nil {
		return 0, fmt.Errorf("export inventory: %w", err)
	}
	s.logger.Info("inventory exported", zap.String("facility_id", facilityID), zap.Int("rows", len(rows)))
	return len(rows), nil
}

// ExportActivities appends one row per consumed lot for every activity of a
// facility recorded in (after, until], oldest first. Consecutive windows
// sharing a boundary export each record once.
func (s *Service) ExportActivities(ctx context.Context, facilityID string, after, until time.Time) (int, error) {
	if s.sheets == nil {
		return 0, ErrExportDisabled
	}
	records, err := s.store.Activities().List(ctx, repository.ActivityFilter{FacilityID: facilityID, After: &after, Until: &until})
	if err != nil {
		return 0, fmt.Errorf("list activities: %w", err)
	}

	var rows [][]interface{}
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		ts := rec.Timestamp.UTC().Format(time.RFC3339)
		if len(rec.MaterialsConsumed) == 0 {
			rows = append(rows, []interface{}{ts, rec.ID, rec.ActivityType, rec.EntityType, rec.EntityID, rec.RecipeID, "", "", "", "", rec.PerformedBy})
			continue
		}
		for _, m := range rec.MaterialsConsumed {
			rows = append(rows, []interface{}{ts, rec.ID, rec.ActivityType, rec.EntityType, rec.EntityID, rec.RecipeID, m.LotID, m.ProductID, m.Quantity.String(), m.Unit, rec.PerformedBy})
		}
	}

	if err := s.sheets.AppendRows(ctx, activitiesRange, rows); err != nil {
		return 0, fmt.Errorf("export activities: %w", err)
	}
	s.logger.Info("activities exported", zap.String("facility_id", facilityID), zap.Int("records", len(records)), zap.Int("rows", len(rows)))
	return len(rows), nil
}
