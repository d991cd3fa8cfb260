package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/alquemist/internal/domain/apperr"
	"github.com/mamadbah2/alquemist/internal/domain/models"
	"github.com/mamadbah2/alquemist/internal/metrics"
	"github.com/mamadbah2/alquemist/internal/repository"
)

// ProductPatch carries optional product updates.
type ProductPatch struct {
	Name         *string          `json:"name"`
	Category     *string          `json:"category"`
	DefaultUnit  *string          `json:"default_unit"`
	ReorderPoint *decimal.Decimal `json:"reorder_point"`
	Status       *string          `json:"status"`
}

// LotPatch carries optional lot updates.
type LotPatch struct {
	LotNumber         *string          `json:"lot_number"`
	QuantityAvailable *decimal.Decimal `json:"quantity_available"`
	QuantityReserved  *decimal.Decimal `json:"quantity_reserved"`
	QuantityCommitted *decimal.Decimal `json:"quantity_committed"`
	ReceivedDate      *time.Time       `json:"received_date"`
	ExpirationDate    *time.Time       `json:"expiration_date"`
	Status            *string          `json:"lot_status"`
}

// ProductStock summarizes available stock of one product in a facility.
type ProductStock struct {
	ProductID      string          `json:"product_id"`
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	Unit           string          `json:"unit"`
	Available      decimal.Decimal `json:"available"`
	Lots           int             `json:"lots"`
	NextExpiration *time.Time      `json:"next_expiration,omitempty"`
	BelowReorder   bool            `json:"below_reorder"`
}

// Service manages the product catalog and the inventory ledger.
type Service struct {
	store   repository.Store
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewService wires an inventory service. m may be nil.
func NewService(store repository.Store, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, metrics: m, logger: logger, now: time.Now}
}

// ListProducts returns products matching filter.
func (s *Service) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]models.Product, error) {
	return s.store.Products().List(ctx, filter)
}

// GetProduct returns one product.
func (s *Service) GetProduct(ctx context.Context, id string) (models.Product, error) {
	p, err := s.store.Products().Get(ctx, id)
	if err != nil {
		return models.Product{}, apperr.Lookup(err, "product", id)
	}
	return p, nil
}

// CreateProduct stores a new product. SKUs are unique per company, case-insensitively.
func (s *Service) CreateProduct(ctx context.Context, in models.Product) (models.Product, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.CompanyID == "":
		return models.Product{}, apperr.Invalid("company_id is required")
	case in.SKU == "":
		return models.Product{}, apperr.Invalid("sku is required")
	case in.Name == "":
		return models.Product{}, apperr.Invalid("product name is required")
	}
	if in.ReorderPoint != nil {
		if err := checkReorderPoint(*in.ReorderPoint); err != nil {
			return models.Product{}, err
		}
	}
	if in.Status == "" {
		in.Status = models.ProductActive
	}
	if err := validateProductStatus(in.Status); err != nil {
		return models.Product{}, err
	}

	_, err := s.store.Products().FindBySKU(ctx, in.CompanyID, in.SKU)
	switch {
	case err == nil:
		return models.Product{}, apperr.Conflict("sku %s already exists", in.SKU)
	case !errors.Is(err, repository.ErrNotFound):
		return models.Product{}, fmt.Errorf("lookup sku: %w", err)
	}

	now := s.now().UTC()
	in.ID = repository.NewID()
	in.CreatedAt, in.UpdatedAt = now, now

	if err := s.store.Products().Insert(ctx, in); err != nil {
		return models.Product{}, fmt.Errorf("insert product: %w", err)
	}
	s.logger.Info("product created", zap.String("product_id", in.ID), zap.String("sku", in.SKU))
	return in, nil
}

// UpdateProduct applies patch to an existing product.
func (s *Service) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (models.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return models.Product{}, apperr.Invalid("product name must not be empty")
		}
		p.Name = name
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.DefaultUnit != nil {
		p.DefaultUnit = *patch.DefaultUnit
	}
	if patch.ReorderPoint != nil {
		if err := checkReorderPoint(*patch.ReorderPoint); err != nil {
			return models.Product{}, err
		}
		rp := *patch.ReorderPoint
		p.ReorderPoint = &rp
	}
	if patch.Status != nil {
		if err := validateProductStatus(*patch.Status); err != nil {
			return models.Product{}, err
		}
		p.Status = *patch.Status
	}
	p.UpdatedAt = s.now().UTC()

	if err := s.store.Products().Update(ctx, p); err != nil {
		return models.Product{}, apperr.Lookup(err, "product", id)
	}
	return p, nil
}

// RemoveProduct soft-deletes a product by marking it discontinued.
func (s *Service) RemoveProduct(ctx context.Context, id string) error {
	status := models.ProductDiscontinued
	_, err := s.UpdateProduct(ctx, id, ProductPatch{Status: &status})
	return err
}

// ListLots returns lots matching filter.
func (s *Service) ListLots(ctx context.Context, filter repository.LotFilter) ([]models.InventoryLot, error) {
	return s.store.Lots().List(ctx, filter)
}

// GetLot returns one lot.
func (s *Service) GetLot(ctx context.Context, id string) (models.InventoryLot, error) {
	l, err := s.store.Lots().Get(ctx, id)
	if err != nil {
		return models.InventoryLot{}, apperr.Lookup(err, "lot", id)
	}
	return l, nil
}

// CreateLot receives a new lot of a product into an area.
func (s *Service) CreateLot(ctx context.Context, in models.InventoryLot) (models.InventoryLot, error) {
	product, err := s.GetProduct(ctx, in.ProductID)
	if err != nil {
		return models.InventoryLot{}, err
	}
	area, err := s.store.Areas().Get(ctx, in.AreaID)
	if err != nil {
		return models.InventoryLot{}, apperr.Lookup(err, "area", in.AreaID)
	}
	for _, q := range []decimal.Decimal{in.QuantityAvailable, in.QuantityReserved, in.QuantityCommitted} {
		if q.IsNegative() {
			return models.InventoryLot{}, apperr.Invalid("lot quantities must not be negative")
		}
		if err := models.CheckQuantity(q); err != nil {
			return models.InventoryLot{}, apperr.Invalid("%v", err)
		}
	}
	if in.Status == "" {
		in.Status = models.LotAvailable
	}
	if _, err := models.ParseLotStatus(string(in.Status)); err != nil {
		return models.InventoryLot{}, apperr.Invalid("%v", err)
	}
	if in.Unit == "" {
		in.Unit = product.DefaultUnit
	}

	now := s.now().UTC()
	in.ID = repository.NewID()
	in.FacilityID = area.FacilityID
	in.CreatedAt, in.UpdatedAt = now, now

	if err := s.store.Lots().Insert(ctx, in); err != nil {
		return models.InventoryLot{}, fmt.Errorf("insert lot: %w", err)
	}
	s.logger.Info("lot received",
		zap.String("lot_id", in.ID),
		zap.String("product_id", in.ProductID),
		zap.String("area_id", in.AreaID),
		zap.String("quantity", in.QuantityAvailable.String()))
	return in, nil
}

// UpdateLot applies patch to an existing lot.
func (s *Service) UpdateLot(ctx context.Context, id string, patch LotPatch) (models.InventoryLot, error) {
	l, err := s.GetLot(ctx, id)
	if err != nil {
		return models.InventoryLot{}, err
	}
	if patch.LotNumber != nil {
		l.LotNumber = *patch.LotNumber
	}
	for _, q := range []struct {
		value  *decimal.Decimal
		target *decimal.Decimal
		name   string
	}{
		{patch.QuantityAvailable, &l.QuantityAvailable, "quantity_available"},
		{patch.QuantityReserved, &l.QuantityReserved, "quantity_reserved"},
		{patch.QuantityCommitted, &l.QuantityCommitted, "quantity_committed"},
	} {
		if q.value == nil {
			continue
		}
		if q.value.IsNegative() {
			return models.InventoryLot{}, apperr.Invalid("%s must not be negative", q.name)
		}
		if err := models.CheckQuantity(*q.value); err != nil {
			return models.InventoryLot{}, apperr.Invalid("%s: %v", q.name, err)
		}
		*q.target = *q.value
	}
	if patch.ReceivedDate != nil {
		t := *patch.ReceivedDate
		l.ReceivedDate = &t
	}
	if patch.ExpirationDate != nil {
		t := *patch.ExpirationDate
		l.ExpirationDate = &t
	}
	if patch.Status != nil {
		status, err := models.ParseLotStatus(*patch.Status)
		if err != nil {
			return models.InventoryLot{}, apperr.Invalid("%v", err)
		}
		l.Status = status
	}
	l.UpdatedAt = s.now().UTC()

	if err := s.store.Lots().Update(ctx, l); err != nil {
		return models.InventoryLot{}, apperr.Lookup(err, "lot", id)
	}
	return l, nil
}

// RemoveLot soft-deletes a lot by marking it disposed.
func (s *Service) RemoveLot(ctx context.Context, id string) error {
	status := string(models.LotDisposed)
	_, err := s.UpdateLot(ctx, id, LotPatch{Status: &status})
	return err
}

// AvailableForProduct sums quantity_available over the available lots of a
// product in a facility.
func (s *Service) AvailableForProduct(ctx context.Context, facilityID, productID string) (decimal.Decimal, error) {
	lots, err := s.store.Lots().List(ctx, repository.LotFilter{
		ProductID:  productID,
		FacilityID: facilityID,
		Status:     models.LotAvailable,
	})
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, l := range lots {
		total = total.Add(l.QuantityAvailable)
	}
	return total, nil
}

// ExpireLots moves every available lot whose expiration date precedes now to
// expired status and returns how many were changed.
func (s *Service) ExpireLots(ctx context.Context, now time.Time) (int, error) {
	var expired int
	err := s.store.RunInTransaction(ctx, func(ctx context.Context, tx repository.Repositories) error {
		expired = 0
		cutoff := now.UTC()
		lots, err := tx.Lots().List(ctx, repository.LotFilter{Status: models.LotAvailable, ExpiringBefore: &cutoff})
		if err != nil {
			return err
		}
		for _, l := range lots {
			l.Status = models.LotExpired
			l.UpdatedAt = cutoff
			if err := tx.Lots().Update(ctx, l); err != nil {
				return fmt.Errorf("expire lot %s: %w", l.ID, err)
			}
			expired++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.metrics.AddExpired(expired)
	if expired > 0 {
		s.logger.Info("lots expired", zap.Int("count", expired))
	}
	return expired, nil
}

// Summary aggregates available stock per product in a facility, sorted by SKU.
func (s *Service) Summary(ctx context.Context, facilityID string) ([]ProductStock, error) {
	if _, err := s.store.Facilities().Get(ctx, facilityID); err != nil {
		return nil, apperr.Lookup(err, "facility", facilityID)
	}

	lots, err := s.store.Lots().List(ctx, repository.LotFilter{FacilityID: facilityID, Status: models.LotAvailable})
	if err != nil {
		return nil, err
	}

	byProduct := map[string]*ProductStock{}
	for _, l := range lots {
		ps, ok := byProduct[l.ProductID]
		if !ok {
			ps = &ProductStock{ProductID: l.ProductID, Unit: l.Unit, Available: decimal.Zero}
			byProduct[l.ProductID] = ps
		}
		ps.Available = ps.Available.Add(l.QuantityAvailable)
		ps.Lots++
		if l.ExpirationDate != nil && (ps.NextExpiration == nil || l.ExpirationDate.Before(*ps.NextExpiration)) {
			t := *l.ExpirationDate
			ps.NextExpiration = &t
		}
	}

	out := make([]ProductStock, 0, len(byProduct))
	for id, ps := range byProduct {
		product, err := s.store.Products().Get(ctx, id)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if err == nil {
			ps.SKU = product.SKU
			ps.Name = product.Name
			if ps.Unit == "" {
				ps.Unit = product.DefaultUnit
			}
			ps.BelowReorder = product.ReorderPoint != nil && ps.Available.LessThanOrEqual(*product.ReorderPoint)
		}
		out = append(out, *ps)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SKU != out[j].SKU {
			return out[i].SKU < out[j].SKU
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}

func validateProductStatus(status string) error {
	switch status {
	case models.ProductActive, models.ProductDiscontinued:
		return nil
	default:
		return apperr.Invalid("invalid product status %q", status)
	}
}

func checkReorderPoint(q decimal.Decimal) error {
	if q.IsNegative() {
		return apperr.Invalid("reorder_point must not be negative")
	}
	if err := models.CheckQuantity(q); err != nil {
		return apperr.Invalid("reorder_point: %v", err)
	}
	return nil
}
