package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/alquemist/internal/domain/apperr"
	"github.com/mamadbah2/alquemist/internal/domain/models"
	"github.com/mamadbah2/alquemist/internal/repository"
	"github.com/mamadbah2/alquemist/internal/service/inventory"
)

// InventoryHandler serves the product catalog and inventory lots.
type InventoryHandler struct {
	svc    *inventory.Service
	logger *zap.Logger
}

// NewInventoryHandler constructs the inventory HTTP adapter.
func NewInventoryHandler(svc *inventory.Service, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{svc: svc, logger: logger}
}

func (h *InventoryHandler) ListProducts(c *gin.Context) {
	out, err := h.svc.ListProducts(c.Request.Context(), repository.ProductFilter{
		CompanyID: c.Query("company_id"),
		Category:  c.Query("category"),
		Status:    c.Query("status"),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *InventoryHandler) GetProduct(c *gin.Context) {
	p, err := h.svc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var in models.Product
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.svc.CreateProduct(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *InventoryHandler) UpdateProduct(c *gin.Context) {
	var patch inventory.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.svc.UpdateProduct(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *InventoryHandler) DeleteProduct(c *gin.Context) {
	if err := h.svc.RemoveProduct(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListLots filters by product_id, facility_id, area_id, lot_status and expiring_before.
func (h *InventoryHandler) ListLots(c *gin.Context) {
	filter := repository.LotFilter{
		ProductID:  c.Query("product_id"),
		FacilityID: c.Query("facility_id"),
	}
	if area := c.Query("area_id"); area != "" {
		filter.AreaIDs = []string{area}
	}
	if raw := c.Query("lot_status"); raw != "" {
		status, err := models.ParseLotStatus(raw)
		if err != nil {
			respondError(c, h.logger, apperr.Invalid("%v", err))
			return
		}
		filter.Status = status
	}
	before, err := queryTime(c, "expiring_before")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	filter.ExpiringBefore = before

	out, err := h.svc.ListLots(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *InventoryHandler) GetLot(c *gin.Context) {
	l, err := h.svc.GetLot(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *InventoryHandler) CreateLot(c *gin.Context) {
	var in models.InventoryLot
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	l, err := h.svc.CreateLot(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (h *InventoryHandler) UpdateLot(c *gin.Context) {
	var patch inventory.LotPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	l, err := h.svc.UpdateLot(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *InventoryHandler) DeleteLot(c *gin.Context) {
	if err := h.svc.RemoveLot(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
