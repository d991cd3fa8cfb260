package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/alquemist/internal/domain/models"
	"github.com/mamadbah2/alquemist/internal/repository"
	"github.com/mamadbah2/alquemist/internal/service/facilities"
	"github.com/mamadbah2/alquemist/internal/service/inventory"
	"github.com/mamadbah2/alquemist/internal/service/reporting"
)

// FacilityHandler serves facilities, areas and per-facility views.
type FacilityHandler struct {
	svc       *facilities.Service
	inventory *inventory.Service
	reporting *reporting.Service
	logger    *zap.Logger
	now       func() time.Time
}

// NewFacilityHandler constructs the facility HTTP adapter.
func NewFacilityHandler(svc *facilities.Service, inv *inventory.Service, rep *reporting.Service, logger *zap.Logger) *FacilityHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacilityHandler{svc: svc, inventory: inv, reporting: rep, logger: logger, now: time.Now}
}

func (h *FacilityHandler) List(c *gin.Context) {
	out, err := h.svc.ListFacilities(c.Request.Context(), repository.FacilityFilter{
		CompanyID: c.Query("company_id"),
		Status:    c.Query("status"),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *FacilityHandler) Get(c *gin.Context) {
	f, err := h.svc.GetFacility(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *FacilityHandler) Create(c *gin.Context) {
	var in models.Facility
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	f, err := h.svc.CreateFacility(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

func (h *FacilityHandler) Update(c *gin.Context) {
	var patch facilities.FacilityPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	f, err := h.svc.UpdateFacility(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *FacilityHandler) Delete(c *gin.Context) {
	if err := h.svc.RemoveFacility(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Summary returns per-product available stock in the facility.
func (h *FacilityHandler) Summary(c *gin.Context) {
	out, err := h.inventory.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Report renders the plain-text inventory report.
func (h *FacilityHandler) Report(c *gin.Context) {
	report, err := h.reporting.InventoryReport(c.Request.Context(), c.Param("id"), h.now())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.String(http.StatusOK, report)
}

func (h *FacilityHandler) ListAreas(c *gin.Context) {
	out, err := h.svc.ListAreas(c.Request.Context(), repository.AreaFilter{
		FacilityID: c.Query("facility_id"),
		Status:     c.Query("status"),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *FacilityHandler) GetArea(c *gin.Context) {
	a, err := h.svc.GetArea(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *FacilityHandler) CreateArea(c *gin.Context) {
	var in models.Area
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	a, err := h.svc.CreateArea(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *FacilityHandler) UpdateArea(c *gin.Context) {
	var patch facilities.AreaPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	a, err := h.svc.UpdateArea(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *FacilityHandler) DeleteArea(c *gin.Context) {
	if err := h.svc.RemoveArea(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
