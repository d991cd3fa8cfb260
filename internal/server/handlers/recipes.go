package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/alquemist/internal/domain/models"
	"github.com/mamadbah2/alquemist/internal/repository"
	"github.com/mamadbah2/alquemist/internal/service/recipes"
)

// RecipeHandler serves recipe CRUD and execution.
type RecipeHandler struct {
	svc    *recipes.Service
	logger *zap.Logger
}

// NewRecipeHandler constructs the recipe HTTP adapter.
func NewRecipeHandler(svc *recipes.Service, logger *zap.Logger) *RecipeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecipeHandler{svc: svc, logger: logger}
}

// executeRequest is the body of POST /recipes/:id/execute.
type executeRequest struct {
	FacilityID    string                            `json:"facility_id"`
	Multiplier    *decimal.Decimal                  `json:"multiplier"`
	LotSelections map[string][]recipes.LotSelection `json:"lot_selections"`
	AutoSelect    bool                              `json:"auto_select"`
	PerformedBy   string                            `json:"performed_by"`
	BatchID       string                            `json:"batch_id"`
	Notes         string                            `json:"notes"`
}

func (h *RecipeHandler) List(c *gin.Context) {
	out, err := h.svc.List(c.Request.Context(), repository.RecipeFilter{
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

func (h *RecipeHandler) Get(c *gin.Context) {
	r, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *RecipeHandler) Create(c *gin.Context) {
	var in models.Recipe
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	r, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *RecipeHandler) Update(c *gin.Context) {
	var patch recipes.RecipePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	r, err := h.svc.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	if err := h.svc.Remove(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Execute consumes inventory for the recipe and returns the activity record.
func (h *RecipeHandler) Execute(c *gin.Context) {
	var body executeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.svc.Execute(c.Request.Context(), recipes.ExecuteRequest{
		RecipeID:    c.Param("id"),
		FacilityID:  body.FacilityID,
		Multiplier:  body.Multiplier,
		Selections:  body.LotSelections,
		AutoSelect:  body.AutoSelect,
		PerformedBy: body.PerformedBy,
		BatchID:     body.BatchID,
		Notes:       body.Notes,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
