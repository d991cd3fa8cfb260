package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/alquemist/internal/repository"
	"github.com/mamadbah2/alquemist/internal/service/activity"
)

// ActivityHandler serves the read-only activity log.
type ActivityHandler struct {
	svc    *activity.Service
	logger *zap.Logger
}

// NewActivityHandler constructs the activity HTTP adapter.
func NewActivityHandler(svc *activity.Service, logger *zap.Logger) *ActivityHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityHandler{svc: svc, logger: logger}
}

// List filters by entity_type, entity_id, facility_id, since, until and limit.
func (h *ActivityHandler) List(c *gin.Context) {
	filter := repository.ActivityFilter{
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		FacilityID: c.Query("facility_id"),
	}
	var err error
	if filter.Since, err = queryTime(c, "since"); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if filter.Until, err = queryTime(c, "until"); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if filter.Limit, err = queryInt(c, "limit"); err != nil {
		respondError(c, h.logger, err)
		return
	}

	out, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ActivityHandler) Get(c *gin.Context) {
	rec, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
