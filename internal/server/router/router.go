package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/alquemist/internal/metrics"
	"github.com/mamadbah2/alquemist/internal/server/handlers"
)

// Handlers groups the HTTP adapters mounted under /api/v1.
type Handlers struct {
	Facilities *handlers.FacilityHandler
	Inventory  *handlers.InventoryHandler
	Recipes    *handlers.RecipeHandler
	Activities *handlers.ActivityHandler
}

// New wires the Gin engine with required routes and middlewares. m may be nil,
// in which case /metrics is not mounted.
func New(h Handlers, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(metricsMiddleware(m))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	v1 := r.Group("/api/v1")

	facilities := v1.Group("/facilities")
	facilities.GET("", h.Facilities.List)
	facilities.POST("", h.Facilities.Create)
	facilities.GET("/:id", h.Facilities.Get)
	facilities.PATCH("/:id", h.Facilities.Update)
	facilities.DELETE("/:id", h.Facilities.Delete)
	facilities.GET("/:id/summary", h.Facilities.Summary)
	facilities.GET("/:id/report", h.Facilities.Report)

	areas := v1.Group("/areas")
	areas.GET("", h.Facilities.ListAreas)
	areas.POST("", h.Facilities.CreateArea)
	areas.GET("/:id", h.Facilities.GetArea)
	areas.PATCH("/:id", h.Facilities.UpdateArea)
	areas.DELETE("/:id", h.Facilities.DeleteArea)

	products := v1.Group("/products")
	products.GET("", h.Inventory.ListProducts)
	products.POST("", h.Inventory.CreateProduct)
	products.GET("/:id", h.Inventory.GetProduct)
	products.PATCH("/:id", h.Inventory.UpdateProduct)
	products.DELETE("/:id", h.Inventory.DeleteProduct)

	lots := v1.Group("/lots")
	lots.GET("", h.Inventory.ListLots)
	lots.POST("", h.Inventory.CreateLot)
	lots.GET("/:id", h.Inventory.GetLot)
	lots.PATCH("/:id", h.Inventory.UpdateLot)
	lots.DELETE("/:id", h.Inventory.DeleteLot)

	recipes := v1.Group("/recipes")
	recipes.GET("", h.Recipes.List)
	recipes.POST("", h.Recipes.Create)
	recipes.GET("/:id", h.Recipes.Get)
	recipes.PATCH("/:id", h.Recipes.Update)
	recipes.DELETE("/:id", h.Recipes.Delete)
	recipes.POST("/:id/execute", h.Recipes.Execute)

	activities := v1.Group("/activities")
	activities.GET("", h.Activities.List)
	activities.GET("/:id", h.Activities.Get)

	logger.Info("router initialized")
	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("request completed", fields...)
			return
		}
		logger.Info("request completed", fields...)
	}
}

// metricsMiddleware labels requests by route template to keep cardinality bounded.
func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
