package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"julianmorley.ca/stockpilot/inventory-api/pkg/auth"
	"julianmorley.ca/stockpilot/inventory-api/pkg/models"
)

// InitEngine builds the gin engine with the shared middleware chain.
func InitEngine(production bool, origins []string, log *zap.Logger) *gin.Engine {
	if production {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(log), Metrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "X-Total-Count", "X-Cache", RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	return r
}

func InitializeRoutes(r *gin.Engine, h *Handler, tokens *auth.TokenIssuer) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", h.HealthCheck)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.GET("/me", AuthRequired(tokens), h.Me)
		}

		canManage := RequireRole(models.RoleAdmin, models.RoleManager)

		items := api.Group("/items")
		{
			items.GET("", h.ListItems)
			items.GET("/low-stock", h.GetLowStockItems)
			items.GET("/out-of-stock", h.GetOutOfStockItems)
			items.GET("/stats", h.GetInventoryStats)
			items.GET("/recent", h.GetRecentItems)
			items.GET("/sku/:sku", h.GetItemBySKU)
			items.GET("/:id", h.GetItem)
			items.GET("/:id/movements", h.ListStockMovements)

			items.POST("", AuthRequired(tokens), canManage, h.CreateItem)
			items.PUT("/:id", AuthRequired(tokens), canManage, h.UpdateItem)
			items.DELETE("/:id", AuthRequired(tokens), canManage, h.DeleteItem)
		}

		categories := api.Group("/categories")
		{
			categories.GET("", h.ListCategories)
			categories.GET("/:id", h.GetCategory)
			categories.POST("", AuthRequired(tokens), canManage, h.CreateCategory)
			categories.DELETE("/:id", AuthRequired(tokens), canManage, h.DeleteCategory)
		}

		analysis := api.Group("/analysis")
		analysis.Use(AuthRequired(tokens))
		{
			analysis.GET("/comprehensive", h.GetComprehensiveAnalysis)
			analysis.GET("/weekly-report", h.GetWeeklyReport)
			analysis.GET("/critical-items", h.MonitorCriticalItems)
			analysis.GET("/predictions", h.PredictInventoryNeeds)
			analysis.GET("/optimization", h.OptimizeInventory)
			analysis.POST("/inventory", h.AnalyzeInventory)
			analysis.POST("/report", h.GenerateReport)

			analysis.GET("/ai/status", h.AIStatus)
			analysis.PUT("/ai/strategy", RequireRole(models.RoleAdmin), h.SetAIStrategy)
			analysis.DELETE("/cache", RequireRole(models.RoleAdmin), h.ClearAnalysisCache)
		}
	}
}
