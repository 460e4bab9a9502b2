package router

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"julianmorley.ca/stockpilot/inventory-api/pkg/ai"
	"julianmorley.ca/stockpilot/inventory-api/pkg/analysis"
	"julianmorley.ca/stockpilot/inventory-api/pkg/global"
)

const (
	maxForecastDays = 365
	pingTimeout    = 5 * time.Second
)

type analyzeRequest struct {
	Data         map[string]interface{} `json:"data"`
	AnalysisType string                 `json:"analysis_type"`
}

type reportRequest struct {
	Data       map[string]interface{} `json:"data"`
	ReportType string                 `json:"report_type"`
}

type strategyRequest struct {
	Strategy string `json:"strategy" validate:"required"`
}

func (h *Handler) GetComprehensiveAnalysis(c *gin.Context) {
	opts := analysis.ComprehensiveOptions{
		CategoryID: c.Query("category_id"),
		SupplierID: c.Query("supplier_id"),
	}
	var errs []global.ValidationError
	if v, ok := optionalInt(c, "low_stock_threshold", 0, -1, &errs); ok {
		opts.LowStockThreshold = v
	}
	if v, ok := optionalInt(c, "sales_period_days", 1, maxForecastDays, &errs); ok {
		opts.SalesPeriodDays = v
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid query parameters", errs))
		return
	}

	c.JSON(http.StatusOK, global.SuccessResponse(h.analysis.GetComprehensiveAnalysis(c.Request.Context(), opts)))
}

func (h *Handler) GetWeeklyReport(c *gin.Context) {
	c.JSON(http.StatusOK, global.SuccessResponse(h.analysis.GenerateWeeklyReport(c.Request.Context())))
}

func (h *Handler) MonitorCriticalItems(c *gin.Context) {
	c.JSON(http.StatusOK, global.SuccessResponse(h.analysis.MonitorCriticalItems(c.Request.Context())))
}

func (h *Handler) PredictInventoryNeeds(c *gin.Context) {
	var errs []global.ValidationError
	days := 30
	if v, ok := optionalInt(c, "days", 1, maxForecastDays, &errs); ok {
		days = v
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid query parameters", errs))
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(h.analysis.PredictInventoryNeeds(c.Request.Context(), days)))
}

func (h *Handler) OptimizeInventory(c *gin.Context) {
	c.JSON(http.StatusOK, global.SuccessResponse(h.analysis.OptimizeInventory(c.Request.Context())))
}

// AnalyzeInventory runs one analysis over caller-supplied data.
func (h *Handler) AnalyzeInventory(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidJSON(c, err)
		return
	}
	if req.AnalysisType == "" {
		req.AnalysisType = ai.AnalysisGeneral
	}

	result, err := h.ai.AnalyzeInventory(c.Request.Context(), req.Data, req.AnalysisType)
	if err != nil {
		h.aiFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(result))
}

func (h *Handler) GenerateReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidJSON(c, err)
		return
	}
	if req.ReportType == "" {
		req.ReportType = ai.ReportInventory
	}

	report, err := h.ai.GenerateReport(c.Request.Context(), req.Data, req.ReportType)
	if err != nil {
		h.aiFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(report))
}

func (h *Handler) AIStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	c.JSON(http.StatusOK, global.SuccessResponse(map[string]interface{}{
		"available":   h.ai.IsAvailable(),
		"reachable":   h.ai.CheckActive(ctx),
		"active":      h.ai.ActiveStrategy(),
		"strategies":  h.ai.Strategies(),
		"cache_stats": h.analysis.CacheStats(),
	}))
}

func (h *Handler) SetAIStrategy(c *gin.Context) {
	var req strategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidJSON(c, err)
		return
	}
	if validationFailed(c, &req) {
		return
	}

	if !h.ai.SetStrategy(req.Strategy) {
		c.JSON(http.StatusNotFound, global.ErrorResponse("Unknown AI strategy", []global.ValidationError{
			{Field: "strategy", Message: "No strategy is registered under this name", Code: "not_found"},
		}))
		return
	}
	// cached payloads were produced by the previous strategy
	cleared := h.analysis.ClearCache()
	h.log.Info("ai strategy switched", zap.String("strategy", req.Strategy), zap.Int("cache_cleared", cleared))
	c.JSON(http.StatusOK, global.SuccessResponse(map[string]interface{}{
		"active":        h.ai.ActiveStrategy(),
		"cache_cleared": cleared,
	}))
}

func (h *Handler) ClearAnalysisCache(c *gin.Context) {
	cleared := h.analysis.ClearCache()
	c.JSON(http.StatusOK, global.SuccessResponse(map[string]interface{}{
		"cleared": cleared,
		"message": "Analysis cache cleared",
	}))
}

// aiFailure maps input errors to 400. Anything else is unexpected since the
// service absorbs backend failures into fallbacks.
func (h *Handler) aiFailure(c *gin.Context, err error) {
	if errors.Is(err, ai.ErrInvalidInput) {
		field := "data"
		var inputErr *ai.InputError
		if errors.As(err, &inputErr) {
			field = inputErr.Field
		}
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid analysis input", []global.ValidationError{
			{Field: field, Message: err.Error(), Code: "invalid_input"},
		}))
		return
	}
	h.log.Error("analysis request failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, global.ErrorResponse("Analysis failed", nil))
}

// optionalInt parses an integer query parameter within [lo, hi]; hi < 0 means
// unbounded. ok is false when the parameter is absent or invalid.
func optionalInt(c *gin.Context, name string, lo, hi int, errs *[]global.ValidationError) (int, bool) {
	raw, present := c.GetQuery(name)
	if !present || raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || (hi >= 0 && v > hi) {
		msg := "Must be an integer >= " + strconv.Itoa(lo)
		if hi >= 0 {
			msg = "Must be an integer between " + strconv.Itoa(lo) + " and " + strconv.Itoa(hi)
		}
		*errs = append(*errs, global.ValidationError{Field: name, Message: msg, Code: "invalid_number"})
		return 0, false
	}
	return v, true
}
