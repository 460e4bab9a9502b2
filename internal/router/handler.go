package router

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"julianmorley.ca/stockpilot/inventory-api/pkg/ai"
	"julianmorley.ca/stockpilot/inventory-api/pkg/analysis"
	"julianmorley.ca/stockpilot/inventory-api/pkg/auth"
	"julianmorley.ca/stockpilot/inventory-api/pkg/global"
	"julianmorley.ca/stockpilot/inventory-api/pkg/models"
	"julianmorley.ca/stockpilot/inventory-api/pkg/mongo"
	"julianmorley.ca/stockpilot/inventory-api/pkg/redis"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Store is everything the HTTP layer reads and writes; *mongo.Store implements it.
type Store interface {
	Ping(ctx context.Context) error

	ListItems(ctx context.Context, filter models.ItemFilter, opts models.ListOptions) (*models.ItemPage, error)
	GetItemByID(ctx context.Context, id bson.ObjectID) (*models.Item, error)
	GetItemBySKU(ctx context.Context, sku string) (*models.Item, error)
	CreateItem(ctx context.Context, item *models.Item) (*models.Item, error)
	UpdateItem(ctx context.Context, id bson.ObjectID, updates map[string]interface{}) (before, after *models.Item, err error)
	DeleteItem(ctx context.Context, id bson.ObjectID) (*models.Item, error)
	GetLowStockItems(ctx context.Context, threshold int) ([]models.Item, error)
	GetOutOfStockItems(ctx context.Context) ([]models.Item, error)
	GetInventoryStats(ctx context.Context) (*models.InventoryStats, error)

	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryByID(ctx context.Context, id bson.ObjectID) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	DeleteCategory(ctx context.Context, id bson.ObjectID) error

	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)
	TouchLastLogin(ctx context.Context, id bson.ObjectID) error

	RecordStockMovement(ctx context.Context, movement *models.StockMovement) error
	ListStockMovements(ctx context.Context, itemID bson.ObjectID, limit int) ([]models.StockMovement, error)
}

type Deps struct {
	Store    Store
	Cache    *redis.ItemCache // optional
	AI       *ai.Service
	Analysis *analysis.Service
	Tokens   *auth.TokenIssuer
	Log      *zap.Logger
}

// Handler carries the services the route handlers need.
type Handler struct {
	store    Store
	cache    *redis.ItemCache
	ai       *ai.Service
	analysis *analysis.Service
	tokens   *auth.TokenIssuer
	log      *zap.Logger
}

func NewHandler(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		store:    d.Store,
		cache:    d.Cache,
		ai:       d.AI,
		analysis: d.Analysis,
		tokens:   d.Tokens,
		log:      log.Named("http"),
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.store.Ping(ctx); err != nil {
		h.log.Error("database ping failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Database connection failed", nil))
		return
	}

	status := map[string]interface{}{
		"status":   "OK",
		"database": "Connected",
		"cache":    "Disabled",
		"ai":       h.ai.IsAvailable(),
	}
	if h.cache != nil {
		status["cache"] = "Connected"
		if err := h.cache.Ping(ctx); err != nil {
			h.log.Warn("redis ping failed", zap.Error(err))
			status["cache"] = "Unavailable"
		}
	}
	c.JSON(http.StatusOK, global.SuccessResponse(status))
}

// parseObjectID reads the :id route param, answering 400 itself on failure.
func parseObjectID(c *gin.Context, param string) (bson.ObjectID, bool) {
	id, err := bson.ObjectIDFromHex(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid ID format", []global.ValidationError{
			{Field: param, Message: "ID must be a 24 character hex string", Code: "invalid_format"},
		}))
		return bson.ObjectID{}, false
	}
	return id, true
}

func parsePagination(c *gin.Context) (page, limit int) {
	page, limit = 1, defaultPageLimit
	if p, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit))); err == nil && l > 0 {
		limit = min(l, maxPageLimit)
	}
	return page, limit
}

// validationFailed answers 400 with one ValidationError per failed rule.
func validationFailed(c *gin.Context, v interface{}) bool {
	fieldErrs := models.Validate(v)
	if len(fieldErrs) == 0 {
		return false
	}
	errs := make([]global.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, global.ValidationError{
			Field:   fe.Field,
			Message: "failed '" + fe.Rule + "' validation",
			Code:    "validation_" + fe.Rule,
		})
	}
	c.JSON(http.StatusBadRequest, global.ErrorResponse("Validation failed", errs))
	return true
}

func invalidJSON(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid JSON format", []global.ValidationError{
		{Field: "body", Message: err.Error(), Code: "json_parse_error"},
	}))
}

func notFound(c *gin.Context, what, field string) {
	c.JSON(http.StatusNotFound, global.ErrorResponse(what+" not found", []global.ValidationError{
		{Field: field, Message: "No " + strings.ToLower(what) + " exists with this " + strings.ToUpper(field), Code: "not_found"},
	}))
}

func isNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNotFound)
}
