package router

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"julianmorley.ca/stockpilot/inventory-api/pkg/global"
	"julianmorley.ca/stockpilot/inventory-api/pkg/models"
	"julianmorley.ca/stockpilot/inventory-api/pkg/mongo"
)

const (
	movementHistoryLimit = 50
	defaultRecentItems   = 10
	maxRecentItems       = 100
)

var (
	immutableItemFields = []string{"_id", "id", "sku", "created_at", "updated_at"}

	// updatable item fields and whether each must be a whole number
	updatableItemFields = map[string]bool{
		"name":            false,
		"description":     false,
		"category_id":     false,
		"supplier_id":     false,
		"price":           false,
		"quantity":        true,
		"min_stock_level": true,
	}
)

func (h *Handler) ListItems(c *gin.Context) {
	page, limit := parsePagination(c)
	filter := models.ItemFilter{
		CategoryID: c.Query("category_id"),
		SupplierID: c.Query("supplier_id"),
		Search:     c.Query("search"),
		LowStock:   c.Query("low_stock") == "true",
	}

	result, err := h.store.ListItems(c.Request.Context(), filter, models.ListOptions{
		Limit:  limit,
		Skip:   (page - 1) * limit,
		SortBy: c.Query("sort_by"),
	})
	if err != nil {
		h.log.Error("failed to list items", zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to get items", nil))
		return
	}

	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.JSON(http.StatusOK, global.SuccessResponse(global.PagedData{
		Items: result.Items,
		Total: result.Total,
		Page:  page,
		Limit: limit,
	}))
}

// GetItem serves from the Redis cache first and fills it on a miss.
func (h *Handler) GetItem(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	h.serveItem(c, "id", id.Hex(),
		func(ctx context.Context) (*models.Item, error) { return h.cache.GetItem(ctx, id.Hex()) },
		func(ctx context.Context) (*models.Item, error) { return h.store.GetItemByID(ctx, id) },
	)
}

// GetItemBySKU resolves the SKU through the cache's SKU index before MongoDB.
func (h *Handler) GetItemBySKU(c *gin.Context) {
	sku := strings.TrimSpace(c.Param("sku"))
	if sku == "" {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid SKU", []global.ValidationError{
			{Field: "sku", Message: "SKU is required", Code: "required"},
		}))
		return
	}
	h.serveItem(c, "sku", sku,
		func(ctx context.Context) (*models.Item, error) { return h.cache.GetItemBySKU(ctx, sku) },
		func(ctx context.Context) (*models.Item, error) { return h.store.GetItemBySKU(ctx, sku) },
	)
}

func (h *Handler) serveItem(c *gin.Context, field, value string,
	fromCache, fromStore func(context.Context) (*models.Item, error),
) {
	ctx := c.Request.Context()

	if h.cache != nil {
		if item, err := fromCache(ctx); err == nil {
			c.Header("X-Cache", "HIT")
			c.JSON(http.StatusOK, global.SuccessResponse(item))
			return
		}
	}

	item, err := fromStore(ctx)
	if err != nil {
		if isNotFound(err) {
			notFound(c, "Item", field)
			return
		}
		h.log.Error("failed to fetch item", zap.String(field, value), zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to fetch item", nil))
		return
	}

	if h.cache != nil {
		if cacheErr := h.cache.CacheItem(ctx, item); cacheErr != nil {
			h.log.Warn("failed to cache item", zap.String(field, value), zap.Error(cacheErr))
		}
	}
	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, global.SuccessResponse(item))
}

// GetRecentItems lists the items most recently read or written through the
// cache, newest first. Entries whose cached copy expired are reloaded from
// MongoDB; deleted ones are skipped.
func (h *Handler) GetRecentItems(c *gin.Context) {
	var errs []global.ValidationError
	limit := defaultRecentItems
	if v, ok := optionalInt(c, "limit", 1, maxRecentItems, &errs); ok {
		limit = v
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid query parameters", errs))
		return
	}

	items := []models.Item{}
	if h.cache == nil {
		c.JSON(http.StatusOK, global.SuccessResponse(items))
		return
	}

	ctx := c.Request.Context()
	ids, err := h.cache.RecentItemIDs(ctx, limit)
	if err != nil {
		h.log.Warn("failed to read recent items", zap.Error(err))
	}
	for _, id := range ids {
		if item, err := h.cache.GetItem(ctx, id); err == nil {
			items = append(items, *item)
			continue
		}
		oid, err := bson.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		item, err := h.store.GetItemByID(ctx, oid)
		if err != nil {
			if !isNotFound(err) {
				h.log.Warn("failed to reload recent item", zap.String("id", id), zap.Error(err))
			}
			continue
		}
		items = append(items, *item)
	}
	c.JSON(http.StatusOK, global.SuccessResponse(items))
}

func (h *Handler) CreateItem(c *gin.Context) {
	var req models.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidJSON(c, err)
		return
	}
	if validationFailed(c, &req) {
		return
	}

	ctx := c.Request.Context()
	item, err := h.store.CreateItem(ctx, req.ToItem())
	if err != nil {
		if errors.Is(err, mongo.ErrDuplicate) {
			c.JSON(http.StatusConflict, global.ErrorResponse("Item already exists", []global.ValidationError{
				{Field: "sku", Message: "An item with this SKU already exists", Code: "duplicate"},
			}))
			return
		}
		h.log.Error("failed to create item", zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to create item", nil))
		return
	}

	if item.Quantity > 0 {
		h.recordMovement(c, item, 0)
	}
	if h.cache != nil {
		if cacheErr := h.cache.CacheItem(ctx, item); cacheErr != nil {
			h.log.Warn("failed to cache item", zap.String("sku", item.SKU), zap.Error(cacheErr))
		}
	}
	c.JSON(http.StatusCreated, global.SuccessResponse(item))
}

// UpdateItem applies a partial update. Immutable fields are dropped rather than
// rejected; unknown fields and malformed values are rejected.
func (h *Handler) UpdateItem(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		invalidJSON(c, err)
		return
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("No updates provided", []global.ValidationError{
			{Field: "body", Message: "Request body must contain at least one field to update", Code: "empty_updates"},
		}))
		return
	}

	for _, field := range immutableItemFields {
		if _, exists := updates[field]; exists {
			delete(updates, field)
			h.log.Warn("removed immutable field from update", zap.String("field", field))
		}
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("No valid updates provided", []global.ValidationError{
			{Field: "body", Message: "All provided fields are immutable and cannot be updated", Code: "no_valid_updates"},
		}))
		return
	}

	if errs := normalizeItemUpdates(updates); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Validation failed", errs))
		return
	}

	ctx := c.Request.Context()
	before, after, err := h.store.UpdateItem(ctx, id, updates)
	if err != nil {
		if isNotFound(err) {
			notFound(c, "Item", "id")
			return
		}
		h.log.Error("failed to update item", zap.String("id", id.Hex()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to update item", nil))
		return
	}

	if before.Quantity != after.Quantity {
		h.recordMovement(c, after, before.Quantity)
	}
	if h.cache != nil {
		if cacheErr := h.cache.CacheItem(ctx, after); cacheErr != nil {
			h.log.Warn("failed to refresh cached item", zap.String("id", id.Hex()), zap.Error(cacheErr))
		}
	}
	c.Header("X-Cache", "REFRESHED")
	c.JSON(http.StatusOK, global.SuccessResponse(after))
}

// normalizeItemUpdates checks every field against updatableItemFields and
// converts JSON numbers to the stored types in place.
func normalizeItemUpdates(updates map[string]interface{}) []global.ValidationError {
	var errs []global.ValidationError
	for field, value := range updates {
		whole, known := updatableItemFields[field]
		if !known {
			errs = append(errs, global.ValidationError{Field: field, Message: "Field cannot be updated", Code: "unknown_field"})
			continue
		}

		switch field {
		case "name", "description", "category_id", "supplier_id":
			s, ok := value.(string)
			if !ok {
				errs = append(errs, global.ValidationError{Field: field, Message: "Must be a string", Code: "invalid_type"})
				continue
			}
			if field == "name" && s == "" {
				errs = append(errs, global.ValidationError{Field: field, Message: "Name cannot be empty", Code: "required"})
			}
		default:
			n, ok := value.(float64)
			if !ok || n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
				errs = append(errs, global.ValidationError{Field: field, Message: "Must be a non-negative number", Code: "invalid_number"})
				continue
			}
			if whole {
				if n != math.Trunc(n) {
					errs = append(errs, global.ValidationError{Field: field, Message: "Must be a whole number", Code: "invalid_number"})
					continue
				}
				updates[field] = int(n)
			}
		}
	}
	return errs
}

func (h *Handler) DeleteItem(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	deleted, err := h.store.DeleteItem(ctx, id)
	if err != nil {
		if isNotFound(err) {
			notFound(c, "Item", "id")
			return
		}
		h.log.Error("failed to delete item", zap.String("id", id.Hex()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to delete item", nil))
		return
	}

	if h.cache != nil {
		if cacheErr := h.cache.RemoveItem(ctx, deleted); cacheErr != nil {
			h.log.Warn("failed to remove item from cache", zap.String("id", id.Hex()), zap.Error(cacheErr))
		}
	}
	c.Header("X-Cache", "DELETED")
	c.JSON(http.StatusOK, global.SuccessResponse(map[string]interface{}{
		"deleted_item": deleted,
		"message":      "Item successfully deleted",
	}))
}

func (h *Handler) GetLowStockItems(c *gin.Context) {
	threshold := 0
	if raw := c.Query("threshold"); raw != "" {
		t, err := strconv.Atoi(raw)
		if err != nil || t < 0 {
			c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid threshold", []global.ValidationError{
				{Field: "threshold", Message: "Threshold must be a non-negative integer", Code: "invalid_number"},
			}))
			return
		}
		threshold = t
	}

	items, err := h.store.GetLowStockItems(c.Request.Context(), threshold)
	if err != nil {
		h.log.Error("failed to get low stock items", zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to get low stock items", nil))
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(items))
}

func (h *Handler) GetOutOfStockItems(c *gin.Context) {
	items, err := h.store.GetOutOfStockItems(c.Request.Context())
	if err != nil {
		h.log.Error("failed to get out of stock items", zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to get out of stock items", nil))
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(items))
}

func (h *Handler) GetInventoryStats(c *gin.Context) {
	stats, err := h.store.GetInventoryStats(c.Request.Context())
	if err != nil {
		h.log.Error("failed to get inventory stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to get inventory stats", nil))
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(stats))
}

func (h *Handler) ListStockMovements(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	movements, err := h.store.ListStockMovements(c.Request.Context(), id, movementHistoryLimit)
	if err != nil {
		h.log.Error("failed to list stock movements", zap.String("id", id.Hex()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to get stock movements", nil))
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(movements))
}

// recordMovement writes the audit entry for a quantity change. Failures are
// logged; the item write already succeeded.
func (h *Handler) recordMovement(c *gin.Context, item *models.Item, before int) {
	performedBy := ""
	if claims := currentClaims(c); claims != nil {
		performedBy = claims.Email
	}
	movement := models.NewStockMovement(item, before, performedBy)
	if err := h.store.RecordStockMovement(c.Request.Context(), movement); err != nil {
		h.log.Warn("failed to record stock movement", zap.String("sku", item.SKU), zap.Error(err))
	}
}
