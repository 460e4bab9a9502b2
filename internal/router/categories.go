package router

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"julianmorley.ca/stockpilot/inventory-api/pkg/global"
	"julianmorley.ca/stockpilot/inventory-api/pkg/models"
	"julianmorley.ca/stockpilot/inventory-api/pkg/mongo"
)

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.store.ListCategories(c.Request.Context())
	if err != nil {
		h.log.Error("failed to list categories", zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to get categories", nil))
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(categories))
}

func (h *Handler) GetCategory(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	category, err := h.store.GetCategoryByID(c.Request.Context(), id)
	if err != nil {
		if isNotFound(err) {
			notFound(c, "Category", "id")
			return
		}
		h.log.Error("failed to fetch category", zap.String("id", id.Hex()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to fetch category", nil))
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(category))
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidJSON(c, err)
		return
	}
	if validationFailed(c, &req) {
		return
	}

	category, err := h.store.CreateCategory(c.Request.Context(), req.ToCategory())
	if err != nil {
		if errors.Is(err, mongo.ErrDuplicate) {
			c.JSON(http.StatusConflict, global.ErrorResponse("Category already exists", []global.ValidationError{
				{Field: "name", Message: "A category with this name already exists", Code: "duplicate"},
			}))
			return
		}
		h.log.Error("failed to create category", zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to create category", nil))
		return
	}
	c.JSON(http.StatusCreated, global.SuccessResponse(category))
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteCategory(c.Request.Context(), id); err != nil {
		if isNotFound(err) {
			notFound(c, "Category", "id")
			return
		}
		h.log.Error("failed to delete category", zap.String("id", id.Hex()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to delete category", nil))
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(map[string]string{"message": "Category successfully deleted"}))
}
