package router

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"julianmorley.ca/stockpilot/inventory-api/pkg/auth"
	"julianmorley.ca/stockpilot/inventory-api/pkg/global"
	"julianmorley.ca/stockpilot/inventory-api/pkg/models"
	"julianmorley.ca/stockpilot/inventory-api/pkg/mongo"
)

// Register creates an account. The first account becomes admin; later ones
// start as viewers.
func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidJSON(c, err)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if validationFailed(c, &req) {
		return
	}

	ctx := c.Request.Context()
	count, err := h.store.CountUsers(ctx)
	if err != nil {
		h.log.Error("failed to count users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to register user", nil))
		return
	}
	role := models.RoleViewer
	if count == 0 {
		role = models.RoleAdmin
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.Error("failed to hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to register user", nil))
		return
	}

	user := &models.User{
		ID:       bson.NewObjectID(),
		Email:    req.Email,
		Password: hash,
		Name:     req.Name,
		Role:     role,
		Active:   true,
	}
	user.SetTimestamps()

	created, err := h.store.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, mongo.ErrDuplicate) {
			c.JSON(http.StatusConflict, global.ErrorResponse("User already exists", []global.ValidationError{
				{Field: "email", Message: "An account with this email already exists", Code: "duplicate"},
			}))
			return
		}
		h.log.Error("failed to create user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to register user", nil))
		return
	}

	h.log.Info("user registered", zap.String("email", created.Email), zap.String("role", created.Role))
	c.JSON(http.StatusCreated, global.SuccessResponse(created))
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidJSON(c, err)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if validationFailed(c, &req) {
		return
	}

	ctx := c.Request.Context()
	user, err := h.store.GetUserByEmail(ctx, req.Email)
	if err != nil && !isNotFound(err) {
		h.log.Error("failed to fetch user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to log in", nil))
		return
	}
	if user == nil || auth.CheckPassword(user.Password, req.Password) != nil {
		c.JSON(http.StatusUnauthorized, global.ErrorResponse("Invalid email or password", []global.ValidationError{
			{Field: "credentials", Message: "Email or password is incorrect", Code: "invalid_credentials"},
		}))
		return
	}
	if !user.Active {
		c.JSON(http.StatusForbidden, global.ErrorResponse("Account disabled", []global.ValidationError{
			{Field: "email", Message: "This account has been deactivated", Code: "inactive"},
		}))
		return
	}

	token, expiresAt, err := h.tokens.Issue(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		h.log.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to log in", nil))
		return
	}
	if err := h.store.TouchLastLogin(ctx, user.ID); err != nil {
		h.log.Warn("failed to record last login", zap.String("email", user.Email), zap.Error(err))
	}

	c.JSON(http.StatusOK, global.SuccessResponse(map[string]interface{}{
		"token":      token,
		"token_type": "Bearer",
		"expires_at": expiresAt,
		"user":       user,
	}))
}

func (h *Handler) Me(c *gin.Context) {
	claims := currentClaims(c)
	id, err := bson.ObjectIDFromHex(claims.Subject)
	if err != nil {
		c.JSON(http.StatusUnauthorized, global.ErrorResponse("Invalid or expired token", nil))
		return
	}
	user, err := h.store.GetUserByID(c.Request.Context(), id)
	if err != nil {
		if isNotFound(err) {
			notFound(c, "User", "id")
			return
		}
		h.log.Error("failed to fetch user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to fetch user", nil))
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(user))
}
