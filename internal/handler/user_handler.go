package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jebol-id/adminduk-api/internal/middleware"
	"github.com/jebol-id/adminduk-api/internal/models"
	"github.com/jebol-id/adminduk-api/internal/service"
	appErrors "github.com/jebol-id/adminduk-api/pkg/errors"
	"github.com/jebol-id/adminduk-api/pkg/response"
)

// UserHandler exposes RT account management, SUPER_ADMIN only.
type UserHandler struct {
	service *service.UserService
}

// NewUserHandler creates a new handler.
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{service: svc}
}

// CreateRT godoc
// @Summary Create RT account
// @Tags RT Accounts
// @Accept json
// @Produce json
// @Param payload body models.CreateRTUserRequest true "RT account payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /admin/users/rt [post]
func (h *UserHandler) CreateRT(c *gin.Context) {
	var req models.CreateRTUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid RT user payload"))
		return
	}

	info, err := h.service.CreateRT(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "RT user created successfully", info)
}

// ListRT godoc
// @Summary List RT accounts
// @Tags RT Accounts
// @Produce json
// @Param search query string false "Username or uuid search"
// @Param page query int false "Page"
// @Param per_page query int false "Page size (1..100)"
// @Param sort_by query string false "Sort field"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /admin/users/rt [get]
func (h *UserHandler) ListRT(c *gin.Context) {
	filter := models.UserFilter{
		Search:    c.Query("search"),
		Page:      queryInt(c, "page", 1),
		PerPage:   queryInt(c, "per_page", 15),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	infos, total, err := h.service.ListRT(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	perPage := filter.PerPage
	if perPage < 1 || perPage > 100 {
		perPage = 15
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	lastPage := (total + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}

	response.SuccessWithMeta(c, http.StatusOK, "RT users retrieved successfully", infos, map[string]interface{}{
		"current_page": page,
		"per_page":     perPage,
		"total":        total,
		"last_page":    lastPage,
	})
}

// ShowRT godoc
// @Summary Get RT account
// @Tags RT Accounts
// @Produce json
// @Param id path string true "RT account id or uuid"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/rt/{id} [get]
func (h *UserHandler) ShowRT(c *gin.Context) {
	info, err := h.service.GetRT(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "RT user retrieved successfully", info)
}

// UpdateRT godoc
// @Summary Update RT account
// @Tags RT Accounts
// @Accept json
// @Produce json
// @Param id path string true "RT account id or uuid"
// @Param payload body models.UpdateRTUserRequest true "Partial update"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /admin/users/rt/{id} [patch]
func (h *UserHandler) UpdateRT(c *gin.Context) {
	var req models.UpdateRTUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid RT user payload"))
		return
	}

	info, err := h.service.UpdateRT(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "RT user updated successfully", info)
}

// DeleteRT godoc
// @Summary Delete RT account
// @Tags RT Accounts
// @Produce json
// @Param id path string true "RT account id or uuid"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/rt/{id} [delete]
func (h *UserHandler) DeleteRT(c *gin.Context) {
	username, err := h.service.DeleteRT(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "RT user deleted successfully", gin.H{
		"username":   username,
		"deleted_at": time.Now().UTC(),
	})
}

// ResetRTPassword godoc
// @Summary Reset RT account password
// @Tags RT Accounts
// @Accept json
// @Produce json
// @Param id path string true "RT account id or uuid"
// @Param payload body models.ResetRTPasswordRequest true "New password"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /admin/users/rt/{id}/reset-password [post]
func (h *UserHandler) ResetRTPassword(c *gin.Context) {
	var req models.ResetRTPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}

	info, err := h.service.ResetRTPassword(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "RT user password reset successfully", info)
}

func actorID(c *gin.Context) string {
	if session := middleware.SessionFromContext(c); session != nil && session.User != nil {
		return session.User.ID
	}
	return ""
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
