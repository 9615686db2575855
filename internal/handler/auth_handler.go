package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jebol-id/adminduk-api/internal/middleware"
	"github.com/jebol-id/adminduk-api/internal/models"
	"github.com/jebol-id/adminduk-api/internal/service"
	appErrors "github.com/jebol-id/adminduk-api/pkg/errors"
	"github.com/jebol-id/adminduk-api/pkg/response"
)

// AuthHandler wires the auth endpoints to the auth service.
type AuthHandler struct {
	service *service.AuthService
	metrics *service.MetricsService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService, metrics *service.MetricsService) *AuthHandler {
	return &AuthHandler{service: svc, metrics: metrics}
}

// Login godoc
// @Summary Authenticate account
// @Description Authenticate by username and password, returns a Bearer token pair
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		h.observeLogin(err)
		response.Error(c, err)
		return
	}

	h.metrics.ObserveLogin("success")
	response.Success(c, http.StatusOK, "Authenticated", res)
}

// Logout godoc
// @Summary Logout current session
// @Description Revokes only the token used to authenticate this request
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	if session == nil {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}

	if err := h.service.Logout(c.Request.Context(), session, c.ClientIP(), c.GetHeader("User-Agent")); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Logged out", nil)
}

// Me godoc
// @Summary Get current account
// @Description Returns the authenticated account's public fields
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	if session == nil || session.User == nil {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}

	user := session.User
	response.Success(c, http.StatusOK, "", gin.H{
		"user": models.UserInfo{
			ID:       user.ID,
			Name:     user.Username,
			Role:     user.Role,
			UUID:     user.UUID,
			Username: user.Username,
			IsActive: user.IsActive,
		},
	})
}

// Refresh godoc
// @Summary Refresh access token
// @Description Exchange a refresh-ability token for a new access token
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	if session == nil {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}

	res, err := h.service.Refresh(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", res)
}

func (h *AuthHandler) observeLogin(err error) {
	appErr := appErrors.FromError(err)
	switch appErr.Status {
	case http.StatusUnauthorized:
		h.metrics.ObserveLogin("unauthenticated")
	case http.StatusForbidden:
		h.metrics.ObserveLogin("forbidden")
	default:
		h.metrics.ObserveLogin("error")
	}
}
