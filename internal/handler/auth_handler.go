package handler

import (
	"net/http"

	"github.com/eliasspt/api-flight/internal/model"
	"github.com/eliasspt/api-flight/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	service service.UserService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(s service.UserService) *AuthHandler {
	return &AuthHandler{service: s}
}

// Auth verifies correo/contrasena and returns a bearer token
func (h *AuthHandler) Auth(c *gin.Context) {
	var req model.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Solicitud inválida: " + err.Error()})
		return
	}

	token, err := h.service.Authenticate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "token": token})
}

// RegisterAuthRoutes registers the auth route
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth", h.Auth)
}
