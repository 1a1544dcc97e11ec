package handler

import (
	"net/http"
	"strconv"

	"github.com/eliasspt/api-flight/internal/apperr"
	"github.com/eliasspt/api-flight/internal/model"
	"github.com/eliasspt/api-flight/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler handles the usuarios CRUD requests
type UserHandler struct {
	service service.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(s service.UserService) *UserHandler {
	return &UserHandler{service: s}
}

// CreateUser registers a new user. The route runs behind the optional JWT
// middleware: the first-ever registration and anonymous registrations carry
// no identity, everything else does.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Solicitud inválida: " + err.Error()})
		return
	}

	user, err := h.service.Create(c.Request.Context(), requesterFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, user)
}

// ListUsers returns every user; the admin middleware has already gated access
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.service.List(c.Request.Context(), requesterFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, users)
}

// GetUser returns one user; the service checks owner-or-admin
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	user, err := h.service.Get(c.Request.Context(), requesterFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

// UpdateUser applies a partial update to one user
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req model.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Solicitud inválida: " + err.Error()})
		return
	}

	user, err := h.service.Update(c.Request.Context(), requesterFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

// DeleteUser removes one user
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), requesterFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Usuario eliminado"})
}

func pathID(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, apperr.BadRequest("ID de usuario inválido")
	}
	return id, nil
}

// RegisterUserRoutes registers the usuarios routes
func (h *UserHandler) RegisterUserRoutes(rg *gin.RouterGroup, authMW, optionalAuthMW, adminMW gin.HandlerFunc) {
	users := rg.Group("/usuarios")
	{
		users.POST("", optionalAuthMW, h.CreateUser) // First registration and anonymous sign-up allowed
		users.GET("", authMW, adminMW, h.ListUsers)
		users.GET("/:id", authMW, h.GetUser)
		users.PUT("/:id", authMW, h.UpdateUser)
		users.DELETE("/:id", authMW, h.DeleteUser)
	}
}
