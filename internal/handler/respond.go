package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/eliasspt/api-flight/internal/apperr"
	"github.com/eliasspt/api-flight/internal/middleware"
	"github.com/eliasspt/api-flight/internal/service"

	"github.com/gin-gonic/gin"
)

// respondError renders any error as the {status:"error", message} envelope.
// Typed errors keep their status; everything else is a 500 with the raw
// failure message.
func respondError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		c.JSON(appErr.Status, gin.H{"status": "error", "message": appErr.Message})
		return
	}
	log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"status": "success", "data": data})
}

// requesterFrom rebuilds the caller identity the JWT middleware stored in the
// context; nil when the request carried no token.
func requesterFrom(c *gin.Context) *service.Requester {
	idVal, ok := c.Get(middleware.AuthUserKey)
	if !ok {
		return nil
	}
	id, ok := idVal.(int)
	if !ok {
		return nil
	}
	rol, _ := c.Get(middleware.AuthRoleKey)
	rolStr, _ := rol.(string)
	return &service.Requester{ID: id, Rol: rolStr}
}
