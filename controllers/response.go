package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"salesbackend/middleware"
	"salesbackend/services"
	"salesbackend/utils"
)

// respondError maps a service error onto its status code. Unexpected errors
// are logged and hidden behind "Server error".
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInsufficientStock),
		errors.Is(err, services.ErrConflict):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		log.Printf("ERROR in %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "Server error"})
		return
	}

	msg := services.Message(err)
	if msg == "" {
		msg = err.Error()
	}
	c.JSON(status, gin.H{"error": msg})
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.ValidationMessage(err)})
		return false
	}
	return true
}

func currentUser(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}

// getClientIP relies on the engine's trusted proxy list, so a forwarded
// header from an untrusted peer is ignored.
func getClientIP(c *gin.Context) string {
	return c.ClientIP()
}
