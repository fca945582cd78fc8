package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/urbanbelagavi/commerce-api/internal/repository"
)

// internalError maps storage connectivity failures to 503 and everything
// else to a generic 500.
func internalError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
