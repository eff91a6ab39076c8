package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"libraryhub/pkg/models"
)

// fail writes err as a JSON error body. notFoundMsg is used for models.ErrNotFound
// since each resource words it differently.
func (s *Server) fail(c *gin.Context, err error, notFoundMsg string) {
	var fe models.FieldErrors
	switch {
	case errors.As(err, &fe):
		c.JSON(http.StatusBadRequest, fe)
	case errors.Is(err, errBadBody):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
	case errors.Is(err, models.ErrNoCopiesAvailable):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No copies available."})
	case errors.Is(err, models.ErrAlreadyBorrowed):
		c.JSON(http.StatusBadRequest, gin.H{"error": "You already borrowed this book."})
	case errors.Is(err, models.ErrInvalidReference):
		c.JSON(http.StatusBadRequest, gin.H{"error": "A referenced record does not exist."})
	default:
		s.log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
