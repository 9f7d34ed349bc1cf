package api

import (
	"net/http"

	apperrors "cogex/backend/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError writes err with the status of its error type. Server-side
// failures are logged; their details stay out of the response.
func (h *Handler) respondError(c *gin.Context, msg string, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg,
			zap.Error(err),
			zap.String("request_id", c.GetString(requestIDKey)),
		)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
