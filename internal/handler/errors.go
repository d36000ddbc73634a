package handler

import (
	"net/http"

	"civic-pulse/internal/services"
	"civic-pulse/internal/transport/httpdto"
	pulse_errors "civic-pulse/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError writes a domain error with its status and code. Unclassified
// errors are logged and answered with a generic 500.
func (h *PollHandler) respondError(c *gin.Context, err error) {
	status := services.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.log.WithContext(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, httpdto.NewErrorResponse("internal server error", "internal-error"))
		return
	}

	code := pulse_errors.CodeOf(err)
	if code == "" {
		code = http.StatusText(status)
	}
	c.JSON(status, httpdto.NewErrorResponse(err.Error(), code))
}
