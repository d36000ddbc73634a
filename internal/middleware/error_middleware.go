package middleware

import (
	"net/http"

	"civic-pulse/internal/services"
	"civic-pulse/internal/transport/httpdto"
	pulse_errors "civic-pulse/pkg/errors"
	"civic-pulse/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler answers errors attached with c.Error by handlers that did not
// write a response themselves.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	if l == nil {
		l = logger.GetGlobalLogger()
	}
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := services.HTTPStatus(err)
		if status == http.StatusInternalServerError {
			l.WithContext(c.Request.Context()).Error("request error", zap.Error(err))
			c.JSON(status, httpdto.NewErrorResponse("internal server error", "internal-error"))
			return
		}
		c.JSON(status, httpdto.NewErrorResponse(err.Error(), pulse_errors.CodeOf(err)))
	}
}
