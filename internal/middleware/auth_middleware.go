package middleware

import (
	"context"
	"net/http"
	"strings"

	"civic-pulse/internal/proxy"
	"civic-pulse/internal/services"
	"civic-pulse/internal/transport/httpdto"
	"civic-pulse/pkg/logger"

	"github.com/gin-gonic/gin"
)

// OptionalAuthMiddleware attaches the user when a valid bearer token is
// present. Requests without a token continue as anonymous voters; a token
// that fails verification is rejected rather than downgraded.
func OptionalAuthMiddleware(service *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c)
		if token == "" {
			c.Next()
			return
		}

		u, err := service.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "unauthorized"))
			c.Abort()
			return
		}

		ctx := services.WithUserContext(c.Request.Context(), u.ID)
		ctx = context.WithValue(ctx, logger.UserIdKey, u.ID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAuthMiddleware must run after OptionalAuthMiddleware.
func RequireAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := services.UserIDFromContext(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "unauthorized"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func RequireAdminMiddleware(access *proxy.AccessControl) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := services.UserIDFromContext(c.Request.Context())
		if err := access.RequireAdmin(c.Request.Context(), userID); err != nil {
			status := services.HTTPStatus(err)
			c.JSON(status, httpdto.NewErrorResponse(http.StatusText(status), "not-admin"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
