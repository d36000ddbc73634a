package middleware

import (
	"net/http"

	"civic-pulse/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionCookieMaxAge = 365 * 24 * 60 * 60

// VoterSessionMiddleware gives every browser a stable opaque session token,
// the first half of an anonymous voter's identity. Tokens that are not
// uuids are replaced.
func VoterSessionMiddleware(cookieName string, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || uuid.Validate(token) != nil {
			token = uuid.NewString()
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     cookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   sessionCookieMaxAge,
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		c.Request = c.Request.WithContext(services.WithSessionToken(c.Request.Context(), token))
		c.Next()
	}
}
