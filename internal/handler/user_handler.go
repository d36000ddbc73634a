package handler

import (
	"errors"
	"net/http"

	"civic-pulse/internal/domain/poll"
	"civic-pulse/internal/repository"
	"civic-pulse/internal/services"
	"civic-pulse/internal/transport/httpdto"
	pulse_errors "civic-pulse/pkg/errors"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users repository.UserRepository
}

func NewUserHandler(users repository.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

// WhoAmI tells the client which kind of voter it currently is.
func (h *UserHandler) WhoAmI(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.WhoAmIResponse{Kind: string(poll.VoterAnonymous)}))
		return
	}

	u, err := h.users.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, pulse_errors.ErrNotFound) {
			c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("user not found", "user-not-found"))
			return
		}
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("internal server error", "internal-error"))
		return
	}
	dto := httpdto.FromUser(u)
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.WhoAmIResponse{Kind: string(poll.VoterUser), User: &dto}))
}
