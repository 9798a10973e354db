package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/soulspace/soulspace_server/internal/api/middleware"
	"github.com/soulspace/soulspace_server/internal/pkg/response"
	"github.com/soulspace/soulspace_server/internal/service"
)

type SubscriptionHandler struct {
	subService  *service.SubscriptionService
	userService *service.UserService
}

func NewSubscriptionHandler(subService *service.SubscriptionService, userService *service.UserService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subService:  subService,
		userService: userService,
	}
}

type changeTierRequest struct {
	Tier string `json:"tier" binding:"required"`
}

// Get returns the caller's tier and quota snapshot.
// GET /api/v1/subscription
func (h *SubscriptionHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	response.Success(c, h.userService.GetQuota(userID))
}

// ChangeTier applies a tier change after checkout completes. The
// payment page calls this with the tier the billing portal confirmed.
// POST /api/v1/subscription/tier
func (h *SubscriptionHandler) ChangeTier(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req changeTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.subService.ChangeTier(userID, req.Tier); err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownTier):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "Subscription updated", h.userService.GetQuota(userID))
}
