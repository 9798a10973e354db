package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soulspace/soulspace_server/internal/api/middleware"
	"github.com/soulspace/soulspace_server/internal/model/dto"
	"github.com/soulspace/soulspace_server/internal/pkg/response"
	"github.com/soulspace/soulspace_server/internal/service"
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// Send runs one chat turn. Authenticated users get the daily tier
// quota; anonymous visitors get the guest ceiling. A quota hit is the
// one place the API returns a real HTTP 429.
// POST /api/v1/chat
func (h *ChatHandler) Send(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	userID, authed := middleware.GetUserID(c)
	if !authed {
		h.sendGuest(c, &req)
		return
	}

	resp, limited, err := h.chatService.SendMessage(c.Request.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrGuideUnavailable) {
			response.ServerError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	if limited != nil {
		info := &dto.RateLimitInfo{
			Message:    limited.UpgradeMessage,
			Limit:      limited.DailyLimit,
			Used:       limited.Used,
			Remaining:  limited.Remaining,
			Tier:       limited.Tier,
			UpgradeURL: limited.UpgradeURL,
		}
		if limited.ResetTime != nil {
			info.ResetTime = limited.ResetTime.Format(time.RFC3339)
		}
		response.RateLimited(c, limited.UpgradeMessage, info)
		return
	}

	response.Success(c, resp)
}

func (h *ChatHandler) sendGuest(c *gin.Context, req *dto.ChatRequest) {
	resp, limited, err := h.chatService.GuestMessage(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrGuideUnavailable) {
			response.ServerError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	if limited != nil {
		response.RateLimited(c, limited.Message, &dto.RateLimitInfo{
			Message:   limited.Message,
			Limit:     limited.Limit,
			Used:      limited.Used,
			Remaining: limited.Remaining,
			Tier:      "guest",
			SignupURL: limited.SignupURL,
		})
		return
	}

	response.Success(c, resp)
}

// History returns the caller's recent conversation.
// GET /api/v1/chat/history
func (h *ChatHandler) History(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	items, err := h.chatService.History(userID, limit)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, items)
}
