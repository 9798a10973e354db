package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/soulspace/soulspace_server/internal/api/middleware"
	"github.com/soulspace/soulspace_server/internal/model/dto"
	"github.com/soulspace/soulspace_server/internal/pkg/response"
	"github.com/soulspace/soulspace_server/internal/service"
)

type TTSHandler struct {
	ttsService *service.TTSService
}

func NewTTSHandler(ttsService *service.TTSService) *TTSHandler {
	return &TTSHandler{
		ttsService: ttsService,
	}
}

// Synthesize renders text to speech and returns the audio URL.
// POST /api/v1/tts
func (h *TTSHandler) Synthesize(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.TTSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.ttsService.Synthesize(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVoiceTierRequired):
			response.PermissionError(c, err.Error())
		case errors.Is(err, service.ErrVoiceNotAvailable):
			response.ServerError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, resp)
}
