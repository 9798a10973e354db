package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soulspace/soulspace_server/internal/model"
	"github.com/soulspace/soulspace_server/internal/model/dto"
	"github.com/soulspace/soulspace_server/internal/pkg/oss"
	"github.com/soulspace/soulspace_server/internal/pkg/tts"
)

var (
	ErrVoiceNotAvailable = errors.New("voice synthesis is not available")
	ErrVoiceTierRequired = errors.New("voice replies require a Premium subscription")
)

// TTSService renders arbitrary text to speech for paying users, used
// by the lesson player and the chat voice toggle.
type TTSService struct {
	synth     tts.Synthesizer
	ossClient *oss.Client
	limiter   *ChatLimitService
}

func NewTTSService(synth tts.Synthesizer, ossClient *oss.Client, limiter *ChatLimitService) *TTSService {
	return &TTSService{
		synth:     synth,
		ossClient: ossClient,
		limiter:   limiter,
	}
}

// Synthesize renders the text and returns the stored audio URL.
func (s *TTSService) Synthesize(ctx context.Context, userID int64, req *dto.TTSRequest) (*dto.TTSResponse, error) {
	tier := s.limiter.ResolveTier(userID)
	if tier != model.TierPremium && tier != model.TierTransformation {
		return nil, ErrVoiceTierRequired
	}

	if s.synth == nil || s.ossClient == nil {
		return nil, ErrVoiceNotAvailable
	}

	audio, err := s.synth.Synthesize(ctx, req.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize: %w", err)
	}

	objectKey := fmt.Sprintf("audio/%d/tts_%d.mp3", userID, time.Now().UnixNano())
	url, err := s.ossClient.UploadFile(objectKey, audio, "audio/mpeg")
	if err != nil {
		return nil, fmt.Errorf("failed to store audio: %w", err)
	}

	return &dto.TTSResponse{AudioURL: url}, nil
}
