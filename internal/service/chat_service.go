package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/soulspace/soulspace_server/config"
	"github.com/soulspace/soulspace_server/internal/model"
	"github.com/soulspace/soulspace_server/internal/model/dto"
	"github.com/soulspace/soulspace_server/internal/pkg/llm"
	"github.com/soulspace/soulspace_server/internal/pkg/oss"
	"github.com/soulspace/soulspace_server/internal/pkg/tts"
	"github.com/soulspace/soulspace_server/internal/pkg/ws"
	"github.com/soulspace/soulspace_server/internal/repository"
)

var ErrGuideUnavailable = errors.New("the guide is unavailable right now, please try again shortly")

// ChatService runs a chat turn end to end: quota check, AI reply,
// persistence, usage accounting and the optional voice rendering.
type ChatService struct {
	chatRepo  *repository.ChatRepository
	limiter   *ChatLimitService
	llmClient llm.Client
	synth     tts.Synthesizer
	ossClient *oss.Client
	hub       *ws.Hub
	cfg       *config.Config
}

func NewChatService(chatRepo *repository.ChatRepository, limiter *ChatLimitService, llmClient llm.Client, synth tts.Synthesizer, ossClient *oss.Client, hub *ws.Hub, cfg *config.Config) *ChatService {
	return &ChatService{
		chatRepo:  chatRepo,
		limiter:   limiter,
		llmClient: llmClient,
		synth:     synth,
		ossClient: ossClient,
		hub:       hub,
		cfg:       cfg,
	}
}

// SendMessage handles one authenticated chat turn. A blocked quota is
// not an error: the second return value carries the limit decision and
// the caller maps it to the 429 contract. Usage is only consumed after
// the AI reply succeeded.
func (s *ChatService) SendMessage(ctx context.Context, userID int64, req *dto.ChatRequest) (*dto.ChatResponse, *LimitResult, error) {
	tier := s.limiter.ResolveTier(userID)

	result := s.limiter.CheckLimit(userID, tier)
	if !result.Allowed {
		return nil, result, nil
	}

	history, err := s.loadHistory(userID)
	if err != nil {
		// History is context, not a precondition
		log.Printf("Chat: failed to load history for user %d: %v", userID, err)
	}

	reply, err := s.llmClient.GenerateReply(ctx, history, req.Message)
	if err != nil {
		log.Printf("Chat: failed to generate reply for user %d: %v", userID, err)
		return nil, nil, ErrGuideUnavailable
	}

	userMsg := &model.ChatMessage{
		UserID:  userID,
		Role:    model.RoleUser,
		Content: req.Message,
	}
	if err := s.chatRepo.Create(userMsg); err != nil {
		log.Printf("Chat: failed to persist user message for user %d: %v", userID, err)
	}

	assistantMsg := &model.ChatMessage{
		UserID:  userID,
		Role:    model.RoleAssistant,
		Content: reply,
	}
	if err := s.chatRepo.Create(assistantMsg); err != nil {
		log.Printf("Chat: failed to persist reply for user %d: %v", userID, err)
	}

	// The reply happened, so the turn counts
	s.limiter.IncrementUsage(userID)

	resp := &dto.ChatResponse{
		Reply:     reply,
		MessageID: assistantMsg.ID,
		Quota:     quotaAfterTurn(result),
	}

	if req.WithAudio {
		if url := s.renderAudio(ctx, userID, assistantMsg.ID, reply, tier); url != "" {
			resp.AudioURL = url
		}
	}

	s.pushQuotaUpdate(userID, resp.Quota)

	return resp, nil, nil
}

// GuestMessage handles an unauthenticated chat turn. Nothing is
// persisted and no store is touched; the guest ceiling is validated
// from the client-reported count.
func (s *ChatService) GuestMessage(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, *GuestResult, error) {
	result := s.limiter.CheckGuestLimit(req.GuestChatCount)
	if !result.Allowed {
		return nil, result, nil
	}

	reply, err := s.llmClient.GenerateReply(ctx, nil, req.Message)
	if err != nil {
		log.Printf("Chat: failed to generate guest reply: %v", err)
		return nil, nil, ErrGuideUnavailable
	}

	return &dto.ChatResponse{Reply: reply}, nil, nil
}

// History returns the user's recent conversation.
func (s *ChatService) History(userID int64, limit int) ([]*dto.ChatHistoryItem, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	messages, err := s.chatRepo.ListByUser(userID, limit)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.ChatHistoryItem, 0, len(messages))
	for _, msg := range messages {
		items = append(items, &dto.ChatHistoryItem{
			ID:        msg.ID,
			Role:      msg.Role,
			Content:   msg.Content,
			AudioURL:  msg.AudioURL,
			CreatedAt: msg.CreatedAt.Format(time.RFC3339),
		})
	}
	return items, nil
}

// loadHistory converts recent messages into LLM context turns.
func (s *ChatService) loadHistory(userID int64) ([]llm.Message, error) {
	limit := s.cfg.Chat.HistoryLimit
	if limit <= 0 {
		limit = 20
	}

	messages, err := s.chatRepo.ListByUser(userID, limit)
	if err != nil {
		return nil, err
	}

	history := make([]llm.Message, 0, len(messages))
	for _, msg := range messages {
		history = append(history, llm.Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return history, nil
}

// renderAudio synthesizes and stores the spoken reply. Voice replies
// are a paid feature; failures degrade to text-only silently.
func (s *ChatService) renderAudio(ctx context.Context, userID, messageID int64, text, tier string) string {
	if s.synth == nil || s.ossClient == nil {
		return ""
	}
	if tier != model.TierPremium && tier != model.TierTransformation {
		return ""
	}

	audio, err := s.synth.Synthesize(ctx, text)
	if err != nil {
		log.Printf("Chat: failed to synthesize audio for message %d: %v", messageID, err)
		return ""
	}

	url, err := s.ossClient.UploadAudio(userID, messageID, audio)
	if err != nil {
		log.Printf("Chat: failed to upload audio for message %d: %v", messageID, err)
		return ""
	}

	if err := s.chatRepo.UpdateAudioURL(messageID, url); err != nil {
		log.Printf("Chat: failed to store audio url for message %d: %v", messageID, err)
	}

	return url
}

func (s *ChatService) pushQuotaUpdate(userID int64, quota *dto.QuotaInfo) {
	if s.hub == nil || quota == nil {
		return
	}
	if err := s.hub.SendToUser(userID, &ws.Message{Type: ws.TypeQuotaUpdate, Data: quota}); err != nil {
		log.Printf("Chat: failed to push quota update for user %d: %v", userID, err)
	}
}

// quotaAfterTurn adjusts the pre-check snapshot for the turn that was
// just consumed. Unlimited and unknown sentinels pass through as is.
func quotaAfterTurn(result *LimitResult) *dto.QuotaInfo {
	info := quotaInfoFromResult(result)

	if result.DailyLimit >= 0 {
		info.Used = result.Used + 1
		if info.Remaining > 0 {
			info.Remaining--
		}
	} else if result.DailyLimit == LimitUnlimited {
		info.Used = result.Used + 1
	}

	return info
}
