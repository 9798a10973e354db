package dto

// ChatRequest is the payload for POST /chat. GuestChatCount is only
// meaningful for unauthenticated requests: the client tracks its own
// count and the server validates it against the guest ceiling.
type ChatRequest struct {
	Message        string `json:"message" binding:"required,max=4000"`
	GuestChatCount int    `json:"guest_chat_count"`
	WithAudio      bool   `json:"with_audio"`
}

type ChatResponse struct {
	Reply     string     `json:"reply"`
	AudioURL  string     `json:"audio_url,omitempty"`
	MessageID int64      `json:"message_id,omitempty"`
	Quota     *QuotaInfo `json:"quota,omitempty"`
}

// RateLimitInfo is the 429 body for both user and guest quota hits.
type RateLimitInfo struct {
	Message    string `json:"message"`
	Limit      int    `json:"limit"`
	Used       int    `json:"used"`
	Remaining  int    `json:"remaining"`
	Tier       string `json:"tier"`
	ResetTime  string `json:"reset_time,omitempty"`
	UpgradeURL string `json:"upgrade_url,omitempty"`
	SignupURL  string `json:"signup_url,omitempty"`
}

type ChatHistoryItem struct {
	ID        int64  `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	AudioURL  string `json:"audio_url,omitempty"`
	CreatedAt string `json:"created_at"`
}

type TTSRequest struct {
	Text string `json:"text" binding:"required,max=2000"`
}

type TTSResponse struct {
	AudioURL string `json:"audio_url"`
}
