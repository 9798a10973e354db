package dto

// RegisterRequest is the payload for POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=32"`
}

type RegisterResponse struct {
	UserID int64 `json:"user_id"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string    `json:"token"`
	User  *UserInfo `json:"user"`
}

type VerifyEmailRequest struct {
	Code string `json:"code" binding:"required"`
}

// UserInfo is the user shape returned to the frontend.
type UserInfo struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email,omitempty"`
	AvatarURL     string     `json:"avatar_url"`
	Bio           string     `json:"bio"`
	Tier          string     `json:"tier"`
	EmailVerified bool       `json:"email_verified,omitempty"`
	QuotaInfo     *QuotaInfo `json:"quota_info,omitempty"`
	CreatedAt     string     `json:"created_at,omitempty"`
}

// QuotaInfo mirrors the limiter's reporting fields for profile/quota
// endpoints. Limit and Remaining use -1 for unlimited and -2 when the
// store could not be read.
type QuotaInfo struct {
	Tier       string `json:"tier"`
	DailyLimit int    `json:"daily_limit"`
	Used       int    `json:"used"`
	Remaining  int    `json:"remaining"`
	ResetTime  string `json:"reset_time,omitempty"`
}

type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" binding:"omitempty,min=3,max=50"`
	Bio      *string `json:"bio,omitempty" binding:"omitempty,max=500"`
}
