package dto

type CreatePostRequest struct {
	Title    string `json:"title" binding:"required,min=3,max=200"`
	Content  string `json:"content" binding:"required,max=10000"`
	Category string `json:"category" binding:"omitempty,max=50"`
}

type CreateReplyRequest struct {
	Content string `json:"content" binding:"required,max=10000"`
}

type PostAuthor struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

type PostItem struct {
	ID         int64       `json:"id"`
	Title      string      `json:"title"`
	Content    string      `json:"content,omitempty"`
	Category   string      `json:"category"`
	ReplyCount int         `json:"reply_count"`
	CreatedAt  string      `json:"created_at"`
	Author     *PostAuthor `json:"author,omitempty"`
}

type ReplyItem struct {
	ID        int64       `json:"id"`
	Content   string      `json:"content"`
	CreatedAt string      `json:"created_at"`
	Author    *PostAuthor `json:"author,omitempty"`
}
