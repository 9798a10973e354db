package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/soulspace/soulspace_server/internal/api/middleware"
	"github.com/soulspace/soulspace_server/internal/model/dto"
	"github.com/soulspace/soulspace_server/internal/pkg/response"
	"github.com/soulspace/soulspace_server/internal/service"
)

type ForumHandler struct {
	forumService *service.ForumService
}

func NewForumHandler(forumService *service.ForumService) *ForumHandler {
	return &ForumHandler{
		forumService: forumService,
	}
}

// ListPosts returns a page of posts, newest first.
// GET /api/v1/forum/posts
func (h *ForumHandler) ListPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	category := c.Query("category")

	items, total, err := h.forumService.ListPosts(category, page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// GetPost returns a single post with content.
// GET /api/v1/forum/posts/:id
func (h *ForumHandler) GetPost(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid post ID")
		return
	}

	item, err := h.forumService.GetPost(postID)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, item)
}

// CreatePost publishes a new post.
// POST /api/v1/forum/posts
func (h *ForumHandler) CreatePost(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	item, err := h.forumService.CreatePost(userID, &req)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "Posted", item)
}

// DeletePost removes a post. Author only.
// DELETE /api/v1/forum/posts/:id
func (h *ForumHandler) DeletePost(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid post ID")
		return
	}

	if err := h.forumService.DeletePost(userID, postID); err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrNotAuthor):
			response.PermissionError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "Deleted", nil)
}

// ListReplies returns a page of replies, oldest first.
// GET /api/v1/forum/posts/:id/replies
func (h *ForumHandler) ListReplies(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid post ID")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	items, total, err := h.forumService.ListReplies(postID, page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// CreateReply adds a reply to a post.
// POST /api/v1/forum/posts/:id/replies
func (h *ForumHandler) CreateReply(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid post ID")
		return
	}

	var req dto.CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	item, err := h.forumService.CreateReply(userID, postID, &req)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "Replied", item)
}

// DeleteReply removes a reply. Author only.
// DELETE /api/v1/forum/replies/:id
func (h *ForumHandler) DeleteReply(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	replyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid reply ID")
		return
	}

	if err := h.forumService.DeleteReply(userID, replyID); err != nil {
		switch {
		case errors.Is(err, service.ErrReplyNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrNotAuthor):
			response.PermissionError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "Deleted", nil)
}
