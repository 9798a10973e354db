package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/soulspace/soulspace_server/internal/model"
	"github.com/soulspace/soulspace_server/internal/model/dto"
	"github.com/soulspace/soulspace_server/internal/repository"
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrReplyNotFound = errors.New("reply not found")
	ErrNotAuthor     = errors.New("only the author can do this")
)

type ForumService struct {
	forumRepo *repository.ForumRepository
}

func NewForumService(forumRepo *repository.ForumRepository) *ForumService {
	return &ForumService{forumRepo: forumRepo}
}

// CreatePost publishes a new community post.
func (s *ForumService) CreatePost(userID int64, req *dto.CreatePostRequest) (*dto.PostItem, error) {
	category := req.Category
	if category == "" {
		category = "general"
	}

	post := &model.ForumPost{
		UserID:   userID,
		Title:    req.Title,
		Content:  req.Content,
		Category: category,
	}

	if err := s.forumRepo.CreatePost(post); err != nil {
		return nil, err
	}

	return s.buildPostItem(post, true), nil
}

// GetPost returns a single post with content.
func (s *ForumService) GetPost(postID int64) (*dto.PostItem, error) {
	post, err := s.forumRepo.GetPostByID(postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	return s.buildPostItem(post, true), nil
}

// ListPosts returns a page of posts, newest first. Content is omitted
// in list view.
func (s *ForumService) ListPosts(category string, page, pageSize int) ([]*dto.PostItem, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	posts, total, err := s.forumRepo.ListPosts(category, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*dto.PostItem, 0, len(posts))
	for _, post := range posts {
		items = append(items, s.buildPostItem(post, false))
	}

	return items, total, nil
}

// DeletePost removes a post and its replies. Author only.
func (s *ForumService) DeletePost(userID, postID int64) error {
	post, err := s.forumRepo.GetPostByID(postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return err
	}

	if post.UserID != userID {
		return ErrNotAuthor
	}

	return s.forumRepo.DeletePost(postID)
}

// CreateReply adds a reply and bumps the post's reply count.
func (s *ForumService) CreateReply(userID, postID int64, req *dto.CreateReplyRequest) (*dto.ReplyItem, error) {
	if _, err := s.forumRepo.GetPostByID(postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	reply := &model.ForumReply{
		PostID:  postID,
		UserID:  userID,
		Content: req.Content,
	}

	if err := s.forumRepo.CreateReply(reply); err != nil {
		return nil, err
	}

	return s.buildReplyItem(reply), nil
}

// ListReplies returns a page of replies, oldest first.
func (s *ForumService) ListReplies(postID int64, page, pageSize int) ([]*dto.ReplyItem, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	replies, total, err := s.forumRepo.ListReplies(postID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*dto.ReplyItem, 0, len(replies))
	for _, reply := range replies {
		items = append(items, s.buildReplyItem(reply))
	}

	return items, total, nil
}

// DeleteReply removes a reply. Author only.
func (s *ForumService) DeleteReply(userID, replyID int64) error {
	reply, err := s.forumRepo.GetReplyByID(replyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReplyNotFound
		}
		return err
	}

	if reply.UserID != userID {
		return ErrNotAuthor
	}

	return s.forumRepo.DeleteReply(replyID, reply.PostID)
}

func (s *ForumService) buildPostItem(post *model.ForumPost, withContent bool) *dto.PostItem {
	item := &dto.PostItem{
		ID:         post.ID,
		Title:      post.Title,
		Category:   post.Category,
		ReplyCount: post.ReplyCount,
		CreatedAt:  post.CreatedAt.Format(time.RFC3339),
	}
	if withContent {
		item.Content = post.Content
	}
	if post.User != nil {
		item.Author = &dto.PostAuthor{
			ID:        post.User.ID,
			Username:  post.User.Username,
			AvatarURL: post.User.AvatarURL,
		}
	}
	return item
}

func (s *ForumService) buildReplyItem(reply *model.ForumReply) *dto.ReplyItem {
	item := &dto.ReplyItem{
		ID:        reply.ID,
		Content:   reply.Content,
		CreatedAt: reply.CreatedAt.Format(time.RFC3339),
	}
	if reply.User != nil {
		item.Author = &dto.PostAuthor{
			ID:        reply.User.ID,
			Username:  reply.User.Username,
			AvatarURL: reply.User.AvatarURL,
		}
	}
	return item
}
