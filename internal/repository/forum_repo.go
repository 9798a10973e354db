package repository

import (
	"gorm.io/gorm"

	"github.com/soulspace/soulspace_server/internal/model"
)

type ForumRepository struct {
	db *gorm.DB
}

func NewForumRepository(db *gorm.DB) *ForumRepository {
	return &ForumRepository{db: db}
}

func (r *ForumRepository) CreatePost(post *model.ForumPost) error {
	return r.db.Create(post).Error
}

func (r *ForumRepository) GetPostByID(id int64) (*model.ForumPost, error) {
	var post model.ForumPost
	err := r.db.Preload("User").Where("id = ?", id).First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *ForumRepository) ListPosts(category string, page, pageSize int) ([]*model.ForumPost, int64, error) {
	var posts []*model.ForumPost
	var total int64

	query := r.db.Model(&model.ForumPost{}).Preload("User")
	if category != "" {
		query = query.Where("category = ?", category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("id DESC").Offset(offset).Limit(pageSize).Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

func (r *ForumRepository) DeletePost(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&model.ForumReply{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.ForumPost{}, id).Error
	})
}

func (r *ForumRepository) CreateReply(reply *model.ForumReply) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reply).Error; err != nil {
			return err
		}
		return tx.Model(&model.ForumPost{}).Where("id = ?", reply.PostID).
			Update("reply_count", gorm.Expr("reply_count + 1")).Error
	})
}

func (r *ForumRepository) GetReplyByID(id int64) (*model.ForumReply, error) {
	var reply model.ForumReply
	err := r.db.Where("id = ?", id).First(&reply).Error
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func (r *ForumRepository) ListReplies(postID int64, page, pageSize int) ([]*model.ForumReply, int64, error) {
	var replies []*model.ForumReply
	var total int64

	query := r.db.Model(&model.ForumReply{}).Preload("User").Where("post_id = ?", postID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("id ASC").Offset(offset).Limit(pageSize).Find(&replies).Error
	if err != nil {
		return nil, 0, err
	}

	return replies, total, nil
}

func (r *ForumRepository) DeleteReply(id, postID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.ForumReply{}, id).Error; err != nil {
			return err
		}
		return tx.Model(&model.ForumPost{}).Where("id = ? AND reply_count > 0", postID).
			Update("reply_count", gorm.Expr("reply_count - 1")).Error
	})
}
