package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/soulspace/soulspace_server/internal/model"
	"github.com/soulspace/soulspace_server/internal/model/dto"
	"github.com/soulspace/soulspace_server/internal/repository"
	"github.com/soulspace/soulspace_server/internal/testutil"
)

func setupForumService(t *testing.T, db *gorm.DB) *ForumService {
	t.Helper()
	return NewForumService(repository.NewForumRepository(db))
}

func TestForumService_CreatePost(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupForumService(t, db)

	user := testutil.TestUser(t, db)

	item, err := service.CreatePost(user.ID, &dto.CreatePostRequest{
		Title:   "Morning meditation routines",
		Content: "What does yours look like?",
	})

	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Equal(t, "Morning meditation routines", item.Title)
	assert.Equal(t, "general", item.Category) // default category
	assert.Equal(t, "What does yours look like?", item.Content)
}

func TestForumService_GetPost(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupForumService(t, db)

	user := testutil.TestUser(t, db)
	post := testutil.TestPost(t, db, user.ID, "A question")

	item, err := service.GetPost(post.ID)
	require.NoError(t, err)
	assert.Equal(t, "A question", item.Title)
	assert.Equal(t, "Post content", item.Content)
	require.NotNil(t, item.Author)
	assert.Equal(t, user.Username, item.Author.Username)
}

func TestForumService_GetPost_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupForumService(t, db)

	_, err := service.GetPost(99999)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestForumService_ListPosts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupForumService(t, db)

	user := testutil.TestUser(t, db)
	for i := 0; i < 3; i++ {
		testutil.TestPost(t, db, user.ID, "Post")
	}

	items, total, err := service.ListPosts("", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 2)

	// List view omits content
	assert.Empty(t, items[0].Content)

	items, _, err = service.ListPosts("", 2, 2)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestForumService_ListPosts_ByCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupForumService(t, db)

	user := testutil.TestUser(t, db)
	testutil.TestPost(t, db, user.ID, "General post")

	post := &model.ForumPost{UserID: user.ID, Title: "Gratitude", Content: "x", Category: "practice"}
	require.NoError(t, db.Create(post).Error)

	items, total, err := service.ListPosts("practice", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Gratitude", items[0].Title)
}

func TestForumService_ListPosts_ClampsPaging(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupForumService(t, db)

	user := testutil.TestUser(t, db)
	testutil.TestPost(t, db, user.ID, "Only post")

	items, _, err := service.ListPosts("", 0, -5)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestForumService_Replies(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupForumService(t, db)

	author := testutil.TestUser(t, db)
	replier := testutil.TestUser(t, db)
	post := testutil.TestPost(t, db, author.ID, "Discussion")

	reply, err := service.CreateReply(replier.ID, post.ID, &dto.CreateReplyRequest{
		Content: "I agree.",
	})
	require.NoError(t, err)
	assert.Equal(t, "I agree.", reply.Content)

	_, err = service.CreateReply(replier.ID, post.ID, &dto.CreateReplyRequest{
		Content: "And one more thought.",
	})
	require.NoError(t, err)

	// Reply count on the post keeps up
	item, err := service.GetPost(post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, item.ReplyCount)

	// Oldest first
	replies, total, err := service.ListReplies(post.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, replies, 2)
	assert.Equal(t, "I agree.", replies[0].Content)
}

func TestForumService_CreateReply_PostNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupForumService(t, db)

	user := testutil.TestUser(t, db)

	_, err := service.CreateReply(user.ID, 99999, &dto.CreateReplyRequest{Content: "hello?"})
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestForumService_DeletePost_AuthorOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupForumService(t, db)

	author := testutil.TestUser(t, db)
	stranger := testutil.TestUser(t, db)
	post := testutil.TestPost(t, db, author.ID, "Mine")

	err := service.DeletePost(stranger.ID, post.ID)
	assert.ErrorIs(t, err, ErrNotAuthor)

	require.NoError(t, service.DeletePost(author.ID, post.ID))

	_, err = service.GetPost(post.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestForumService_DeleteReply(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupForumService(t, db)

	author := testutil.TestUser(t, db)
	replier := testutil.TestUser(t, db)
	post := testutil.TestPost(t, db, author.ID, "Discussion")

	reply, err := service.CreateReply(replier.ID, post.ID, &dto.CreateReplyRequest{Content: "gone soon"})
	require.NoError(t, err)

	// Post author is not the reply author
	assert.ErrorIs(t, service.DeleteReply(author.ID, reply.ID), ErrNotAuthor)

	require.NoError(t, service.DeleteReply(replier.ID, reply.ID))

	// Count drops back
	item, err := service.GetPost(post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, item.ReplyCount)

	assert.ErrorIs(t, service.DeleteReply(replier.ID, reply.ID), ErrReplyNotFound)
}
