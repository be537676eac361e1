package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ripple/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_CreateAndGetByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "ann")
	post := &models.Post{UserID: author.ID, Text: "hello"}
	require.NoError(t, repo.Create(ctx, post))
	require.NotZero(t, post.ID)

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, "ann", got.User.Username)

	body, err := json.Marshal(got)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "hashed-password", "author password must never serialize")
}

func TestPostRepository_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)

	_, err := repo.GetByID(context.Background(), 999)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestPostRepository_ListAll_NewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "bob")
	older := &models.Post{UserID: author.ID, Text: "older", CreatedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, db.Create(older).Error)
	newer := &models.Post{UserID: author.ID, Text: "newer"}
	require.NoError(t, db.Create(newer).Error)

	posts, err := repo.ListAll(ctx, 20, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "newer", posts[0].Text)
	assert.Equal(t, "older", posts[1].Text)
}

func TestPostRepository_ListAll_TimestampTiesKeepInsertionOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "dana")
	stamp := time.Now().Truncate(time.Second)
	for _, text := range []string{"first", "second", "third"} {
		post := &models.Post{UserID: author.ID, Text: text, CreatedAt: stamp}
		require.NoError(t, db.Create(post).Error)
	}

	posts, err := repo.ListAll(ctx, 20, 0)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "first", posts[0].Text)
	assert.Equal(t, "second", posts[1].Text)
	assert.Equal(t, "third", posts[2].Text)

	byAuthor, err := repo.ListByAuthors(ctx, []uint{author.ID}, 20, 0)
	require.NoError(t, err)
	require.Len(t, byAuthor, 3)
	assert.Equal(t, "first", byAuthor[0].Text)
	assert.Equal(t, "third", byAuthor[2].Text)
}

func TestPostRepository_ListAll_Pagination(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "carol")
	for i := 0; i < 5; i++ {
		createTestPost(t, db, author.ID, "post")
	}

	page1, err := repo.ListAll(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page1, 2)

	page3, err := repo.ListAll(ctx, 2, 4)
	require.NoError(t, err)
	assert.Len(t, page3, 1)
}

func TestPostRepository_ListByAuthors(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	ann := createTestUser(t, db, "ann")
	bob := createTestUser(t, db, "bob")
	carl := createTestUser(t, db, "carl")
	createTestPost(t, db, ann.ID, "from ann")
	createTestPost(t, db, bob.ID, "from bob")
	createTestPost(t, db, carl.ID, "from carl")

	posts, err := repo.ListByAuthors(ctx, []uint{ann.ID, bob.ID}, 20, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	for _, p := range posts {
		assert.NotEqual(t, carl.ID, p.UserID)
	}

	empty, err := repo.ListByAuthors(ctx, nil, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPostRepository_Like_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "ann")
	liker := createTestUser(t, db, "bob")
	post := createTestPost(t, db, author.ID, "likeable")

	require.NoError(t, repo.Like(ctx, liker.ID, post.ID))
	// A second like of the same post must converge on one row.
	require.NoError(t, repo.Like(ctx, liker.ID, post.ID))

	likes, err := repo.Likes(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, likes, 1)
	assert.Equal(t, liker.ID, likes[0].UserID)
	assert.Equal(t, "bob", likes[0].User.Username)
}

func TestPostRepository_LikeUnlikeRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "ann")
	liker := createTestUser(t, db, "bob")
	post := createTestPost(t, db, author.ID, "toggled")

	liked, err := repo.IsLiked(ctx, liker.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	require.NoError(t, repo.Like(ctx, liker.ID, post.ID))
	liked, err = repo.IsLiked(ctx, liker.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	require.NoError(t, repo.Unlike(ctx, liker.ID, post.ID))
	liked, err = repo.IsLiked(ctx, liker.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	likes, err := repo.Likes(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, likes)
}

func TestPostRepository_ListLikedBy_MostRecentLikeFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "ann")
	liker := createTestUser(t, db, "bob")
	first := createTestPost(t, db, author.ID, "liked first")
	second := createTestPost(t, db, author.ID, "liked second")

	// Spread the like timestamps so ordering is deterministic.
	require.NoError(t, db.Create(&models.Like{
		UserID: liker.ID, PostID: first.ID, CreatedAt: time.Now().Add(-time.Hour),
	}).Error)
	require.NoError(t, db.Create(&models.Like{
		UserID: liker.ID, PostID: second.ID,
	}).Error)

	posts, err := repo.ListLikedBy(ctx, liker.ID)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "liked second", posts[0].Text)
	assert.Equal(t, "liked first", posts[1].Text)
}

func TestPostRepository_Delete_CascadesChildren(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "ann")
	commenter := createTestUser(t, db, "bob")
	post := createTestPost(t, db, author.ID, "doomed")

	require.NoError(t, repo.Like(ctx, commenter.ID, post.ID))
	require.NoError(t, repo.AddComment(ctx, &models.Comment{
		PostID: post.ID, UserID: commenter.ID, Text: "gone soon",
	}))

	require.NoError(t, repo.Delete(ctx, post.ID))

	_, err := repo.GetByID(ctx, post.ID)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)

	var likeCount, commentCount int64
	require.NoError(t, db.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&likeCount).Error)
	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&commentCount).Error)
	assert.Zero(t, likeCount)
	assert.Zero(t, commentCount)
}

func TestPostRepository_Comments_SubmissionOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "ann")
	commenter := createTestUser(t, db, "bob")
	post := createTestPost(t, db, author.ID, "threaded")

	for _, text := range []string{"first", "second", "third"} {
		require.NoError(t, repo.AddComment(ctx, &models.Comment{
			PostID: post.ID, UserID: commenter.ID, Text: text,
		}))
	}

	comments, err := repo.Comments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "first", comments[0].Text)
	assert.Equal(t, "third", comments[2].Text)
	assert.Equal(t, "bob", comments[0].User.Username)
}
