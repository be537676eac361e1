// Package service implements the feed domain operations on top of the
// repository and collaborator interfaces.
package service

import (
	"context"
	"strings"
	"time"

	"ripple/internal/cache"
	"ripple/internal/models"
	"ripple/internal/observability"
	"ripple/internal/repository"
)

// ImageStore turns raw image bytes into a durable URL.
type ImageStore interface {
	Upload(ctx context.Context, data []byte, folder string) (string, error)
}

// NotificationSink records an event from one user to another.
type NotificationSink interface {
	Record(ctx context.Context, fromUserID, toUserID uint, notificationType string) error
}

// FeedService orchestrates posts, the user directory, the image store, and
// the notification sink to implement the feed operations.
type FeedService struct {
	posts         repository.PostRepository
	users         repository.UserDirectory
	images        ImageStore
	notifications NotificationSink
}

// CreatePostInput is the payload for creating a post.
type CreatePostInput struct {
	AuthorID  uint
	Text      string
	ImageData []byte
}

const (
	notifyTimeout = 5 * time.Second

	// feedPageSize is the only page served through the feed cache; other
	// limits would collide on the same key.
	feedPageSize = 20
)

// NewFeedService creates a new feed service.
func NewFeedService(
	posts repository.PostRepository,
	users repository.UserDirectory,
	images ImageStore,
	notifications NotificationSink,
) *FeedService {
	return &FeedService{
		posts:         posts,
		users:         users,
		images:        images,
		notifications: notifications,
	}
}

// ListAll returns the global feed, newest first. The first page is served
// through the cache; deeper pages always hit the database.
func (s *FeedService) ListAll(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	if offset == 0 && limit == feedPageSize {
		var posts []*models.Post
		found, err := cache.GetJSON(ctx, cache.FeedKey, &posts)
		if err == nil && found {
			observability.FeedCacheHits.WithLabelValues("hit").Inc()
			return posts, nil
		}
		observability.FeedCacheHits.WithLabelValues("miss").Inc()

		posts, err = s.posts.ListAll(ctx, limit, offset)
		if err != nil {
			return nil, err
		}
		_ = cache.SetJSON(ctx, cache.FeedKey, posts, cache.FeedTTL)
		return posts, nil
	}
	return s.posts.ListAll(ctx, limit, offset)
}

// ListFollowingFeed returns posts authored by anyone the requester follows.
func (s *FeedService) ListFollowingFeed(ctx context.Context, requesterID uint, limit, offset int) ([]*models.Post, error) {
	if _, err := s.users.GetByID(ctx, requesterID); err != nil {
		return nil, err
	}
	following, err := s.users.FollowingIDs(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if len(following) == 0 {
		return []*models.Post{}, nil
	}
	return s.posts.ListByAuthors(ctx, following, limit, offset)
}

// ListUserPosts returns the named user's posts, newest first.
func (s *FeedService) ListUserPosts(ctx context.Context, username string, limit, offset int) ([]*models.Post, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.posts.ListByAuthors(ctx, []uint{user.ID}, limit, offset)
}

// ListLikedPosts returns posts the user has liked, most recently liked first.
func (s *FeedService) ListLikedPosts(ctx context.Context, userID uint) ([]*models.Post, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.posts.ListLikedBy(ctx, userID)
}

// CreatePost validates and persists a new post. When image data is supplied
// it is uploaded first; an upload failure fails the whole operation.
func (s *FeedService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if _, err := s.users.GetByID(ctx, in.AuthorID); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(in.Text)
	if text == "" && len(in.ImageData) == 0 {
		return nil, models.NewValidationError("Text or image is required")
	}

	var imageURL string
	if len(in.ImageData) > 0 {
		url, err := s.images.Upload(ctx, in.ImageData, "posts")
		if err != nil {
			return nil, err
		}
		imageURL = url
	}

	post := &models.Post{
		UserID:   in.AuthorID,
		Text:     text,
		ImageURL: imageURL,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	// Reload populated so the response carries the redacted author.
	return s.posts.GetByID(ctx, post.ID)
}

// DeletePost removes a post permanently. Only the author may delete it.
func (s *FeedService) DeletePost(ctx context.Context, requesterID, postID uint) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != requesterID {
		return models.NewUnauthorizedError("You are not authorized to delete this post")
	}
	return s.posts.Delete(ctx, postID)
}

// LikeUnlikePost toggles the requester's like on the post and returns the
// resulting likes. A like (not an unlike) of someone else's post emits a
// notification to the author; self-likes stay silent.
func (s *FeedService) LikeUnlikePost(ctx context.Context, requesterID, postID uint) ([]models.Like, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	// Ask the database, not the (possibly cached) post, whether the like
	// exists so the toggle never flips on stale state.
	liked, err := s.posts.IsLiked(ctx, requesterID, postID)
	if err != nil {
		return nil, err
	}

	if liked {
		if err := s.posts.Unlike(ctx, requesterID, postID); err != nil {
			return nil, err
		}
	} else {
		if err := s.posts.Like(ctx, requesterID, postID); err != nil {
			return nil, err
		}
		if post.UserID != requesterID {
			s.notifyLike(ctx, requesterID, post.UserID)
		}
	}

	return s.posts.Likes(ctx, postID)
}

// notifyLike dispatches the like notification without blocking the response.
// Failures are logged, never surfaced to the liking user.
func (s *FeedService) notifyLike(ctx context.Context, fromUserID, toUserID uint) {
	fields := map[string]interface{}{
		"from_user_id": fromUserID,
		"to_user_id":   toUserID,
	}
	correlationID := observability.ExtractCorrelationID(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		ctx = observability.WithCorrelationID(ctx, correlationID)

		observability.LogAsyncOperationStart(ctx, "notify_like", fields)
		if err := s.notifications.Record(ctx, fromUserID, toUserID, models.NotificationTypeLike); err != nil {
			observability.LogAsyncOperationError(ctx, "notify_like", err, fields)
			return
		}
		observability.LogAsyncOperationEnd(ctx, "notify_like", fields)
	}()
}

// CommentOnPost appends a comment and returns the post's full comment
// sequence in submission order.
func (s *FeedService) CommentOnPost(ctx context.Context, requesterID, postID uint, text string) ([]models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, models.NewValidationError("Text field is required")
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID: postID,
		UserID: requesterID,
		Text:   text,
	}
	if err := s.posts.AddComment(ctx, comment); err != nil {
		return nil, err
	}
	return s.posts.Comments(ctx, postID)
}
