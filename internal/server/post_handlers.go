package server

import (
	"encoding/base64"
	"strings"

	"ripple/internal/models"
	"ripple/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetAllPosts handles GET /api/posts
func (s *Server) GetAllPosts(c *fiber.Ctx) error {
	ctx := c.Context()
	page := parsePagination(c, 20)

	posts, err := s.feedService.ListAll(ctx, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(posts)
}

// GetFollowingPosts handles GET /api/posts/following
func (s *Server) GetFollowingPosts(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	page := parsePagination(c, 20)

	posts, err := s.feedService.ListFollowingFeed(ctx, userID, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(posts)
}

// GetUserPosts handles GET /api/posts/user/:username
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	ctx := c.Context()
	username := c.Params("username")
	if username == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username is required"))
	}

	page := parsePagination(c, 20)

	posts, err := s.feedService.ListUserPosts(ctx, username, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(posts)
}

// GetLikedPosts handles GET /api/posts/likes/:userId
func (s *Server) GetLikedPosts(c *fiber.Ctx) error {
	ctx := c.Context()
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	posts, err := s.feedService.ListLikedPosts(ctx, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(posts)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	var req struct {
		Text string `json:"text"`
		Img  string `json:"img,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	imageData, err := decodeImagePayload(req.Img)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid image encoding"))
	}

	post, err := s.feedService.CreatePost(ctx, service.CreatePostInput{
		AuthorID:  userID,
		Text:      req.Text,
		ImageData: imageData,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.feedService.DeletePost(ctx, userID, postID); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

// LikeUnlikePost handles POST /api/posts/like/:id
func (s *Server) LikeUnlikePost(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	likes, err := s.feedService.LikeUnlikePost(ctx, userID, postID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(likes)
}

// CommentOnPost handles POST /api/posts/comment/:id
func (s *Server) CommentOnPost(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comments, err := s.feedService.CommentOnPost(ctx, userID, postID, req.Text)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(comments)
}

// decodeImagePayload accepts either a bare base64 string or a data URL
// ("data:image/png;base64,...") and returns the raw bytes. Empty input
// means no image.
func decodeImagePayload(img string) ([]byte, error) {
	if img == "" {
		return nil, nil
	}
	if strings.HasPrefix(img, "data:") {
		idx := strings.Index(img, ",")
		if idx < 0 {
			return nil, base64.CorruptInputError(0)
		}
		img = img[idx+1:]
	}
	return base64.StdEncoding.DecodeString(img)
}
