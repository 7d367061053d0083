package server

import (
	"showcase/internal/models"
	"showcase/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
// @Summary Create post
// @Description Create a post carrying a snapshot of the author's portfolio
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreatePostInput true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req service.CreatePostInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.UserID = viewerID(c)

	post, err := s.postService.CreatePost(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetFeed handles GET /api/posts/feed
// @Summary Post feed
// @Description Latest-first for anonymous callers, preference-ranked for signed-in callers with a recommended feed
// @Tags posts
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} models.Page[models.Post]
// @Router /posts/feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	page, err := s.postService.Feed(c.UserContext(), s.searchPage(c), viewerID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetMyPosts handles GET /api/posts/me
// @Summary Caller's posts
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} models.Page[models.Post]
// @Router /posts/me [get]
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	page, err := s.postService.MyPosts(c.UserContext(), viewerID(c), parsePage(c, maxPaginationLimit))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetSavedPosts handles GET /api/posts/saved
// @Summary Saved posts
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} models.Page[models.Post]
// @Router /posts/saved [get]
func (s *Server) GetSavedPosts(c *fiber.Ctx) error {
	page, err := s.postService.SavedPosts(c.UserContext(), viewerID(c), parsePage(c, maxPaginationLimit))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetUserPosts handles GET /api/posts/user/:userId
// @Summary A user's posts
// @Tags posts
// @Produce json
// @Param userId path int true "User ID"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} models.Page[models.Post]
// @Router /posts/user/{userId} [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	ownerID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	page, err := s.postService.UserPosts(c.UserContext(), ownerID, viewerID(c), parsePage(c, maxPaginationLimit))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Update post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body service.UpdatePostInput true "Fields to change"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.UpdatePostInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.UserID = viewerID(c)
	req.PostID = id

	post, err := s.postService.UpdatePost(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete post
// @Description Removes the post with its comments, likes and saves, then its images
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), viewerID(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleLikePost handles POST /api/posts/:id/like
// @Summary Like or unlike post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} service.LikeState
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) ToggleLikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	state, err := s.postService.ToggleLike(c.UserContext(), viewerID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(state)
}

// ToggleSavePost handles POST /api/posts/:id/save
// @Summary Save or unsave post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{saved=bool}
// @Router /posts/{id}/save [post]
func (s *Server) ToggleSavePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	saved, err := s.postService.ToggleSave(c.UserContext(), viewerID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"saved": saved})
}

// TogglePinPost handles POST /api/posts/:id/pin
// @Summary Pin or unpin post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/{id}/pin [post]
func (s *Server) TogglePinPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.TogglePin(c.UserContext(), viewerID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(post)
}

// GetPostLikers handles GET /api/posts/:id/likes
// @Summary Users who liked a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} models.Page[models.Liker]
// @Router /posts/{id}/likes [get]
func (s *Server) GetPostLikers(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	page, err := s.postService.Likers(c.UserContext(), id, parsePage(c, maxPaginationLimit))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}
