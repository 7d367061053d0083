package server

import (
	"showcase/internal/models"
	"showcase/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateComment handles POST /api/posts/:id/comments
// @Summary Comment on a post
// @Description Set parent_id to reply to another comment on the same post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body service.CreateCommentInput true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.CreateCommentInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.UserID = viewerID(c)
	req.PostID = postID

	comment, err := s.commentService.CreateComment(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetComments handles GET /api/posts/:id/comments
// @Summary Comment tree of a post
// @Tags comments
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	tree, err := s.commentService.CommentTree(c.UserContext(), postID, viewerID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(tree)
}

// ToggleLikeComment handles POST /api/comments/:commentId/like
// @Summary Like or unlike comment
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param commentId path int true "Comment ID"
// @Success 200 {object} service.LikeState
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{commentId}/like [post]
func (s *Server) ToggleLikeComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	state, err := s.commentService.ToggleLike(c.UserContext(), viewerID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(state)
}

// DeleteComment handles DELETE /api/comments/:commentId
// @Summary Delete comment and its replies
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param commentId path int true "Comment ID"
// @Success 200 {object} object{deleted=int}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	removed, err := s.commentService.DeleteComment(c.UserContext(), viewerID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": removed})
}
