package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "rbacblog/internal/log"
	"rbacblog/internal/services"
)

type PostHandler struct {
	Posts *services.PostService
}

// GET /post
func (h *PostHandler) List(c *fiber.Ctx) error {
	posts, err := h.Posts.List(userContext(c))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, posts, "Fetched all blog posts")
}

// POST /post/create
func (h *PostHandler) Create(c *fiber.Ctx) error {
	var in services.CreatePostInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	id, _ := CurrentIdentity(c)
	p, err := h.Posts.Create(userContext(c), id.UserID, in)
	if err != nil {
		return err
	}
	applog.Audit(c, "post.create", map[string]any{"post_id": p.ID})
	return respond(c, fiber.StatusCreated, p, "Post created successfully")
}

// DELETE /post/delete/:id
func (h *PostHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Posts.Delete(userContext(c), id); err != nil {
		return err
	}
	applog.Audit(c, "post.delete", map[string]any{"post_id": id})
	return respond(c, fiber.StatusOK, nil, "Post deleted successfully")
}
