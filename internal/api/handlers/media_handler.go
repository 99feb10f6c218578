package handlers

import (
	"log/slog"

	"github.com/ankitjain28/gramflow/internal/service"
	"github.com/gofiber/fiber/v2"
)

type MediaHandler struct {
	posts service.PostService
	media service.MediaService
}

func NewMediaHandler(posts service.PostService, media service.MediaService) *MediaHandler {
	return &MediaHandler{posts: posts, media: media}
}

func (h *MediaHandler) UploadMedia(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	postID := c.QueryInt("post_id", 0)

	form, err := c.MultipartForm()
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	created, err := h.posts.AttachMedia(c.Context(), companyID, int64(postID), form.File["files"])
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(created)
}

func (h *MediaHandler) ListMedia(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	postID := c.QueryInt("post_id", 0)

	// Ownership check rides on the post lookup.
	if _, err := h.posts.Info(c.Context(), companyID, int64(postID)); err != nil {
		return serviceError(c, err)
	}

	medias, err := h.media.ListForPost(c.Context(), int64(postID))
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(medias)
}

func (h *MediaHandler) RemoveMedia(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	mediaID := c.QueryInt("id", 0)

	if err := h.media.Remove(c.Context(), companyID, int64(mediaID)); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}
