package handlers

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/ankitjain28/gramflow/internal/models"
	"github.com/ankitjain28/gramflow/internal/queue"
	"github.com/ankitjain28/gramflow/internal/repository"
	"github.com/ankitjain28/gramflow/internal/service"
	"github.com/ankitjain28/gramflow/internal/transfer"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
)

type PostHandler struct {
	s           service.PostService
	AsynqClient *asynq.Client
}

func NewPostHandler(service service.PostService, asynqClient *asynq.Client) *PostHandler {
	return &PostHandler{s: service, AsynqClient: asynqClient}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	companyID := GetCompanyID(c)

	form, err := c.MultipartForm()
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	accountID, _ := strconv.ParseInt(c.FormValue("instagram_account_id"), 10, 64)

	pc := &transfer.PostCreation{
		PostType:           c.FormValue("post_type"),
		Caption:            c.FormValue("caption"),
		InstagramAccountID: accountID,
		ScheduledAt:        c.FormValue("scheduled_at"),
	}

	post, delay, err := h.s.Create(c.Context(), companyID, userID, pc, form.File["files"])
	if err != nil {
		return serviceError(c, err)
	}

	if post.Status == models.PostStatusScheduled {
		if err := queue.EnqueuePost(h.AsynqClient, queue.PublishPostPayload{PostID: post.ID}, delay); err != nil {
			slog.Error("failed to enqueue publish task", "post_id", post.ID, "error", err)
		}
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	postID := c.QueryInt("id", 0)

	if postID != 0 {
		post, err := h.s.Info(c.Context(), companyID, int64(postID))
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(post)
	}

	filters := repository.PostFilters{
		Status:    models.PostStatus(c.Query("status")),
		PostType:  models.PostType(c.Query("type")),
		AccountID: int64(c.QueryInt("account_id", 0)),
	}

	posts, err := h.s.List(c.Context(), companyID, filters)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	postID := c.QueryInt("id", 0)

	var pu transfer.PostUpdate
	if err := c.BodyParser(&pu); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if err := h.s.Update(c.Context(), companyID, int64(postID), &pu); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *PostHandler) SchedulePost(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	postID := c.QueryInt("id", 0)

	var body struct {
		ScheduledAt string `json:"scheduled_at"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	scheduledAt, err := time.Parse("2006-01-02T15:04", body.ScheduledAt)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid scheduled time format",
		})
	}

	delay, err := h.s.Schedule(c.Context(), companyID, int64(postID), scheduledAt)
	if err != nil {
		return serviceError(c, err)
	}

	if err := queue.EnqueuePost(h.AsynqClient, queue.PublishPostPayload{PostID: int64(postID)}, delay); err != nil {
		slog.Error("failed to enqueue publish task", "post_id", postID, "error", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post scheduled successfully",
	})
}

func (h *PostHandler) UnschedulePost(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	postID := c.QueryInt("id", 0)

	if err := h.s.Unschedule(c.Context(), companyID, int64(postID)); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *PostHandler) DuplicatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	companyID := GetCompanyID(c)
	postID := c.QueryInt("id", 0)

	dupID, err := h.s.Duplicate(c.Context(), companyID, userID, int64(postID))
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id": dupID,
	})
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	postID := c.QueryInt("id", 0)

	if err := h.s.Remove(c.Context(), companyID, int64(postID)); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}
