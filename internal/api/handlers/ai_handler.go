package handlers

import (
	"time"

	"github.com/ankitjain28/gramflow/internal/service"
	"github.com/ankitjain28/gramflow/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type AiHandler struct {
	s service.AiService
}

func NewAiHandler(service service.AiService) *AiHandler {
	return &AiHandler{s: service}
}

func (h *AiHandler) Generate(c *fiber.Ctx) error {
	userID := GetUserID(c)
	companyID := GetCompanyID(c)

	var req transfer.GenerationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	result, err := h.s.Generate(c.Context(), companyID, userID, &req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *AiHandler) GenerateCaption(c *fiber.Ctx) error {
	return h.generateShortcut(c, func(ctx *fiber.Ctx, companyID, userID int64, prompt string, preferFree bool) (*transfer.GenerationResult, error) {
		return h.s.GenerateCaption(ctx.Context(), companyID, userID, prompt, preferFree)
	})
}

func (h *AiHandler) GenerateHashtags(c *fiber.Ctx) error {
	return h.generateShortcut(c, func(ctx *fiber.Ctx, companyID, userID int64, prompt string, preferFree bool) (*transfer.GenerationResult, error) {
		return h.s.GenerateHashtags(ctx.Context(), companyID, userID, prompt, preferFree)
	})
}

func (h *AiHandler) GenerateContentPlan(c *fiber.Ctx) error {
	return h.generateShortcut(c, func(ctx *fiber.Ctx, companyID, userID int64, prompt string, preferFree bool) (*transfer.GenerationResult, error) {
		return h.s.GenerateContentPlan(ctx.Context(), companyID, userID, prompt, preferFree)
	})
}

func (h *AiHandler) generateShortcut(c *fiber.Ctx, generate func(*fiber.Ctx, int64, int64, string, bool) (*transfer.GenerationResult, error)) error {
	userID := GetUserID(c)
	companyID := GetCompanyID(c)

	var body struct {
		Prompt     string `json:"prompt"`
		PreferFree bool   `json:"prefer_free"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	result, err := generate(c, companyID, userID, body.Prompt, body.PreferFree)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *AiHandler) GenerateImage(c *fiber.Ctx) error {
	userID := GetUserID(c)
	companyID := GetCompanyID(c)

	var req transfer.GenerationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	result, err := h.s.GenerateImage(c.Context(), companyID, userID, &req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *AiHandler) ModerateContent(c *fiber.Ctx) error {
	var body struct {
		Input string `json:"input"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	outcome, err := h.s.ModerateContent(c.Context(), body.Input)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(outcome)
}

func (h *AiHandler) History(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	limit := c.QueryInt("limit", 0)

	generations, err := h.s.History(c.Context(), companyID, limit)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(generations)
}

func (h *AiHandler) Usage(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)

	to := time.Now().UTC()
	from := to.AddDate(0, -1, 0)
	if v := c.Query("from"); v != "" {
		if parsed, err := time.Parse("2006-01-02", v); err == nil {
			from = parsed
		}
	}
	if v := c.Query("to"); v != "" {
		if parsed, err := time.Parse("2006-01-02", v); err == nil {
			to = parsed
		}
	}

	usage, err := h.s.Usage(c.Context(), companyID, from, to)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(usage)
}
