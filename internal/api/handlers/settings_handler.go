package handlers

import (
	"github.com/ankitjain28/gramflow/internal/service"
	"github.com/gofiber/fiber/v2"
)

type SettingsHandler struct {
	s service.BudgetService
}

func NewSettingsHandler(service service.BudgetService) *SettingsHandler {
	return &SettingsHandler{s: service}
}

func (h *SettingsHandler) GetBudget(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)

	settings, err := h.s.Info(c.Context(), companyID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(settings)
}

func (h *SettingsHandler) UpdateBudget(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)

	var body struct {
		DailyLimitMicros   int64 `json:"daily_limit_micros"`
		MonthlyLimitMicros int64 `json:"monthly_limit_micros"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if err := h.s.Update(c.Context(), companyID, body.DailyLimitMicros, body.MonthlyLimitMicros); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}
