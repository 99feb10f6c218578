package handlers

import (
	"strconv"

	"github.com/ankitjain28/gramflow/internal/service"
	"github.com/gofiber/fiber/v2"
)

func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := strconv.Atoi(c.Locals("user_id").(string))
	return int64(userID)
}

func GetCompanyID(c *fiber.Ctx) int64 {
	companyID, _ := strconv.Atoi(c.Locals("company_id").(string))
	return int64(companyID)
}

// serviceError maps validation failures to 400s with their message and
// everything else to an opaque 500.
func serviceError(c *fiber.Ctx, err error) error {
	if service.IsValidationError(err) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Something went wrong",
	})
}
