package handlers

import (
	"github.com/ankitjain28/gramflow/internal/models"
	"github.com/ankitjain28/gramflow/internal/service"
	"github.com/gofiber/fiber/v2"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type AccountHandler struct {
	s service.AccountService
}

func NewAccountHandler(service service.AccountService) *AccountHandler {
	return &AccountHandler{s: service}
}

func (h *AccountHandler) ConnectAccount(c *fiber.Ctx) error {
	state, err := gonanoid.New()
	if err != nil {
		return serviceError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     "oauth_state",
		Value:    state,
		HTTPOnly: true,
		MaxAge:   600,
	})

	return c.Redirect(h.s.AuthURL(state))
}

func (h *AccountHandler) ConnectCallback(c *fiber.Ctx) error {
	userID := GetUserID(c)
	companyID := GetCompanyID(c)

	if c.Query("state") == "" || c.Query("state") != c.Cookies("oauth_state") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid OAuth state",
		})
	}

	ownership := models.OwnershipType(c.Query("ownership", string(models.OwnershipCompany)))

	account, err := h.s.Connect(c.Context(), userID, companyID, c.Query("code"), ownership)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(account)
}

func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)

	accounts, err := h.s.List(c.Context(), companyID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *AccountHandler) ListAccessibleAccounts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	accounts, err := h.s.ListAccessible(c.Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *AccountHandler) SyncProfile(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	accountID := c.QueryInt("id", 0)

	if err := h.s.SyncProfile(c.Context(), companyID, int64(accountID)); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *AccountHandler) DisconnectAccount(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	accountID := c.QueryInt("id", 0)

	if err := h.s.Disconnect(c.Context(), companyID, int64(accountID)); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}
