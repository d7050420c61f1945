package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/reposter/internal/service"
	"github.com/maheshrc27/reposter/internal/transfer"
)

type AccountHandler struct {
	s service.AccountService
}

func NewAccountHandler(s service.AccountService) *AccountHandler {
	return &AccountHandler{s: s}
}

func (h *AccountHandler) CreateAccount(c *fiber.Ctx) error {
	var ac transfer.AccountCreation
	if err := c.BodyParser(&ac); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	account, err := h.s.Create(c.Context(), ac.Username, ac.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(account)
}

func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	offset := c.QueryInt("offset", 0)

	accounts, err := h.s.List(c.Context(), limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list accounts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *AccountHandler) ActivateAccount(c *fiber.Ctx) error {
	return h.setActive(c, true)
}

func (h *AccountHandler) DeactivateAccount(c *fiber.Ctx) error {
	return h.setActive(c, false)
}

func (h *AccountHandler) setActive(c *fiber.Ctx, active bool) error {
	id := c.Params("id")

	updated, err := h.s.SetActive(c.Context(), id, active)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to update account",
		})
	}
	if !updated {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Account not found",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Account updated",
	})
}

func (h *AccountHandler) RemoveAccount(c *fiber.Ctx) error {
	id := c.Params("id")

	removed, err := h.s.Remove(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove account",
		})
	}
	if !removed {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Account not found",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
