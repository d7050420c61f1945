package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/reposter/internal/service"
	"github.com/maheshrc27/reposter/internal/transfer"
)

type MediaHandler struct {
	s service.MediaService
}

func NewMediaHandler(s service.MediaService) *MediaHandler {
	return &MediaHandler{s: s}
}

func (h *MediaHandler) DownloadMedia(c *fiber.Ctx) error {
	var req transfer.MediaDownloadRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	post, err := h.s.CreateMediaPost(c.Context(), req.AccountID, req.URL, req.Caption)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Account not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *MediaHandler) GetMedia(c *fiber.Ctx) error {
	id := c.Params("id")

	post, err := h.s.MediaPostInfo(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to get media post",
		})
	}
	if post == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Media not found",
		})
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *MediaHandler) ListMedia(c *fiber.Ctx) error {
	accountID := c.Query("account_id")
	if accountID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "account_id is required",
		})
	}

	posts, err := h.s.ListByAccount(c.Context(), accountID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list media posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}
