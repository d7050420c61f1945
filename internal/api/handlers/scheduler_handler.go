package handlers

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/reposter/internal/repository"
	"github.com/maheshrc27/reposter/internal/scheduler"
	"github.com/maheshrc27/reposter/internal/transfer"
)

type SchedulerHandler struct {
	engine *scheduler.Engine
	sr     repository.ScheduledPostRepository
}

func NewSchedulerHandler(engine *scheduler.Engine, sr repository.ScheduledPostRepository) *SchedulerHandler {
	return &SchedulerHandler{engine: engine, sr: sr}
}

func (h *SchedulerHandler) SchedulePost(c *fiber.Ctx) error {
	var req transfer.ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	scheduledTime, err := time.Parse(time.RFC3339, req.ScheduledTime)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid scheduled time format",
		})
	}

	sp, err := h.engine.Schedule(c.Context(), req.MediaPostID, scheduledTime)
	if err != nil {
		if errors.Is(err, scheduler.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Media post not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to schedule post",
		})
	}

	return c.Status(fiber.StatusOK).JSON(sp)
}

func (h *SchedulerHandler) GetSchedule(c *fiber.Ctx) error {
	id := c.Params("id")

	sp, err := h.sr.GetByID(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to get scheduled post",
		})
	}
	if sp == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Scheduled post not found",
		})
	}

	return c.Status(fiber.StatusOK).JSON(sp)
}

func (h *SchedulerHandler) CancelSchedule(c *fiber.Ctx) error {
	id := c.Params("id")

	cancelled, err := h.engine.Cancel(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to cancel scheduled post",
		})
	}
	if !cancelled {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Scheduled post not found",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Scheduled post cancelled",
	})
}
