package handlers

import (
	"github.com/gofiber/fiber/v2"

	"Food-Rescue-Hub/domain"
	"Food-Rescue-Hub/internal/api/presenters"
	"Food-Rescue-Hub/pkg/stats"
)

type (
	StatsHandler interface {
		GetDonorStats(c *fiber.Ctx) error
		GetLeaderboard(c *fiber.Ctx) error
		GetRecentActivity(c *fiber.Ctx) error
	}

	statsHandler struct {
		statsService stats.StatsService
	}
)

func NewStatsHandler(statsService stats.StatsService) StatsHandler {
	return &statsHandler{
		statsService: statsService,
	}
}

func (h *statsHandler) GetDonorStats(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	result, err := h.statsService.GetDonorStats(c.UserContext(), userID)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedGetDonorStats, err)
	}

	return presenters.SuccessResponse(c, result, fiber.StatusOK, domain.MessageSuccessGetDonorStats)
}

func (h *statsHandler) GetLeaderboard(c *fiber.Ctx) error {
	result, err := h.statsService.GetLeaderboard(c.UserContext())
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedGetLeaderboard, err)
	}

	return presenters.SuccessResponse(c, result, fiber.StatusOK, domain.MessageSuccessGetLeaderboard)
}

func (h *statsHandler) GetRecentActivity(c *fiber.Ctx) error {
	result, err := h.statsService.GetRecentActivity(c.UserContext())
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedGetRecentActivity, err)
	}

	return presenters.SuccessResponse(c, result, fiber.StatusOK, domain.MessageSuccessGetRecentActivity)
}
