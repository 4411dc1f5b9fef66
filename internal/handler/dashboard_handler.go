package handler

import (
	"sweetshop-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.InventoryService
}

func NewDashboardHandler(s service.InventoryService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetDashboardStats returns overview statistics
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.GetDashboardStats(c.UserContext())
	if err != nil {
		return respondError(c, err, 404, "Failed to fetch dashboard stats")
	}

	return c.JSON(fiber.Map{"message": "Dashboard stats retrieved", "data": stats})
}
