package Apis

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/OmarEhab007/cafm-backend-sub004/Models"
	"github.com/OmarEhab007/cafm-backend-sub004/WorkOrders"
)

// FetchWorkOrderStats returns the company dashboard numbers: totals by status
// and priority, open and overdue counts, this month's completions and the
// cost aggregates.
func FetchWorkOrderStats(c *fiber.Ctx) error {
	user, _ := c.Locals("user").(Models.User)

	service := WorkOrders.NewService(Models.DB)
	stats, err := service.GetStatistics(user.CompanyID)
	if err != nil {
		log.Println("Error computing work order stats:", err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute statistics",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Work order statistics retrieved successfully",
		"stats":   stats,
	})
}

// FetchTechnicianPerformance returns per-technician workload and quality
// numbers for the supervisor screens.
func FetchTechnicianPerformance(c *fiber.Ctx) error {
	user, _ := c.Locals("user").(Models.User)

	service := WorkOrders.NewService(Models.DB)
	performance, err := service.GetTechnicianPerformance(user.CompanyID)
	if err != nil {
		log.Println("Error computing technician performance:", err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute technician performance",
		})
	}

	return c.JSON(fiber.Map{
		"message":     "Technician performance retrieved successfully",
		"performance": performance,
	})
}
