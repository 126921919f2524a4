package Controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/OmarEhab007/cafm-backend-sub004/Models"
)

// UserController handles the user directory endpoints
type UserController struct {
	DB *gorm.DB
}

// NewUserController creates a new UserController
func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

// GetUsers lists every account in the caller's company
func (c *UserController) GetUsers(ctx *fiber.Ctx) error {
	user := currentUser(ctx)

	var users []Models.User
	result := c.DB.Where("company_id = ?", user.CompanyID).Order("name ASC").Find(&users)
	if result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve users"})
	}

	return ctx.JSON(users)
}

// GetTechnicians lists the company's technicians with their availability, the
// directory the assignment screens work from.
func (c *UserController) GetTechnicians(ctx *fiber.Ctx) error {
	user := currentUser(ctx)

	var technicians []Models.User
	result := c.DB.Where("company_id = ? AND role = ? AND is_active = ?",
		user.CompanyID, Models.RoleTechnician, true).
		Order("name ASC").
		Find(&technicians)
	if result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve technicians"})
	}

	return ctx.JSON(technicians)
}

type AvailabilityInput struct {
	IsAvailable *bool `json:"is_available"`
}

// SetAvailability flips a technician in or out of the auto-scheduling pool
func (c *UserController) SetAvailability(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var input AvailabilityInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if input.IsAvailable == nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "is_available is required"})
	}

	caller := currentUser(ctx)

	var user Models.User
	result := c.DB.Where("id = ? AND company_id = ?", id, caller.CompanyID).First(&user)
	if result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	// Technicians may only toggle themselves; supervisors may toggle anyone
	if caller.Permission < Models.PermissionSupervisor && caller.ID != user.ID {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Cannot change another user's availability"})
	}

	c.DB.Model(&user).Update("is_available", *input.IsAvailable)

	return ctx.JSON(user)
}

// DeactivateUser locks an account out while keeping its history. Open work
// orders stay assigned; the scheduler just stops picking the user.
func (c *UserController) DeactivateUser(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	caller := currentUser(ctx)
	if uint(id) == caller.ID {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot deactivate your own account"})
	}

	var user Models.User
	result := c.DB.Where("id = ? AND company_id = ?", id, caller.CompanyID).First(&user)
	if result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	c.DB.Model(&user).Updates(map[string]interface{}{
		"is_active":    false,
		"is_available": false,
	})

	return ctx.JSON(fiber.Map{"message": "User deactivated successfully"})
}
