package Controllers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/OmarEhab007/cafm-backend-sub004/WorkOrders"
)

type AddTaskInput struct {
	Description string `json:"description" validate:"required"`
}

// AddTask appends a checklist item to an open work order
func (c *WorkOrderController) AddTask(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid work order ID"})
	}

	var input AddTaskInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user := currentUser(ctx)
	task, err := c.Service.AddTask(user.CompanyID, uint(id), input.Description)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.Status(http.StatusCreated).JSON(task)
}

type UpdateTaskInput struct {
	Completed *bool `json:"completed"`
}

// UpdateTask marks a checklist item done or reopens it. The parent work
// order's completion percentage is recomputed from the checklist.
func (c *WorkOrderController) UpdateTask(ctx *fiber.Ctx) error {
	taskID, err := strconv.Atoi(ctx.Params("taskId"))
	if err != nil {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var input UpdateTaskInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if input.Completed == nil {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "completed is required"})
	}

	user := currentUser(ctx)
	task, err := c.Service.UpdateTaskStatus(user.CompanyID, uint(taskID), *input.Completed)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(task)
}

type AddMaterialInput struct {
	InventoryItemID *uint   `json:"inventory_item_id"`
	ItemName        string  `json:"item_name"`
	Quantity        float64 `json:"quantity"`
	UnitCost        float64 `json:"unit_cost"`
}

// AddMaterial records consumed stock against an open work order. Referencing
// an inventory item snapshots its name and price and draws down the stock.
func (c *WorkOrderController) AddMaterial(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid work order ID"})
	}

	var input AddMaterialInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user := currentUser(ctx)
	material, err := c.Service.AddMaterial(user.CompanyID, uint(id), WorkOrders.MaterialInput{
		InventoryItemID: input.InventoryItemID,
		ItemName:        input.ItemName,
		Quantity:        input.Quantity,
		UnitCost:        input.UnitCost,
	})
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.Status(http.StatusCreated).JSON(material)
}
