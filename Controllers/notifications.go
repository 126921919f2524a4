package Controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/OmarEhab007/cafm-backend-sub004/Models"
)

// NotificationController serves the in-app inbox and device registration
type NotificationController struct {
	DB *gorm.DB
}

func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{DB: db}
}

// GetNotifications lists the caller's inbox, newest first. ?unread=true
// narrows to unread rows.
func (c *NotificationController) GetNotifications(ctx *fiber.Ctx) error {
	user := currentUser(ctx)

	query := c.DB.Where("company_id = ? AND user_id = ?", user.CompanyID, user.ID)
	if ctx.Query("unread") == "true" {
		query = query.Where("is_read = ?", false)
	}

	var notifications []Models.Notification
	result := query.Order("created_at DESC").Limit(100).Find(&notifications)
	if result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve notifications"})
	}

	return ctx.JSON(notifications)
}

// MarkRead flags one notification as seen
func (c *NotificationController) MarkRead(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification ID"})
	}

	user := currentUser(ctx)

	var notification Models.Notification
	result := c.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&notification)
	if result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found"})
	}

	c.DB.Model(&notification).Update("is_read", true)

	return ctx.JSON(notification)
}

// MarkAllRead clears the caller's unread badge in one shot
func (c *NotificationController) MarkAllRead(ctx *fiber.Ctx) error {
	user := currentUser(ctx)

	c.DB.Model(&Models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Update("is_read", true)

	return ctx.JSON(fiber.Map{"message": "success"})
}

type TokenInput struct {
	Token string `json:"token" validate:"required"`
}

// UpdateToken registers the caller's device for push delivery. Re-posting an
// existing token is a no-op, so clients can send it on every launch.
func (c *NotificationController) UpdateToken(ctx *fiber.Ctx) error {
	var input TokenInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user := currentUser(ctx)

	var token Models.FCMToken
	result := c.DB.Where("user_id = ? AND value = ?", user.ID, input.Token).
		FirstOrCreate(&token, Models.FCMToken{UserID: user.ID, Value: input.Token})
	if result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save token"})
	}

	return ctx.JSON(fiber.Map{"message": "success"})
}
