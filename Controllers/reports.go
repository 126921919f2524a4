package Controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/OmarEhab007/cafm-backend-sub004/Models"
)

// ReportController handles the school maintenance report endpoints
type ReportController struct {
	DB *gorm.DB
}

// NewReportController creates a new ReportController
func NewReportController(db *gorm.DB) *ReportController {
	return &ReportController{DB: db}
}

type CreateReportInput struct {
	Title         string     `json:"title" validate:"required"`
	Description   string     `json:"description"`
	Priority      string     `json:"priority"`
	SchoolID      *uint      `json:"school_id"`
	ScheduledDate *time.Time `json:"scheduled_date"`
}

// CreateReport files a new maintenance issue in NEW
func (c *ReportController) CreateReport(ctx *fiber.Ctx) error {
	var input CreateReportInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	priority := input.Priority
	if priority == "" {
		priority = Models.PriorityMedium
	}
	if !Models.ValidPriority(priority) {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid priority"})
	}

	user := currentUser(ctx)
	report := Models.Report{
		CompanyID:     user.CompanyID,
		SchoolID:      input.SchoolID,
		ReportedByID:  user.ID,
		Title:         input.Title,
		Description:   input.Description,
		Priority:      priority,
		Status:        Models.ReportNew,
		ScheduledDate: input.ScheduledDate,
	}

	if err := c.DB.Create(&report).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create report"})
	}

	return ctx.Status(fiber.StatusCreated).JSON(report)
}

// GetReports lists the company's reports, optionally filtered by status
func (c *ReportController) GetReports(ctx *fiber.Ctx) error {
	user := currentUser(ctx)

	query := c.DB.Where("company_id = ?", user.CompanyID)
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var reports []Models.Report
	result := query.Order("created_at DESC").Find(&reports)
	if result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve reports"})
	}

	return ctx.JSON(reports)
}

// GetReport retrieves a single report
func (c *ReportController) GetReport(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid report ID"})
	}

	user := currentUser(ctx)

	var report Models.Report
	result := c.DB.Where("id = ? AND company_id = ?", id, user.CompanyID).First(&report)
	if result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Report not found"})
	}

	return ctx.JSON(report)
}

// CloseReport resolves a report that never needed a work order. Converted
// reports are closed through their work order instead.
func (c *ReportController) CloseReport(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid report ID"})
	}

	user := currentUser(ctx)

	var report Models.Report
	result := c.DB.Where("id = ? AND company_id = ?", id, user.CompanyID).First(&report)
	if result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Report not found"})
	}

	if report.Status == Models.ReportConverted {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Report was converted to a work order, close the work order instead",
		})
	}

	c.DB.Model(&report).Update("status", Models.ReportClosed)

	return ctx.JSON(report)
}
