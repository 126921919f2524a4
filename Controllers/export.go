package Controllers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"

	"github.com/OmarEhab007/cafm-backend-sub004/Models"
)

// ExportWorkOrders streams the company's work orders as an xlsx sheet.
// Optional filters: status, school_id.
func (c *WorkOrderController) ExportWorkOrders(ctx *fiber.Ctx) error {
	user := currentUser(ctx)

	query := c.DB.Where("company_id = ?", user.CompanyID)
	if status := ctx.Query("status"); status != "" {
		if !Models.ValidStatus(status) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
		}
		query = query.Where("status = ?", status)
	}
	if schoolID := ctx.QueryInt("school_id"); schoolID > 0 {
		query = query.Where("school_id = ?", schoolID)
	}

	var orders []Models.WorkOrder
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve work orders"})
	}

	buffer, err := buildWorkOrderSheet(c, user.CompanyID, orders)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Failed to build export: %v", err),
		})
	}

	filename := fmt.Sprintf("workorders_export_%s.xlsx", time.Now().Format("20060102_150405"))

	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	ctx.Set("Content-Length", fmt.Sprintf("%d", buffer.Len()))

	return ctx.Send(buffer.Bytes())
}

func buildWorkOrderSheet(c *WorkOrderController, companyID uint, orders []Models.WorkOrder) (*bytes.Buffer, error) {
	f := excelize.NewFile()

	sheetName := "Work Orders"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"Number", "Title", "School", "Status", "Priority", "Technician",
		"Completion %", "Scheduled Start", "Scheduled End", "Actual Start",
		"Actual End", "Estimated Hours", "Actual Hours", "Labor Cost",
		"Material Cost", "Total Cost", "Created",
	}

	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6E6FA"},
			Pattern: 1,
		},
	})
	if err == nil {
		f.SetRowStyle(sheetName, 1, 1, headerStyle)
	}

	schoolNames := make(map[uint]string)
	var schools []Models.School
	c.DB.Where("company_id = ?", companyID).Find(&schools)
	for _, school := range schools {
		schoolNames[school.ID] = school.Name
	}

	userNames := make(map[uint]string)
	var users []Models.User
	c.DB.Where("company_id = ?", companyID).Find(&users)
	for _, u := range users {
		userNames[u.ID] = u.Name
	}

	for rowIndex, order := range orders {
		row := rowIndex + 2

		schoolName := ""
		if order.SchoolID != nil {
			schoolName = schoolNames[*order.SchoolID]
		}
		technicianName := ""
		if order.TechnicianID != nil {
			technicianName = userNames[*order.TechnicianID]
		}

		values := []interface{}{
			order.WorkOrderNumber,
			order.Title,
			schoolName,
			order.Status,
			order.Priority,
			technicianName,
			order.CompletionPercentage,
			formatExportTime(order.ScheduledStart),
			formatExportTime(order.ScheduledEnd),
			formatExportTime(order.ActualStart),
			formatExportTime(order.ActualEnd),
			order.EstimatedHours,
			order.ActualHours,
			order.LaborCost,
			order.MaterialCost,
			order.TotalCost,
			order.CreatedAt.Format("2006-01-02 15:04:05"),
		}

		for colIndex, value := range values {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, row)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := 0; i < len(headers); i++ {
		f.SetColWidth(sheetName, string('A'+rune(i)), string('A'+rune(i)), 15)
	}

	if f.GetSheetName(0) != sheetName {
		f.DeleteSheet("Sheet1")
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error writing Excel file to buffer: %v", err)
	}

	return &buf, nil
}

func formatExportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
