package Controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/OmarEhab007/cafm-backend-sub004/Models"
	"github.com/OmarEhab007/cafm-backend-sub004/Notifications"
	"github.com/OmarEhab007/cafm-backend-sub004/Scheduler"
	"github.com/OmarEhab007/cafm-backend-sub004/WorkOrders"
)

var validate = validator.New()

// WorkOrderController handles the work order lifecycle endpoints
type WorkOrderController struct {
	DB        *gorm.DB
	Service   *WorkOrders.Service
	Scheduler *Scheduler.Scheduler
}

// NewWorkOrderController creates a new WorkOrderController with the
// notification hub wired into the service.
func NewWorkOrderController(db *gorm.DB) *WorkOrderController {
	service := WorkOrders.NewService(db)
	service.Notifier = Notifications.NewHub(db)
	return &WorkOrderController{
		DB:        db,
		Service:   service,
		Scheduler: Scheduler.New(service),
	}
}

// currentUser returns the authenticated user stored by the Verify middleware.
func currentUser(ctx *fiber.Ctx) Models.User {
	user, _ := ctx.Locals("user").(Models.User)
	return user
}

// respondServiceError maps the service error types onto HTTP status codes.
// Anything unrecognized is a 500 with a generic message.
func respondServiceError(ctx *fiber.Ctx, err error) error {
	var notFound *WorkOrders.NotFoundError
	var validation *WorkOrders.ValidationError
	var badAssignment *WorkOrders.InvalidAssignmentError
	var transition *WorkOrders.InvalidStateTransitionError
	var concurrent *WorkOrders.ConcurrentModificationError

	switch {
	case errors.As(err, &notFound):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &validation):
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &badAssignment):
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &transition):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &concurrent):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Work order was modified by someone else, reload and try again",
		})
	case errors.Is(err, WorkOrders.ErrNoCapacityAvailable):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong"})
}

type CreateWorkOrderInput struct {
	Title          string     `json:"title" validate:"required"`
	Description    string     `json:"description"`
	Priority       string     `json:"priority"`
	SchoolID       *uint      `json:"school_id"`
	EstimatedHours float64    `json:"estimated_hours"`
	ScheduledStart *time.Time `json:"scheduled_start"`
	ScheduledEnd   *time.Time `json:"scheduled_end"`
}

// CreateWorkOrder opens a new work order in PENDING
func (c *WorkOrderController) CreateWorkOrder(ctx *fiber.Ctx) error {
	var input CreateWorkOrderInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user := currentUser(ctx)
	order, err := c.Service.Create(user.CompanyID, WorkOrders.CreateInput{
		Title:          input.Title,
		Description:    input.Description,
		Priority:       input.Priority,
		SchoolID:       input.SchoolID,
		CreatedByID:    user.ID,
		EstimatedHours: input.EstimatedHours,
		ScheduledStart: input.ScheduledStart,
		ScheduledEnd:   input.ScheduledEnd,
	})
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(order)
}

// CreateFromReport converts a school report into a work order. The report can
// only be converted once.
func (c *WorkOrderController) CreateFromReport(ctx *fiber.Ctx) error {
	reportID, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid report ID"})
	}

	user := currentUser(ctx)
	order, err := c.Service.CreateFromReport(user.CompanyID, uint(reportID), user.ID)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(order)
}

// GetWorkOrders lists work orders with optional filters and pagination.
// Filters: status, priority, school_id, technician_id, q (matches number,
// title and description).
func (c *WorkOrderController) GetWorkOrders(ctx *fiber.Ctx) error {
	params := WorkOrders.SearchParams{
		Status:   ctx.Query("status"),
		Priority: ctx.Query("priority"),
		Query:    ctx.Query("q"),
		Page:     ctx.QueryInt("page", 1),
		Limit:    ctx.QueryInt("limit", 50),
	}
	if schoolID := ctx.QueryInt("school_id"); schoolID > 0 {
		id := uint(schoolID)
		params.SchoolID = &id
	}
	if technicianID := ctx.QueryInt("technician_id"); technicianID > 0 {
		id := uint(technicianID)
		params.TechnicianID = &id
	}

	user := currentUser(ctx)
	orders, total, err := c.Service.Search(user.CompanyID, params)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"data":  orders,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	})
}

// GetWorkOrder retrieves a single work order with its tasks and materials
func (c *WorkOrderController) GetWorkOrder(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid work order ID"})
	}

	user := currentUser(ctx)
	order, err := c.Service.GetByID(user.CompanyID, uint(id))
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(order)
}

type AssignInput struct {
	TechnicianID uint `json:"technician_id" validate:"required"`
}

// AssignWorkOrder puts a technician on the order. Reassigning an already
// assigned order is allowed; orders past ASSIGNED are not.
func (c *WorkOrderController) AssignWorkOrder(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid work order ID"})
	}

	var input AssignInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user := currentUser(ctx)
	order, err := c.Service.Assign(user.CompanyID, uint(id), input.TechnicianID)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(order)
}

// StartWork moves an assigned order into IN_PROGRESS and stamps the actual
// start time.
func (c *WorkOrderController) StartWork(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid work order ID"})
	}

	user := currentUser(ctx)
	order, err := c.Service.StartWork(user.CompanyID, uint(id), user.ID)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(order)
}

type ProgressInput struct {
	Percentage *int `json:"percentage"`
}

// UpdateProgress records manual completion percentage. Hitting 100 completes
// the order; reporting progress on a pending order starts it.
func (c *WorkOrderController) UpdateProgress(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid work order ID"})
	}

	var input ProgressInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if input.Percentage == nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "percentage is required"})
	}

	user := currentUser(ctx)
	order, err := c.Service.UpdateProgress(user.CompanyID, uint(id), *input.Percentage)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(order)
}

type ReasonInput struct {
	Reason string `json:"reason"`
}

// HoldWorkOrder pauses an in-progress order. A reason is required.
func (c *WorkOrderController) HoldWorkOrder(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid work order ID"})
	}

	var input ReasonInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user := currentUser(ctx)
	order, err := c.Service.Hold(user.CompanyID, uint(id), input.Reason)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(order)
}

// ResumeWorkOrder puts a held order back in progress
func (c *WorkOrderController) ResumeWorkOrder(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid work order ID"})
	}

	user := currentUser(ctx)
	order, err := c.Service.Resume(user.CompanyID, uint(id))
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(order)
}

type CompleteWorkOrderInput struct {
	ActualHours        float64  `json:"actual_hours"`
	CompletionNotes    string   `json:"completion_notes"`
	SignatureReference string   `json:"signature_reference"`
	PhotoURLs          []string `json:"photo_urls"`
}

// CompleteWorkOrder closes the field work and computes labor and total cost
func (c *WorkOrderController) CompleteWorkOrder(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid work order ID"})
	}

	var input CompleteWorkOrderInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user := currentUser(ctx)
	order, err := c.Service.Complete(user.CompanyID, uint(id), WorkOrders.CompleteInput{
		ActualHours:        input.ActualHours,
		CompletionNotes:    input.CompletionNotes,
		SignatureReference: input.SignatureReference,
		PhotoURLs:          input.PhotoURLs,
	})
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(order)
}

// VerifyWorkOrder is the supervisor sign-off that closes the lifecycle
func (c *WorkOrderController) VerifyWorkOrder(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid work order ID"})
	}

	user := currentUser(ctx)
	order, err := c.Service.Verify(user.CompanyID, uint(id), user.ID)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(order)
}

// CancelWorkOrder aborts an open order. Completed or verified orders cannot
// be cancelled.
func (c *WorkOrderController) CancelWorkOrder(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid work order ID"})
	}

	var input ReasonInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user := currentUser(ctx)
	order, err := c.Service.Cancel(user.CompanyID, uint(id), input.Reason)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(order)
}

// GetAssigneeWorkOrders lists the open orders of one technician
func (c *WorkOrderController) GetAssigneeWorkOrders(ctx *fiber.Ctx) error {
	technicianID, err := strconv.Atoi(ctx.Params("technicianId"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid technician ID"})
	}

	user := currentUser(ctx)
	orders, err := c.Service.ListByAssignee(user.CompanyID, uint(technicianID))
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(orders)
}

// GetMyWorkOrders lists the caller's own open orders
func (c *WorkOrderController) GetMyWorkOrders(ctx *fiber.Ctx) error {
	user := currentUser(ctx)
	orders, err := c.Service.ListByAssignee(user.CompanyID, user.ID)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(orders)
}

// GetSchoolWorkOrders lists every order at one school
func (c *WorkOrderController) GetSchoolWorkOrders(ctx *fiber.Ctx) error {
	schoolID, err := strconv.Atoi(ctx.Params("schoolId"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid school ID"})
	}

	user := currentUser(ctx)
	orders, err := c.Service.ListBySchool(user.CompanyID, uint(schoolID))
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(orders)
}

// GetOverdueWorkOrders lists open orders whose scheduled end has passed
func (c *WorkOrderController) GetOverdueWorkOrders(ctx *fiber.Ctx) error {
	user := currentUser(ctx)
	orders, err := c.Service.ListOverdue(user.CompanyID)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(orders)
}

// GetHighPriorityPending lists unassigned EMERGENCY and HIGH orders, most
// urgent first
func (c *WorkOrderController) GetHighPriorityPending(ctx *fiber.Ctx) error {
	user := currentUser(ctx)
	orders, err := c.Service.ListHighPriorityPending(user.CompanyID)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(orders)
}

// AutoSchedule assigns the whole pending backlog round-robin across the
// available technicians and returns the run report.
func (c *WorkOrderController) AutoSchedule(ctx *fiber.Ctx) error {
	user := currentUser(ctx)
	report, err := c.Scheduler.Run(user.CompanyID)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(report)
}

// PrintWorkOrder renders the printable job sheet
func (c *WorkOrderController) PrintWorkOrder(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid work order ID"})
	}

	user := currentUser(ctx)
	order, err := c.Service.GetByID(user.CompanyID, uint(id))
	if err != nil {
		return respondServiceError(ctx, err)
	}

	schoolName := ""
	if order.SchoolID != nil {
		var school Models.School
		if err := c.DB.First(&school, *order.SchoolID).Error; err == nil {
			schoolName = school.Name
		}
	}

	technicianName := ""
	if order.TechnicianID != nil {
		var technician Models.User
		if err := c.DB.First(&technician, *order.TechnicianID).Error; err == nil {
			technicianName = technician.Name
		}
	}

	return ctx.Render("workorder", fiber.Map{
		"Order":          order,
		"SchoolName":     schoolName,
		"TechnicianName": technicianName,
		"PrintedAt":      time.Now().Format("2 Jan 2006 15:04"),
	})
}
