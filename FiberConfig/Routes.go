package FiberConfig

import (
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/template/html"
	"gorm.io/gorm"

	"github.com/OmarEhab007/cafm-backend-sub004/Apis"
	"github.com/OmarEhab007/cafm-backend-sub004/Controllers"
	"github.com/OmarEhab007/cafm-backend-sub004/Models"
	"github.com/OmarEhab007/cafm-backend-sub004/middleware"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize handlers
	workOrderController := Controllers.NewWorkOrderController(db)
	reportController := Controllers.NewReportController(db)
	userController := Controllers.NewUserController(db)
	notificationController := Controllers.NewNotificationController(db)

	// Auth surface
	app.Post("/api/Login", Controllers.Login)
	app.Get("/api/validate-token", Controllers.ValidateToken)
	app.Post("/api/RegisterUser", middleware.Verify(4), Controllers.RegisterUser)
	app.Get("/api/User", middleware.Verify(1), Controllers.User)
	app.Post("/api/Logout", Controllers.Logout)
	app.Post("/api/UpdateToken", middleware.Verify(1), notificationController.UpdateToken)

	api := app.Group("/api")

	// Work order routes. Everyone logged in can read; technicians (2) work
	// orders they execute; supervisors (3) assign, verify and cancel.
	workorders := api.Group("/workorders", middleware.Verify(1))

	// Fixed-path routes - place these BEFORE the ID routes to avoid conflicts
	workorders.Get("/overdue", workOrderController.GetOverdueWorkOrders)
	workorders.Get("/high-priority", workOrderController.GetHighPriorityPending)
	workorders.Get("/mine", workOrderController.GetMyWorkOrders)
	workorders.Get("/statistics", Apis.FetchWorkOrderStats)
	workorders.Get("/technician-performance", middleware.Verify(3), Apis.FetchTechnicianPerformance)
	workorders.Get("/export", middleware.Verify(3), workOrderController.ExportWorkOrders)
	workorders.Get("/assignee/:technicianId", workOrderController.GetAssigneeWorkOrders)
	workorders.Get("/school/:schoolId", workOrderController.GetSchoolWorkOrders)
	workorders.Post("/auto-schedule", middleware.Verify(3), workOrderController.AutoSchedule)
	workorders.Patch("/tasks/:taskId", middleware.Verify(2), workOrderController.UpdateTask)

	workorders.Get("/", workOrderController.GetWorkOrders)
	workorders.Post("/", middleware.Verify(3), workOrderController.CreateWorkOrder)
	workorders.Get("/:id", workOrderController.GetWorkOrder)
	workorders.Get("/:id/print", workOrderController.PrintWorkOrder)
	workorders.Patch("/:id/assign", middleware.Verify(3), workOrderController.AssignWorkOrder)
	workorders.Patch("/:id/start", middleware.Verify(2), workOrderController.StartWork)
	workorders.Patch("/:id/progress", middleware.Verify(2), workOrderController.UpdateProgress)
	workorders.Patch("/:id/hold", middleware.Verify(2), workOrderController.HoldWorkOrder)
	workorders.Patch("/:id/resume", middleware.Verify(2), workOrderController.ResumeWorkOrder)
	workorders.Patch("/:id/complete", middleware.Verify(2), workOrderController.CompleteWorkOrder)
	workorders.Patch("/:id/verify", middleware.Verify(3), workOrderController.VerifyWorkOrder)
	workorders.Patch("/:id/cancel", middleware.Verify(3), workOrderController.CancelWorkOrder)
	workorders.Post("/:id/tasks", middleware.Verify(2), workOrderController.AddTask)
	workorders.Post("/:id/materials", middleware.Verify(2), workOrderController.AddMaterial)

	// Report routes
	reports := api.Group("/reports", middleware.Verify(1))
	reports.Get("/", reportController.GetReports)
	reports.Post("/", reportController.CreateReport)
	reports.Get("/:id", reportController.GetReport)
	reports.Patch("/:id/close", middleware.Verify(3), reportController.CloseReport)
	reports.Post("/:id/workorder", middleware.Verify(3), workOrderController.CreateFromReport)

	// Directory routes
	users := api.Group("/users", middleware.Verify(1))
	users.Get("/", middleware.Verify(4), userController.GetUsers)
	users.Get("/technicians", userController.GetTechnicians)
	users.Patch("/:id/availability", middleware.Verify(2), userController.SetAvailability)
	users.Patch("/:id/deactivate", middleware.Verify(4), userController.DeactivateUser)

	// Notification routes
	notifications := api.Group("/notifications", middleware.Verify(1))
	notifications.Get("/", notificationController.GetNotifications)
	notifications.Patch("/read-all", notificationController.MarkAllRead)
	notifications.Patch("/:id/read", notificationController.MarkRead)
}

func FiberConfig() {
	fmt.Println("Server Up...")
	engine := html.New("./Templates", ".html")
	// Html Template engine
	app := fiber.New(fiber.Config{
		Views: engine,
	})
	app.Use(middleware.Logger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression, // 2
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*", // Allow all origins
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true, // Important for cookies
		MaxAge:           300,  // Max age for preflight requests caching (5 minutes)
	}))

	SetupRoutes(app, Models.DB)
	app.Static("/static", "static/")

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	app.Listen(":" + port)
}
