package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/OmarEhab007/cafm-backend-sub004/CronJobs"
	"github.com/OmarEhab007/cafm-backend-sub004/FiberConfig"
	"github.com/OmarEhab007/cafm-backend-sub004/Models"
	"github.com/OmarEhab007/cafm-backend-sub004/Notifications"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	Models.Connect()

	// Push stays disabled when Firebase credentials are not configured
	if err := Notifications.InitFirebase(); err != nil {
		log.Println(err)
	}

	runner := CronJobs.NewScheduleRunner(Models.DB, false)
	if err := runner.Start(); err != nil {
		log.Printf("Failed to start auto-schedule runner: %v\n", err)
	}
	defer runner.Stop()

	FiberConfig.FiberConfig()
}
