package CronJobs

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/OmarEhab007/cafm-backend-sub004/Models"
	"github.com/OmarEhab007/cafm-backend-sub004/Notifications"
	"github.com/OmarEhab007/cafm-backend-sub004/Scheduler"
	"github.com/OmarEhab007/cafm-backend-sub004/WorkOrders"
)

// ScheduleRunner periodically sweeps every active company's pending backlog
// through the auto-scheduler.
type ScheduleRunner struct {
	cronScheduler  *cron.Cron
	db             *gorm.DB
	scheduler      *Scheduler.Scheduler
	spec           string
	runImmediately bool
	jobID          cron.EntryID
}

// NewScheduleRunner creates a runner with the cron spec from
// AUTO_SCHEDULE_CRON (seconds field included, default every 15 minutes).
func NewScheduleRunner(db *gorm.DB, runImmediately bool) *ScheduleRunner {
	spec := os.Getenv("AUTO_SCHEDULE_CRON")
	if spec == "" {
		spec = "0 */15 * * * *"
	}

	service := WorkOrders.NewService(db)
	service.Notifier = Notifications.NewHub(db)

	return &ScheduleRunner{
		cronScheduler:  cron.New(cron.WithSeconds()),
		db:             db,
		scheduler:      Scheduler.New(service),
		spec:           spec,
		runImmediately: runImmediately,
	}
}

// Start initiates the auto-schedule cron job
func (s *ScheduleRunner) Start() error {
	var err error
	s.jobID, err = s.cronScheduler.AddFunc(s.spec, func() {
		log.Println("Running scheduled auto-assignment sweep")
		s.runAutoSchedule()
	})

	if err != nil {
		return fmt.Errorf("error scheduling cron job: %w", err)
	}

	s.cronScheduler.Start()
	fmt.Printf("Auto-schedule runner started - spec %q\n", s.spec)

	if s.runImmediately {
		fmt.Println("Running initial auto-assignment sweep")
		s.runAutoSchedule()
	}

	return nil
}

// Stop terminates the runner
func (s *ScheduleRunner) Stop() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
		log.Println("Auto-schedule runner stopped")
	}
}

// UpdateSchedule changes the sweep schedule.
// Format: "0 */15 * * * *" = every 15 minutes
func (s *ScheduleRunner) UpdateSchedule(schedule string) error {
	s.cronScheduler.Remove(s.jobID)

	var err error
	s.jobID, err = s.cronScheduler.AddFunc(schedule, func() {
		log.Println("Running scheduled auto-assignment sweep")
		s.runAutoSchedule()
	})

	if err != nil {
		return fmt.Errorf("error updating schedule: %w", err)
	}

	log.Printf("Auto-schedule spec updated to: %s\n", schedule)
	return nil
}

// RunManualSweep executes one sweep outside the schedule
func (s *ScheduleRunner) RunManualSweep() {
	log.Println("Running manual auto-assignment sweep")
	s.runAutoSchedule()
}

// runAutoSchedule walks the active companies and schedules each one's
// backlog. A company without available technicians is skipped, not an error.
func (s *ScheduleRunner) runAutoSchedule() {
	var companies []Models.Company
	if err := s.db.Where("active = ?", true).Find(&companies).Error; err != nil {
		log.Printf("Error loading companies: %v\n", err)
		return
	}

	for _, company := range companies {
		if _, err := s.scheduler.Run(company.ID); err != nil {
			if errors.Is(err, WorkOrders.ErrNoCapacityAvailable) {
				log.Printf("Company %d has no available technicians, skipping\n", company.ID)
				continue
			}
			log.Printf("Error scheduling company %d: %v\n", company.ID, err)
		}
	}
}
