package Scheduler

import (
	"log"
	"sort"
	"time"

	"github.com/OmarEhab007/cafm-backend-sub004/Models"
	"github.com/OmarEhab007/cafm-backend-sub004/WorkOrders"
)

// Assignment records one order the scheduler placed.
type Assignment struct {
	WorkOrderID     uint      `json:"work_order_id"`
	WorkOrderNumber string    `json:"work_order_number"`
	TechnicianID    uint      `json:"technician_id"`
	TechnicianName  string    `json:"technician_name"`
	ScheduledStart  time.Time `json:"scheduled_start"`
	ScheduledEnd    time.Time `json:"scheduled_end"`
}

// Failure records one order the scheduler could not place.
type Failure struct {
	WorkOrderID     uint   `json:"work_order_id"`
	WorkOrderNumber string `json:"work_order_number"`
	Reason          string `json:"reason"`
}

// RunReport is the outcome of one scheduling pass over a tenant's backlog.
type RunReport struct {
	Assigned []Assignment `json:"assigned"`
	Failures []Failure    `json:"failures"`
}

// Scheduler walks the PENDING backlog in priority order and deals it out
// round-robin across the available technicians. It makes no attempt to be
// clever about skills or travel; supervisors reshuffle by hand afterwards.
type Scheduler struct {
	Service *WorkOrders.Service
}

func New(service *WorkOrders.Service) *Scheduler {
	return &Scheduler{Service: service}
}

// Run schedules one tenant's backlog. A failed order is reported and skipped,
// never aborting the batch; an empty technician pool aborts before anything
// is touched. Re-running is harmless since assigned orders leave the backlog.
func (s *Scheduler) Run(companyID uint) (*RunReport, error) {
	report := &RunReport{
		Assigned: []Assignment{},
		Failures: []Failure{},
	}
	orders, err := s.Service.ListPendingForScheduling(companyID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return report, nil
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return Models.PriorityRank(orders[i].Priority) > Models.PriorityRank(orders[j].Priority)
	})
	pool, err := s.Service.Directory.FindAvailableTechnicians(companyID)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, WorkOrders.ErrNoCapacityAvailable
	}
	now := time.Now()
	for i := range orders {
		order := &orders[i]
		technician := pool[i%len(pool)]
		start, end, err := s.slotFor(companyID, order, technician.ID, now)
		if err != nil {
			report.Failures = append(report.Failures, failureFor(order, err))
			continue
		}
		updated, err := s.Service.ScheduleAssign(companyID, order.ID, technician.ID, start, end)
		if err != nil {
			report.Failures = append(report.Failures, failureFor(order, err))
			continue
		}
		report.Assigned = append(report.Assigned, Assignment{
			WorkOrderID:     updated.ID,
			WorkOrderNumber: updated.WorkOrderNumber,
			TechnicianID:    technician.ID,
			TechnicianName:  technician.Name,
			ScheduledStart:  start,
			ScheduledEnd:    end,
		})
	}
	log.Printf("auto-schedule company %d: %d assigned, %d failed",
		companyID, len(report.Assigned), len(report.Failures))
	return report, nil
}

// slotFor books the order into the technician's calendar. An order that
// already carries an agreed start keeps it; otherwise the visit lands after
// the technician's last booked job, or now for an empty calendar.
func (s *Scheduler) slotFor(companyID uint, order *Models.WorkOrder, technicianID uint, now time.Time) (time.Time, time.Time, error) {
	if order.ScheduledStart != nil {
		start := *order.ScheduledStart
		if order.ScheduledEnd != nil {
			return start, *order.ScheduledEnd, nil
		}
		return start, SlotEnd(start, order.EstimatedHours), nil
	}
	busyUntil, err := s.Service.LatestScheduledEnd(companyID, technicianID)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	base := now
	if busyUntil != nil && busyUntil.After(base) {
		base = *busyUntil
	}
	start := NextSlot(base)
	return start, SlotEnd(start, order.EstimatedHours), nil
}

func failureFor(order *Models.WorkOrder, err error) Failure {
	return Failure{
		WorkOrderID:     order.ID,
		WorkOrderNumber: order.WorkOrderNumber,
		Reason:          err.Error(),
	}
}
