package WorkOrders

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/OmarEhab007/cafm-backend-sub004/Models"
)

const workOrderNumberAttempts = 3

// Service is the work order lifecycle engine. Every mutation runs in its own
// transaction, scoped to one tenant, and bumps the optimistic lock version of
// the order it touches.
type Service struct {
	DB        *gorm.DB
	Directory Directory
	Reports   ReportSource
	Notifier  Notifier
}

func NewService(db *gorm.DB) *Service {
	return &Service{
		DB:        db,
		Directory: &GormDirectory{DB: db},
		Reports:   &GormReportSource{DB: db},
	}
}

// CreateInput carries the caller-supplied fields of a new work order.
type CreateInput struct {
	Title          string
	Description    string
	Priority       string
	SchoolID       *uint
	CreatedByID    uint
	EstimatedHours float64
	ScheduledStart *time.Time
	ScheduledEnd   *time.Time
}

// CompleteInput carries the proof of work recorded at completion time.
type CompleteInput struct {
	ActualHours        float64
	CompletionNotes    string
	SignatureReference string
	PhotoURLs          []string
}

// Create opens a new work order in PENDING. The generated number can collide
// with a concurrent create, so the insert retries with a fresh number a few
// times before giving up.
func (s *Service) Create(companyID uint, in CreateInput) (*Models.WorkOrder, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, &ValidationError{Field: "title", Message: "is required"}
	}
	priority := in.Priority
	if priority == "" {
		priority = Models.PriorityMedium
	}
	if !Models.ValidPriority(priority) {
		return nil, &ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", in.Priority)}
	}
	if in.EstimatedHours < 0 {
		return nil, &ValidationError{Field: "estimated_hours", Message: "must not be negative"}
	}
	order := &Models.WorkOrder{
		CompanyID:      companyID,
		SchoolID:       in.SchoolID,
		CreatedByID:    in.CreatedByID,
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		Priority:       priority,
		Status:         Models.StatusPending,
		EstimatedHours: in.EstimatedHours,
		ScheduledStart: in.ScheduledStart,
		ScheduledEnd:   in.ScheduledEnd,
	}
	var err error
	for attempt := 0; attempt < workOrderNumberAttempts; attempt++ {
		if err = s.DB.Create(order).Error; err == nil {
			return order, nil
		}
		if !isDuplicateKey(err) {
			return nil, err
		}
		order.WorkOrderNumber = Models.GenerateWorkOrderNumber()
	}
	return nil, fmt.Errorf("allocating work order number: %w", err)
}

// CreateFromReport converts a maintenance report into a work order, copying
// its descriptive fields and linking the two records both ways. A report can
// back at most one work order.
func (s *Service) CreateFromReport(companyID, reportID, createdByID uint) (*Models.WorkOrder, error) {
	report, err := s.Reports.GetReport(companyID, reportID)
	if err != nil {
		return nil, err
	}
	if report.WorkOrderID != nil {
		return nil, &ValidationError{
			Field:   "report_id",
			Message: fmt.Sprintf("report %d is already converted to work order %d", reportID, *report.WorkOrderID),
		}
	}
	priority := report.Priority
	if !Models.ValidPriority(priority) {
		priority = Models.PriorityMedium
	}
	var lastErr error
	for attempt := 0; attempt < workOrderNumberAttempts; attempt++ {
		order := &Models.WorkOrder{
			CompanyID:      companyID,
			SchoolID:       report.SchoolID,
			ReportID:       &report.ID,
			CreatedByID:    createdByID,
			Title:          report.Title,
			Description:    report.Description,
			Priority:       priority,
			Status:         Models.StatusPending,
			ScheduledStart: report.ScheduledDate,
		}
		tx := s.DB.Begin()
		if tx.Error != nil {
			return nil, tx.Error
		}
		if err := tx.Create(order).Error; err != nil {
			tx.Rollback()
			if isDuplicateKey(err) {
				lastErr = err
				continue
			}
			return nil, err
		}
		err := tx.Model(&Models.Report{}).
			Where("id = ? AND company_id = ?", reportID, companyID).
			Updates(map[string]interface{}{
				"status":        Models.ReportConverted,
				"work_order_id": order.ID,
			}).Error
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := tx.Commit().Error; err != nil {
			return nil, err
		}
		return order, nil
	}
	return nil, fmt.Errorf("allocating work order number for report %d: %w", reportID, lastErr)
}

// Assign puts a work order on a technician's plate. Reassignment of an
// already assigned order is legal and just swaps the technician.
func (s *Service) Assign(companyID, workOrderID, technicianID uint) (*Models.WorkOrder, error) {
	technician, err := s.Directory.GetTechnician(companyID, technicianID)
	if err != nil {
		return nil, err
	}
	if err := eligibleForAssignment(technician); err != nil {
		return nil, err
	}
	tx := s.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	order, err := loadWorkOrder(tx, companyID, workOrderID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	next, err := NextStatus(order.Status, ActionAssign)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	order.Status = next
	order.TechnicianID = &technicianID
	if err := saveOptimistic(tx, order); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	s.notifyAssigned(order, technicianID)
	return order, nil
}

// ScheduleAssign is Assign plus a scheduled window, applied in one shot. The
// auto-scheduler uses it so an order never ends up assigned without a slot.
// Unlike Assign it refuses reassignment: an order somebody already claimed,
// manually or by an earlier run, stays theirs.
func (s *Service) ScheduleAssign(companyID, workOrderID, technicianID uint, start, end time.Time) (*Models.WorkOrder, error) {
	technician, err := s.Directory.GetTechnician(companyID, technicianID)
	if err != nil {
		return nil, err
	}
	if err := eligibleForAssignment(technician); err != nil {
		return nil, err
	}
	tx := s.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	order, err := loadWorkOrder(tx, companyID, workOrderID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if order.Status != Models.StatusPending {
		tx.Rollback()
		return nil, &InvalidStateTransitionError{From: order.Status, To: Models.StatusAssigned, Action: ActionAssign}
	}
	next, err := NextStatus(order.Status, ActionAssign)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	order.Status = next
	order.TechnicianID = &technicianID
	order.ScheduledStart = &start
	order.ScheduledEnd = &end
	if err := saveOptimistic(tx, order); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	s.notifyAssigned(order, technicianID)
	return order, nil
}

// StartWork moves an assigned order into execution and stamps the actual
// start. When the order somehow has no technician yet, the acting user
// becomes the technician of record.
func (s *Service) StartWork(companyID, workOrderID, actorID uint) (*Models.WorkOrder, error) {
	tx := s.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	order, err := loadWorkOrder(tx, companyID, workOrderID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	next, err := NextStatus(order.Status, ActionStart)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	now := time.Now()
	order.Status = next
	if order.TechnicianID == nil {
		order.TechnicianID = &actorID
	}
	if order.ActualStart == nil {
		order.ActualStart = &now
	}
	if err := saveOptimistic(tx, order); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateProgress records a manual completion percentage. Reported progress
// pulls the order forward: any progress starts a not-yet-started order, and
// full progress completes an in-progress one.
func (s *Service) UpdateProgress(companyID, workOrderID uint, percentage int) (*Models.WorkOrder, error) {
	if percentage < 0 || percentage > 100 {
		return nil, &ValidationError{Field: "completion_percentage", Message: "must be between 0 and 100"}
	}
	tx := s.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	order, err := loadWorkOrder(tx, companyID, workOrderID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if IsClosed(order.Status) {
		tx.Rollback()
		return nil, &InvalidStateTransitionError{From: order.Status, Action: ActionProgress}
	}
	now := time.Now()
	order.CompletionPercentage = percentage
	if percentage > 0 && (order.Status == Models.StatusPending || order.Status == Models.StatusAssigned) {
		order.Status = Models.StatusInProgress
		if order.ActualStart == nil {
			order.ActualStart = &now
		}
	}
	completed := false
	if percentage == 100 && order.Status == Models.StatusInProgress {
		if err := s.finalizeCompletion(tx, order, now); err != nil {
			tx.Rollback()
			return nil, err
		}
		completed = true
	}
	if err := saveOptimistic(tx, order); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	if completed {
		s.notifyCompleted(order)
	}
	return order, nil
}

// Hold pauses an in-progress order. The reason is mandatory so nobody has to
// chase a technician to learn why a school is still waiting.
func (s *Service) Hold(companyID, workOrderID uint, reason string) (*Models.WorkOrder, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, &ValidationError{Field: "hold_reason", Message: "is required"}
	}
	tx := s.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	order, err := loadWorkOrder(tx, companyID, workOrderID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	next, err := NextStatus(order.Status, ActionHold)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	order.Status = next
	order.HoldReason = strings.TrimSpace(reason)
	if err := saveOptimistic(tx, order); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return order, nil
}

// Resume puts a held order back into execution. The hold reason is kept on
// the record as history.
func (s *Service) Resume(companyID, workOrderID uint) (*Models.WorkOrder, error) {
	tx := s.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	order, err := loadWorkOrder(tx, companyID, workOrderID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	next, err := NextStatus(order.Status, ActionResume)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	order.Status = next
	if err := saveOptimistic(tx, order); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return order, nil
}

// Complete closes out the field work: stamps the actual window, derives labor
// cost from the technician's rate and rolls up the final total.
func (s *Service) Complete(companyID, workOrderID uint, in CompleteInput) (*Models.WorkOrder, error) {
	if in.ActualHours < 0 {
		return nil, &ValidationError{Field: "actual_hours", Message: "must not be negative"}
	}
	tx := s.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	order, err := loadWorkOrder(tx, companyID, workOrderID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	next, err := NextStatus(order.Status, ActionComplete)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	now := time.Now()
	order.Status = next
	if in.ActualHours > 0 {
		order.ActualHours = in.ActualHours
	}
	if in.CompletionNotes != "" {
		order.CompletionNotes = in.CompletionNotes
	}
	if in.SignatureReference != "" {
		order.SignatureReference = in.SignatureReference
	}
	if len(in.PhotoURLs) > 0 {
		encoded, err := json.Marshal(in.PhotoURLs)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		order.PhotoURLs = datatypes.JSON(encoded)
	}
	if err := s.finalizeCompletion(tx, order, now); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := saveOptimistic(tx, order); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	s.notifyCompleted(order)
	return order, nil
}

// Verify is the supervisor sign-off that makes a completed order final.
func (s *Service) Verify(companyID, workOrderID, verifierID uint) (*Models.WorkOrder, error) {
	tx := s.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	order, err := loadWorkOrder(tx, companyID, workOrderID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	next, err := NextStatus(order.Status, ActionVerify)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	now := time.Now()
	order.Status = next
	order.VerifiedAt = &now
	order.VerifiedBy = &verifierID
	if err := saveOptimistic(tx, order); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	s.notifyVerified(order)
	return order, nil
}

// Cancel abandons an order that has not been completed. Completed and
// verified orders are past the point of no return and must stay on the books.
func (s *Service) Cancel(companyID, workOrderID uint, reason string) (*Models.WorkOrder, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, &ValidationError{Field: "cancellation_reason", Message: "is required"}
	}
	tx := s.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	order, err := loadWorkOrder(tx, companyID, workOrderID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	next, err := NextStatus(order.Status, ActionCancel)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	order.Status = next
	order.CancellationReason = strings.TrimSpace(reason)
	if err := saveOptimistic(tx, order); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return order, nil
}

// finalizeCompletion applies everything COMPLETED implies: full progress, the
// actual window, hours worked, labor cost from the technician's rate, and the
// final cost roll-up. Callers still have to persist the order.
func (s *Service) finalizeCompletion(tx *gorm.DB, order *Models.WorkOrder, now time.Time) error {
	order.Status = Models.StatusCompleted
	order.CompletionPercentage = 100
	if order.ActualStart == nil {
		order.ActualStart = &now
	}
	order.ActualEnd = &now
	if order.ActualHours <= 0 {
		hours := now.Sub(*order.ActualStart).Hours()
		if hours < 0 {
			hours = 0
		}
		order.ActualHours = hours
	}
	if order.TechnicianID != nil {
		technician, err := s.Directory.GetTechnician(order.CompanyID, *order.TechnicianID)
		if err != nil {
			log.Printf("work order %d: labor cost not priced, technician %d: %v", order.ID, *order.TechnicianID, err)
		} else if technician.HourlyRate > 0 {
			order.LaborCost = order.ActualHours * technician.HourlyRate
		}
	}
	return recomputeCosts(tx, order)
}

func eligibleForAssignment(technician *Technician) error {
	if technician.Role != Models.RoleTechnician {
		return &InvalidAssignmentError{TechnicianID: technician.ID, Reason: fmt.Sprintf("role is %s, not %s", technician.Role, Models.RoleTechnician)}
	}
	if !technician.IsActive {
		return &InvalidAssignmentError{TechnicianID: technician.ID, Reason: "account is deactivated"}
	}
	if !technician.IsAvailable {
		return &InvalidAssignmentError{TechnicianID: technician.ID, Reason: "currently unavailable"}
	}
	return nil
}

func loadWorkOrder(tx *gorm.DB, companyID, workOrderID uint) (*Models.WorkOrder, error) {
	var order Models.WorkOrder
	err := tx.Where("company_id = ?", companyID).First(&order, workOrderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "work order", ID: workOrderID}
		}
		return nil, err
	}
	return &order, nil
}

// saveOptimistic writes the order back guarded by the lock version it was
// read at. Zero rows touched means somebody else won the race.
func saveOptimistic(tx *gorm.DB, order *Models.WorkOrder) error {
	version := order.LockVersion
	order.LockVersion = version + 1
	result := tx.Model(&Models.WorkOrder{}).
		Where("id = ? AND lock_version = ?", order.ID, version).
		Select("*").
		Omit("created_at", clause.Associations).
		Updates(order)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &ConcurrentModificationError{WorkOrderID: order.ID}
	}
	return nil
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	message := err.Error()
	return strings.Contains(message, "UNIQUE constraint failed") ||
		strings.Contains(message, "Duplicate entry") ||
		strings.Contains(message, "duplicate key value")
}

func (s *Service) notifyAssigned(order *Models.WorkOrder, technicianID uint) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.WorkOrderAssigned(order, technicianID)
}

func (s *Service) notifyCompleted(order *Models.WorkOrder) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.WorkOrderCompleted(order)
}

func (s *Service) notifyVerified(order *Models.WorkOrder) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.WorkOrderVerified(order)
}
