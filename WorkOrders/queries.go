package WorkOrders

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/OmarEhab007/cafm-backend-sub004/Models"
)

// SearchParams filters and pages the work order list. Zero values mean "no
// filter"; page and limit get sane defaults.
type SearchParams struct {
	Status       string
	Priority     string
	SchoolID     *uint
	TechnicianID *uint
	Query        string
	Page         int
	Limit        int
}

func (p *SearchParams) normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Limit > 200 {
		p.Limit = 200
	}
}

// GetByID fetches one work order with its task and material ledgers.
func (s *Service) GetByID(companyID, workOrderID uint) (*Models.WorkOrder, error) {
	var order Models.WorkOrder
	err := s.DB.Where("company_id = ?", companyID).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("item_order ASC")
		}).
		Preload("Materials").
		First(&order, workOrderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "work order", ID: workOrderID}
		}
		return nil, err
	}
	return &order, nil
}

// Search lists work orders matching the given filters, newest first, and
// returns the total match count alongside the requested page.
func (s *Service) Search(companyID uint, params SearchParams) ([]Models.WorkOrder, int64, error) {
	params.normalize()
	query := s.DB.Model(&Models.WorkOrder{}).Where("company_id = ?", companyID)
	if params.Status != "" {
		if !Models.ValidStatus(params.Status) {
			return nil, 0, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", params.Status)}
		}
		query = query.Where("status = ?", params.Status)
	}
	if params.Priority != "" {
		if !Models.ValidPriority(params.Priority) {
			return nil, 0, &ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", params.Priority)}
		}
		query = query.Where("priority = ?", params.Priority)
	}
	if params.SchoolID != nil {
		query = query.Where("school_id = ?", *params.SchoolID)
	}
	if params.TechnicianID != nil {
		query = query.Where("technician_id = ?", *params.TechnicianID)
	}
	if text := strings.TrimSpace(params.Query); text != "" {
		pattern := "%" + text + "%"
		query = query.Where("work_order_number LIKE ? OR title LIKE ? OR description LIKE ?",
			pattern, pattern, pattern)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []Models.WorkOrder
	err := query.Order("created_at DESC").
		Limit(params.Limit).
		Offset((params.Page - 1) * params.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListByAssignee returns a technician's work orders, newest first.
func (s *Service) ListByAssignee(companyID, technicianID uint) ([]Models.WorkOrder, error) {
	var orders []Models.WorkOrder
	err := s.DB.Where("company_id = ? AND technician_id = ?", companyID, technicianID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// ListBySchool returns a school's work orders, newest first.
func (s *Service) ListBySchool(companyID, schoolID uint) ([]Models.WorkOrder, error) {
	var orders []Models.WorkOrder
	err := s.DB.Where("company_id = ? AND school_id = ?", companyID, schoolID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// ListOverdue returns open orders whose scheduled end has passed.
func (s *Service) ListOverdue(companyID uint) ([]Models.WorkOrder, error) {
	var orders []Models.WorkOrder
	err := s.DB.Where("company_id = ? AND scheduled_end < ? AND status NOT IN ?",
		companyID, time.Now(), ClosedStatuses()).
		Order("scheduled_end ASC").
		Find(&orders).Error
	return orders, err
}

// ListHighPriorityPending returns the unassigned backlog that needs eyes
// first: EMERGENCY before HIGH, oldest first within each.
func (s *Service) ListHighPriorityPending(companyID uint) ([]Models.WorkOrder, error) {
	var orders []Models.WorkOrder
	err := s.DB.Where("company_id = ? AND status = ? AND priority IN ?",
		companyID, Models.StatusPending, []string{Models.PriorityEmergency, Models.PriorityHigh}).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return Models.PriorityRank(orders[i].Priority) > Models.PriorityRank(orders[j].Priority)
	})
	return orders, nil
}

// ListPendingForScheduling feeds the auto-scheduler: the tenant's whole
// PENDING backlog, oldest first. The scheduler layers priority order on top.
func (s *Service) ListPendingForScheduling(companyID uint) ([]Models.WorkOrder, error) {
	var orders []Models.WorkOrder
	err := s.DB.Where("company_id = ? AND status = ?", companyID, Models.StatusPending).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

// LatestScheduledEnd returns when a technician's booked work runs out, or nil
// when nothing is on their schedule.
func (s *Service) LatestScheduledEnd(companyID, technicianID uint) (*time.Time, error) {
	var order Models.WorkOrder
	err := s.DB.Where("company_id = ? AND technician_id = ? AND scheduled_end IS NOT NULL",
		companyID, technicianID).
		Where("status NOT IN ?", ClosedStatuses()).
		Order("scheduled_end DESC").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return order.ScheduledEnd, nil
}
