package WorkOrders

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/OmarEhab007/cafm-backend-sub004/Models"
)

// Technician is the projection of a user the lifecycle engine needs: enough
// to validate an assignment and price labor, nothing more.
type Technician struct {
	ID          uint
	Name        string
	Role        string
	HourlyRate  float64
	IsAvailable bool
	IsActive    bool
}

// Directory resolves technicians for assignment and scheduling. Backed by the
// users table in production, by fixtures in tests.
type Directory interface {
	GetTechnician(companyID, technicianID uint) (*Technician, error)
	FindAvailableTechnicians(companyID uint) ([]Technician, error)
}

// ReportDetails carries the fields a maintenance report contributes to a work
// order created from it.
type ReportDetails struct {
	ID            uint
	Title         string
	Description   string
	Priority      string
	SchoolID      *uint
	ScheduledDate *time.Time
	WorkOrderID   *uint
}

// ReportSource resolves maintenance reports for conversion into work orders.
type ReportSource interface {
	GetReport(companyID, reportID uint) (*ReportDetails, error)
}

// Notifier receives lifecycle events after their transaction commits.
// Implementations must swallow their own failures; a dead push channel never
// rolls back a completed work order.
type Notifier interface {
	WorkOrderAssigned(order *Models.WorkOrder, technicianID uint)
	WorkOrderCompleted(order *Models.WorkOrder)
	WorkOrderVerified(order *Models.WorkOrder)
}

// GormDirectory reads technicians from the users table.
type GormDirectory struct {
	DB *gorm.DB
}

// GetTechnician does not filter on the active flag: completed orders still
// need the hourly rate of a technician who has since left.
func (d *GormDirectory) GetTechnician(companyID, technicianID uint) (*Technician, error) {
	var user Models.User
	err := d.DB.Where("company_id = ?", companyID).
		First(&user, technicianID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "technician", ID: technicianID}
		}
		return nil, err
	}
	return technicianFromUser(&user), nil
}

func (d *GormDirectory) FindAvailableTechnicians(companyID uint) ([]Technician, error) {
	var users []Models.User
	err := d.DB.Where("company_id = ? AND role = ? AND is_active = ? AND is_available = ?",
		companyID, Models.RoleTechnician, true, true).
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	technicians := make([]Technician, 0, len(users))
	for i := range users {
		technicians = append(technicians, *technicianFromUser(&users[i]))
	}
	return technicians, nil
}

func technicianFromUser(user *Models.User) *Technician {
	return &Technician{
		ID:          user.ID,
		Name:        user.Name,
		Role:        user.Role,
		HourlyRate:  user.HourlyRate,
		IsAvailable: user.IsAvailable,
		IsActive:    user.IsActive,
	}
}

// GormReportSource reads maintenance reports from the reports table.
type GormReportSource struct {
	DB *gorm.DB
}

func (r *GormReportSource) GetReport(companyID, reportID uint) (*ReportDetails, error) {
	var report Models.Report
	err := r.DB.Where("company_id = ?", companyID).First(&report, reportID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "report", ID: reportID}
		}
		return nil, err
	}
	return &ReportDetails{
		ID:            report.ID,
		Title:         report.Title,
		Description:   report.Description,
		Priority:      report.Priority,
		SchoolID:      report.SchoolID,
		ScheduledDate: report.ScheduledDate,
		WorkOrderID:   report.WorkOrderID,
	}, nil
}
