package Models

import (
	"time"

	"gorm.io/gorm"
)

// Report statuses
const (
	ReportNew       = "NEW"
	ReportConverted = "CONVERTED"
	ReportClosed    = "CLOSED"
)

// Report is a maintenance issue raised at a school. A report can be converted
// into exactly one work order; the back-reference is kept on both sides so the
// request layer can navigate either way.
type Report struct {
	gorm.Model
	CompanyID     uint       `json:"company_id" gorm:"index;not null"`
	SchoolID      *uint      `json:"school_id" gorm:"index"`
	ReportedByID  uint       `json:"reported_by_id"`
	Title         string     `json:"title" gorm:"not null"`
	Description   string     `json:"description" gorm:"type:text"`
	Priority      string     `json:"priority" gorm:"size:16;default:MEDIUM"`
	Status        string     `json:"status" gorm:"size:16;default:NEW"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	WorkOrderID   *uint      `json:"work_order_id" gorm:"index"`
}
