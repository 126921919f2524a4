package Models

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Work order lifecycle statuses
const (
	StatusPending    = "PENDING"
	StatusAssigned   = "ASSIGNED"
	StatusInProgress = "IN_PROGRESS"
	StatusOnHold     = "ON_HOLD"
	StatusCompleted  = "COMPLETED"
	StatusVerified   = "VERIFIED"
	StatusCancelled  = "CANCELLED"
)

// Work order priorities, ordered EMERGENCY > HIGH > MEDIUM > LOW
const (
	PriorityEmergency = "EMERGENCY"
	PriorityHigh      = "HIGH"
	PriorityMedium    = "MEDIUM"
	PriorityLow       = "LOW"
)

// PriorityRank maps a priority to its sort weight (higher = more urgent).
// Unknown values rank below LOW so malformed rows sink to the end of queues.
func PriorityRank(priority string) int {
	switch priority {
	case PriorityEmergency:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

func ValidPriority(priority string) bool {
	return PriorityRank(priority) > 0
}

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusAssigned, StatusInProgress, StatusOnHold,
		StatusCompleted, StatusVerified, StatusCancelled:
		return true
	}
	return false
}

// WorkOrder is the central maintenance entity, tracked from creation through
// assignment, execution and verification. Rows are soft-deleted only.
type WorkOrder struct {
	gorm.Model
	WorkOrderNumber string `json:"work_order_number" gorm:"uniqueIndex:idx_company_wo_number;size:32"`
	CompanyID       uint   `json:"company_id" gorm:"uniqueIndex:idx_company_wo_number;index;not null"`
	SchoolID        *uint  `json:"school_id" gorm:"index"`
	ReportID        *uint  `json:"report_id" gorm:"index"`
	TechnicianID    *uint  `json:"technician_id" gorm:"index"`
	CreatedByID     uint   `json:"created_by_id"`

	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
	Priority    string `json:"priority" gorm:"size:16;not null;default:MEDIUM"`
	Status      string `json:"status" gorm:"size:16;not null;default:PENDING;index"`

	CompletionPercentage int `json:"completion_percentage" gorm:"default:0"`

	ScheduledStart *time.Time `json:"scheduled_start"`
	ScheduledEnd   *time.Time `json:"scheduled_end"`
	ActualStart    *time.Time `json:"actual_start"`
	ActualEnd      *time.Time `json:"actual_end"`

	EstimatedHours float64 `json:"estimated_hours"`
	ActualHours    float64 `json:"actual_hours"`
	LaborCost      float64 `json:"labor_cost"`
	MaterialCost   float64 `json:"material_cost"`
	TotalCost      float64 `json:"total_cost"`

	CompletionNotes    string `json:"completion_notes" gorm:"type:text"`
	SignatureReference string `json:"signature_reference"`
	HoldReason         string `json:"hold_reason"`
	CancellationReason string `json:"cancellation_reason"`

	VerifiedAt *time.Time `json:"verified_at"`
	VerifiedBy *uint      `json:"verified_by"`

	PhotoURLs datatypes.JSON `json:"photo_urls,omitempty"`

	// Optimistic concurrency token, bumped on every lifecycle mutation
	LockVersion int `json:"lock_version" gorm:"default:0"`

	Tasks     []WorkOrderTask     `json:"tasks,omitempty" gorm:"foreignKey:WorkOrderID;constraint:OnDelete:CASCADE"`
	Materials []WorkOrderMaterial `json:"materials,omitempty" gorm:"foreignKey:WorkOrderID;constraint:OnDelete:CASCADE"`
}

func (WorkOrder) TableName() string {
	return "work_orders"
}

// BeforeCreate fills the human-readable number when the caller did not.
// Collisions bounce off the unique index and are regenerated by the service.
func (w *WorkOrder) BeforeCreate(tx *gorm.DB) error {
	if w.WorkOrderNumber == "" {
		w.WorkOrderNumber = GenerateWorkOrderNumber()
	}
	if w.Status == "" {
		w.Status = StatusPending
	}
	if w.Priority == "" {
		w.Priority = PriorityMedium
	}
	return nil
}

// GenerateWorkOrderNumber builds a prefix + date + random suffix number,
// e.g. WO-20250114-0482.
func GenerateWorkOrderNumber() string {
	return fmt.Sprintf("WO-%s-%04d", time.Now().Format("20060102"), rand.Intn(10000))
}

// Task checklist statuses
const (
	TaskPending   = "pending"
	TaskCompleted = "completed"
)

// WorkOrderTask is a checklist item owned by exactly one work order. Its
// lifecycle is bound to the parent; tasks are never deleted independently.
type WorkOrderTask struct {
	gorm.Model
	WorkOrderID uint       `json:"work_order_id" gorm:"index;not null"`
	Description string     `json:"description" gorm:"not null"`
	Status      string     `json:"status" gorm:"size:16;not null;default:pending"`
	CompletedAt *time.Time `json:"completed_at"`
	ItemOrder   int        `json:"item_order"`
}

func (WorkOrderTask) TableName() string {
	return "work_order_tasks"
}

// WorkOrderMaterial records consumed stock charged to a work order. Entries are
// immutable once created; corrections are made with offsetting entries, the way
// physical consumption cannot be undone.
type WorkOrderMaterial struct {
	gorm.Model
	WorkOrderID     uint    `json:"work_order_id" gorm:"index;not null"`
	InventoryItemID *uint   `json:"inventory_item_id" gorm:"index"`
	ItemName        string  `json:"item_name" gorm:"not null"`
	Quantity        float64 `json:"quantity" gorm:"not null"`
	UnitCost        float64 `json:"unit_cost" gorm:"not null"`
	TotalCost       float64 `json:"total_cost" gorm:"not null"`
}

func (WorkOrderMaterial) TableName() string {
	return "work_order_materials"
}
