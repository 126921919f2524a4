package WorkOrders

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/OmarEhab007/cafm-backend-sub004/Models"
)

// AddTask appends a checklist entry to an open work order. The parent's
// completion percentage is rediluted in the same transaction, since a fresh
// task starts pending.
func (s *Service) AddTask(companyID, workOrderID uint, description string) (*Models.WorkOrderTask, error) {
	if strings.TrimSpace(description) == "" {
		return nil, &ValidationError{Field: "description", Message: "is required"}
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
		return nil, &InvalidStateTransitionError{From: order.Status, Action: ActionAddTask}
	}
	var count int64
	if err := tx.Model(&Models.WorkOrderTask{}).Where("work_order_id = ?", order.ID).Count(&count).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	task := &Models.WorkOrderTask{
		WorkOrderID: order.ID,
		Description: strings.TrimSpace(description),
		Status:      Models.TaskPending,
		ItemOrder:   int(count) + 1,
	}
	if err := tx.Create(task).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recomputeCompletion(tx, order); err != nil {
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
	return task, nil
}

// UpdateTaskStatus toggles one checklist entry and recomputes the parent's
// completion percentage, both persisted together or not at all. Task-driven
// progress never changes the order's lifecycle status; completing the last
// task still leaves the explicit complete call to the technician.
func (s *Service) UpdateTaskStatus(companyID, taskID uint, completed bool) (*Models.WorkOrderTask, error) {
	tx := s.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	var task Models.WorkOrderTask
	if err := tx.First(&task, taskID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "task", ID: taskID}
		}
		return nil, err
	}
	order, err := loadWorkOrder(tx, companyID, task.WorkOrderID)
	if err != nil {
		tx.Rollback()
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			// Parent outside the caller's tenant reads as a missing task.
			return nil, &NotFoundError{Resource: "task", ID: taskID}
		}
		return nil, err
	}
	if IsClosed(order.Status) {
		tx.Rollback()
		return nil, &InvalidStateTransitionError{From: order.Status, Action: ActionUpdateTask}
	}
	now := time.Now()
	if completed {
		task.Status = Models.TaskCompleted
		task.CompletedAt = &now
	} else {
		task.Status = Models.TaskPending
		task.CompletedAt = nil
	}
	if err := tx.Save(&task).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recomputeCompletion(tx, order); err != nil {
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
	return &task, nil
}

// recomputeCompletion derives the parent's percentage from its task ledger,
// floored to an integer. Orders without tasks keep their manually reported
// value.
func recomputeCompletion(tx *gorm.DB, order *Models.WorkOrder) error {
	var total int64
	if err := tx.Model(&Models.WorkOrderTask{}).
		Where("work_order_id = ?", order.ID).
		Count(&total).Error; err != nil {
		return err
	}
	if total == 0 {
		return nil
	}
	var completed int64
	if err := tx.Model(&Models.WorkOrderTask{}).
		Where("work_order_id = ? AND status = ?", order.ID, Models.TaskCompleted).
		Count(&completed).Error; err != nil {
		return err
	}
	order.CompletionPercentage = int(completed * 100 / total)
	return nil
}
