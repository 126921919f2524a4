package WorkOrders

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/OmarEhab007/cafm-backend-sub004/Models"
)

// MaterialInput describes one consumed material. When InventoryItemID is set,
// name and unit cost default from the referenced item and the stock level is
// drawn down; a zero UnitCost then means "use the catalog price".
type MaterialInput struct {
	InventoryItemID *uint
	ItemName        string
	Quantity        float64
	UnitCost        float64
}

// AddMaterial records a consumed material against an open work order and
// rolls the parent's costs up in the same transaction. Stock may go negative:
// the consumption already happened in the field, the ledger just mirrors it.
func (s *Service) AddMaterial(companyID, workOrderID uint, in MaterialInput) (*Models.WorkOrderMaterial, error) {
	if in.Quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Message: "must be positive"}
	}
	if in.UnitCost < 0 {
		return nil, &ValidationError{Field: "unit_cost", Message: "must not be negative"}
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
		return nil, &InvalidStateTransitionError{From: order.Status, Action: ActionAddMaterial}
	}
	material := &Models.WorkOrderMaterial{
		WorkOrderID: order.ID,
		ItemName:    strings.TrimSpace(in.ItemName),
		Quantity:    in.Quantity,
		UnitCost:    in.UnitCost,
	}
	if in.InventoryItemID != nil {
		var item Models.InventoryItem
		err := tx.Where("company_id = ?", companyID).First(&item, *in.InventoryItemID).Error
		if err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &NotFoundError{Resource: "inventory item", ID: *in.InventoryItemID}
			}
			return nil, err
		}
		material.InventoryItemID = &item.ID
		if material.ItemName == "" {
			material.ItemName = item.Name
		}
		if material.UnitCost == 0 {
			material.UnitCost = item.UnitCost
		}
		err = tx.Model(&item).
			Update("quantity_on_hand", gorm.Expr("quantity_on_hand - ?", in.Quantity)).Error
		if err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if material.ItemName == "" {
		tx.Rollback()
		return nil, &ValidationError{Field: "item_name", Message: "is required"}
	}
	material.TotalCost = material.Quantity * material.UnitCost
	if err := tx.Create(material).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recomputeCosts(tx, order); err != nil {
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
	return material, nil
}

// recomputeCosts rolls the material ledger up into the parent. The total is
// always labor plus materials; nothing else feeds it.
func recomputeCosts(tx *gorm.DB, order *Models.WorkOrder) error {
	var materialTotal float64
	err := tx.Model(&Models.WorkOrderMaterial{}).
		Where("work_order_id = ?", order.ID).
		Select("COALESCE(SUM(total_cost), 0)").
		Scan(&materialTotal).Error
	if err != nil {
		return err
	}
	order.MaterialCost = materialTotal
	order.TotalCost = order.LaborCost + order.MaterialCost
	return nil
}
