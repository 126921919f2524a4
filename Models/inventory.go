package Models

import "gorm.io/gorm"

// InventoryItem is a stock item material entries may reference. Material
// entries snapshot the name and unit cost at consumption time, so later price
// changes never rewrite history.
type InventoryItem struct {
	gorm.Model
	CompanyID      uint    `json:"company_id" gorm:"index;not null"`
	Name           string  `json:"name" gorm:"not null"`
	Unit           string  `json:"unit" gorm:"size:16;default:pcs"`
	UnitCost       float64 `json:"unit_cost"`
	QuantityOnHand float64 `json:"quantity_on_hand"`
	MinimumStock   float64 `json:"minimum_stock"`
}
