package Models

import "gorm.io/gorm"

// Company is the tenant boundary. Every tenant-owned row carries a CompanyID
// and no query may cross it.
type Company struct {
	gorm.Model
	Name      string `json:"name" gorm:"not null"`
	Subdomain string `json:"subdomain" gorm:"uniqueIndex;not null"`
	Active    bool   `json:"active" gorm:"default:true"`
}

// School is a serviced location inside a tenant.
type School struct {
	gorm.Model
	CompanyID uint   `json:"company_id" gorm:"index;not null"`
	Name      string `json:"name" gorm:"not null"`
	Address   string `json:"address"`
}
