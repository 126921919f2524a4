package Models

import "gorm.io/gorm"

// Role names used by the directory. Permission carries the numeric ladder the
// middleware checks: 1 viewer, 2 technician, 3 supervisor, 4 admin.
const (
	RoleViewer     = "viewer"
	RoleTechnician = "technician"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

const (
	PermissionViewer     = 1
	PermissionTechnician = 2
	PermissionSupervisor = 3
	PermissionAdmin      = 4
)

type User struct {
	gorm.Model
	CompanyID  uint    `json:"company_id" gorm:"uniqueIndex:idx_company_email;index;not null"`
	Name       string  `json:"name" gorm:"not null"`
	Email      string  `json:"email" gorm:"uniqueIndex:idx_company_email;not null"`
	Password   []byte  `json:"-"`
	Phone      string  `json:"phone"`
	Role       string  `json:"role" gorm:"size:16;not null;default:viewer"`
	Permission int     `json:"permission" gorm:"default:1"`
	HourlyRate float64 `json:"hourly_rate"`

	// IsAvailable gates auto-assignment; toggled by the directory endpoints
	IsAvailable bool `json:"is_available" gorm:"default:true"`
	IsActive    bool `json:"is_active" gorm:"default:true"`
}

// PermissionForRole maps a role name onto the middleware's numeric ladder.
func PermissionForRole(role string) int {
	switch role {
	case RoleAdmin:
		return PermissionAdmin
	case RoleSupervisor:
		return PermissionSupervisor
	case RoleTechnician:
		return PermissionTechnician
	}
	return PermissionViewer
}
