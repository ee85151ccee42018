package software

import (
	"time"

	"github.com/helpdeskhq/helpdesk-portal/internal"
	"github.com/helpdeskhq/helpdesk-portal/internal/equipment"
	"github.com/helpdeskhq/helpdesk-portal/internal/user"
)

// Software is a licensed product tracked by the IT department, linked to
// the users who hold seats and the machines it is installed on.
type Software struct {
	ID           int64      `json:"id,string" gorm:"primaryKey"`
	Name         string     `json:"name" gorm:"column:name;not null"`
	Version      string     `json:"version,omitempty" gorm:"column:version"`
	LicenseKey   string     `json:"license_key,omitempty" gorm:"column:license_key"`
	PurchaseDate *time.Time `json:"purchase_date,omitempty" gorm:"column:purchase_date"`
	SupportUntil *time.Time `json:"support_until,omitempty" gorm:"column:support_until"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty" gorm:"column:expires_at"`
	CreatedAt    time.Time  `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`

	Users     []user.User           `json:"users,omitempty" gorm:"many2many:software_users"`
	Equipment []equipment.Equipment `json:"equipment,omitempty" gorm:"many2many:software_equipment"`
}

func (Software) TableName() string {
	return "software"
}

var (
	ErrNotFound = internal.NewNotFoundError("software not found", internal.ErrCodeSoftwareNotFound)
)
