package equipment

import (
	"time"

	"github.com/helpdeskhq/helpdesk-portal/internal"
	"github.com/helpdeskhq/helpdesk-portal/internal/core/common/sqltypes"
)

// Equipment is a tracked hardware unit. The inventory number is the
// business key; the access password is stored hashed and never serialized.
type Equipment struct {
	ID              int64               `json:"id,string" gorm:"primaryKey"`
	InventoryNumber string              `json:"inventory_number" gorm:"column:inventory_number;uniqueIndex;not null"`
	Name            string              `json:"name" gorm:"column:name;not null"`
	Type            string              `json:"type,omitempty" gorm:"column:type"`
	MACAddress      string              `json:"mac_address,omitempty" gorm:"column:mac_address"`
	IPAddress       string              `json:"ip_address,omitempty" gorm:"column:ip_address"`
	Login           string              `json:"login,omitempty" gorm:"column:login"`
	PasswordHash    string              `json:"-" gorm:"column:password_hash"`
	Location        string              `json:"location,omitempty" gorm:"column:location"`
	Floor           string              `json:"floor,omitempty" gorm:"column:floor"`
	Cabinet         string              `json:"cabinet,omitempty" gorm:"column:cabinet"`
	FileURLs        sqltypes.StringList `json:"file_urls,omitempty" gorm:"column:file_urls;type:text"`
	AssignedUserID  *int64              `json:"assigned_user_id,string,omitempty" gorm:"column:assigned_user_id"`
	CreatedAt       time.Time           `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (Equipment) TableName() string {
	return "equipment"
}

var (
	ErrNotFound           = internal.NewNotFoundError("equipment not found", internal.ErrCodeEquipmentNotFound)
	ErrDuplicateInventory = internal.NewConflictError("equipment with this inventory number already exists", internal.ErrCodeDuplicateInventory)
)
