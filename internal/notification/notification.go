package notification

import (
	"time"

	"github.com/helpdeskhq/helpdesk-portal/internal"
)

// Notification categories shown in the portal bell menu.
const (
	TypeRequest   = "REQUEST"
	TypeEquipment = "EQUIPMENT"
	TypeUser      = "USER"
	TypeNews      = "NEWS"
	TypeSystem    = "SYSTEM"
)

// Notification is an in-app message row. Exactly one of UserID, Role and
// Department is set: a row either addresses a person, everyone holding a
// role, or a whole department.
type Notification struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	UserID     *int64    `json:"user_id,string,omitempty" gorm:"column:user_id"`
	Role       *string   `json:"role,omitempty" gorm:"column:role"`
	Department *string   `json:"department,omitempty" gorm:"column:department"`
	Type       string    `json:"type" gorm:"column:type;not null"`
	Title      string    `json:"title" gorm:"column:title;not null"`
	Message    string    `json:"message" gorm:"column:message"`
	URL        string    `json:"url,omitempty" gorm:"column:url"`
	IsRead     bool      `json:"is_read" gorm:"column:is_read;default:false"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}

var (
	ErrNotFound  = internal.NewNotFoundError("notification not found", internal.ErrCodeNotificationNotFound)
	ErrForbidden = internal.NewForbiddenError("notification is addressed to someone else", internal.ErrCodeUnauthorizedAccess)
)
