package user

import (
	"time"

	"github.com/helpdeskhq/helpdesk-portal/internal"
)

// Role values understood by the authorization policy and the notification
// fan-out. superuser passes every admin gate.
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleSuperuser = "superuser"
)

var Roles = []string{RoleUser, RoleAdmin, RoleSuperuser}

func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Department tags. Notifications can be addressed to a whole department.
const (
	DepartmentAdministration = "ADMINISTRATION"
	DepartmentIT             = "IT"
	DepartmentAccounting     = "ACCOUNTING"
	DepartmentHR             = "HR"
	DepartmentLegal          = "LEGAL"
	DepartmentOther          = "OTHER"
)

var Departments = []string{
	DepartmentAdministration,
	DepartmentIT,
	DepartmentAccounting,
	DepartmentHR,
	DepartmentLegal,
	DepartmentOther,
}

func IsValidDepartment(department string) bool {
	for _, d := range Departments {
		if d == department {
			return true
		}
	}
	return false
}

// User is the portal account. PersonalID is the national id users log in
// with, stored with formatting but matched digits-only. Identifiers are
// serialized as strings so browser clients never lose int64 precision.
type User struct {
	ID                  int64      `json:"id,string" gorm:"primaryKey"`
	FirstName           string     `json:"first_name" gorm:"column:first_name;not null"`
	LastName            string     `json:"last_name" gorm:"column:last_name;not null"`
	MiddleName          string     `json:"middle_name,omitempty" gorm:"column:middle_name"`
	PersonalID          string     `json:"personal_id,omitempty" gorm:"column:personal_id;uniqueIndex;not null"`
	BirthDate           *time.Time `json:"birth_date,omitempty" gorm:"column:birth_date"`
	MobilePhone         string     `json:"mobile_phone,omitempty" gorm:"column:mobile_phone"`
	InternalPhone       string     `json:"internal_phone,omitempty" gorm:"column:internal_phone"`
	Position            string     `json:"position,omitempty" gorm:"column:position"`
	Department          string     `json:"department" gorm:"column:department;default:OTHER"`
	Role                string     `json:"role" gorm:"column:role;default:user"`
	Floor               string     `json:"floor,omitempty" gorm:"column:floor"`
	Cabinet             string     `json:"cabinet,omitempty" gorm:"column:cabinet"`
	PasswordHash        string     `json:"-" gorm:"column:password_hash"`
	TelegramChatID      *int64     `json:"telegram_chat_id,string,omitempty" gorm:"column:telegram_chat_id"`
	AssignedEquipmentID *int64     `json:"assigned_equipment_id,string,omitempty" gorm:"column:assigned_equipment_id"`
	CreatedAt           time.Time  `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// FullName renders "LastName FirstName", the display order used in
// notifications and reports.
func (u *User) FullName() string {
	return u.LastName + " " + u.FirstName
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperuser
}

func (u *User) IsSuperuser() bool {
	return u.Role == RoleSuperuser
}

// PublicProfile is the safe projection returned by list endpoints and
// embedded into request payloads.
type PublicProfile struct {
	ID            int64  `json:"id,string"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	MiddleName    string `json:"middle_name,omitempty"`
	Department    string `json:"department,omitempty"`
	Position      string `json:"position,omitempty"`
	Role          string `json:"role,omitempty"`
	InternalPhone string `json:"internal_phone,omitempty"`
}

func (u *User) Public() *PublicProfile {
	return &PublicProfile{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		MiddleName:    u.MiddleName,
		Department:    u.Department,
		Position:      u.Position,
		Role:          u.Role,
		InternalPhone: u.InternalPhone,
	}
}

var (
	ErrNotFound            = internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	ErrDuplicatePersonalID = internal.NewConflictError("user with this personal id already exists", internal.ErrCodeDuplicatePersonalID)
)
