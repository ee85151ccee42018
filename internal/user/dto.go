package user

import (
	"time"

	"github.com/helpdeskhq/helpdesk-portal/internal"
)

// RegisterDTO is the payload for creating a new account.
type RegisterDTO struct {
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	MiddleName    string  `json:"middle_name,omitempty"`
	Password      string  `json:"password"`
	BirthDate     string  `json:"birth_date"`
	PersonalID    string  `json:"personal_id"`
	MobilePhone   string  `json:"mobile_phone"`
	InternalPhone string  `json:"internal_phone,omitempty"`
	Position      string  `json:"position,omitempty"`
	Department    string  `json:"department"`
	Role          string  `json:"role,omitempty"`
	Floor         string  `json:"floor,omitempty"`
	Cabinet       string  `json:"cabinet,omitempty"`
	EquipmentID   *int64  `json:"equipment_id,string,omitempty"`
}

func (dto RegisterDTO) Validate() error {
	if dto.FirstName == "" {
		return internal.NewValidationFieldError("first_name", "first name is required", internal.ErrCodeValidationFailed)
	}
	if dto.LastName == "" {
		return internal.NewValidationFieldError("last_name", "last name is required", internal.ErrCodeValidationFailed)
	}
	if dto.PersonalID == "" {
		return internal.NewValidationFieldError("personal_id", "personal id is required", internal.ErrCodeValidationFailed)
	}
	if len(dto.Password) < 6 {
		return internal.NewValidationFieldError("password", "password must be at least 6 characters", internal.ErrCodeValidationFailed)
	}
	if dto.BirthDate == "" {
		return internal.NewValidationFieldError("birth_date", "birth date is required", internal.ErrCodeInvalidDate)
	}
	if _, err := time.Parse("2006-01-02", dto.BirthDate); err != nil {
		return internal.NewValidationFieldError("birth_date", "birth date must be YYYY-MM-DD", internal.ErrCodeInvalidDate)
	}
	if dto.MobilePhone == "" {
		return internal.NewValidationFieldError("mobile_phone", "mobile phone is required", internal.ErrCodeValidationFailed)
	}
	if !IsValidDepartment(dto.Department) {
		return internal.NewValidationError("unknown department", internal.ErrCodeInvalidDept)
	}
	if dto.Role != "" && !IsValidRole(dto.Role) {
		return internal.NewValidationError("unknown role", internal.ErrCodeInvalidRole)
	}
	return nil
}

// UpdateProfileDTO is the self-service patch: only identity-neutral fields.
type UpdateProfileDTO struct {
	FirstName     *string `json:"first_name,omitempty"`
	LastName      *string `json:"last_name,omitempty"`
	MiddleName    *string `json:"middle_name,omitempty"`
	Department    *string `json:"department,omitempty"`
	Position      *string `json:"position,omitempty"`
	MobilePhone   *string `json:"mobile_phone,omitempty"`
	InternalPhone *string `json:"internal_phone,omitempty"`
}

func (dto UpdateProfileDTO) Validate() error {
	if dto.Department != nil && !IsValidDepartment(*dto.Department) {
		return internal.NewValidationError("unknown department", internal.ErrCodeInvalidDept)
	}
	return nil
}

// AdminUpdateDTO is the admin patch and may additionally change role,
// password and equipment assignment.
type AdminUpdateDTO struct {
	UpdateProfileDTO
	BirthDate   *string `json:"birth_date,omitempty"`
	PersonalID  *string `json:"personal_id,omitempty"`
	Role        *string `json:"role,omitempty"`
	Floor       *string `json:"floor,omitempty"`
	Cabinet     *string `json:"cabinet,omitempty"`
	Password    *string `json:"password,omitempty"`
	EquipmentID *int64  `json:"equipment_id,string,omitempty"`
}

func (dto AdminUpdateDTO) Validate() error {
	if err := dto.UpdateProfileDTO.Validate(); err != nil {
		return err
	}
	if dto.Role != nil && !IsValidRole(*dto.Role) {
		return internal.NewValidationError("unknown role", internal.ErrCodeInvalidRole)
	}
	if dto.Password != nil && len(*dto.Password) < 6 {
		return internal.NewValidationFieldError("password", "password must be at least 6 characters", internal.ErrCodeValidationFailed)
	}
	if dto.BirthDate != nil {
		if _, err := time.Parse("2006-01-02", *dto.BirthDate); err != nil {
			return internal.NewValidationFieldError("birth_date", "birth date must be YYYY-MM-DD", internal.ErrCodeInvalidDate)
		}
	}
	return nil
}
