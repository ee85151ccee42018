package software

import (
	"time"

	"github.com/helpdeskhq/helpdesk-portal/internal"
)

type CreateDTO struct {
	Name         string  `json:"name"`
	Version      string  `json:"version"`
	LicenseKey   string  `json:"license_key"`
	PurchaseDate *string `json:"purchase_date"`
	SupportUntil *string `json:"support_until"`
	ExpiresAt    *string `json:"expires_at"`
	UserIDs      []int64 `json:"user_ids"`
	EquipmentIDs []int64 `json:"equipment_ids"`
}

func (d CreateDTO) Validate() error {
	if d.Name == "" {
		return internal.NewValidationFieldError("name", "name is required", internal.ErrCodeValidationFailed)
	}
	for _, field := range []struct {
		name  string
		value *string
	}{
		{"purchase_date", d.PurchaseDate},
		{"support_until", d.SupportUntil},
		{"expires_at", d.ExpiresAt},
	} {
		if field.value != nil {
			if _, err := parseDate(*field.value); err != nil {
				return internal.NewValidationFieldError(field.name, "invalid date", internal.ErrCodeInvalidDate)
			}
		}
	}
	return nil
}

// UpdateDTO is a partial patch; nil fields stay untouched. Passing an ID
// slice replaces the whole association set.
type UpdateDTO struct {
	Name         *string  `json:"name"`
	Version      *string  `json:"version"`
	LicenseKey   *string  `json:"license_key"`
	PurchaseDate *string  `json:"purchase_date"`
	SupportUntil *string  `json:"support_until"`
	ExpiresAt    *string  `json:"expires_at"`
	UserIDs      *[]int64 `json:"user_ids"`
	EquipmentIDs *[]int64 `json:"equipment_ids"`
}

func (d UpdateDTO) Validate() error {
	if d.Name != nil && *d.Name == "" {
		return internal.NewValidationFieldError("name", "name cannot be empty", internal.ErrCodeValidationFailed)
	}
	for _, field := range []struct {
		name  string
		value *string
	}{
		{"purchase_date", d.PurchaseDate},
		{"support_until", d.SupportUntil},
		{"expires_at", d.ExpiresAt},
	} {
		if field.value != nil {
			if _, err := parseDate(*field.value); err != nil {
				return internal.NewValidationFieldError(field.name, "invalid date", internal.ErrCodeInvalidDate)
			}
		}
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
