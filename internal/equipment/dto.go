package equipment

import "github.com/helpdeskhq/helpdesk-portal/internal"

type CreateDTO struct {
	InventoryNumber string   `json:"inventory_number"`
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	MACAddress      string   `json:"mac_address"`
	IPAddress       string   `json:"ip_address"`
	Login           string   `json:"login"`
	Password        string   `json:"password"`
	Location        string   `json:"location"`
	Floor           string   `json:"floor"`
	Cabinet         string   `json:"cabinet"`
	FileURLs        []string `json:"file_urls"`
	AssignedUserID  *int64   `json:"assigned_user_id,string"`
}

func (d CreateDTO) Validate() error {
	if d.InventoryNumber == "" {
		return internal.NewValidationFieldError("inventory_number", "inventory_number is required", internal.ErrCodeValidationFailed)
	}
	if d.Name == "" {
		return internal.NewValidationFieldError("name", "name is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

// UpdateDTO is a partial patch; nil fields stay untouched.
type UpdateDTO struct {
	InventoryNumber *string   `json:"inventory_number"`
	Name            *string   `json:"name"`
	Type            *string   `json:"type"`
	MACAddress      *string   `json:"mac_address"`
	IPAddress       *string   `json:"ip_address"`
	Login           *string   `json:"login"`
	Password        *string   `json:"password"`
	Location        *string   `json:"location"`
	Floor           *string   `json:"floor"`
	Cabinet         *string   `json:"cabinet"`
	FileURLs        *[]string `json:"file_urls"`
	AssignedUserID  *int64    `json:"assigned_user_id,string"`
}

func (d UpdateDTO) Validate() error {
	if d.InventoryNumber != nil && *d.InventoryNumber == "" {
		return internal.NewValidationFieldError("inventory_number", "inventory_number cannot be empty", internal.ErrCodeValidationFailed)
	}
	if d.Name != nil && *d.Name == "" {
		return internal.NewValidationFieldError("name", "name cannot be empty", internal.ErrCodeValidationFailed)
	}
	return nil
}

// ListFilter narrows the equipment listing.
type ListFilter struct {
	Type     string
	Location string
}
