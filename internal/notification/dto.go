package notification

import "github.com/helpdeskhq/helpdesk-portal/internal"

// CreateDTO targets exactly one of user, role or department.
type CreateDTO struct {
	UserID     *int64  `json:"user_id,string"`
	Role       *string `json:"role"`
	Department *string `json:"department"`
	Type       string  `json:"type"`
	Title      string  `json:"title"`
	Message    string  `json:"message"`
	URL        string  `json:"url"`
}

func (d CreateDTO) Validate() error {
	targets := 0
	if d.UserID != nil {
		targets++
	}
	if d.Role != nil {
		targets++
	}
	if d.Department != nil {
		targets++
	}
	if targets != 1 {
		return internal.NewValidationError("exactly one of user_id, role or department must be set", internal.ErrCodeValidationFailed)
	}
	if d.Title == "" {
		return internal.NewValidationFieldError("title", "title is required", internal.ErrCodeValidationFailed)
	}
	return nil
}
