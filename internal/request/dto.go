package request

import (
	"strings"
	"time"

	"github.com/helpdeskhq/helpdesk-portal/internal"
)

// CreateDTO is the shape accepted by the ticket creation endpoint. File
// URLs are filled in by the handler after the attachments are stored.
type CreateDTO struct {
	Title                  string   `json:"title"`
	Content                string   `json:"content"`
	Priority               string   `json:"priority"`
	Category               *string  `json:"category"`
	Source                 string   `json:"source"`
	UserID                 *int64   `json:"user_id,string"`
	ExecutorID             *int64   `json:"executor_id,string"`
	EquipmentID            *int64   `json:"equipment_id,string"`
	ExpectedResolutionDate *string  `json:"expected_resolution_date"`
	FileURLs               []string `json:"-"`
}

func (d *CreateDTO) Validate() error {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return internal.NewValidationFieldError("title", "title is required", internal.ErrCodeInvalidTitle)
	}
	if len([]rune(d.Title)) > maxTitleLen {
		return internal.NewValidationFieldError("title", "title is too long", internal.ErrCodeInvalidTitle)
	}
	if strings.TrimSpace(d.Content) == "" {
		return internal.NewValidationFieldError("content", "content is required", internal.ErrCodeInvalidContent)
	}
	if d.Category != nil && len([]rune(*d.Category)) > maxCategoryLen {
		return internal.NewValidationFieldError("category", "category is too long", internal.ErrCodeValidationFailed)
	}
	if d.Priority != "" && !IsValidPriority(strings.ToUpper(d.Priority)) {
		return internal.NewValidationFieldError("priority", "unknown priority", internal.ErrCodeInvalidPriority)
	}
	if d.Source != "" && !IsValidSource(strings.ToUpper(d.Source)) {
		return internal.NewValidationFieldError("source", "unknown source", internal.ErrCodeValidationFailed)
	}
	if d.ExpectedResolutionDate != nil {
		if _, err := parseDate(*d.ExpectedResolutionDate); err != nil {
			return internal.NewValidationFieldError("expected_resolution_date", "invalid date", internal.ErrCodeInvalidDate)
		}
	}
	return nil
}

// UpdateDTO is a partial patch; nil fields stay untouched.
type UpdateDTO struct {
	Title                  *string   `json:"title"`
	Content                *string   `json:"content"`
	Status                 *string   `json:"status"`
	Priority               *string   `json:"priority"`
	Category               *string   `json:"category"`
	ExecutorID             *int64    `json:"executor_id,string"`
	EquipmentID            *int64    `json:"equipment_id,string"`
	ExpectedResolutionDate *string   `json:"expected_resolution_date"`
	ResolvedAt             *string   `json:"resolved_at"`
	Rating                 *int      `json:"rating"`
	Feedback               *string   `json:"feedback"`
	FileURLs               *[]string `json:"file_urls"`
}

func (d UpdateDTO) Validate() error {
	if d.Title != nil {
		t := strings.TrimSpace(*d.Title)
		if t == "" {
			return internal.NewValidationFieldError("title", "title cannot be empty", internal.ErrCodeInvalidTitle)
		}
		if len([]rune(t)) > maxTitleLen {
			return internal.NewValidationFieldError("title", "title is too long", internal.ErrCodeInvalidTitle)
		}
	}
	if d.Content != nil && strings.TrimSpace(*d.Content) == "" {
		return internal.NewValidationFieldError("content", "content cannot be empty", internal.ErrCodeInvalidContent)
	}
	if d.Status != nil && !IsValidStatus(strings.ToUpper(*d.Status)) {
		return internal.NewValidationFieldError("status", "unknown status", internal.ErrCodeInvalidStatus)
	}
	if d.Priority != nil && !IsValidPriority(strings.ToUpper(*d.Priority)) {
		return internal.NewValidationFieldError("priority", "unknown priority", internal.ErrCodeInvalidPriority)
	}
	if d.Category != nil && len([]rune(*d.Category)) > maxCategoryLen {
		return internal.NewValidationFieldError("category", "category is too long", internal.ErrCodeValidationFailed)
	}
	if d.Rating != nil && (*d.Rating < 1 || *d.Rating > 5) {
		return internal.NewValidationFieldError("rating", "rating must be between 1 and 5", internal.ErrCodeValidationFailed)
	}
	if d.ExpectedResolutionDate != nil {
		if _, err := parseDate(*d.ExpectedResolutionDate); err != nil {
			return internal.NewValidationFieldError("expected_resolution_date", "invalid date", internal.ErrCodeInvalidDate)
		}
	}
	if d.ResolvedAt != nil {
		if _, err := parseDate(*d.ResolvedAt); err != nil {
			return internal.NewValidationFieldError("resolved_at", "invalid date", internal.ErrCodeInvalidDate)
		}
	}
	return nil
}

// CommentDTO adds a note to a ticket.
type CommentDTO struct {
	Content string `json:"content"`
}

func (d *CommentDTO) Validate() error {
	d.Content = strings.TrimSpace(d.Content)
	if d.Content == "" {
		return internal.NewValidationFieldError("content", "comment text is required", internal.ErrCodeInvalidContent)
	}
	return nil
}

// ListFilter narrows the ticket listing.
type ListFilter struct {
	UserID     *int64
	ExecutorID *int64
	Status     string
	Limit      int
	Offset     int
}

// parseDate accepts a bare calendar date or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
