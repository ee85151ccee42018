package news

import (
	"time"

	"github.com/helpdeskhq/helpdesk-portal/internal"
)

const maxTitleLen = 200

// News is a portal announcement shown to every employee.
type News struct {
	ID        int64     `json:"id,string" gorm:"primaryKey"`
	Title     string    `json:"title" gorm:"column:title;not null"`
	Content   string    `json:"content" gorm:"column:content;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (News) TableName() string {
	return "news"
}

var (
	ErrNotFound = internal.NewNotFoundError("news item not found", internal.ErrCodeNewsNotFound)
)

type CreateDTO struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (d CreateDTO) Validate() error {
	if d.Title == "" {
		return internal.NewValidationFieldError("title", "title is required", internal.ErrCodeInvalidTitle)
	}
	if len([]rune(d.Title)) > maxTitleLen {
		return internal.NewValidationFieldError("title", "title is too long", internal.ErrCodeInvalidTitle)
	}
	if d.Content == "" {
		return internal.NewValidationFieldError("content", "content is required", internal.ErrCodeInvalidContent)
	}
	return nil
}

type UpdateDTO struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (d UpdateDTO) Validate() error {
	if d.Title != nil {
		if *d.Title == "" {
			return internal.NewValidationFieldError("title", "title cannot be empty", internal.ErrCodeInvalidTitle)
		}
		if len([]rune(*d.Title)) > maxTitleLen {
			return internal.NewValidationFieldError("title", "title is too long", internal.ErrCodeInvalidTitle)
		}
	}
	if d.Content != nil && *d.Content == "" {
		return internal.NewValidationFieldError("content", "content cannot be empty", internal.ErrCodeInvalidContent)
	}
	return nil
}
