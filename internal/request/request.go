package request

import (
	"time"

	"github.com/helpdeskhq/helpdesk-portal/internal"
	"github.com/helpdeskhq/helpdesk-portal/internal/core/common/sqltypes"
	"github.com/helpdeskhq/helpdesk-portal/internal/user"
)

// Ticket statuses. The lifecycle is deliberately loose: any status can be
// patched onto any ticket.
const (
	StatusNew        = "NEW"
	StatusInProgress = "IN_PROGRESS"
	StatusApproved   = "APPROVED"
	StatusRejected   = "REJECTED"
	StatusDone       = "DONE"
	StatusResolved   = "RESOLVED"
	StatusCompleted  = "COMPLETED"
)

var Statuses = []string{
	StatusNew,
	StatusInProgress,
	StatusApproved,
	StatusRejected,
	StatusDone,
	StatusResolved,
	StatusCompleted,
}

func IsValidStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// ClosedStatuses is the set reports count as closed. RESOLVED and APPROVED
// are not in it.
var ClosedStatuses = []string{StatusDone, StatusCompleted, StatusRejected}

func IsClosedStatus(status string) bool {
	for _, s := range ClosedStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// RatingStatuses are the only statuses a rating may arrive with.
var RatingStatuses = []string{StatusDone, StatusCompleted}

func AcceptsRating(status string) bool {
	for _, s := range RatingStatuses {
		if s == status {
			return true
		}
	}
	return false
}

const (
	PriorityLow    = "LOW"
	PriorityNormal = "NORMAL"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

var Priorities = []string{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent}

func IsValidPriority(priority string) bool {
	for _, p := range Priorities {
		if p == priority {
			return true
		}
	}
	return false
}

const (
	SourceWeb      = "WEB"
	SourcePhone    = "PHONE"
	SourceEmail    = "EMAIL"
	SourceTelegram = "TELEGRAM"
)

var Sources = []string{SourceWeb, SourcePhone, SourceEmail, SourceTelegram}

func IsValidSource(source string) bool {
	for _, s := range Sources {
		if s == source {
			return true
		}
	}
	return false
}

const (
	maxTitleLen    = 100
	maxCategoryLen = 50
)

// Request is a helpdesk ticket.
type Request struct {
	ID                     int64               `json:"id,string" gorm:"primaryKey"`
	Title                  string              `json:"title" gorm:"column:title;not null"`
	Content                string              `json:"content" gorm:"column:content;not null"`
	Status                 string              `json:"status" gorm:"column:status;default:NEW"`
	Priority               string              `json:"priority" gorm:"column:priority;default:NORMAL"`
	Category               *string             `json:"category,omitempty" gorm:"column:category"`
	Source                 string              `json:"source" gorm:"column:source;default:WEB"`
	FileURLs               sqltypes.StringList `json:"file_urls,omitempty" gorm:"column:file_urls;type:text"`
	UserID                 int64               `json:"user_id,string" gorm:"column:user_id;not null"`
	ExecutorID             *int64              `json:"executor_id,string,omitempty" gorm:"column:executor_id"`
	EquipmentID            *int64              `json:"equipment_id,string,omitempty" gorm:"column:equipment_id"`
	CreatedAt              time.Time           `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time           `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
	AssignedAt             *time.Time          `json:"assigned_at,omitempty" gorm:"column:assigned_at"`
	ExpectedResolutionDate *time.Time          `json:"expected_resolution_date,omitempty" gorm:"column:expected_resolution_date"`
	ResolvedAt             *time.Time          `json:"resolved_at,omitempty" gorm:"column:resolved_at"`
	WorkDurationMinutes    *int                `json:"work_duration_minutes,omitempty" gorm:"column:work_duration_minutes"`
	Rating                 *int                `json:"rating,omitempty" gorm:"column:rating"`
	Feedback               string              `json:"feedback,omitempty" gorm:"column:feedback"`

	Author   *user.User `json:"author,omitempty" gorm:"foreignKey:UserID"`
	Executor *user.User `json:"executor,omitempty" gorm:"foreignKey:ExecutorID"`
	Comments []Comment  `json:"comments,omitempty" gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
}

func (Request) TableName() string {
	return "requests"
}

// Comment is an immutable note on a ticket, removed together with it.
type Comment struct {
	ID        int64     `json:"id,string" gorm:"primaryKey"`
	RequestID int64     `json:"request_id,string" gorm:"column:request_id;not null"`
	UserID    int64     `json:"user_id,string" gorm:"column:user_id;not null"`
	Content   string    `json:"content" gorm:"column:content;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`

	Author *user.User `json:"author,omitempty" gorm:"foreignKey:UserID"`
}

func (Comment) TableName() string {
	return "request_comments"
}

var (
	ErrNotFound = internal.NewNotFoundError("request not found", internal.ErrCodeRequestNotFound)
)
