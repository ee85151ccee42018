package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// AuditLog is an append-only record of administrative mutations.
type AuditLog struct {
	ID         int64     `json:"id,string" gorm:"primaryKey"`
	UserID     *int64    `json:"user_id,string,omitempty" gorm:"column:user_id"`
	ActionType string    `json:"action_type" gorm:"column:action_type;not null"`
	EntityType string    `json:"entity_type" gorm:"column:entity_type"`
	EntityID   *int64    `json:"entity_id,string,omitempty" gorm:"column:entity_id"`
	Params     string    `json:"params,omitempty" gorm:"column:params;type:text"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// AuditFilter narrows the audit log listing.
type AuditFilter struct {
	UserID     *int64
	ActionType string
	EntityType string
	DateFrom   *time.Time
	DateTo     *time.Time
}

// AuditRepository defines the data access methods for the audit trail.
type AuditRepository interface {
	Create(l *AuditLog) error
	Query(filter AuditFilter) ([]*AuditLog, error)
	ListByActionBetween(actionType string, from, to time.Time) ([]*AuditLog, error)
}

// AuditLogger is the write side of the trail. Recording never fails the
// calling operation; a lost audit row is only logged.
type AuditLogger struct {
	repo   AuditRepository
	logger *slog.Logger
}

func NewAuditLogger(repo AuditRepository, logger *slog.Logger) *AuditLogger {
	return &AuditLogger{repo: repo, logger: logger}
}

func (a *AuditLogger) Record(ctx context.Context, actorID *int64, actionType, entityType string, entityID *int64, params interface{}) {
	l := &AuditLog{
		UserID:     actorID,
		ActionType: actionType,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if params != nil {
		if b, err := json.Marshal(params); err == nil {
			l.Params = string(b)
		}
	}

	if err := a.repo.Create(l); err != nil {
		a.logger.Error("failed to write audit log", "error", err, "action_type", actionType)
		return
	}
	a.logger.Debug("audit log written", "action_type", actionType, "entity_type", entityType)
}
