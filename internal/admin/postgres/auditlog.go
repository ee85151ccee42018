package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/helpdeskhq/helpdesk-portal/internal/admin"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(l *admin.AuditLog) error {
	return r.db.Create(l).Error
}

func (r *AuditLogRepository) Query(filter admin.AuditFilter) ([]*admin.AuditLog, error) {
	q := r.db.Model(&admin.AuditLog{}).Order("created_at DESC")
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.ActionType != "" {
		q = q.Where("action_type = ?", filter.ActionType)
	}
	if filter.EntityType != "" {
		q = q.Where("entity_type = ?", filter.EntityType)
	}
	if filter.DateFrom != nil {
		q = q.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		q = q.Where("created_at < ?", *filter.DateTo)
	}

	var logs []*admin.AuditLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *AuditLogRepository) ListByActionBetween(actionType string, from, to time.Time) ([]*admin.AuditLog, error) {
	var logs []*admin.AuditLog
	err := r.db.
		Where("action_type = ?", actionType).
		Where("created_at >= ? AND created_at < ?", from, to).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
