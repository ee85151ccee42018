package postgres

import (
	"gorm.io/gorm"

	"github.com/helpdeskhq/helpdesk-portal/internal/notification"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(n *notification.Notification) error {
	return r.db.Create(n).Error
}

func (r *NotificationRepository) GetByID(id string) (*notification.Notification, error) {
	var n notification.Notification
	if err := r.db.First(&n, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// ListForUser matches rows addressed to the user directly, to the user's
// role, or to the user's department.
func (r *NotificationRepository) ListForUser(userID int64, role, department string, limit int) ([]*notification.Notification, error) {
	var rows []*notification.Notification
	err := r.db.
		Where("user_id = ? OR role = ? OR department = ?", userID, role, department).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *NotificationRepository) CountUnread(userID int64, role, department string) (int64, error) {
	var count int64
	err := r.db.Model(&notification.Notification{}).
		Where("is_read = ? AND (user_id = ? OR role = ? OR department = ?)", false, userID, role, department).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepository) MarkRead(id string) error {
	return r.db.Model(&notification.Notification{}).
		Where("id = ?", id).
		Update("is_read", true).Error
}
