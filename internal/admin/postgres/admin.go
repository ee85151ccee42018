package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/helpdeskhq/helpdesk-portal/internal/equipment"
	"github.com/helpdeskhq/helpdesk-portal/internal/request"
	"github.com/helpdeskhq/helpdesk-portal/internal/user"
)

// AdminRepository backs the dashboard and report queries.
type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) CountUsers() (int64, error) {
	var count int64
	err := r.db.Model(&user.User{}).Count(&count).Error
	return count, err
}

func (r *AdminRepository) CountEquipment() (int64, error) {
	var count int64
	err := r.db.Model(&equipment.Equipment{}).Count(&count).Error
	return count, err
}

func (r *AdminRepository) CountOpenRequests() (int64, error) {
	var count int64
	err := r.db.Model(&request.Request{}).
		Where("status != ?", request.StatusCompleted).
		Count(&count).Error
	return count, err
}

func (r *AdminRepository) ListRequests(from, to *time.Time) ([]*request.Request, error) {
	q := r.db.Model(&request.Request{})
	if from != nil {
		q = q.Where("created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("created_at < ?", *to)
	}

	var items []*request.Request
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *AdminRepository) ListEquipment(typeFilter, location string) ([]*equipment.Equipment, error) {
	q := r.db.Model(&equipment.Equipment{}).Order("id ASC")
	if typeFilter != "" {
		q = q.Where("type = ?", typeFilter)
	}
	if location != "" {
		q = q.Where("location = ?", location)
	}

	var items []*equipment.Equipment
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *AdminRepository) ListAdmins() ([]*user.User, error) {
	var admins []*user.User
	err := r.db.Where("role = ?", user.RoleAdmin).Order("id ASC").Find(&admins).Error
	return admins, err
}
