package postgres

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/helpdeskhq/helpdesk-portal/internal/equipment"
	"github.com/helpdeskhq/helpdesk-portal/internal/software"
	"github.com/helpdeskhq/helpdesk-portal/internal/user"
)

type SoftwareRepository struct {
	db *gorm.DB
}

func NewSoftwareRepository(db *gorm.DB) *SoftwareRepository {
	return &SoftwareRepository{db: db}
}

func (r *SoftwareRepository) Create(s *software.Software, userIDs, equipmentIDs []int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(s).Error; err != nil {
			return err
		}
		if len(userIDs) > 0 {
			if err := tx.Model(s).Association("Users").Append(userRefs(userIDs)); err != nil {
				return err
			}
		}
		if len(equipmentIDs) > 0 {
			if err := tx.Model(s).Association("Equipment").Append(equipmentRefs(equipmentIDs)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SoftwareRepository) GetByID(id int64) (*software.Software, error) {
	var s software.Software
	err := r.db.
		Preload("Users").
		Preload("Equipment").
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SoftwareRepository) List() ([]*software.Software, error) {
	var items []*software.Software
	err := r.db.
		Preload("Users").
		Preload("Equipment").
		Order("name ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *SoftwareRepository) Update(id int64, fields map[string]interface{}) (*software.Software, error) {
	if len(fields) > 0 {
		if err := r.db.Model(&software.Software{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return nil, err
		}
	}
	return r.GetByID(id)
}

func (r *SoftwareRepository) ReplaceUsers(id int64, userIDs []int64) error {
	return r.db.Model(&software.Software{ID: id}).Association("Users").Replace(userRefs(userIDs))
}

func (r *SoftwareRepository) ReplaceEquipment(id int64, equipmentIDs []int64) error {
	return r.db.Model(&software.Software{ID: id}).Association("Equipment").Replace(equipmentRefs(equipmentIDs))
}

func (r *SoftwareRepository) Delete(id int64) error {
	return r.db.Select(clause.Associations).Delete(&software.Software{ID: id}).Error
}

func (r *SoftwareRepository) ListExpiringBefore(deadline time.Time) ([]*software.Software, error) {
	var items []*software.Software
	err := r.db.
		Where("expires_at IS NOT NULL AND expires_at <= ?", deadline).
		Order("expires_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func userRefs(ids []int64) []*user.User {
	refs := make([]*user.User, len(ids))
	for i, id := range ids {
		refs[i] = &user.User{ID: id}
	}
	return refs
}

func equipmentRefs(ids []int64) []*equipment.Equipment {
	refs := make([]*equipment.Equipment, len(ids))
	for i, id := range ids {
		refs[i] = &equipment.Equipment{ID: id}
	}
	return refs
}
