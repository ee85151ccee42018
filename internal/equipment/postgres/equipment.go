package postgres

import (
	"gorm.io/gorm"

	"github.com/helpdeskhq/helpdesk-portal/internal/equipment"
)

type EquipmentRepository struct {
	db *gorm.DB
}

func NewEquipmentRepository(db *gorm.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

func (r *EquipmentRepository) Create(e *equipment.Equipment) error {
	return r.db.Create(e).Error
}

func (r *EquipmentRepository) GetByID(id int64) (*equipment.Equipment, error) {
	var e equipment.Equipment
	if err := r.db.First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EquipmentRepository) GetByInventoryNumber(number string) (*equipment.Equipment, error) {
	var e equipment.Equipment
	if err := r.db.First(&e, "inventory_number = ?", number).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EquipmentRepository) List(filter equipment.ListFilter) ([]*equipment.Equipment, error) {
	q := r.db.Model(&equipment.Equipment{}).Order("id ASC")
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Location != "" {
		q = q.Where("location = ?", filter.Location)
	}

	var items []*equipment.Equipment
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *EquipmentRepository) Update(id int64, fields map[string]interface{}) (*equipment.Equipment, error) {
	if len(fields) > 0 {
		if err := r.db.Model(&equipment.Equipment{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return nil, err
		}
	}
	return r.GetByID(id)
}

func (r *EquipmentRepository) Delete(id int64) error {
	return r.db.Delete(&equipment.Equipment{}, "id = ?", id).Error
}
