package postgres

import (
	"gorm.io/gorm"

	"github.com/helpdeskhq/helpdesk-portal/internal/news"
)

type NewsRepository struct {
	db *gorm.DB
}

func NewNewsRepository(db *gorm.DB) *NewsRepository {
	return &NewsRepository{db: db}
}

func (r *NewsRepository) Create(n *news.News) error {
	return r.db.Create(n).Error
}

func (r *NewsRepository) GetByID(id int64) (*news.News, error) {
	var n news.News
	if err := r.db.First(&n, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NewsRepository) List() ([]*news.News, error) {
	var items []*news.News
	if err := r.db.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *NewsRepository) Update(id int64, fields map[string]interface{}) (*news.News, error) {
	if len(fields) > 0 {
		if err := r.db.Model(&news.News{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return nil, err
		}
	}
	return r.GetByID(id)
}

func (r *NewsRepository) Delete(id int64) error {
	return r.db.Delete(&news.News{}, "id = ?", id).Error
}
