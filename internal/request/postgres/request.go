package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/helpdeskhq/helpdesk-portal/internal/request"
)

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Create(req *request.Request) error {
	return r.db.Create(req).Error
}

func (r *RequestRepository) GetByID(id int64) (*request.Request, error) {
	var req request.Request
	err := r.db.
		Preload("Author").
		Preload("Executor").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Preload("Author")
		}).
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepository) List(filter request.ListFilter) ([]*request.Request, error) {
	q := r.db.
		Preload("Author").
		Preload("Executor").
		Order("created_at DESC")

	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.ExecutorID != nil {
		q = q.Where("executor_id = ?", *filter.ExecutorID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var items []*request.Request
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *RequestRepository) Update(id int64, fields map[string]interface{}) (*request.Request, error) {
	if len(fields) > 0 {
		if err := r.db.Model(&request.Request{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return nil, err
		}
	}
	return r.GetByID(id)
}

func (r *RequestRepository) Delete(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&request.Comment{}, "request_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&request.Request{}, "id = ?", id).Error
	})
}

func (r *RequestRepository) CreateComment(c *request.Comment) error {
	return r.db.Create(c).Error
}

// CountOpenByExecutor returns, per executor, how many NEW or IN_PROGRESS
// tickets created after the cutoff are on their plate. Executors with no
// matching tickets are simply absent from the map.
func (r *RequestRepository) CountOpenByExecutor(executorIDs []int64, since time.Time) (map[int64]int64, error) {
	type row struct {
		ExecutorID int64
		Total      int64
	}
	var rows []row
	err := r.db.Model(&request.Request{}).
		Select("executor_id, count(*) as total").
		Where("executor_id IN ?", executorIDs).
		Where("status IN ?", []string{request.StatusNew, request.StatusInProgress}).
		Where("created_at >= ?", since).
		Group("executor_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[int64]int64, len(rows))
	for _, r := range rows {
		counts[r.ExecutorID] = r.Total
	}
	return counts, nil
}

func (r *RequestRepository) ListOpenByAuthor(userID int64) ([]*request.Request, error) {
	var items []*request.Request
	err := r.db.
		Where("user_id = ?", userID).
		Where("status NOT IN ?", request.ClosedStatuses).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
