package postgres

import (
	"gorm.io/gorm"

	"github.com/helpdeskhq/helpdesk-portal/internal/user"
)

// UserRepository implements the user.Repository interface using GORM.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *user.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id int64) (*user.User, error) {
	var u user.User
	err := r.db.Where("id = ?", id).First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByPersonalID matches on digits only, so stored formatting does not
// matter for login.
func (r *UserRepository) GetByPersonalID(normalizedID string) (*user.User, error) {
	var u user.User
	err := r.db.
		Where("replace(replace(replace(personal_id, '-', ''), ' ', ''), '.', '') = ?", normalizedID).
		First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByPhone(normalizedPhone string) (*user.User, error) {
	var u user.User
	err := r.db.Where("mobile_phone = ?", normalizedPhone).First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByTelegramChatID(chatID int64) (*user.User, error) {
	var u user.User
	err := r.db.Where("telegram_chat_id = ?", chatID).First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) List() ([]*user.User, error) {
	var users []*user.User
	err := r.db.Order("last_name ASC").Find(&users).Error
	return users, err
}

func (r *UserRepository) ListByRole(role string) ([]*user.User, error) {
	var users []*user.User
	err := r.db.Where("role = ?", role).Order("id ASC").Find(&users).Error
	return users, err
}

func (r *UserRepository) ListByDepartment(department string) ([]*user.User, error) {
	var users []*user.User
	err := r.db.Where("department = ?", department).Order("id ASC").Find(&users).Error
	return users, err
}

func (r *UserRepository) Update(id int64, fields map[string]interface{}) (*user.User, error) {
	if len(fields) > 0 {
		if err := r.db.Model(&user.User{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return nil, err
		}
	}
	return r.GetByID(id)
}

func (r *UserRepository) Delete(id int64) error {
	return r.db.Delete(&user.User{}, id).Error
}
