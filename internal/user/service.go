package user

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/helpdeskhq/helpdesk-portal/internal"
	"github.com/helpdeskhq/helpdesk-portal/internal/core/common/validation"
	"github.com/helpdeskhq/helpdesk-portal/internal/core/events"
)

// Repository defines the data access methods for users.
type Repository interface {
	Create(u *User) error
	GetByID(id int64) (*User, error)
	GetByPersonalID(normalizedID string) (*User, error)
	GetByPhone(normalizedPhone string) (*User, error)
	GetByTelegramChatID(chatID int64) (*User, error)
	List() ([]*User, error)
	ListByRole(role string) ([]*User, error)
	ListByDepartment(department string) ([]*User, error)
	Update(id int64, fields map[string]interface{}) (*User, error)
	Delete(id int64) error
}

// EventPublisher is the slice of the event bus the service needs.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo       Repository
	bus        EventPublisher
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, bus EventPublisher, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		bus:        bus,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates a new account. Duplicate personal ids are rejected with
// a conflict; the registration event drives superuser notifications, the
// telegram group message and the audit trail.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("user validation failed", "error", err)
		return nil, err
	}

	normalizedID := validation.NormalizePersonalID(dto.PersonalID)
	if existing, err := s.repo.GetByPersonalID(normalizedID); err == nil && existing != nil {
		return nil, ErrDuplicatePersonalID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, internal.NewInternalError("could not register user", err)
	}

	birthDate, _ := time.Parse("2006-01-02", dto.BirthDate)

	role := dto.Role
	if role == "" {
		role = RoleUser
	}

	u := &User{
		FirstName:           dto.FirstName,
		LastName:            dto.LastName,
		MiddleName:          dto.MiddleName,
		PersonalID:          dto.PersonalID,
		BirthDate:           &birthDate,
		MobilePhone:         validation.NormalizePhone(dto.MobilePhone),
		InternalPhone:       dto.InternalPhone,
		Position:            dto.Position,
		Department:          dto.Department,
		Role:                role,
		Floor:               dto.Floor,
		Cabinet:             dto.Cabinet,
		PasswordHash:        string(hash),
		AssignedEquipmentID: dto.EquipmentID,
	}

	if err := s.repo.Create(u); err != nil {
		s.logger.Error("failed to create user", "error", err)
		return nil, internal.NewInternalError("could not register user", err)
	}

	s.logger.Info("user registered", "user_id", u.ID, "department", u.Department, "role", u.Role)

	if s.bus != nil {
		_ = s.bus.Publish(ctx, events.NewUserRegisteredEvent(u.ID, u.FirstName, u.LastName, u.Department))
	}

	return u, nil
}

func (s *Service) GetByID(id int64) (*User, error) {
	u, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get user", "error", err, "user_id", id)
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *Service) List() ([]*PublicProfile, error) {
	users, err := s.repo.List()
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, err
	}
	profiles := make([]*PublicProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Public())
	}
	return profiles, nil
}

// UpdateProfile is the self-service patch; absent fields stay untouched.
func (s *Service) UpdateProfile(id int64, dto UpdateProfileDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if dto.FirstName != nil {
		fields["first_name"] = *dto.FirstName
	}
	if dto.LastName != nil {
		fields["last_name"] = *dto.LastName
	}
	if dto.MiddleName != nil {
		fields["middle_name"] = *dto.MiddleName
	}
	if dto.Department != nil {
		fields["department"] = *dto.Department
	}
	if dto.Position != nil {
		fields["position"] = *dto.Position
	}
	if dto.MobilePhone != nil {
		fields["mobile_phone"] = validation.NormalizePhone(*dto.MobilePhone)
	}
	if dto.InternalPhone != nil {
		fields["internal_phone"] = *dto.InternalPhone
	}

	u, err := s.repo.Update(id, fields)
	if err != nil {
		s.logger.Error("failed to update profile", "error", err, "user_id", id)
		return nil, err
	}
	return u, nil
}

// AdminUpdate may additionally change role, password, personal id and
// equipment assignment.
func (s *Service) AdminUpdate(id int64, dto AdminUpdateDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if dto.FirstName != nil {
		fields["first_name"] = *dto.FirstName
	}
	if dto.LastName != nil {
		fields["last_name"] = *dto.LastName
	}
	if dto.MiddleName != nil {
		fields["middle_name"] = *dto.MiddleName
	}
	if dto.Department != nil {
		fields["department"] = *dto.Department
	}
	if dto.Position != nil {
		fields["position"] = *dto.Position
	}
	if dto.MobilePhone != nil {
		fields["mobile_phone"] = validation.NormalizePhone(*dto.MobilePhone)
	}
	if dto.InternalPhone != nil {
		fields["internal_phone"] = *dto.InternalPhone
	}
	if dto.PersonalID != nil {
		fields["personal_id"] = *dto.PersonalID
	}
	if dto.BirthDate != nil {
		birthDate, _ := time.Parse("2006-01-02", *dto.BirthDate)
		fields["birth_date"] = birthDate
	}
	if dto.Role != nil {
		fields["role"] = *dto.Role
	}
	if dto.Floor != nil {
		fields["floor"] = *dto.Floor
	}
	if dto.Cabinet != nil {
		fields["cabinet"] = *dto.Cabinet
	}
	if dto.EquipmentID != nil {
		fields["assigned_equipment_id"] = *dto.EquipmentID
	}
	if dto.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*dto.Password), s.bcryptCost)
		if err != nil {
			return nil, internal.NewInternalError("could not update user", err)
		}
		fields["password_hash"] = string(hash)
	}

	u, err := s.repo.Update(id, fields)
	if err != nil {
		s.logger.Error("failed to update user", "error", err, "user_id", id)
		return nil, err
	}

	s.logger.Info("user updated by admin", "user_id", id)
	return u, nil
}

func (s *Service) Delete(id int64) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return ErrNotFound
	}
	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete user", "error", err, "user_id", id)
		return internal.NewInternalError("could not delete user", err)
	}
	s.logger.Info("user deleted", "user_id", id)
	return nil
}

// FindByPhone resolves a user by a loosely formatted phone number. Used by
// the telegram bot to link chat identities.
func (s *Service) FindByPhone(phone string) (*User, error) {
	u, err := s.repo.GetByPhone(validation.NormalizePhone(phone))
	if err != nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// FindByChatID resolves the account linked to a telegram chat.
func (s *Service) FindByChatID(chatID int64) (*User, error) {
	u, err := s.repo.GetByTelegramChatID(chatID)
	if err != nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// LinkTelegram stores the chat id of the telegram account tied to a user.
func (s *Service) LinkTelegram(userID, chatID int64) error {
	if _, err := s.repo.Update(userID, map[string]interface{}{"telegram_chat_id": chatID}); err != nil {
		s.logger.Error("failed to link telegram chat", "error", err, "user_id", userID)
		return err
	}
	s.logger.Info("telegram chat linked", "user_id", userID, "chat_id", chatID)
	return nil
}
