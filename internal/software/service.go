package software

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/helpdeskhq/helpdesk-portal/internal"
	"github.com/helpdeskhq/helpdesk-portal/internal/notification"
	"github.com/helpdeskhq/helpdesk-portal/internal/user"
)

// expiryHorizon is how far ahead the expiry check looks.
const expiryHorizon = 30 * 24 * time.Hour

// Repository defines the data access methods for software records.
type Repository interface {
	Create(s *Software, userIDs, equipmentIDs []int64) error
	GetByID(id int64) (*Software, error)
	List() ([]*Software, error)
	Update(id int64, fields map[string]interface{}) (*Software, error)
	ReplaceUsers(id int64, userIDs []int64) error
	ReplaceEquipment(id int64, equipmentIDs []int64) error
	Delete(id int64) error
	ListExpiringBefore(deadline time.Time) ([]*Software, error)
}

// Notifier is the slice of the notification service the expiry check uses.
type Notifier interface {
	NotifyRole(ctx context.Context, role, typ, title, message, url string) error
}

type Service struct {
	repo     Repository
	notifier Notifier
	now      func() time.Time
	logger   *slog.Logger
}

func NewService(repo Repository, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *Service) Create(ctx context.Context, dto CreateDTO) (*Software, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	sw := &Software{
		Name:       dto.Name,
		Version:    dto.Version,
		LicenseKey: dto.LicenseKey,
	}
	sw.PurchaseDate = optionalDate(dto.PurchaseDate)
	sw.SupportUntil = optionalDate(dto.SupportUntil)
	sw.ExpiresAt = optionalDate(dto.ExpiresAt)

	if err := s.repo.Create(sw, dto.UserIDs, dto.EquipmentIDs); err != nil {
		s.logger.Error("failed to create software", "error", err)
		return nil, internal.NewInternalError("could not create software", err)
	}

	s.logger.Info("software created", "software_id", sw.ID, "name", sw.Name)
	return s.repo.GetByID(sw.ID)
}

func (s *Service) GetByID(id int64) (*Software, error) {
	sw, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get software", "error", err, "software_id", id)
		return nil, ErrNotFound
	}
	return sw, nil
}

func (s *Service) List() ([]*Software, error) {
	items, err := s.repo.List()
	if err != nil {
		s.logger.Error("failed to list software", "error", err)
		return nil, internal.NewInternalError("could not list software", err)
	}
	return items, nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateDTO) (*Software, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(id); err != nil {
		return nil, ErrNotFound
	}

	fields := map[string]interface{}{}
	if dto.Name != nil {
		fields["name"] = *dto.Name
	}
	if dto.Version != nil {
		fields["version"] = *dto.Version
	}
	if dto.LicenseKey != nil {
		fields["license_key"] = *dto.LicenseKey
	}
	if dto.PurchaseDate != nil {
		fields["purchase_date"] = optionalDate(dto.PurchaseDate)
	}
	if dto.SupportUntil != nil {
		fields["support_until"] = optionalDate(dto.SupportUntil)
	}
	if dto.ExpiresAt != nil {
		fields["expires_at"] = optionalDate(dto.ExpiresAt)
	}

	if _, err := s.repo.Update(id, fields); err != nil {
		s.logger.Error("failed to update software", "error", err, "software_id", id)
		return nil, internal.NewInternalError("could not update software", err)
	}

	if dto.UserIDs != nil {
		if err := s.repo.ReplaceUsers(id, *dto.UserIDs); err != nil {
			s.logger.Error("failed to update software users", "error", err, "software_id", id)
			return nil, internal.NewInternalError("could not update software", err)
		}
	}
	if dto.EquipmentIDs != nil {
		if err := s.repo.ReplaceEquipment(id, *dto.EquipmentIDs); err != nil {
			s.logger.Error("failed to update software equipment", "error", err, "software_id", id)
			return nil, internal.NewInternalError("could not update software", err)
		}
	}

	s.logger.Info("software updated", "software_id", id)
	return s.repo.GetByID(id)
}

func (s *Service) Delete(id int64) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return ErrNotFound
	}
	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete software", "error", err, "software_id", id)
		return internal.NewInternalError("could not delete software", err)
	}
	s.logger.Info("software deleted", "software_id", id)
	return nil
}

// ExpiryWarnings lists licenses expiring within the horizon and tells the
// superusers about each of them.
func (s *Service) ExpiryWarnings(ctx context.Context) ([]*Software, error) {
	items, err := s.repo.ListExpiringBefore(s.now().Add(expiryHorizon))
	if err != nil {
		s.logger.Error("failed to list expiring software", "error", err)
		return nil, internal.NewInternalError("could not list expiring software", err)
	}

	if s.notifier != nil {
		for _, sw := range items {
			msg := fmt.Sprintf("%s expires on %s", sw.Name, sw.ExpiresAt.Format("2006-01-02"))
			if err := s.notifier.NotifyRole(ctx, user.RoleSuperuser, notification.TypeSystem, "License expiring soon", msg, fmt.Sprintf("/software/%d", sw.ID)); err != nil {
				s.logger.Error("failed to notify about expiring license", "error", err, "software_id", sw.ID)
			}
		}
	}

	return items, nil
}

func optionalDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := parseDate(*s)
	if err != nil {
		return nil
	}
	return &t
}
