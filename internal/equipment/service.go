package equipment

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/helpdeskhq/helpdesk-portal/internal"
	"github.com/helpdeskhq/helpdesk-portal/internal/core/common/sqltypes"
	"github.com/helpdeskhq/helpdesk-portal/internal/notification"
	"github.com/helpdeskhq/helpdesk-portal/internal/user"
)

// Repository defines the data access methods for equipment.
type Repository interface {
	Create(e *Equipment) error
	GetByID(id int64) (*Equipment, error)
	GetByInventoryNumber(number string) (*Equipment, error)
	List(filter ListFilter) ([]*Equipment, error)
	Update(id int64, fields map[string]interface{}) (*Equipment, error)
	Delete(id int64) error
}

// Notifier is the slice of the notification service the equipment flows
// use. Failures are the notifier's problem; callers fire and forget.
type Notifier interface {
	NotifyUser(ctx context.Context, userID int64, typ, title, message, url string) error
	NotifyRole(ctx context.Context, role, typ, title, message, url string) error
}

// GroupMessenger posts to the shared support chat.
type GroupMessenger interface {
	SendToGroup(ctx context.Context, text string)
}

// AuditRecorder appends rows to the administrative audit trail.
type AuditRecorder interface {
	Record(ctx context.Context, actorID *int64, actionType, entityType string, entityID *int64, params interface{})
}

type Service struct {
	repo       Repository
	notifier   Notifier
	group      GroupMessenger
	audit      AuditRecorder
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, notifier Notifier, group GroupMessenger, audit AuditRecorder, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		notifier:   notifier,
		group:      group,
		audit:      audit,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Create registers a hardware unit. Inventory numbers are unique; the admin
// roles, the assignee and the support group are told about the new unit.
func (s *Service) Create(ctx context.Context, actorID *int64, dto CreateDTO) (*Equipment, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetByInventoryNumber(dto.InventoryNumber); err == nil && existing != nil {
		return nil, ErrDuplicateInventory
	}

	e := &Equipment{
		InventoryNumber: dto.InventoryNumber,
		Name:            dto.Name,
		Type:            dto.Type,
		MACAddress:      dto.MACAddress,
		IPAddress:       dto.IPAddress,
		Login:           dto.Login,
		Location:        dto.Location,
		Floor:           dto.Floor,
		Cabinet:         dto.Cabinet,
		FileURLs:        sqltypes.StringList(dto.FileURLs),
		AssignedUserID:  dto.AssignedUserID,
	}

	if dto.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
		if err != nil {
			s.logger.Error("failed to hash equipment password", "error", err)
			return nil, internal.NewInternalError("could not create equipment", err)
		}
		e.PasswordHash = string(hash)
	}

	if err := s.repo.Create(e); err != nil {
		s.logger.Error("failed to create equipment", "error", err)
		return nil, internal.NewInternalError("could not create equipment", err)
	}

	s.logger.Info("equipment created", "equipment_id", e.ID, "inventory_number", e.InventoryNumber)

	if s.audit != nil {
		s.audit.Record(ctx, actorID, "equipment_created", "equipment", &e.ID, map[string]interface{}{
			"inventory_number": e.InventoryNumber,
			"name":             e.Name,
		})
	}

	s.announceCreated(ctx, e)

	return e, nil
}

func (s *Service) announceCreated(ctx context.Context, e *Equipment) {
	title := "New equipment registered"
	message := fmt.Sprintf("%s (inv. %s)", e.Name, e.InventoryNumber)
	url := fmt.Sprintf("/equipment/%d", e.ID)

	if s.notifier != nil {
		for _, role := range []string{user.RoleSuperuser, user.RoleAdmin} {
			if err := s.notifier.NotifyRole(ctx, role, notification.TypeEquipment, title, message, url); err != nil {
				s.logger.Error("failed to notify role about equipment", "error", err, "role", role)
			}
		}
		if e.AssignedUserID != nil {
			if err := s.notifier.NotifyUser(ctx, *e.AssignedUserID, notification.TypeEquipment, "Equipment assigned to you", message, url); err != nil {
				s.logger.Error("failed to notify assignee about equipment", "error", err, "user_id", *e.AssignedUserID)
			}
		}
	}

	if s.group != nil {
		s.group.SendToGroup(ctx, fmt.Sprintf("🖥 New equipment: %s (inv. %s)", e.Name, e.InventoryNumber))
	}
}

func (s *Service) GetByID(id int64) (*Equipment, error) {
	e, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get equipment", "error", err, "equipment_id", id)
		return nil, ErrNotFound
	}
	return e, nil
}

func (s *Service) List(filter ListFilter) ([]*Equipment, error) {
	items, err := s.repo.List(filter)
	if err != nil {
		s.logger.Error("failed to list equipment", "error", err)
		return nil, err
	}
	return items, nil
}

// Update applies a partial patch. Changing the assignee notifies the new
// holder of the unit.
func (s *Service) Update(ctx context.Context, actorID *int64, id int64, dto UpdateDTO) (*Equipment, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrNotFound
	}

	if dto.InventoryNumber != nil && *dto.InventoryNumber != current.InventoryNumber {
		if existing, err := s.repo.GetByInventoryNumber(*dto.InventoryNumber); err == nil && existing != nil {
			return nil, ErrDuplicateInventory
		}
	}

	fields := map[string]interface{}{}
	if dto.InventoryNumber != nil {
		fields["inventory_number"] = *dto.InventoryNumber
	}
	if dto.Name != nil {
		fields["name"] = *dto.Name
	}
	if dto.Type != nil {
		fields["type"] = *dto.Type
	}
	if dto.MACAddress != nil {
		fields["mac_address"] = *dto.MACAddress
	}
	if dto.IPAddress != nil {
		fields["ip_address"] = *dto.IPAddress
	}
	if dto.Login != nil {
		fields["login"] = *dto.Login
	}
	if dto.Location != nil {
		fields["location"] = *dto.Location
	}
	if dto.Floor != nil {
		fields["floor"] = *dto.Floor
	}
	if dto.Cabinet != nil {
		fields["cabinet"] = *dto.Cabinet
	}
	if dto.FileURLs != nil {
		fields["file_urls"] = sqltypes.StringList(*dto.FileURLs)
	}
	if dto.AssignedUserID != nil {
		fields["assigned_user_id"] = *dto.AssignedUserID
	}
	if dto.Password != nil && *dto.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*dto.Password), s.bcryptCost)
		if err != nil {
			return nil, internal.NewInternalError("could not update equipment", err)
		}
		fields["password_hash"] = string(hash)
	}

	updated, err := s.repo.Update(id, fields)
	if err != nil {
		s.logger.Error("failed to update equipment", "error", err, "equipment_id", id)
		return nil, err
	}

	s.logger.Info("equipment updated", "equipment_id", id)

	if s.audit != nil {
		s.audit.Record(ctx, actorID, "equipment_updated", "equipment", &id, fieldsForAudit(fields))
	}

	assigneeChanged := dto.AssignedUserID != nil &&
		(current.AssignedUserID == nil || *current.AssignedUserID != *dto.AssignedUserID)
	if assigneeChanged && s.notifier != nil {
		msg := fmt.Sprintf("%s (inv. %s)", updated.Name, updated.InventoryNumber)
		if err := s.notifier.NotifyUser(ctx, *dto.AssignedUserID, notification.TypeEquipment, "Equipment assigned to you", msg, fmt.Sprintf("/equipment/%d", id)); err != nil {
			s.logger.Error("failed to notify new assignee", "error", err, "user_id", *dto.AssignedUserID)
		}
	}

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, actorID *int64, id int64) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return ErrNotFound
	}
	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete equipment", "error", err, "equipment_id", id)
		return internal.NewInternalError("could not delete equipment", err)
	}

	s.logger.Info("equipment deleted", "equipment_id", id)

	if s.audit != nil {
		s.audit.Record(ctx, actorID, "equipment_deleted", "equipment", &id, nil)
	}
	return nil
}

// fieldsForAudit strips credentials from the audit payload.
func fieldsForAudit(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if k == "password_hash" {
			out[k] = "[redacted]"
			continue
		}
		out[k] = v
	}
	return out
}
