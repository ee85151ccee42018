package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/helpdeskhq/helpdesk-portal/internal"
	"github.com/helpdeskhq/helpdesk-portal/internal/user"
)

// Repository defines the data access methods for notification rows.
type Repository interface {
	Create(n *Notification) error
	GetByID(id string) (*Notification, error)
	ListForUser(userID int64, role, department string, limit int) ([]*Notification, error)
	CountUnread(userID int64, role, department string) (int64, error)
	MarkRead(id string) error
}

// UserDirectory is the slice of the user store needed to validate targets
// and resolve recipients.
type UserDirectory interface {
	GetByID(id int64) (*user.User, error)
}

// Pusher delivers payloads to live websocket sessions. Delivery is
// best-effort; sessions that are not connected simply miss the push.
type Pusher interface {
	SendToUser(userID int64, payload interface{})
	SendToRole(role string, payload interface{})
	SendToDepartment(department string, payload interface{})
}

// Relay forwards the message to linked telegram chats. Failures are logged
// inside the relay and never surface here.
type Relay interface {
	SendToUser(ctx context.Context, userID int64, text string)
	SendToRole(ctx context.Context, role, text string)
	SendToDepartment(ctx context.Context, department, text string)
}

// pushPayload is the frame written to websocket sessions.
type pushPayload struct {
	Event string        `json:"event"`
	Data  *Notification `json:"data"`
}

type Service struct {
	repo   Repository
	users  UserDirectory
	pusher Pusher
	relay  Relay
	logger *slog.Logger
}

func NewService(repo Repository, users UserDirectory, pusher Pusher, relay Relay, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		users:  users,
		pusher: pusher,
		relay:  relay,
		logger: logger,
	}
}

// Create validates the target, persists the row, then pushes it to live
// sessions and relays it to telegram. The row is the source of truth: it is
// written before any push so a failed push loses nothing.
func (s *Service) Create(ctx context.Context, dto CreateDTO) (*Notification, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	switch {
	case dto.UserID != nil:
		if _, err := s.users.GetByID(*dto.UserID); err != nil {
			return nil, internal.NewNotFoundError("target user not found", internal.ErrCodeUserNotFound)
		}
	case dto.Role != nil:
		if !user.IsValidRole(*dto.Role) {
			return nil, internal.NewValidationError("unknown role", internal.ErrCodeInvalidRole)
		}
	case dto.Department != nil:
		if !user.IsValidDepartment(*dto.Department) {
			return nil, internal.NewValidationError("unknown department", internal.ErrCodeInvalidDept)
		}
	}

	n := &Notification{
		ID:         uuid.New().String(),
		UserID:     dto.UserID,
		Role:       dto.Role,
		Department: dto.Department,
		Type:       dto.Type,
		Title:      dto.Title,
		Message:    dto.Message,
		URL:        dto.URL,
	}
	if n.Type == "" {
		n.Type = TypeSystem
	}

	if err := s.repo.Create(n); err != nil {
		s.logger.Error("failed to persist notification", "error", err)
		return nil, internal.NewInternalError("could not create notification", err)
	}

	s.logger.Info("notification created", "notification_id", n.ID, "type", n.Type)

	s.push(n)

	// The relay outlives the request but not forever.
	relayCtx, cancel := internal.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	go func() {
		defer cancel()
		s.relayOut(relayCtx, n)
	}()

	return n, nil
}

func (s *Service) push(n *Notification) {
	if s.pusher == nil {
		return
	}
	payload := pushPayload{Event: "notification", Data: n}
	switch {
	case n.UserID != nil:
		s.pusher.SendToUser(*n.UserID, payload)
	case n.Role != nil:
		s.pusher.SendToRole(*n.Role, payload)
	case n.Department != nil:
		s.pusher.SendToDepartment(*n.Department, payload)
	}
}

func (s *Service) relayOut(ctx context.Context, n *Notification) {
	if s.relay == nil {
		return
	}
	text := n.Title
	if n.Message != "" {
		text += "\n" + n.Message
	}
	switch {
	case n.UserID != nil:
		s.relay.SendToUser(ctx, *n.UserID, text)
	case n.Role != nil:
		s.relay.SendToRole(ctx, *n.Role, text)
	case n.Department != nil:
		s.relay.SendToDepartment(ctx, *n.Department, text)
	}
}

// NotifyUser is the convenience entry used by the other services.
func (s *Service) NotifyUser(ctx context.Context, userID int64, typ, title, message, url string) error {
	_, err := s.Create(ctx, CreateDTO{UserID: &userID, Type: typ, Title: title, Message: message, URL: url})
	return err
}

func (s *Service) NotifyRole(ctx context.Context, role, typ, title, message, url string) error {
	_, err := s.Create(ctx, CreateDTO{Role: &role, Type: typ, Title: title, Message: message, URL: url})
	return err
}

func (s *Service) NotifyDepartment(ctx context.Context, department, typ, title, message, url string) error {
	_, err := s.Create(ctx, CreateDTO{Department: &department, Type: typ, Title: title, Message: message, URL: url})
	return err
}

// GetForUser returns the newest rows addressed to the user directly, to the
// user's role, or to the user's department. Capped at 50.
func (s *Service) GetForUser(userID int64) ([]*Notification, error) {
	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	}

	rows, err := s.repo.ListForUser(u.ID, u.Role, u.Department, 50)
	if err != nil {
		s.logger.Error("failed to list notifications", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("could not list notifications", err)
	}
	return rows, nil
}

func (s *Service) UnreadCount(userID int64) (int64, error) {
	u, err := s.users.GetByID(userID)
	if err != nil {
		return 0, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	}

	count, err := s.repo.CountUnread(u.ID, u.Role, u.Department)
	if err != nil {
		s.logger.Error("failed to count unread notifications", "error", err, "user_id", userID)
		return 0, internal.NewInternalError("could not count notifications", err)
	}
	return count, nil
}

// MarkRead flips the read flag. Only the direct addressee, a holder of the
// addressed role or a member of the addressed department may do it.
// Marking an already-read row again is a no-op.
func (s *Service) MarkRead(id string, userID int64) error {
	n, err := s.repo.GetByID(id)
	if err != nil {
		return ErrNotFound
	}

	u, err := s.users.GetByID(userID)
	if err != nil {
		return internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	}

	allowed := (n.UserID != nil && *n.UserID == u.ID) ||
		(n.Role != nil && *n.Role == u.Role) ||
		(n.Department != nil && *n.Department == u.Department)
	if !allowed {
		return ErrForbidden
	}

	if n.IsRead {
		return nil
	}

	if err := s.repo.MarkRead(id); err != nil {
		s.logger.Error("failed to mark notification read", "error", err, "notification_id", id)
		return internal.NewInternalError("could not update notification", err)
	}
	return nil
}
