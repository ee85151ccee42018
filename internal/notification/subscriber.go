package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/helpdeskhq/helpdesk-portal/internal/core/events"
	"github.com/helpdeskhq/helpdesk-portal/internal/user"
)

// LogSink receives human-readable activity lines for the admin stream.
type LogSink interface {
	SendLog(line string)
}

// GroupSender posts to the shared support chat.
type GroupSender interface {
	SendToGroup(ctx context.Context, text string)
}

// Recorder appends rows to the administrative audit trail.
type Recorder interface {
	Record(ctx context.Context, actorID *int64, actionType, entityType string, entityID *int64, params interface{})
}

type notifySender interface {
	NotifyUser(ctx context.Context, userID int64, typ, title, message, url string) error
	NotifyRole(ctx context.Context, role, typ, title, message, url string) error
}

type directUserSender interface {
	SendToUser(ctx context.Context, userID int64, text string)
}

// Subscriber translates domain events into the side-effect channels: in-app
// rows, telegram messages, the live log stream and the audit trail. Every
// channel is best-effort and independent of the others.
type Subscriber struct {
	notifier notifySender
	telegram directUserSender
	group    GroupSender
	logs     LogSink
	users    UserDirectory
	audit    Recorder
	logger   *slog.Logger
}

func NewSubscriber(notifier notifySender, telegram directUserSender, group GroupSender, logs LogSink, users UserDirectory, audit Recorder, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		notifier: notifier,
		telegram: telegram,
		group:    group,
		logs:     logs,
		users:    users,
		audit:    audit,
		logger:   logger,
	}
}

// Register subscribes the handlers on the bus.
func (s *Subscriber) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeTicketCreated, s.HandleTicketCreated)
	bus.Subscribe(events.EventTypeTicketUpdated, s.HandleTicketUpdated)
	bus.Subscribe(events.EventTypeCommentAdded, s.HandleCommentAdded)
	bus.Subscribe(events.EventTypeUserRegistered, s.HandleUserRegistered)
}

func (s *Subscriber) HandleTicketCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.TicketCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	url := fmt.Sprintf("/requests/%d", e.RequestID)
	authorName := s.userName(e.AuthorID)

	s.sendLog(fmt.Sprintf("request #%d created by %s: %s", e.RequestID, authorName, e.Title))

	if s.notifier != nil {
		if err := s.notifier.NotifyUser(ctx, e.AuthorID, TypeRequest, "Request created", e.Title, url); err != nil {
			s.logger.Error("failed to notify request author", "error", err, "request_id", e.RequestID)
		}
		if e.ExecutorID != nil {
			if err := s.notifier.NotifyUser(ctx, *e.ExecutorID, TypeRequest, "Request assigned to you", e.Title, url); err != nil {
				s.logger.Error("failed to notify request executor", "error", err, "request_id", e.RequestID)
			}
		}
		if err := s.notifier.NotifyRole(ctx, user.RoleSuperuser, TypeRequest, "New request", e.Title, url); err != nil {
			s.logger.Error("failed to notify superusers", "error", err, "request_id", e.RequestID)
		}
	}

	if s.telegram != nil {
		s.telegram.SendToUser(ctx, e.AuthorID, fmt.Sprintf("Your request #%d has been registered: %s", e.RequestID, e.Title))
		if e.ExecutorID != nil {
			s.telegram.SendToUser(ctx, *e.ExecutorID, fmt.Sprintf("Request #%d assigned to you: %s", e.RequestID, e.Title))
		}
	}
	if s.group != nil {
		s.group.SendToGroup(ctx, fmt.Sprintf("🆕 Request #%d [%s] from %s: %s", e.RequestID, e.Priority, authorName, e.Title))
	}

	return nil
}

func (s *Subscriber) HandleTicketUpdated(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.TicketUpdatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	editorName := s.userName(e.UpdatedByID)
	s.sendLog(fmt.Sprintf("request #%d updated by %s (%d field(s) changed)", e.RequestID, editorName, len(e.Changes)))

	if s.telegram != nil {
		text := fmt.Sprintf("Request #%d updated: %s", e.RequestID, e.Title)
		if e.UpdatedByID != e.AuthorID {
			s.telegram.SendToUser(ctx, e.AuthorID, text)
		} else if e.ExecutorID != nil && *e.ExecutorID != e.AuthorID {
			s.telegram.SendToUser(ctx, *e.ExecutorID, text)
		}
	}

	// The group only hears about meaningful changes, in one consolidated
	// message listing each changed field.
	if s.group != nil && len(e.Changes) > 0 {
		var sb strings.Builder
		fmt.Fprintf(&sb, "✏️ Request #%d updated by %s:\n", e.RequestID, editorName)
		for _, ch := range e.Changes {
			fmt.Fprintf(&sb, "%s: %s → %s\n", ch.Field, ch.Old, ch.New)
		}
		s.group.SendToGroup(ctx, strings.TrimRight(sb.String(), "\n"))
	}

	return nil
}

func (s *Subscriber) HandleCommentAdded(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.CommentAddedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	s.sendLog(fmt.Sprintf("request #%d commented by %s", e.RequestID, s.userName(e.CommenterID)))

	if s.telegram != nil {
		text := fmt.Sprintf("New comment on request #%d (%s):\n%s", e.RequestID, e.Title, e.CommentText)
		if e.CommenterID != e.AuthorID {
			s.telegram.SendToUser(ctx, e.AuthorID, text)
		} else if e.ExecutorID != nil && *e.ExecutorID != e.CommenterID {
			s.telegram.SendToUser(ctx, *e.ExecutorID, text)
		}
	}

	return nil
}

func (s *Subscriber) HandleUserRegistered(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.UserRegisteredEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	fullName := e.LastName + " " + e.FirstName
	s.sendLog(fmt.Sprintf("user #%d registered: %s (%s)", e.UserID, fullName, e.Department))

	if s.notifier != nil {
		if err := s.notifier.NotifyRole(ctx, user.RoleSuperuser, TypeUser, "New user registered", fullName, fmt.Sprintf("/users/%d", e.UserID)); err != nil {
			s.logger.Error("failed to notify superusers about registration", "error", err, "user_id", e.UserID)
		}
	}
	if s.group != nil {
		s.group.SendToGroup(ctx, fmt.Sprintf("👤 New user registered: %s (%s)", fullName, e.Department))
	}
	if s.audit != nil {
		s.audit.Record(ctx, nil, "user_created", "user", &e.UserID, map[string]interface{}{
			"first_name": e.FirstName,
			"last_name":  e.LastName,
			"department": e.Department,
		})
	}

	return nil
}

func (s *Subscriber) sendLog(line string) {
	if s.logs != nil {
		s.logs.SendLog(line)
	}
}

func (s *Subscriber) userName(id int64) string {
	if s.users == nil {
		return fmt.Sprintf("user #%d", id)
	}
	u, err := s.users.GetByID(id)
	if err != nil {
		return fmt.Sprintf("user #%d", id)
	}
	return u.FullName()
}
