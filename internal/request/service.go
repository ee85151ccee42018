package request

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/helpdeskhq/helpdesk-portal/internal"
	"github.com/helpdeskhq/helpdesk-portal/internal/core/common/sqltypes"
	"github.com/helpdeskhq/helpdesk-portal/internal/core/events"
	"github.com/helpdeskhq/helpdesk-portal/internal/user"
)

// assignmentWindow bounds the workload count used to pick an executor.
// Tickets older than this no longer count against an admin.
const assignmentWindow = 14 * 24 * time.Hour

// Repository defines the data access methods for tickets.
type Repository interface {
	Create(req *Request) error
	GetByID(id int64) (*Request, error)
	List(filter ListFilter) ([]*Request, error)
	Update(id int64, fields map[string]interface{}) (*Request, error)
	Delete(id int64) error
	CreateComment(c *Comment) error
	CountOpenByExecutor(executorIDs []int64, since time.Time) (map[int64]int64, error)
	ListOpenByAuthor(userID int64) ([]*Request, error)
}

// UserDirectory is the slice of the user store the lifecycle needs.
type UserDirectory interface {
	GetByID(id int64) (*user.User, error)
	ListByRole(role string) ([]*user.User, error)
}

// EventPublisher is the slice of the event bus the service needs.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo   Repository
	users  UserDirectory
	bus    EventPublisher
	now    func() time.Time
	logger *slog.Logger
}

func NewService(repo Repository, users UserDirectory, bus EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		users:  users,
		bus:    bus,
		now:    time.Now,
		logger: logger,
	}
}

// Create opens a ticket. The author must exist; the executor is the one
// named in the payload, otherwise picked by workload. The created event
// fans out to the log stream, the in-app notifications and telegram, each
// best-effort.
func (s *Service) Create(ctx context.Context, authorID int64, dto CreateDTO) (*Request, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if dto.UserID != nil {
		authorID = *dto.UserID
	}
	if _, err := s.users.GetByID(authorID); err != nil {
		return nil, internal.NewValidationError("author does not exist", internal.ErrCodeInvalidReference)
	}

	req := &Request{
		Title:    strings.TrimSpace(dto.Title),
		Content:  dto.Content,
		Status:   StatusNew,
		Priority: PriorityNormal,
		Source:   SourceWeb,
		Category: dto.Category,
		UserID:   authorID,
		FileURLs: sqltypes.StringList(dto.FileURLs),
	}
	if dto.Priority != "" {
		req.Priority = strings.ToUpper(dto.Priority)
	}
	if dto.Source != "" {
		req.Source = strings.ToUpper(dto.Source)
	}
	if dto.EquipmentID != nil {
		req.EquipmentID = dto.EquipmentID
	}
	if dto.ExpectedResolutionDate != nil {
		t, _ := parseDate(*dto.ExpectedResolutionDate)
		req.ExpectedResolutionDate = &t
	}

	if dto.ExecutorID != nil {
		if _, err := s.users.GetByID(*dto.ExecutorID); err != nil {
			return nil, internal.NewValidationError("executor does not exist", internal.ErrCodeInvalidReference)
		}
		req.ExecutorID = dto.ExecutorID
		now := s.now()
		req.AssignedAt = &now
	} else if executor := s.leastBusyAdmin(); executor != nil {
		req.ExecutorID = &executor.ID
		now := s.now()
		req.AssignedAt = &now
	}

	if err := s.repo.Create(req); err != nil {
		s.logger.Error("failed to create request", "error", err)
		return nil, internal.NewInternalError("could not create request", err)
	}

	s.logger.Info("request created",
		"request_id", req.ID,
		"author_id", req.UserID,
		"executor_id", formatOptionalID(req.ExecutorID),
		"priority", req.Priority)

	if s.bus != nil {
		_ = s.bus.Publish(ctx, events.NewTicketCreatedEvent(
			req.ID, req.Title, req.Content, req.Priority, req.Status, req.UserID, req.ExecutorID))
	}

	return s.repo.GetByID(req.ID)
}

// leastBusyAdmin picks the admin with the fewest open tickets created
// inside the assignment window. Ties go to whoever the directory lists
// first. Returns nil when there are no admins at all.
func (s *Service) leastBusyAdmin() *user.User {
	admins, err := s.users.ListByRole(user.RoleAdmin)
	if err != nil {
		s.logger.Error("failed to list admins for assignment", "error", err)
		return nil
	}
	if len(admins) == 0 {
		return nil
	}

	ids := make([]int64, len(admins))
	for i, a := range admins {
		ids[i] = a.ID
	}

	counts, err := s.repo.CountOpenByExecutor(ids, s.now().Add(-assignmentWindow))
	if err != nil {
		s.logger.Error("failed to count executor workload", "error", err)
		return admins[0]
	}

	best := admins[0]
	bestCount := counts[best.ID]
	for _, a := range admins[1:] {
		if counts[a.ID] < bestCount {
			best = a
			bestCount = counts[a.ID]
		}
	}
	return best
}

// Update applies a partial patch. The resolution time comes from the
// patch itself; when it is set and the ticket had an assignment, the
// work duration is derived from the two timestamps. Ratings only stick
// when the same patch closes the ticket as DONE or COMPLETED; otherwise
// they are dropped without an error.
func (s *Service) Update(ctx context.Context, id, updatedByID int64, dto UpdateDTO) (*Request, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrNotFound
	}

	fields := map[string]interface{}{}
	var changes []events.FieldChange

	if dto.Title != nil {
		fields["title"] = strings.TrimSpace(*dto.Title)
	}
	if dto.Content != nil {
		fields["content"] = *dto.Content
	}
	if dto.Category != nil {
		fields["category"] = *dto.Category
	}
	if dto.EquipmentID != nil {
		fields["equipment_id"] = *dto.EquipmentID
	}
	if dto.ExpectedResolutionDate != nil {
		t, _ := parseDate(*dto.ExpectedResolutionDate)
		fields["expected_resolution_date"] = t
	}
	if dto.FileURLs != nil {
		fields["file_urls"] = sqltypes.StringList(*dto.FileURLs)
	}

	if dto.Priority != nil {
		newPriority := strings.ToUpper(*dto.Priority)
		if newPriority != current.Priority {
			changes = append(changes, events.FieldChange{Field: "priority", Old: current.Priority, New: newPriority})
		}
		fields["priority"] = newPriority
	}

	newStatus := current.Status
	if dto.Status != nil {
		newStatus = strings.ToUpper(*dto.Status)
		if newStatus != current.Status {
			changes = append(changes, events.FieldChange{Field: "status", Old: current.Status, New: newStatus})
		}
		fields["status"] = newStatus
	}

	if dto.ResolvedAt != nil {
		resolvedAt, _ := parseDate(*dto.ResolvedAt)
		fields["resolved_at"] = resolvedAt
		if current.AssignedAt != nil {
			minutes := int(math.Round(resolvedAt.Sub(*current.AssignedAt).Minutes()))
			fields["work_duration_minutes"] = minutes
		}
	}

	if dto.ExecutorID != nil {
		if _, err := s.users.GetByID(*dto.ExecutorID); err != nil {
			return nil, internal.NewValidationError("executor does not exist", internal.ErrCodeInvalidReference)
		}
		if current.ExecutorID == nil || *current.ExecutorID != *dto.ExecutorID {
			changes = append(changes, events.FieldChange{
				Field: "executor",
				Old:   formatOptionalID(current.ExecutorID),
				New:   strconv.FormatInt(*dto.ExecutorID, 10),
			})
		}
		fields["executor_id"] = *dto.ExecutorID
		if current.AssignedAt == nil {
			fields["assigned_at"] = s.now()
		}
	}

	if dto.Rating != nil || dto.Feedback != nil {
		if AcceptsRating(newStatus) && dto.Status != nil {
			if dto.Rating != nil {
				fields["rating"] = *dto.Rating
			}
			if dto.Feedback != nil {
				fields["feedback"] = *dto.Feedback
			}
		} else {
			s.logger.Info("rating dropped: patch does not close the ticket", "request_id", id, "status", newStatus)
		}
	}

	updated, err := s.repo.Update(id, fields)
	if err != nil {
		s.logger.Error("failed to update request", "error", err, "request_id", id)
		return nil, internal.NewInternalError("could not update request", err)
	}

	s.logger.Info("request updated", "request_id", id, "updated_by", updatedByID, "changed_fields", len(changes))

	if s.bus != nil {
		_ = s.bus.Publish(ctx, events.NewTicketUpdatedEvent(
			updated.ID, updated.Title, updated.Content, updated.Priority, updated.Status,
			updated.UserID, updated.ExecutorID, updatedByID, changes, current.ExecutorID))
	}

	return updated, nil
}

// AddComment appends an immutable note and fans the event out.
func (s *Service) AddComment(ctx context.Context, requestID, commenterID int64, dto CommentDTO) (*Comment, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	req, err := s.repo.GetByID(requestID)
	if err != nil {
		return nil, ErrNotFound
	}
	if _, err := s.users.GetByID(commenterID); err != nil {
		return nil, internal.NewNotFoundError("commenter not found", internal.ErrCodeUserNotFound)
	}

	c := &Comment{
		RequestID: requestID,
		UserID:    commenterID,
		Content:   dto.Content,
	}
	if err := s.repo.CreateComment(c); err != nil {
		s.logger.Error("failed to create comment", "error", err, "request_id", requestID)
		return nil, internal.NewInternalError("could not create comment", err)
	}

	s.logger.Info("comment added", "request_id", requestID, "comment_id", c.ID, "commenter_id", commenterID)

	if s.bus != nil {
		_ = s.bus.Publish(ctx, events.NewCommentAddedEvent(
			req.ID, req.Title, c.ID, c.Content, req.UserID, req.ExecutorID, commenterID))
	}

	return c, nil
}

func (s *Service) GetByID(id int64) (*Request, error) {
	req, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get request", "error", err, "request_id", id)
		return nil, ErrNotFound
	}
	return req, nil
}

func (s *Service) List(filter ListFilter) ([]*Request, error) {
	items, err := s.repo.List(filter)
	if err != nil {
		s.logger.Error("failed to list requests", "error", err)
		return nil, internal.NewInternalError("could not list requests", err)
	}
	return items, nil
}

func (s *Service) Delete(id int64) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return ErrNotFound
	}
	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete request", "error", err, "request_id", id)
		return internal.NewInternalError("could not delete request", err)
	}
	s.logger.Info("request deleted", "request_id", id)
	return nil
}

// ListOpenByAuthor backs the telegram /mytickets command.
func (s *Service) ListOpenByAuthor(userID int64) ([]*Request, error) {
	return s.repo.ListOpenByAuthor(userID)
}

func formatOptionalID(id *int64) string {
	if id == nil {
		return "unassigned"
	}
	return strconv.FormatInt(*id, 10)
}
