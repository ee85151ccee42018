package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeTicketCreated  = "ticket.created"
	EventTypeTicketUpdated  = "ticket.updated"
	EventTypeCommentAdded   = "ticket.comment_added"
	EventTypeUserRegistered = "user.registered"
)

type TicketCreatedEvent struct {
	BaseEvent
	RequestID  int64  `json:"request_id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Priority   string `json:"priority"`
	Status     string `json:"status"`
	AuthorID   int64  `json:"author_id"`
	ExecutorID *int64 `json:"executor_id,omitempty"`
}

func NewTicketCreatedEvent(requestID int64, title, content, priority, status string, authorID int64, executorID *int64) *TicketCreatedEvent {
	return &TicketCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeTicketCreated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"request_id": requestID,
				"title":      title,
				"author_id":  authorID,
			},
		},
		RequestID:  requestID,
		Title:      title,
		Content:    content,
		Priority:   priority,
		Status:     status,
		AuthorID:   authorID,
		ExecutorID: executorID,
	}
}

// FieldChange carries an old/new pair for one changed ticket attribute.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

type TicketUpdatedEvent struct {
	BaseEvent
	RequestID     int64         `json:"request_id"`
	Title         string        `json:"title"`
	Content       string        `json:"content"`
	Priority      string        `json:"priority"`
	Status        string        `json:"status"`
	AuthorID      int64         `json:"author_id"`
	ExecutorID    *int64        `json:"executor_id,omitempty"`
	UpdatedByID   int64         `json:"updated_by_id"`
	Changes       []FieldChange `json:"changes,omitempty"`
	OldExecutorID *int64        `json:"old_executor_id,omitempty"`
}

func NewTicketUpdatedEvent(requestID int64, title, content, priority, status string, authorID int64, executorID *int64, updatedByID int64, changes []FieldChange, oldExecutorID *int64) *TicketUpdatedEvent {
	return &TicketUpdatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeTicketUpdated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"request_id":    requestID,
				"title":         title,
				"updated_by_id": updatedByID,
			},
		},
		RequestID:     requestID,
		Title:         title,
		Content:       content,
		Priority:      priority,
		Status:        status,
		AuthorID:      authorID,
		ExecutorID:    executorID,
		UpdatedByID:   updatedByID,
		Changes:       changes,
		OldExecutorID: oldExecutorID,
	}
}

type CommentAddedEvent struct {
	BaseEvent
	RequestID   int64  `json:"request_id"`
	Title       string `json:"title"`
	CommentID   int64  `json:"comment_id"`
	CommentText string `json:"comment_text"`
	AuthorID    int64  `json:"author_id"`
	ExecutorID  *int64 `json:"executor_id,omitempty"`
	CommenterID int64  `json:"commenter_id"`
}

func NewCommentAddedEvent(requestID int64, title string, commentID int64, commentText string, authorID int64, executorID *int64, commenterID int64) *CommentAddedEvent {
	return &CommentAddedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeCommentAdded,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"request_id":   requestID,
				"comment_id":   commentID,
				"commenter_id": commenterID,
			},
		},
		RequestID:   requestID,
		Title:       title,
		CommentID:   commentID,
		CommentText: commentText,
		AuthorID:    authorID,
		ExecutorID:  executorID,
		CommenterID: commenterID,
	}
}

type UserRegisteredEvent struct {
	BaseEvent
	UserID     int64  `json:"user_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Department string `json:"department"`
}

func NewUserRegisteredEvent(userID int64, firstName, lastName, department string) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeUserRegistered,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":    userID,
				"last_name":  lastName,
				"first_name": firstName,
			},
		},
		UserID:     userID,
		FirstName:  firstName,
		LastName:   lastName,
		Department: department,
	}
}
