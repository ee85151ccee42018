package request_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/helpdeskhq/helpdesk-portal/internal"
	"github.com/helpdeskhq/helpdesk-portal/internal/core/common/sqltypes"
	"github.com/helpdeskhq/helpdesk-portal/internal/core/events"
	"github.com/helpdeskhq/helpdesk-portal/internal/request"
	"github.com/helpdeskhq/helpdesk-portal/internal/user"
)

func TestRequestService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Request Service Suite")
}

// Mock repository for testing
type mockRequestRepository struct {
	requests    map[int64]*request.Request
	comments    []*request.Comment
	openCounts  map[int64]int64
	countSince  time.Time
	createError error
	countError  error
	updateError error
	nextID      int64
}

func newMockRequestRepository() *mockRequestRepository {
	return &mockRequestRepository{
		requests:   make(map[int64]*request.Request),
		openCounts: make(map[int64]int64),
		nextID:     1,
	}
}

func (m *mockRequestRepository) Create(req *request.Request) error {
	if m.createError != nil {
		return m.createError
	}
	req.ID = m.nextID
	m.nextID++
	req.CreatedAt = time.Now()
	m.requests[req.ID] = req
	return nil
}

func (m *mockRequestRepository) GetByID(id int64) (*request.Request, error) {
	req, exists := m.requests[id]
	if !exists {
		return nil, errors.New("request not found")
	}
	copied := *req
	return &copied, nil
}

func (m *mockRequestRepository) List(filter request.ListFilter) ([]*request.Request, error) {
	out := make([]*request.Request, 0, len(m.requests))
	for _, req := range m.requests {
		out = append(out, req)
	}
	return out, nil
}

func (m *mockRequestRepository) Update(id int64, fields map[string]interface{}) (*request.Request, error) {
	if m.updateError != nil {
		return nil, m.updateError
	}
	req, exists := m.requests[id]
	if !exists {
		return nil, errors.New("request not found")
	}
	for key, value := range fields {
		switch key {
		case "title":
			req.Title = value.(string)
		case "content":
			req.Content = value.(string)
		case "status":
			req.Status = value.(string)
		case "priority":
			req.Priority = value.(string)
		case "executor_id":
			v := value.(int64)
			req.ExecutorID = &v
		case "assigned_at":
			v := value.(time.Time)
			req.AssignedAt = &v
		case "resolved_at":
			v := value.(time.Time)
			req.ResolvedAt = &v
		case "work_duration_minutes":
			v := value.(int)
			req.WorkDurationMinutes = &v
		case "file_urls":
			req.FileURLs = value.(sqltypes.StringList)
		case "rating":
			v := value.(int)
			req.Rating = &v
		case "feedback":
			req.Feedback = value.(string)
		}
	}
	copied := *req
	return &copied, nil
}

func (m *mockRequestRepository) Delete(id int64) error {
	delete(m.requests, id)
	return nil
}

func (m *mockRequestRepository) CreateComment(c *request.Comment) error {
	c.ID = m.nextID
	m.nextID++
	m.comments = append(m.comments, c)
	return nil
}

func (m *mockRequestRepository) CountOpenByExecutor(executorIDs []int64, since time.Time) (map[int64]int64, error) {
	m.countSince = since
	if m.countError != nil {
		return nil, m.countError
	}
	out := make(map[int64]int64)
	for _, id := range executorIDs {
		if c, ok := m.openCounts[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (m *mockRequestRepository) ListOpenByAuthor(userID int64) ([]*request.Request, error) {
	var out []*request.Request
	for _, req := range m.requests {
		if req.UserID == userID && !request.IsClosedStatus(req.Status) {
			out = append(out, req)
		}
	}
	return out, nil
}

type mockUserDirectory struct {
	users  map[int64]*user.User
	admins []*user.User
}

func newMockUserDirectory() *mockUserDirectory {
	return &mockUserDirectory{users: make(map[int64]*user.User)}
}

func (m *mockUserDirectory) add(u *user.User) {
	m.users[u.ID] = u
	if u.Role == user.RoleAdmin {
		m.admins = append(m.admins, u)
	}
}

func (m *mockUserDirectory) GetByID(id int64) (*user.User, error) {
	u, exists := m.users[id]
	if !exists {
		return nil, errors.New("user not found")
	}
	return u, nil
}

func (m *mockUserDirectory) ListByRole(role string) ([]*user.User, error) {
	if role == user.RoleAdmin {
		return m.admins, nil
	}
	return nil, nil
}

type mockEventBus struct {
	published []events.Event
}

func (m *mockEventBus) Publish(ctx context.Context, event events.Event) error {
	m.published = append(m.published, event)
	return nil
}

func (m *mockEventBus) lastOfType(eventType string) events.Event {
	for i := len(m.published) - 1; i >= 0; i-- {
		if m.published[i].EventType() == eventType {
			return m.published[i]
		}
	}
	return nil
}

var _ = Describe("Request Service", func() {
	var (
		repo    *mockRequestRepository
		users   *mockUserDirectory
		bus     *mockEventBus
		service *request.Service
		ctx     context.Context
	)

	testLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	strPtr := func(s string) *string { return &s }
	intPtr := func(i int) *int { return &i }
	int64Ptr := func(i int64) *int64 { return &i }

	BeforeEach(func() {
		repo = newMockRequestRepository()
		users = newMockUserDirectory()
		bus = &mockEventBus{}
		service = request.NewService(repo, users, bus, testLogger)
		ctx = context.Background()

		users.add(&user.User{ID: 1, FirstName: "Dana", LastName: "Reyes", Role: user.RoleUser})
	})

	Describe("Create", func() {
		It("should reject an empty title", func() {
			_, err := service.Create(ctx, 1, request.CreateDTO{Title: "   ", Content: "broken"})
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidTitle))
		})

		It("should reject an unknown author", func() {
			_, err := service.Create(ctx, 99, request.CreateDTO{Title: "printer", Content: "jammed"})
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidReference))
		})

		It("should default status, priority and source", func() {
			created, err := service.Create(ctx, 1, request.CreateDTO{Title: "printer", Content: "jammed"})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Status).To(Equal(request.StatusNew))
			Expect(created.Priority).To(Equal(request.PriorityNormal))
			Expect(created.Source).To(Equal(request.SourceWeb))
		})

		It("should leave the ticket unassigned when there are no admins", func() {
			created, err := service.Create(ctx, 1, request.CreateDTO{Title: "printer", Content: "jammed"})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.ExecutorID).To(BeNil())
			Expect(created.AssignedAt).To(BeNil())
		})

		It("should assign the admin with the fewest recent open tickets", func() {
			users.add(&user.User{ID: 10, FirstName: "Marcus", LastName: "Webb", Role: user.RoleAdmin})
			users.add(&user.User{ID: 11, FirstName: "Elena", LastName: "Petrova", Role: user.RoleAdmin})
			users.add(&user.User{ID: 12, FirstName: "Ivan", LastName: "Sato", Role: user.RoleAdmin})
			repo.openCounts[10] = 3
			repo.openCounts[11] = 1
			repo.openCounts[12] = 2

			created, err := service.Create(ctx, 1, request.CreateDTO{Title: "printer", Content: "jammed"})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.ExecutorID).NotTo(BeNil())
			Expect(*created.ExecutorID).To(Equal(int64(11)))
			Expect(created.AssignedAt).NotTo(BeNil())
		})

		It("should break workload ties in directory order", func() {
			users.add(&user.User{ID: 10, FirstName: "Marcus", LastName: "Webb", Role: user.RoleAdmin})
			users.add(&user.User{ID: 11, FirstName: "Elena", LastName: "Petrova", Role: user.RoleAdmin})
			repo.openCounts[10] = 2
			repo.openCounts[11] = 2

			created, err := service.Create(ctx, 1, request.CreateDTO{Title: "printer", Content: "jammed"})
			Expect(err).NotTo(HaveOccurred())
			Expect(*created.ExecutorID).To(Equal(int64(10)))
		})

		It("should only count tickets inside the assignment window", func() {
			users.add(&user.User{ID: 10, FirstName: "Marcus", LastName: "Webb", Role: user.RoleAdmin})

			before := time.Now().Add(-14 * 24 * time.Hour)
			_, err := service.Create(ctx, 1, request.CreateDTO{Title: "printer", Content: "jammed"})
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.countSince).To(BeTemporally("~", before, time.Minute))
		})

		It("should fall back to the first admin when the workload count fails", func() {
			users.add(&user.User{ID: 10, FirstName: "Marcus", LastName: "Webb", Role: user.RoleAdmin})
			users.add(&user.User{ID: 11, FirstName: "Elena", LastName: "Petrova", Role: user.RoleAdmin})
			repo.countError = errors.New("db down")

			created, err := service.Create(ctx, 1, request.CreateDTO{Title: "printer", Content: "jammed"})
			Expect(err).NotTo(HaveOccurred())
			Expect(*created.ExecutorID).To(Equal(int64(10)))
		})

		It("should publish a created event", func() {
			_, err := service.Create(ctx, 1, request.CreateDTO{Title: "printer", Content: "jammed"})
			Expect(err).NotTo(HaveOccurred())
			Expect(bus.lastOfType(events.EventTypeTicketCreated)).NotTo(BeNil())
		})

		It("should let an admin open a ticket on behalf of another user", func() {
			users.add(&user.User{ID: 5, FirstName: "Priya", LastName: "Nair", Role: user.RoleUser})

			created, err := service.Create(ctx, 1, request.CreateDTO{Title: "printer", Content: "jammed", UserID: int64Ptr(5)})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.UserID).To(Equal(int64(5)))
		})

		It("should honor an explicitly named executor over the workload pick", func() {
			users.add(&user.User{ID: 10, FirstName: "Marcus", LastName: "Webb", Role: user.RoleAdmin})
			users.add(&user.User{ID: 11, FirstName: "Elena", LastName: "Petrova", Role: user.RoleAdmin})
			repo.openCounts[10] = 0
			repo.openCounts[11] = 5

			created, err := service.Create(ctx, 1, request.CreateDTO{Title: "printer", Content: "jammed", ExecutorID: int64Ptr(11)})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.ExecutorID).NotTo(BeNil())
			Expect(*created.ExecutorID).To(Equal(int64(11)))
			Expect(created.AssignedAt).NotTo(BeNil())
		})

		It("should reject an unknown executor named at creation", func() {
			_, err := service.Create(ctx, 1, request.CreateDTO{Title: "printer", Content: "jammed", ExecutorID: int64Ptr(404)})
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidReference))
		})
	})

	Describe("Update", func() {
		var ticketID int64

		BeforeEach(func() {
			created, err := service.Create(ctx, 1, request.CreateDTO{Title: "printer", Content: "jammed"})
			Expect(err).NotTo(HaveOccurred())
			ticketID = created.ID
		})

		It("should reject an unknown status", func() {
			_, err := service.Update(ctx, ticketID, 1, request.UpdateDTO{Status: strPtr("LOST")})
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidStatus))
		})

		It("should uppercase the incoming status", func() {
			updated, err := service.Update(ctx, ticketID, 1, request.UpdateDTO{Status: strPtr("in_progress")})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(request.StatusInProgress))
		})

		It("should store the resolution time carried by the patch", func() {
			updated, err := service.Update(ctx, ticketID, 1, request.UpdateDTO{
				Status:     strPtr("DONE"),
				ResolvedAt: strPtr("2026-03-14T15:00:00Z"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.ResolvedAt).NotTo(BeNil())
			Expect(*updated.ResolvedAt).To(BeTemporally("==", time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)))
		})

		It("should derive the work duration from the carried resolution time", func() {
			assignedAt := time.Date(2026, 3, 14, 13, 30, 0, 0, time.UTC)
			repo.requests[ticketID].AssignedAt = &assignedAt

			updated, err := service.Update(ctx, ticketID, 1, request.UpdateDTO{ResolvedAt: strPtr("2026-03-14T15:00:00Z")})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.WorkDurationMinutes).NotTo(BeNil())
			Expect(*updated.WorkDurationMinutes).To(Equal(90))
		})

		It("should leave the work duration empty when the ticket was never assigned", func() {
			repo.requests[ticketID].AssignedAt = nil

			updated, err := service.Update(ctx, ticketID, 1, request.UpdateDTO{
				Status:     strPtr("REJECTED"),
				ResolvedAt: strPtr("2026-03-14T15:00:00Z"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.ResolvedAt).NotTo(BeNil())
			Expect(updated.WorkDurationMinutes).To(BeNil())
		})

		It("should not touch the resolution fields on a status-only closing patch", func() {
			assignedAt := time.Now().Add(-time.Hour)
			repo.requests[ticketID].AssignedAt = &assignedAt

			updated, err := service.Update(ctx, ticketID, 1, request.UpdateDTO{Status: strPtr("DONE")})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(request.StatusDone))
			Expect(updated.ResolvedAt).To(BeNil())
			Expect(updated.WorkDurationMinutes).To(BeNil())
		})

		It("should reject a malformed resolution time", func() {
			_, err := service.Update(ctx, ticketID, 1, request.UpdateDTO{ResolvedAt: strPtr("yesterday")})
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidDate))
		})

		It("should replace the attachment list when the patch carries one", func() {
			urls := []string{"/uploads/diagram.png", "/uploads/invoice.pdf"}
			updated, err := service.Update(ctx, ticketID, 1, request.UpdateDTO{FileURLs: &urls})
			Expect(err).NotTo(HaveOccurred())
			Expect([]string(updated.FileURLs)).To(Equal(urls))
		})

		It("should clear the attachments on an explicit empty list", func() {
			repo.requests[ticketID].FileURLs = sqltypes.StringList{"/uploads/old.png"}

			empty := []string{}
			updated, err := service.Update(ctx, ticketID, 1, request.UpdateDTO{FileURLs: &empty})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.FileURLs).To(BeEmpty())
		})

		It("should store the rating when the same patch closes the ticket", func() {
			updated, err := service.Update(ctx, ticketID, 1, request.UpdateDTO{
				Status:   strPtr("DONE"),
				Rating:   intPtr(5),
				Feedback: strPtr("fast and friendly"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Rating).NotTo(BeNil())
			Expect(*updated.Rating).To(Equal(5))
			Expect(updated.Feedback).To(Equal("fast and friendly"))
		})

		It("should silently drop a rating sent without a closing status", func() {
			updated, err := service.Update(ctx, ticketID, 1, request.UpdateDTO{Rating: intPtr(4)})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Rating).To(BeNil())
		})

		It("should drop a rating when the patch rejects the ticket", func() {
			updated, err := service.Update(ctx, ticketID, 1, request.UpdateDTO{
				Status: strPtr("REJECTED"),
				Rating: intPtr(1),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Rating).To(BeNil())
		})

		It("should reject a rating outside 1..5", func() {
			_, err := service.Update(ctx, ticketID, 1, request.UpdateDTO{Status: strPtr("DONE"), Rating: intPtr(6)})
			Expect(err).To(HaveOccurred())
		})

		It("should reject an unknown executor", func() {
			_, err := service.Update(ctx, ticketID, 1, request.UpdateDTO{ExecutorID: int64Ptr(404)})
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidReference))
		})

		It("should stamp assigned_at on the first executor assignment only", func() {
			users.add(&user.User{ID: 10, FirstName: "Marcus", LastName: "Webb", Role: user.RoleAdmin})
			users.add(&user.User{ID: 11, FirstName: "Elena", LastName: "Petrova", Role: user.RoleAdmin})

			first, err := service.Update(ctx, ticketID, 1, request.UpdateDTO{ExecutorID: int64Ptr(10)})
			Expect(err).NotTo(HaveOccurred())
			Expect(first.AssignedAt).NotTo(BeNil())

			second, err := service.Update(ctx, ticketID, 1, request.UpdateDTO{ExecutorID: int64Ptr(11)})
			Expect(err).NotTo(HaveOccurred())
			Expect(*second.AssignedAt).To(Equal(*first.AssignedAt))
		})

		It("should publish the field changes with the event", func() {
			updated, err := service.Update(ctx, ticketID, 1, request.UpdateDTO{Status: strPtr("IN_PROGRESS"), Priority: strPtr("HIGH")})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Priority).To(Equal(request.PriorityHigh))

			event := bus.lastOfType(events.EventTypeTicketUpdated)
			Expect(event).NotTo(BeNil())
			updatedEvent, ok := event.(*events.TicketUpdatedEvent)
			Expect(ok).To(BeTrue())
			Expect(updatedEvent.Changes).To(HaveLen(2))
		})

		It("should publish no changes when the patch repeats current values", func() {
			_, err := service.Update(ctx, ticketID, 1, request.UpdateDTO{Priority: strPtr("NORMAL")})
			Expect(err).NotTo(HaveOccurred())

			event := bus.lastOfType(events.EventTypeTicketUpdated)
			Expect(event).NotTo(BeNil())
			updatedEvent, ok := event.(*events.TicketUpdatedEvent)
			Expect(ok).To(BeTrue())
			Expect(updatedEvent.Changes).To(BeEmpty())
		})
	})

	Describe("AddComment", func() {
		var ticketID int64

		BeforeEach(func() {
			created, err := service.Create(ctx, 1, request.CreateDTO{Title: "printer", Content: "jammed"})
			Expect(err).NotTo(HaveOccurred())
			ticketID = created.ID
		})

		It("should reject an empty comment", func() {
			_, err := service.AddComment(ctx, ticketID, 1, request.CommentDTO{Content: "  "})
			Expect(err).To(HaveOccurred())
		})

		It("should report an unknown commenter as not found", func() {
			_, err := service.AddComment(ctx, ticketID, 42, request.CommentDTO{Content: "any update?"})
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeUserNotFound))
			Expect(appErr.StatusCode).To(Equal(404))
		})

		It("should store the comment and publish the event", func() {
			comment, err := service.AddComment(ctx, ticketID, 1, request.CommentDTO{Content: "any update?"})
			Expect(err).NotTo(HaveOccurred())
			Expect(comment.ID).NotTo(BeZero())
			Expect(bus.lastOfType(events.EventTypeCommentAdded)).NotTo(BeNil())
		})

		It("should fail for a missing ticket", func() {
			_, err := service.AddComment(ctx, 999, 1, request.CommentDTO{Content: "hello"})
			Expect(err).To(Equal(request.ErrNotFound))
		})
	})

	Describe("ListOpenByAuthor", func() {
		It("should exclude closed tickets", func() {
			created, err := service.Create(ctx, 1, request.CreateDTO{Title: "printer", Content: "jammed"})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Create(ctx, 1, request.CreateDTO{Title: "monitor", Content: "flicker"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Update(ctx, created.ID, 1, request.UpdateDTO{Status: strPtr("DONE")})
			Expect(err).NotTo(HaveOccurred())

			open, err := service.ListOpenByAuthor(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(open).To(HaveLen(1))
			Expect(open[0].Title).To(Equal("monitor"))
		})
	})
})
