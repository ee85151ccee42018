package notification_test

import (
	"context"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/helpdeskhq/helpdesk-portal/internal/core/events"
	"github.com/helpdeskhq/helpdesk-portal/internal/notification"
	"github.com/helpdeskhq/helpdesk-portal/internal/user"
)

type inAppCall struct {
	target string
	typ    string
	title  string
}

type mockNotifySender struct {
	calls []inAppCall
}

func (m *mockNotifySender) NotifyUser(ctx context.Context, userID int64, typ, title, message, url string) error {
	m.calls = append(m.calls, inAppCall{target: "user", typ: typ, title: title})
	return nil
}

func (m *mockNotifySender) NotifyRole(ctx context.Context, role, typ, title, message, url string) error {
	m.calls = append(m.calls, inAppCall{target: "role:" + role, typ: typ, title: title})
	return nil
}

type directMessage struct {
	userID int64
	text   string
}

type mockDirectSender struct {
	messages []directMessage
}

func (m *mockDirectSender) SendToUser(ctx context.Context, userID int64, text string) {
	m.messages = append(m.messages, directMessage{userID: userID, text: text})
}

type mockGroupSender struct {
	messages []string
}

func (m *mockGroupSender) SendToGroup(ctx context.Context, text string) {
	m.messages = append(m.messages, text)
}

type mockLogSink struct {
	lines []string
}

func (m *mockLogSink) SendLog(line string) {
	m.lines = append(m.lines, line)
}

type recorderCall struct {
	actionType string
	entityID   *int64
}

type mockRecorder struct {
	calls []recorderCall
}

func (m *mockRecorder) Record(ctx context.Context, actorID *int64, actionType, entityType string, entityID *int64, params interface{}) {
	m.calls = append(m.calls, recorderCall{actionType: actionType, entityID: entityID})
}

var _ = Describe("Notification Subscriber", func() {
	var (
		notifier   *mockNotifySender
		telegram   *mockDirectSender
		group      *mockGroupSender
		logs       *mockLogSink
		audit      *mockRecorder
		subscriber *notification.Subscriber
		ctx        context.Context
	)

	testLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	int64Ptr := func(i int64) *int64 { return &i }

	BeforeEach(func() {
		notifier = &mockNotifySender{}
		telegram = &mockDirectSender{}
		group = &mockGroupSender{}
		logs = &mockLogSink{}
		audit = &mockRecorder{}
		users := &mockNotificationUsers{users: map[int64]*user.User{
			1: {ID: 1, FirstName: "Dana", LastName: "Reyes"},
			2: {ID: 2, FirstName: "Marcus", LastName: "Webb"},
		}}
		subscriber = notification.NewSubscriber(notifier, telegram, group, logs, users, audit, testLogger)
		ctx = context.Background()
	})

	Describe("HandleTicketCreated", func() {
		It("should notify the author, the executor and the superusers in-app", func() {
			event := events.NewTicketCreatedEvent(5, "printer down", "jammed", "HIGH", "NEW", 1, int64Ptr(2))
			Expect(subscriber.HandleTicketCreated(ctx, event)).To(Succeed())

			targets := make([]string, 0, len(notifier.calls))
			for _, c := range notifier.calls {
				targets = append(targets, c.target)
			}
			Expect(targets).To(ConsistOf("user", "user", "role:superuser"))
		})

		It("should DM the author and the executor on telegram", func() {
			event := events.NewTicketCreatedEvent(5, "printer down", "jammed", "HIGH", "NEW", 1, int64Ptr(2))
			Expect(subscriber.HandleTicketCreated(ctx, event)).To(Succeed())

			Expect(telegram.messages).To(HaveLen(2))
			Expect(telegram.messages[0].userID).To(Equal(int64(1)))
			Expect(telegram.messages[1].userID).To(Equal(int64(2)))
		})

		It("should announce the ticket in the group with priority and author", func() {
			event := events.NewTicketCreatedEvent(5, "printer down", "jammed", "HIGH", "NEW", 1, nil)
			Expect(subscriber.HandleTicketCreated(ctx, event)).To(Succeed())

			Expect(group.messages).To(HaveLen(1))
			Expect(group.messages[0]).To(ContainSubstring("#5"))
			Expect(group.messages[0]).To(ContainSubstring("[HIGH]"))
			Expect(group.messages[0]).To(ContainSubstring("Reyes Dana"))
		})

		It("should write an activity line", func() {
			event := events.NewTicketCreatedEvent(5, "printer down", "jammed", "HIGH", "NEW", 1, nil)
			Expect(subscriber.HandleTicketCreated(ctx, event)).To(Succeed())
			Expect(logs.lines).To(HaveLen(1))
			Expect(logs.lines[0]).To(ContainSubstring("request #5 created"))
		})
	})

	Describe("HandleTicketUpdated", func() {
		changes := []events.FieldChange{{Field: "status", Old: "NEW", New: "IN_PROGRESS"}}

		It("should DM the author when someone else edits", func() {
			event := events.NewTicketUpdatedEvent(5, "printer down", "jammed", "HIGH", "IN_PROGRESS", 1, int64Ptr(2), 2, changes, int64Ptr(2))
			Expect(subscriber.HandleTicketUpdated(ctx, event)).To(Succeed())

			Expect(telegram.messages).To(HaveLen(1))
			Expect(telegram.messages[0].userID).To(Equal(int64(1)))
		})

		It("should DM the executor when the author edits their own ticket", func() {
			event := events.NewTicketUpdatedEvent(5, "printer down", "jammed", "HIGH", "IN_PROGRESS", 1, int64Ptr(2), 1, changes, int64Ptr(2))
			Expect(subscriber.HandleTicketUpdated(ctx, event)).To(Succeed())

			Expect(telegram.messages).To(HaveLen(1))
			Expect(telegram.messages[0].userID).To(Equal(int64(2)))
		})

		It("should DM nobody when the author edits an unassigned ticket", func() {
			event := events.NewTicketUpdatedEvent(5, "printer down", "jammed", "HIGH", "NEW", 1, nil, 1, changes, nil)
			Expect(subscriber.HandleTicketUpdated(ctx, event)).To(Succeed())
			Expect(telegram.messages).To(BeEmpty())
		})

		It("should list every changed field in one group message", func() {
			twoChanges := []events.FieldChange{
				{Field: "status", Old: "NEW", New: "IN_PROGRESS"},
				{Field: "priority", Old: "NORMAL", New: "HIGH"},
			}
			event := events.NewTicketUpdatedEvent(5, "printer down", "jammed", "HIGH", "IN_PROGRESS", 1, int64Ptr(2), 2, twoChanges, int64Ptr(2))
			Expect(subscriber.HandleTicketUpdated(ctx, event)).To(Succeed())

			Expect(group.messages).To(HaveLen(1))
			Expect(group.messages[0]).To(ContainSubstring("status: NEW → IN_PROGRESS"))
			Expect(group.messages[0]).To(ContainSubstring("priority: NORMAL → HIGH"))
		})

		It("should stay silent in the group when nothing changed", func() {
			event := events.NewTicketUpdatedEvent(5, "printer down", "jammed", "HIGH", "NEW", 1, int64Ptr(2), 2, nil, int64Ptr(2))
			Expect(subscriber.HandleTicketUpdated(ctx, event)).To(Succeed())
			Expect(group.messages).To(BeEmpty())
		})
	})

	Describe("HandleCommentAdded", func() {
		It("should DM the author when someone else comments", func() {
			event := events.NewCommentAddedEvent(5, "printer down", 9, "looking into it", 1, int64Ptr(2), 2)
			Expect(subscriber.HandleCommentAdded(ctx, event)).To(Succeed())

			Expect(telegram.messages).To(HaveLen(1))
			Expect(telegram.messages[0].userID).To(Equal(int64(1)))
			Expect(telegram.messages[0].text).To(ContainSubstring("looking into it"))
		})

		It("should DM the executor when the author comments", func() {
			event := events.NewCommentAddedEvent(5, "printer down", 9, "still broken", 1, int64Ptr(2), 1)
			Expect(subscriber.HandleCommentAdded(ctx, event)).To(Succeed())

			Expect(telegram.messages).To(HaveLen(1))
			Expect(telegram.messages[0].userID).To(Equal(int64(2)))
		})
	})

	Describe("payload checks", func() {
		It("should reject a mismatched event payload", func() {
			event := events.NewUserRegisteredEvent(3, "Elena", "Petrova", user.DepartmentHR)
			Expect(subscriber.HandleTicketCreated(ctx, event)).To(HaveOccurred())
		})
	})

	Describe("HandleUserRegistered", func() {
		It("should notify the superusers, the group and the audit trail", func() {
			event := events.NewUserRegisteredEvent(3, "Elena", "Petrova", user.DepartmentHR)
			Expect(subscriber.HandleUserRegistered(ctx, event)).To(Succeed())

			Expect(notifier.calls).To(HaveLen(1))
			Expect(notifier.calls[0].target).To(Equal("role:superuser"))
			Expect(notifier.calls[0].typ).To(Equal(notification.TypeUser))

			Expect(group.messages).To(HaveLen(1))
			Expect(group.messages[0]).To(ContainSubstring("Petrova Elena"))

			Expect(audit.calls).To(HaveLen(1))
			Expect(audit.calls[0].actionType).To(Equal("user_created"))
			Expect(*audit.calls[0].entityID).To(Equal(int64(3)))
		})
	})
})
