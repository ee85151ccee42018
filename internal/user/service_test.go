package user_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/helpdeskhq/helpdesk-portal/internal/core/events"
	"github.com/helpdeskhq/helpdesk-portal/internal/user"
)

func TestUserService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Service Suite")
}

// Mock repository for testing
type mockUserRepository struct {
	users       map[int64]*user.User
	createError error
	nextID      int64
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[int64]*user.User), nextID: 1}
}

func (m *mockUserRepository) Create(u *user.User) error {
	if m.createError != nil {
		return m.createError
	}
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepository) GetByID(id int64) (*user.User, error) {
	u, exists := m.users[id]
	if !exists {
		return nil, errors.New("user not found")
	}
	return u, nil
}

func (m *mockUserRepository) GetByPersonalID(normalizedID string) (*user.User, error) {
	for _, u := range m.users {
		if u.PersonalID == normalizedID {
			return u, nil
		}
	}
	return nil, errors.New("user not found")
}

func (m *mockUserRepository) GetByPhone(normalizedPhone string) (*user.User, error) {
	for _, u := range m.users {
		if u.MobilePhone == normalizedPhone {
			return u, nil
		}
	}
	return nil, errors.New("user not found")
}

func (m *mockUserRepository) GetByTelegramChatID(chatID int64) (*user.User, error) {
	for _, u := range m.users {
		if u.TelegramChatID != nil && *u.TelegramChatID == chatID {
			return u, nil
		}
	}
	return nil, errors.New("user not found")
}

func (m *mockUserRepository) List() ([]*user.User, error) {
	out := make([]*user.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockUserRepository) ListByRole(role string) ([]*user.User, error) {
	var out []*user.User
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockUserRepository) ListByDepartment(department string) ([]*user.User, error) {
	var out []*user.User
	for _, u := range m.users {
		if u.Department == department {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockUserRepository) Update(id int64, fields map[string]interface{}) (*user.User, error) {
	u, exists := m.users[id]
	if !exists {
		return nil, errors.New("user not found")
	}
	for key, value := range fields {
		switch key {
		case "first_name":
			u.FirstName = value.(string)
		case "mobile_phone":
			u.MobilePhone = value.(string)
		case "role":
			u.Role = value.(string)
		case "password_hash":
			u.PasswordHash = value.(string)
		case "telegram_chat_id":
			v := value.(int64)
			u.TelegramChatID = &v
		}
	}
	return u, nil
}

func (m *mockUserRepository) Delete(id int64) error {
	delete(m.users, id)
	return nil
}

type mockUserEventBus struct {
	published []events.Event
}

func (m *mockUserEventBus) Publish(ctx context.Context, event events.Event) error {
	m.published = append(m.published, event)
	return nil
}

var _ = Describe("User Service", func() {
	var (
		repo    *mockUserRepository
		bus     *mockUserEventBus
		service *user.Service
		ctx     context.Context
	)

	testLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	validDTO := func() user.RegisterDTO {
		return user.RegisterDTO{
			FirstName:   "Dana",
			LastName:    "Reyes",
			Password:    "secret-pass",
			BirthDate:   "1990-04-12",
			PersonalID:  "1234567890",
			MobilePhone: "8 (912) 345-67-89",
			Department:  user.DepartmentIT,
		}
	}

	BeforeEach(func() {
		repo = newMockUserRepository()
		bus = &mockUserEventBus{}
		service = user.NewService(repo, bus, bcrypt.MinCost, testLogger)
		ctx = context.Background()
	})

	Describe("Register", func() {
		It("should create the account with a hashed password", func() {
			u, err := service.Register(ctx, validDTO())
			Expect(err).NotTo(HaveOccurred())
			Expect(u.ID).NotTo(BeZero())
			Expect(u.PasswordHash).NotTo(Equal("secret-pass"))
			Expect(bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret-pass"))).To(Succeed())
		})

		It("should default the role to user", func() {
			u, err := service.Register(ctx, validDTO())
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Role).To(Equal(user.RoleUser))
		})

		It("should normalize the mobile phone", func() {
			u, err := service.Register(ctx, validDTO())
			Expect(err).NotTo(HaveOccurred())
			Expect(u.MobilePhone).To(Equal("+79123456789"))
		})

		It("should reject a duplicate personal id", func() {
			_, err := service.Register(ctx, validDTO())
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Register(ctx, validDTO())
			Expect(err).To(Equal(user.ErrDuplicatePersonalID))
		})

		It("should reject a short password", func() {
			dto := validDTO()
			dto.Password = "abc"
			_, err := service.Register(ctx, dto)
			Expect(err).To(HaveOccurred())
		})

		It("should reject an unknown department", func() {
			dto := validDTO()
			dto.Department = "WAREHOUSE"
			_, err := service.Register(ctx, dto)
			Expect(err).To(HaveOccurred())
		})

		It("should reject an unknown role", func() {
			dto := validDTO()
			dto.Role = "root"
			_, err := service.Register(ctx, dto)
			Expect(err).To(HaveOccurred())
		})

		It("should publish a registration event", func() {
			_, err := service.Register(ctx, validDTO())
			Expect(err).NotTo(HaveOccurred())
			Expect(bus.published).To(HaveLen(1))
			Expect(bus.published[0].EventType()).To(Equal(events.EventTypeUserRegistered))
		})
	})

	Describe("FindByPhone", func() {
		It("should match loosely formatted numbers", func() {
			created, err := service.Register(ctx, validDTO())
			Expect(err).NotTo(HaveOccurred())

			found, err := service.FindByPhone("+7 912 345 67 89")
			Expect(err).NotTo(HaveOccurred())
			Expect(found.ID).To(Equal(created.ID))
		})

		It("should fail for an unknown number", func() {
			_, err := service.FindByPhone("+70000000000")
			Expect(err).To(Equal(user.ErrNotFound))
		})
	})

	Describe("LinkTelegram", func() {
		It("should store the chat id and resolve it back", func() {
			created, err := service.Register(ctx, validDTO())
			Expect(err).NotTo(HaveOccurred())

			Expect(service.LinkTelegram(created.ID, 555001)).To(Succeed())

			found, err := service.FindByChatID(555001)
			Expect(err).NotTo(HaveOccurred())
			Expect(found.ID).To(Equal(created.ID))
		})
	})

	Describe("AdminUpdate", func() {
		It("should rehash a changed password", func() {
			created, err := service.Register(ctx, validDTO())
			Expect(err).NotTo(HaveOccurred())
			oldHash := created.PasswordHash

			newPass := "another-pass"
			updated, err := service.AdminUpdate(created.ID, user.AdminUpdateDTO{Password: &newPass})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.PasswordHash).NotTo(Equal(oldHash))
			Expect(bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte(newPass))).To(Succeed())
		})

		It("should change the role", func() {
			created, err := service.Register(ctx, validDTO())
			Expect(err).NotTo(HaveOccurred())

			role := user.RoleAdmin
			updated, err := service.AdminUpdate(created.ID, user.AdminUpdateDTO{Role: &role})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Role).To(Equal(user.RoleAdmin))
		})
	})

	Describe("List", func() {
		It("should return public profiles without password material", func() {
			_, err := service.Register(ctx, validDTO())
			Expect(err).NotTo(HaveOccurred())

			profiles, err := service.List()
			Expect(err).NotTo(HaveOccurred())
			Expect(profiles).To(HaveLen(1))
			Expect(profiles[0].FirstName).To(Equal("Dana"))
		})
	})

	Describe("Delete", func() {
		It("should fail for a missing user", func() {
			Expect(service.Delete(404)).To(Equal(user.ErrNotFound))
		})

		It("should remove the user", func() {
			created, err := service.Register(ctx, validDTO())
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Delete(created.ID)).To(Succeed())
			_, err = service.GetByID(created.ID)
			Expect(err).To(Equal(user.ErrNotFound))
		})
	})
})
