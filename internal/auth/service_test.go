package auth_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/helpdeskhq/helpdesk-portal/internal/auth"
	"github.com/helpdeskhq/helpdesk-portal/internal/user"
)

func TestAuthService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Service Suite")
}

// Mock user repository for testing
type mockAuthUserRepository struct {
	byPersonalID map[string]*user.User
	byID         map[int64]*user.User
}

func newMockAuthUserRepository() *mockAuthUserRepository {
	return &mockAuthUserRepository{
		byPersonalID: make(map[string]*user.User),
		byID:         make(map[int64]*user.User),
	}
}

func (m *mockAuthUserRepository) add(u *user.User) {
	m.byPersonalID[u.PersonalID] = u
	m.byID[u.ID] = u
}

func (m *mockAuthUserRepository) GetByPersonalID(normalizedID string) (*user.User, error) {
	u, exists := m.byPersonalID[normalizedID]
	if !exists {
		return nil, errors.New("user not found")
	}
	return u, nil
}

func (m *mockAuthUserRepository) GetByID(id int64) (*user.User, error) {
	u, exists := m.byID[id]
	if !exists {
		return nil, errors.New("user not found")
	}
	return u, nil
}

var _ = Describe("Auth Service", func() {
	var (
		repo    *mockAuthUserRepository
		service *auth.Service
	)

	testLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	BeforeEach(func() {
		repo = newMockAuthUserRepository()
		tokenGen := auth.NewJWTTokenGenerator("test-secret", time.Hour)
		service = auth.NewService(repo, tokenGen, testLogger)

		hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
		repo.add(&user.User{
			ID:           7,
			PersonalID:   "1234567890",
			FirstName:    "Dana",
			LastName:     "Reyes",
			Role:         user.RoleAdmin,
			Department:   user.DepartmentIT,
			PasswordHash: string(hash),
		})
	})

	Describe("Authenticate", func() {
		It("should return a principal and a token for valid credentials", func() {
			principal, token, err := service.Authenticate(auth.LoginDTO{PersonalID: "1234567890", Password: "correct-horse"})
			Expect(err).NotTo(HaveOccurred())
			Expect(principal.ID).To(Equal(int64(7)))
			Expect(principal.Role).To(Equal(user.RoleAdmin))
			Expect(token).NotTo(BeEmpty())
		})

		It("should normalize the personal id before lookup", func() {
			_, token, err := service.Authenticate(auth.LoginDTO{PersonalID: "1234 5678 90", Password: "correct-horse"})
			Expect(err).NotTo(HaveOccurred())
			Expect(token).NotTo(BeEmpty())
		})

		It("should reject a wrong password", func() {
			_, _, err := service.Authenticate(auth.LoginDTO{PersonalID: "1234567890", Password: "nope"})
			Expect(err).To(Equal(auth.ErrInvalidCredentials))
		})

		It("should reject an unknown personal id", func() {
			_, _, err := service.Authenticate(auth.LoginDTO{PersonalID: "0000000000", Password: "correct-horse"})
			Expect(err).To(Equal(auth.ErrInvalidCredentials))
		})

		It("should reject an account with no password set", func() {
			repo.add(&user.User{ID: 8, PersonalID: "1111111111"})
			_, _, err := service.Authenticate(auth.LoginDTO{PersonalID: "1111111111", Password: "anything"})
			Expect(err).To(Equal(auth.ErrInvalidCredentials))
		})

		It("should reject missing credentials", func() {
			_, _, err := service.Authenticate(auth.LoginDTO{})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ValidateAccessToken", func() {
		It("should round-trip the principal through the token", func() {
			principal, token, err := service.Authenticate(auth.LoginDTO{PersonalID: "1234567890", Password: "correct-horse"})
			Expect(err).NotTo(HaveOccurred())

			claims, err := service.ValidateAccessToken(token)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Subject).To(Equal("7"))
			Expect(claims.Role).To(Equal(principal.Role))
			Expect(claims.Department).To(Equal(user.DepartmentIT))
		})

		It("should reject garbage tokens", func() {
			_, err := service.ValidateAccessToken("not-a-token")
			Expect(err).To(Equal(auth.ErrInvalidToken))
		})

		It("should reject an expired token", func() {
			expiredGen := auth.NewJWTTokenGenerator("test-secret", time.Nanosecond)
			token, err := expiredGen.Generate(&auth.Principal{ID: 7})
			Expect(err).NotTo(HaveOccurred())

			time.Sleep(10 * time.Millisecond)
			_, err = service.ValidateAccessToken(token)
			Expect(err).To(HaveOccurred())
		})

		It("should reject a token signed with a different secret", func() {
			otherGen := auth.NewJWTTokenGenerator("other-secret", time.Hour)
			token, err := otherGen.Generate(&auth.Principal{ID: 7})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ValidateAccessToken(token)
			Expect(err).To(Equal(auth.ErrInvalidToken))
		})
	})

	Describe("DefaultPolicy", func() {
		policy := auth.DefaultPolicy()

		It("should reserve user management for the superuser", func() {
			Expect(policy.Allows(auth.OpManageUsers, user.RoleSuperuser)).To(BeTrue())
			Expect(policy.Allows(auth.OpManageUsers, user.RoleAdmin)).To(BeFalse())
			Expect(policy.Allows(auth.OpManageUsers, user.RoleUser)).To(BeFalse())
		})

		It("should reserve the audit log for the superuser", func() {
			Expect(policy.Allows(auth.OpViewAuditLog, user.RoleSuperuser)).To(BeTrue())
			Expect(policy.Allows(auth.OpViewAuditLog, user.RoleAdmin)).To(BeFalse())
		})

		It("should let admins manage requests, equipment and reports", func() {
			for _, op := range []string{auth.OpManageRequests, auth.OpManageEquipment, auth.OpViewReports, auth.OpViewLogStream} {
				Expect(policy.Allows(op, user.RoleAdmin)).To(BeTrue(), "operation %s", op)
				Expect(policy.Allows(op, user.RoleSuperuser)).To(BeTrue(), "operation %s", op)
				Expect(policy.Allows(op, user.RoleUser)).To(BeFalse(), "operation %s", op)
			}
		})

		It("should deny unknown operations outright", func() {
			Expect(policy.Allows("coffee.brew", user.RoleSuperuser)).To(BeFalse())
		})
	})
})
