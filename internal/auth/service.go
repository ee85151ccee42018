package auth

import (
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/helpdeskhq/helpdesk-portal/internal/core/common/validation"
	"github.com/helpdeskhq/helpdesk-portal/internal/user"
)

// UserRepository is the slice of the user store the auth service needs.
type UserRepository interface {
	GetByPersonalID(normalizedID string) (*user.User, error)
	GetByID(id int64) (*user.User, error)
}

type Service struct {
	userRepo       UserRepository
	tokenGenerator TokenGenerator
	logger         *slog.Logger
}

func NewService(userRepo UserRepository, tokenGen TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		userRepo:       userRepo,
		tokenGenerator: tokenGen,
		logger:         logger,
	}
}

// Authenticate validates credentials and returns the principal plus a
// signed token.
func (s *Service) Authenticate(dto LoginDTO) (*Principal, string, error) {
	if err := dto.Validate(); err != nil {
		return nil, "", err
	}

	u, err := s.userRepo.GetByPersonalID(validation.NormalizePersonalID(dto.PersonalID))
	if err != nil {
		s.logger.Warn("login failed: user not found")
		return nil, "", ErrInvalidCredentials
	}

	if u.PasswordHash == "" {
		s.logger.Warn("login failed: no password set", "user_id", u.ID)
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.Password)); err != nil {
		s.logger.Warn("login failed: wrong password", "user_id", u.ID)
		return nil, "", ErrInvalidCredentials
	}

	principal := &Principal{
		ID:         u.ID,
		Role:       u.Role,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Department: u.Department,
		Position:   u.Position,
	}

	token, err := s.tokenGenerator.Generate(principal)
	if err != nil {
		s.logger.Error("failed to sign token", "error", err, "user_id", u.ID)
		return nil, "", err
	}

	s.logger.Info("user authenticated", "user_id", u.ID, "role", u.Role)
	return principal, token, nil
}

// ValidateAccessToken validates an access token and returns its claims.
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.Validate(tokenString)
}
