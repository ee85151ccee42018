package news

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/helpdeskhq/helpdesk-portal/internal"
	"github.com/helpdeskhq/helpdesk-portal/internal/notification"
	"github.com/helpdeskhq/helpdesk-portal/internal/user"
)

// Repository defines the data access methods for announcements.
type Repository interface {
	Create(n *News) error
	GetByID(id int64) (*News, error)
	List() ([]*News, error)
	Update(id int64, fields map[string]interface{}) (*News, error)
	Delete(id int64) error
}

// Notifier is the slice of the notification service used to announce
// published news.
type Notifier interface {
	NotifyRole(ctx context.Context, role, typ, title, message, url string) error
}

type Service struct {
	repo     Repository
	notifier Notifier
	logger   *slog.Logger
}

func NewService(repo Repository, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
	}
}

// Create publishes an announcement and notifies every regular user.
func (s *Service) Create(ctx context.Context, dto CreateDTO) (*News, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	n := &News{Title: dto.Title, Content: dto.Content}
	if err := s.repo.Create(n); err != nil {
		s.logger.Error("failed to create news", "error", err)
		return nil, internal.NewInternalError("could not create news", err)
	}

	s.logger.Info("news published", "news_id", n.ID, "title", n.Title)

	if s.notifier != nil {
		if err := s.notifier.NotifyRole(ctx, user.RoleUser, notification.TypeNews, n.Title, "", fmt.Sprintf("/news/%d", n.ID)); err != nil {
			s.logger.Error("failed to notify users about news", "error", err, "news_id", n.ID)
		}
	}

	return n, nil
}

func (s *Service) GetByID(id int64) (*News, error) {
	n, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get news", "error", err, "news_id", id)
		return nil, ErrNotFound
	}
	return n, nil
}

func (s *Service) List() ([]*News, error) {
	items, err := s.repo.List()
	if err != nil {
		s.logger.Error("failed to list news", "error", err)
		return nil, internal.NewInternalError("could not list news", err)
	}
	return items, nil
}

func (s *Service) Update(id int64, dto UpdateDTO) (*News, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(id); err != nil {
		return nil, ErrNotFound
	}

	fields := map[string]interface{}{}
	if dto.Title != nil {
		fields["title"] = *dto.Title
	}
	if dto.Content != nil {
		fields["content"] = *dto.Content
	}

	n, err := s.repo.Update(id, fields)
	if err != nil {
		s.logger.Error("failed to update news", "error", err, "news_id", id)
		return nil, internal.NewInternalError("could not update news", err)
	}
	s.logger.Info("news updated", "news_id", id)
	return n, nil
}

func (s *Service) Delete(id int64) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return ErrNotFound
	}
	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete news", "error", err, "news_id", id)
		return internal.NewInternalError("could not delete news", err)
	}
	s.logger.Info("news deleted", "news_id", id)
	return nil
}
