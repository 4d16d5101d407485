package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cinebook/internal/shared/apperrors"
	"cinebook/pkg/logger"
)

// Service implements the identity lifecycle handlers. All three are
// idempotent and keyed by the provider's external user id: retried
// deliveries must not error or duplicate state.
type Service interface {
	HandleCreated(ctx context.Context, data LifecycleData) error
	HandleUpdated(ctx context.Context, data LifecycleData) error
	HandleDeleted(ctx context.Context, id string) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUsers(ctx context.Context, ids []string) ([]User, error)
	ListUsers(ctx context.Context) ([]User, error)
	CountUsers(ctx context.Context) (int64, error)
}

type service struct {
	repo Repository
	log  *logger.Logger
}

func NewService(repo Repository) Service {
	return &service{repo: repo, log: logger.GetDefault()}
}

func (s *service) HandleCreated(ctx context.Context, data LifecycleData) error {
	return s.sync(ctx, data)
}

func (s *service) HandleUpdated(ctx context.Context, data LifecycleData) error {
	return s.sync(ctx, data)
}

func (s *service) sync(ctx context.Context, data LifecycleData) error {
	if data.ID == "" {
		return fmt.Errorf("lifecycle event missing user id")
	}

	user := &User{
		ID:    data.ID,
		Name:  data.FullName(),
		Email: data.PrimaryEmail(),
		Image: data.ImageURL,
		Role:  RoleUser,
	}

	if err := s.repo.Upsert(ctx, user); err != nil {
		return fmt.Errorf("failed to sync user %s: %w", data.ID, err)
	}

	s.log.Info("user synced from identity provider",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	return nil
}

func (s *service) HandleDeleted(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("lifecycle event missing user id")
	}

	// Deleting an already-deleted user is fine; the provider retries
	// deliveries and we must stay a no-op on the second pass.
	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("failed to delete user %s: %w", id, err)
	}

	s.log.Info("user deleted from identity provider", slog.String("user_id", id))
	return nil
}

func (s *service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetUsers(ctx context.Context, ids []string) ([]User, error) {
	return s.repo.GetByIDs(ctx, ids)
}

func (s *service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.GetAll(ctx)
}

func (s *service) CountUsers(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
