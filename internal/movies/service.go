package movies

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cinebook/internal/shared/apperrors"
	"cinebook/pkg/logger"
)

type Service interface {
	// EnsureMovie returns the cached record, fetching from the catalog
	// provider on first reference (lookup-or-create).
	EnsureMovie(ctx context.Context, id string) (*Movie, error)
	GetMovie(ctx context.Context, id string) (*Movie, error)
	NowPlaying(ctx context.Context) ([]CatalogMovie, error)
}

type service struct {
	repo    Repository
	catalog CatalogClient
	log     *logger.Logger
}

func NewService(repo Repository, catalog CatalogClient) Service {
	return &service{repo: repo, catalog: catalog, log: logger.GetDefault()}
}

func (s *service) EnsureMovie(ctx context.Context, id string) (*Movie, error) {
	movie, err := s.repo.GetByID(ctx, id)
	if err == nil {
		return movie, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	fetched, err := s.catalog.GetMovie(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch movie %s from catalog: %w", id, err)
	}

	if err := s.repo.Create(ctx, fetched); err != nil {
		return nil, fmt.Errorf("failed to cache movie %s: %w", id, err)
	}

	s.log.Info("movie cached from catalog",
		slog.String("movie_id", id),
		slog.String("title", fetched.Title),
	)
	return fetched, nil
}

func (s *service) GetMovie(ctx context.Context, id string) (*Movie, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) NowPlaying(ctx context.Context) ([]CatalogMovie, error) {
	return s.catalog.NowPlaying(ctx)
}
