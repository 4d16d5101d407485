package shows

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cinebook/internal/movies"
	"cinebook/internal/shared/constants"
	"cinebook/pkg/cache"
	"cinebook/pkg/logger"

	"github.com/google/uuid"
)

// Announcer publishes the show-added notification. Defined here rather than
// importing the notifications package directly to avoid an import cycle.
type Announcer interface {
	AnnounceShowAdded(ctx context.Context, movie *movies.Movie, showCount int) error
}

type Service interface {
	AddShows(ctx context.Context, req *AddShowsRequest) (int, error)
	GetUpcomingShows(ctx context.Context) ([]Show, error)
	GetMovieShows(ctx context.Context, movieID string) (*MovieShowsResponse, error)
	GetShow(ctx context.Context, id uuid.UUID) (*Show, error)
	GetOccupiedSeats(ctx context.Context, id uuid.UUID) ([]string, error)
	GetShowsStartingWithin(ctx context.Context, from, until time.Time) ([]Show, error)
	CountActiveShows(ctx context.Context) (int64, error)
}

type service struct {
	repo      Repository
	movies    movies.Service
	cache     cache.Service
	announcer Announcer
	cacheTTL  time.Duration
	log       *logger.Logger
}

func NewService(repo Repository, movieService movies.Service, cacheService cache.Service, announcer Announcer, cacheTTL time.Duration) Service {
	return &service{
		repo:      repo,
		movies:    movieService,
		cache:     cacheService,
		announcer: announcer,
		cacheTTL:  cacheTTL,
		log:       logger.GetDefault(),
	}
}

func (s *service) AddShows(ctx context.Context, req *AddShowsRequest) (int, error) {
	movie, err := s.movies.EnsureMovie(ctx, req.MovieID)
	if err != nil {
		return 0, err
	}

	var batch []Show
	for _, input := range req.Shows {
		for _, t := range input.Times {
			startTime, err := time.Parse("2006-01-02 15:04", input.Date+" "+t)
			if err != nil {
				return 0, fmt.Errorf("invalid show time %s %s: %w", input.Date, t, err)
			}
			batch = append(batch, Show{
				MovieID:       movie.ID,
				StartTime:     startTime,
				Price:         req.Price,
				OccupiedSeats: SeatMap{},
			})
		}
	}

	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return 0, fmt.Errorf("failed to create shows: %w", err)
	}

	s.invalidateListings(ctx, movie.ID)

	if s.announcer != nil {
		if err := s.announcer.AnnounceShowAdded(ctx, movie, len(batch)); err != nil {
			// Listing notifications are best effort; the shows exist either way.
			s.log.Warn("failed to announce new shows",
				slog.String("movie_id", movie.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.log.Info("shows created",
		slog.String("movie_id", movie.ID),
		slog.Int("count", len(batch)),
	)
	return len(batch), nil
}

func (s *service) GetUpcomingShows(ctx context.Context) ([]Show, error) {
	var result []Show
	err := s.cache.GetOrSet(ctx, constants.CACHE_KEY_SHOWS_UPCOMING, s.cacheTTL, func() (interface{}, error) {
		return s.repo.GetUpcoming(ctx)
	}, &result)
	return result, err
}

func (s *service) GetMovieShows(ctx context.Context, movieID string) (*MovieShowsResponse, error) {
	var result MovieShowsResponse
	key := constants.BuildMovieShowsKey(movieID)
	err := s.cache.GetOrSet(ctx, key, s.cacheTTL, func() (interface{}, error) {
		return s.buildMovieShows(ctx, movieID)
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) buildMovieShows(ctx context.Context, movieID string) (*MovieShowsResponse, error) {
	movie, err := s.movies.GetMovie(ctx, movieID)
	if err != nil {
		return nil, err
	}

	showList, err := s.repo.GetUpcomingByMovie(ctx, movieID)
	if err != nil {
		return nil, err
	}

	dateTime := make(map[string][]ShowTime)
	for _, show := range showList {
		date := show.StartTime.Format("2006-01-02")
		dateTime[date] = append(dateTime[date], ShowTime{
			ShowID: show.ID,
			Time:   show.StartTime,
		})
	}

	return &MovieShowsResponse{Movie: movie, DateTime: dateTime}, nil
}

func (s *service) GetShow(ctx context.Context, id uuid.UUID) (*Show, error) {
	return s.repo.GetByIDWithMovie(ctx, id)
}

func (s *service) GetOccupiedSeats(ctx context.Context, id uuid.UUID) ([]string, error) {
	show, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return show.OccupiedSeats.Seats(), nil
}

func (s *service) GetShowsStartingWithin(ctx context.Context, from, until time.Time) ([]Show, error) {
	return s.repo.GetStartingWithin(ctx, from, until)
}

func (s *service) CountActiveShows(ctx context.Context) (int64, error) {
	showList, err := s.repo.GetUpcoming(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(showList)), nil
}

func (s *service) invalidateListings(ctx context.Context, movieID string) {
	if err := s.cache.Delete(ctx, constants.CACHE_KEY_SHOWS_UPCOMING); err != nil {
		s.log.Warn("failed to invalidate upcoming shows cache", slog.String("error", err.Error()))
	}
	if err := s.cache.Delete(ctx, constants.BuildMovieShowsKey(movieID)); err != nil {
		s.log.Warn("failed to invalidate movie shows cache", slog.String("error", err.Error()))
	}
}
