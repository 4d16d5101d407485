package admin

import (
	"context"

	"cinebook/internal/bookings"
	"cinebook/internal/shows"
	"cinebook/internal/users"
)

// DashboardData is the admin landing summary: realized revenue, paid
// volume, what is currently on sale, and audience size.
type DashboardData struct {
	TotalBookings int64        `json:"total_bookings"`
	TotalRevenue  float64      `json:"total_revenue"`
	ActiveShows   []shows.Show `json:"active_shows"`
	TotalUsers    int64        `json:"total_users"`
}

type Service interface {
	GetDashboard(ctx context.Context) (*DashboardData, error)
	GetAllShows(ctx context.Context) ([]shows.Show, error)
	GetAllBookings(ctx context.Context) ([]bookings.Booking, error)
}

type service struct {
	bookingService bookings.Service
	showService    shows.Service
	userService    users.Service
}

func NewService(bookingService bookings.Service, showService shows.Service, userService users.Service) Service {
	return &service{
		bookingService: bookingService,
		showService:    showService,
		userService:    userService,
	}
}

func (s *service) GetDashboard(ctx context.Context) (*DashboardData, error) {
	paidCount, revenue, err := s.bookingService.PaidStats(ctx)
	if err != nil {
		return nil, err
	}

	activeShows, err := s.showService.GetUpcomingShows(ctx)
	if err != nil {
		return nil, err
	}

	userCount, err := s.userService.CountUsers(ctx)
	if err != nil {
		return nil, err
	}

	return &DashboardData{
		TotalBookings: paidCount,
		TotalRevenue:  revenue,
		ActiveShows:   activeShows,
		TotalUsers:    userCount,
	}, nil
}

func (s *service) GetAllShows(ctx context.Context) ([]shows.Show, error) {
	return s.showService.GetUpcomingShows(ctx)
}

func (s *service) GetAllBookings(ctx context.Context) ([]bookings.Booking, error) {
	return s.bookingService.GetAllBookings(ctx)
}
