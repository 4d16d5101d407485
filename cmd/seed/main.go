package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"cinebook/internal/movies"
	"cinebook/internal/shared/config"
	"cinebook/internal/shared/database"
	"cinebook/internal/shows"
	"cinebook/internal/users"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting CineBook Database Seeder...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	// Clean database
	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	// Seed data
	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in reverse dependency order.
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"scheduler_jobs",
		"bookings",
		"shows",
		"movies",
		"users",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Exec("SET CONSTRAINTS ALL DEFERRED").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to defer constraints: %w", err)
	}

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	if err := tx.Exec("SET CONSTRAINTS ALL IMMEDIATE").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to restore constraints: %w", err)
	}

	return tx.Commit().Error
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	if err := s.SeedUsers(); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	movieIDs, err := s.SeedMovies()
	if err != nil {
		return fmt.Errorf("failed to seed movies: %w", err)
	}

	if err := s.SeedShows(movieIDs); err != nil {
		return fmt.Errorf("failed to seed shows: %w", err)
	}

	// Clear Redis so seat locks and cached listings start fresh
	if s.db.Redis != nil {
		if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
			log.Printf("Warning: Failed to clear Redis cache: %v", err)
		}
	}

	return nil
}

// SeedUsers creates 1 admin and 2 regular users. IDs mimic the identity
// provider's external id format; real records arrive via webhook.
func (s *Seeder) SeedUsers() error {
	fmt.Println("  👤 Seeding users...")

	usersData := []struct {
		id    string
		name  string
		email string
		role  users.Role
	}{
		{"user_seed_admin", "Admin User", "admin@cinebook.dev", users.RoleAdmin},
		{"user_seed_alice", "Alice Sharma", "alice@cinebook.dev", users.RoleUser},
		{"user_seed_bob", "Bob Verma", "bob@cinebook.dev", users.RoleUser},
	}

	for _, userData := range usersData {
		user := users.User{
			ID:        userData.id,
			Name:      userData.name,
			Email:     userData.email,
			Role:      userData.role,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user %s: %w", user.Email, err)
		}
		fmt.Printf("    ✅ Created user: %s (%s)\n", user.Email, user.Role)
	}

	return nil
}

// SeedMovies creates cached catalog records so shows can reference them
// without hitting the external catalog API.
func (s *Seeder) SeedMovies() ([]string, error) {
	fmt.Println("  🎬 Seeding movies...")

	moviesData := []movies.Movie{
		{
			ID:               "seed-550",
			Title:            "Midnight Run Redux",
			Overview:         "A bounty hunter escorts a mob accountant across the country while everyone else tries to stop them.",
			Genres:           movies.GenreList{{ID: 28, Name: "Action"}, {ID: 35, Name: "Comedy"}},
			Casts:            movies.CastList{{Name: "R. Kapoor"}, {Name: "D. Mehta"}},
			ReleaseDate:      "2025-11-07",
			OriginalLanguage: "en",
			Tagline:          "Nobody runs forever.",
			VoteAverage:      7.8,
			Runtime:          126,
		},
		{
			ID:               "seed-680",
			Title:            "The Glass Orchard",
			Overview:         "Three generations of a family return to the orchard they lost, and to the secrets buried under it.",
			Genres:           movies.GenreList{{ID: 18, Name: "Drama"}},
			Casts:            movies.CastList{{Name: "S. Iyer"}},
			ReleaseDate:      "2025-09-19",
			OriginalLanguage: "en",
			Tagline:          "Some roots never let go.",
			VoteAverage:      8.1,
			Runtime:          141,
		},
		{
			ID:               "seed-120",
			Title:            "Orbit Decay",
			Overview:         "A salvage crew races a collapsing station's orbit to recover the only copy of a failed experiment.",
			Genres:           movies.GenreList{{ID: 878, Name: "Science Fiction"}, {ID: 53, Name: "Thriller"}},
			Casts:            movies.CastList{{Name: "A. Fernandes"}, {Name: "K. Rao"}},
			ReleaseDate:      "2026-01-16",
			OriginalLanguage: "en",
			Tagline:          "Gravity always wins.",
			VoteAverage:      7.2,
			Runtime:          118,
		},
	}

	var movieIDs []string
	for i := range moviesData {
		movie := &moviesData[i]
		movie.CreatedAt = time.Now()
		movie.UpdatedAt = time.Now()

		if err := s.db.PostgreSQL.Create(movie).Error; err != nil {
			return nil, fmt.Errorf("failed to create movie %s: %w", movie.Title, err)
		}
		movieIDs = append(movieIDs, movie.ID)
		fmt.Printf("    ✅ Created movie: %s\n", movie.Title)
	}

	return movieIDs, nil
}

// SeedShows schedules screenings over the next two weeks.
func (s *Seeder) SeedShows(movieIDs []string) error {
	fmt.Println("  🎪 Seeding shows...")

	showsData := []struct {
		movieIndex  int
		price       float64
		daysFromNow int
		hour        int
	}{
		{0, 350.0, 1, 18},
		{0, 350.0, 1, 21},
		{0, 400.0, 3, 19},
		{1, 280.0, 2, 17},
		{1, 280.0, 5, 20},
		{2, 450.0, 4, 18},
		{2, 450.0, 7, 21},
		{2, 500.0, 14, 19},
	}

	for _, showData := range showsData {
		day := time.Now().AddDate(0, 0, showData.daysFromNow)
		start := time.Date(day.Year(), day.Month(), day.Day(), showData.hour, 0, 0, 0, time.Local)

		show := shows.Show{
			MovieID:       movieIDs[showData.movieIndex],
			StartTime:     start,
			Price:         showData.price,
			OccupiedSeats: shows.SeatMap{},
			CreatedAt:     time.Now(),
			UpdatedAt:     time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&show).Error; err != nil {
			return fmt.Errorf("failed to create show at %s: %w", start.Format(time.RFC3339), err)
		}
		fmt.Printf("    ✅ Created show: %s @ %s (₹%.0f)\n",
			movieIDs[showData.movieIndex], start.Format("2006-01-02 15:04"), show.Price)
	}

	return nil
}
