package constants

import "time"

// Redis Cache Configuration
// Centralizes the Redis keys and TTL values used across the application.
// Pattern: cinebook:{module}:{operation}:{identifier}

// ================== CACHE TTL DURATIONS ==================

const (
	TTL_STATIC_LONG        = 24 * time.Hour   // very stable data (catalog metadata)
	TTL_SEMI_STATIC_SHORT  = 1 * time.Hour    // show listings
	TTL_SEMI_STATIC_QUICK  = 15 * time.Minute // upcoming shows
	TTL_DYNAMIC_QUICK      = 2 * time.Minute  // per-show occupancy snapshots
	TTL_SEAT_LOCK_ADVISORY = 10 * time.Minute // matches the booking hold window
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "cinebook"
)

// ================== SHOWS MODULE ==================

const (
	CACHE_KEY_SHOWS_UPCOMING     = CACHE_PREFIX + ":shows:upcoming"
	CACHE_KEY_SHOWS_MOVIE_PREFIX = CACHE_PREFIX + ":shows:movie:" // + movie-id
)

const (
	TTL_SHOWS_UPCOMING = TTL_SEMI_STATIC_QUICK
	TTL_SHOWS_MOVIE    = TTL_SEMI_STATIC_SHORT
)

// ================== BOOKINGS MODULE ==================

// Seat lock keys are advisory holds taken before the database transaction;
// they expire on their own so a crashed process never wedges a seat.
const (
	SEAT_LOCK_PREFIX = CACHE_PREFIX + ":seatlock:" // + show-id:seat-label
)

// ================== RATE LIMITING ==================

const (
	RATE_LIMIT_PREFIX = CACHE_PREFIX + ":ratelimit:"
)

// ================== HELPER FUNCTIONS ==================

func BuildMovieShowsKey(movieID string) string {
	return CACHE_KEY_SHOWS_MOVIE_PREFIX + movieID
}

func BuildSeatLockKey(showID, seat string) string {
	return SEAT_LOCK_PREFIX + showID + ":" + seat
}
