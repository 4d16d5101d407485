package bookings

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cinebook/internal/shared/apperrors"
	"cinebook/internal/shared/constants"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lua script for all-or-nothing seat lock acquisition. Either every
// requested seat key is set or none is; conflicting key indexes are
// returned so the caller can name the seats.
var luaSeatLockAcquire = redis.NewScript(`
-- KEYS[1..N] = seat lock keys
-- ARGV[1]    = user_id
-- ARGV[2]    = ttl_seconds

local conflicts = {}
for i = 1, #KEYS do
    if redis.call("EXISTS", KEYS[i]) == 1 then
        conflicts[#conflicts + 1] = i
    end
end

if #conflicts > 0 then
    return {0, unpack(conflicts)}
end

local ttl = tonumber(ARGV[2])
for i = 1, #KEYS do
    redis.call("SETEX", KEYS[i], ttl, ARGV[1])
end

return {1}
`)

// SeatLock is a Redis fast-fail gate in front of the reservation
// transaction. It rejects obviously-contended requests before they reach
// Postgres; the database row lock remains the authority, so a lost or
// expired Redis key is never a correctness problem.
type SeatLock struct {
	redis *redis.Client
}

func NewSeatLock(redisClient *redis.Client) *SeatLock {
	return &SeatLock{redis: redisClient}
}

func seatLockKey(showID uuid.UUID, seat string) string {
	return constants.BuildSeatLockKey(showID.String(), seat)
}

// Acquire holds every seat for userID or none of them. A conflict returns
// SeatUnavailableError naming the contended seats. Redis being down is not
// an error; the gate just passes.
func (sl *SeatLock) Acquire(ctx context.Context, showID uuid.UUID, seats []string, userID string, ttl time.Duration) error {
	if sl.redis == nil {
		return nil
	}

	keys := make([]string, len(seats))
	for i, seat := range seats {
		keys[i] = seatLockKey(showID, seat)
	}

	result, err := luaSeatLockAcquire.Run(ctx, sl.redis, keys,
		userID, strconv.Itoa(int(ttl.Seconds()))).Result()
	if err != nil {
		return fmt.Errorf("seat lock script failed: %w", err)
	}

	resultArray, ok := result.([]interface{})
	if !ok || len(resultArray) == 0 {
		return fmt.Errorf("unexpected seat lock script result %v", result)
	}

	success, ok := resultArray[0].(int64)
	if !ok {
		return fmt.Errorf("invalid success flag in seat lock script result")
	}
	if success == 1 {
		return nil
	}

	conflicting := make([]string, 0, len(resultArray)-1)
	for _, raw := range resultArray[1:] {
		idx, ok := raw.(int64)
		if !ok || idx < 1 || int(idx) > len(seats) {
			continue
		}
		conflicting = append(conflicting, seats[idx-1])
	}
	return &apperrors.SeatUnavailableError{Seats: conflicting}
}

// Release drops the advisory locks. Safe to call for seats that were never
// locked or whose TTL already fired.
func (sl *SeatLock) Release(ctx context.Context, showID uuid.UUID, seats []string) error {
	if sl.redis == nil || len(seats) == 0 {
		return nil
	}

	keys := make([]string, len(seats))
	for i, seat := range seats {
		keys[i] = seatLockKey(showID, seat)
	}
	return sl.redis.Del(ctx, keys...).Err()
}

// PreloadScripts loads the Lua scripts into Redis so the first reservation
// does not pay the EVAL round trip.
func (sl *SeatLock) PreloadScripts(ctx context.Context) error {
	if sl.redis == nil {
		return nil
	}
	if err := luaSeatLockAcquire.Load(ctx, sl.redis).Err(); err != nil {
		return fmt.Errorf("failed to load seat lock script: %w", err)
	}
	return nil
}
