package shows

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

// SeatMap is the ground-truth occupancy state of one show: seat label to
// holder's user id. A label is present iff exactly one user holds the seat,
// paid or pending payment. All mutations go through Reserve/Release so a
// change always corresponds to a store write; the map is never edited ad hoc.
type SeatMap map[string]string

// Conflicts returns the requested labels that are already held, sorted.
func (m SeatMap) Conflicts(seats []string) []string {
	var conflicts []string
	for _, seat := range seats {
		if _, taken := m[seat]; taken {
			conflicts = append(conflicts, seat)
		}
	}
	sort.Strings(conflicts)
	return conflicts
}

// Reserve inserts every label for userID. Callers must have checked
// Conflicts under the same show lock; Reserve fails rather than silently
// overwriting another holder.
func (m SeatMap) Reserve(seats []string, userID string) error {
	if conflicts := m.Conflicts(seats); len(conflicts) > 0 {
		return fmt.Errorf("seats already held: %v", conflicts)
	}
	for _, seat := range seats {
		m[seat] = userID
	}
	return nil
}

// Release removes the given labels. Absent labels are ignored, which keeps
// the expiry path idempotent.
func (m SeatMap) Release(seats []string) {
	for _, seat := range seats {
		delete(m, seat)
	}
}

// Holder returns the user holding a seat, if any.
func (m SeatMap) Holder(seat string) (string, bool) {
	userID, ok := m[seat]
	return userID, ok
}

// Holders returns the distinct user ids holding at least one seat.
func (m SeatMap) Holders() []string {
	seen := make(map[string]struct{}, len(m))
	var holders []string
	for _, userID := range m {
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		holders = append(holders, userID)
	}
	sort.Strings(holders)
	return holders
}

// Seats returns the occupied labels, sorted.
func (m SeatMap) Seats() []string {
	seats := make([]string, 0, len(m))
	for seat := range m {
		seats = append(seats, seat)
	}
	sort.Strings(seats)
	return seats
}

func (m SeatMap) Value() (driver.Value, error) {
	if m == nil {
		m = SeatMap{}
	}
	return json.Marshal(m)
}

func (m *SeatMap) Scan(value interface{}) error {
	if value == nil {
		*m = SeatMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported seat map source type %T", value)
	}
	if len(data) == 0 {
		*m = SeatMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}
