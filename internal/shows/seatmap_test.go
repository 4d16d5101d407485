package shows

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeatMap_Conflicts(t *testing.T) {
	m := SeatMap{"A1": "user-1", "B2": "user-2"}

	assert.Empty(t, m.Conflicts([]string{"C3", "D4"}))
	assert.Equal(t, []string{"A1"}, m.Conflicts([]string{"A1", "C3"}))
	assert.Equal(t, []string{"A1", "B2"}, m.Conflicts([]string{"B2", "A1"}), "conflicts come back sorted")
}

func TestSeatMap_Reserve(t *testing.T) {
	m := SeatMap{}

	require.NoError(t, m.Reserve([]string{"A1", "A2"}, "user-1"))
	assert.Equal(t, "user-1", m["A1"])
	assert.Equal(t, "user-1", m["A2"])

	err := m.Reserve([]string{"A2", "A3"}, "user-2")
	require.Error(t, err)
	_, held := m["A3"]
	assert.False(t, held, "partial reservation must not leak seats")
	assert.Equal(t, "user-1", m["A2"], "existing holder untouched on conflict")
}

func TestSeatMap_Release(t *testing.T) {
	m := SeatMap{"A1": "user-1", "A2": "user-1"}

	m.Release([]string{"A1", "Z9"})
	assert.Equal(t, SeatMap{"A2": "user-1"}, m)

	// Releasing again is a no-op
	m.Release([]string{"A1"})
	assert.Len(t, m, 1)
}

func TestSeatMap_Holders(t *testing.T) {
	m := SeatMap{"A1": "user-2", "A2": "user-1", "A3": "user-2"}

	assert.Equal(t, []string{"user-1", "user-2"}, m.Holders())

	holder, ok := m.Holder("A3")
	assert.True(t, ok)
	assert.Equal(t, "user-2", holder)

	_, ok = m.Holder("B1")
	assert.False(t, ok)
}

func TestSeatMap_Seats(t *testing.T) {
	m := SeatMap{"B2": "u", "A1": "u", "A10": "u"}
	assert.Equal(t, []string{"A1", "A10", "B2"}, m.Seats())
}

func TestSeatMap_ScanValue(t *testing.T) {
	m := SeatMap{"A1": "user-1"}

	raw, err := m.Value()
	require.NoError(t, err)

	var decoded SeatMap
	require.NoError(t, decoded.Scan(raw))
	assert.Equal(t, m, decoded)

	var fromNil SeatMap
	require.NoError(t, fromNil.Scan(nil))
	assert.NotNil(t, fromNil)
	assert.Empty(t, fromNil)
}

func TestSeatMap_JSONShape(t *testing.T) {
	m := SeatMap{"A1": "user-1"}
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"A1":"user-1"}`, string(data))
}
