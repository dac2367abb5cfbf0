package preference

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"07:30", 450, false},
		{"23:59", 1439, false},
		{"7:30", 0, true},
		{"24:00", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestWindowContains(t *testing.T) {
	day := Window{Start: 9 * 60, End: 17 * 60}
	assert.True(t, day.Contains(at(9, 0)))
	assert.True(t, day.Contains(at(16, 59)))
	assert.False(t, day.Contains(at(17, 0)))
	assert.False(t, day.Contains(at(8, 59)))

	empty := Window{Start: 600, End: 600}
	assert.False(t, empty.Contains(at(10, 0)))
}

func TestLocalTimeUsesRecipientZone(t *testing.T) {
	utc := time.Date(2026, 1, 10, 6, 30, 0, 0, time.UTC)

	tokyo := LocalTime(utc, "Asia/Tokyo")
	assert.Equal(t, 15, tokyo.Hour())

	assert.Equal(t, 6, LocalTime(utc, "").Hour())
	assert.Equal(t, 6, LocalTime(utc, "Not/AZone").Hour())
}

func TestQuietHoursFollowRecipientTimezone(t *testing.T) {
	w, err := ParseWindow("22:00", "07:00")
	require.NoError(t, err)

	// 14:30 UTC is 23:30 in Tokyo.
	server := time.Date(2026, 1, 10, 14, 30, 0, 0, time.UTC)
	assert.False(t, w.Contains(server))
	assert.True(t, w.Contains(LocalTime(server, "Asia/Tokyo")))
}
