package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 10, hour, minute, 0, 0, time.UTC)
}

func TestQuietHours_SameDayWindow(t *testing.T) {
	q := QuietHours{Start: "13:00", End: "15:00"}

	tests := []struct {
		clock time.Time
		want  bool
	}{
		{at(12, 59), false},
		{at(13, 0), true}, // inclusive start
		{at(14, 30), true},
		{at(15, 0), true}, // inclusive end
		{at(15, 1), false},
	}

	for _, tt := range tests {
		got, err := q.Contains(tt.clock)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "at %s", tt.clock.Format("15:04"))
	}
}

func TestQuietHours_WrapsMidnight(t *testing.T) {
	q := QuietHours{Start: "22:00", End: "06:00"}

	tests := []struct {
		clock time.Time
		want  bool
	}{
		{at(21, 59), false},
		{at(22, 0), true},
		{at(23, 30), true},
		{at(0, 0), true},
		{at(3, 15), true},
		{at(6, 0), true},
		{at(6, 1), false},
		{at(10, 0), false},
	}

	for _, tt := range tests {
		got, err := q.Contains(tt.clock)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "at %s", tt.clock.Format("15:04"))
	}
}

func TestQuietHours_BadFormat(t *testing.T) {
	for _, q := range []QuietHours{
		{Start: "25:00", End: "06:00"},
		{Start: "22:00", End: "06:61"},
		{Start: "ten", End: "06:00"},
		{Start: "2200", End: "0600"},
	} {
		_, err := q.Contains(at(12, 0))
		assert.Error(t, err, "%+v", q)
	}
}
