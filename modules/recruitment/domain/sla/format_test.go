package sla

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"zero", 0, "00:00:00"},
		{"seconds", 42 * time.Second, "00:00:42"},
		{"minute", time.Minute, "00:01:00"},
		{"padded", 2*time.Hour + 3*time.Minute + 4*time.Second, "02:03:04"},
		{"negative magnitude", -time.Minute, "00:01:00"},
		{"just under a day", 24*time.Hour - time.Second, "23:59:59"},
		{"days", 26*time.Hour + 30*time.Minute, "1d 02:30:00"},
		{"many days", 3*24*time.Hour + 5*time.Second, "3d 00:00:05"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, FormatDuration(tc.d))
		})
	}
}

func TestFormatDuration_OrderingPreserved(t *testing.T) {
	durations := []time.Duration{
		0,
		time.Second,
		59 * time.Second,
		time.Minute,
		59 * time.Minute,
		time.Hour,
		23 * time.Hour,
	}
	require.True(t, sort.SliceIsSorted(durations, func(i, j int) bool {
		return durations[i] < durations[j]
	}))
	// Within the day-free range the fixed-width rendering sorts like the values.
	for i := 1; i < len(durations); i++ {
		require.LessOrEqual(t, FormatDuration(durations[i-1]), FormatDuration(durations[i]))
	}
}

func TestFormatDueAt(t *testing.T) {
	instant := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Asia/Kolkata is UTC+05:30.
	require.Equal(t, "01-06-2025 17:30", FormatDueAt(instant, "Asia/Kolkata"))
	require.Equal(t, "01-06-2025 12:00", FormatDueAt(instant, "UTC"))
}

func TestFormatDueAt_BadZoneFallsBack(t *testing.T) {
	instant := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.Equal(t, "01-06-2025 12:00", FormatDueAt(instant, "Mars/Olympus"))
}
