package tfl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNextArrival(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	// Wednesday afternoon rolls to Thursday morning
	wednesday := time.Date(2026, 1, 7, 15, 30, 0, 0, london)
	require.Equal(t,
		time.Date(2026, 1, 8, 9, 0, 0, 0, london),
		NextArrival(wednesday, 9, 0, london),
	)

	// Friday skips the weekend entirely
	friday := time.Date(2026, 1, 9, 23, 59, 0, 0, london)
	require.Equal(t,
		time.Date(2026, 1, 12, 9, 0, 0, 0, london),
		NextArrival(friday, 9, 0, london),
	)

	// Saturday lands on Monday too
	saturday := time.Date(2026, 1, 10, 8, 0, 0, 0, london)
	require.Equal(t,
		time.Date(2026, 1, 12, 8, 30, 0, 0, london),
		NextArrival(saturday, 8, 30, london),
	)
}

func TestNextArrivalConvertsToLocation(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	// 23:30 UTC on a summer Thursday is already Friday in London, so the
	// next working day is Monday
	thursday := time.Date(2026, 7, 2, 23, 30, 0, 0, time.UTC)
	require.Equal(t,
		time.Date(2026, 7, 6, 9, 0, 0, 0, london),
		NextArrival(thursday, 9, 0, london),
	)
}
