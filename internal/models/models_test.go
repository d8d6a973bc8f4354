package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextRSVPStatus(t *testing.T) {
	next, delta := NextRSVPStatus(RSVPAttending)
	require.Equal(t, RSVPNotAttending, next)
	require.Equal(t, -1, delta)

	next, delta = NextRSVPStatus(RSVPNotAttending)
	require.Equal(t, RSVPAttending, next)
	require.Equal(t, 1, delta)
}

func TestToggleTwiceRoundTrips(t *testing.T) {
	status := RSVPAttending
	var total int

	next, delta := NextRSVPStatus(status)
	total += delta
	back, delta := NextRSVPStatus(next)
	total += delta

	require.Equal(t, status, back)
	require.Zero(t, total, "a toggle pair must leave the count unchanged")
}

func TestValidLeadHours(t *testing.T) {
	for _, h := range AllowedLeadHours {
		require.True(t, ValidLeadHours(h))
	}
	for _, h := range []float64{0, 2, 3.5, 12, 48, -24} {
		require.False(t, ValidLeadHours(h))
	}
}
