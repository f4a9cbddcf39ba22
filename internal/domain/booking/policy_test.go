package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateCancellation_LateTier(t *testing.T) {
	out := EvaluateCancellation(100, 0.5)

	assert.Equal(t, TierLate, out.Tier)
	assert.InDelta(t, 50.0, out.PenaltyApplied, 0.001)
	assert.InDelta(t, 50.0, out.RefundAmount, 0.001)
	require.NotNil(t, out.AutoRating)
	assert.Equal(t, 2, out.AutoRating.Stars)
	assert.Equal(t, "Late cancellation", out.AutoRating.Reason)
}

func TestEvaluateCancellation_ShortNoticeTier(t *testing.T) {
	out := EvaluateCancellation(200, 12)

	assert.Equal(t, TierShortNotice, out.Tier)
	assert.InDelta(t, 40.0, out.PenaltyApplied, 0.001)
	assert.InDelta(t, 160.0, out.RefundAmount, 0.001)
	require.NotNil(t, out.AutoRating)
	assert.Equal(t, 1, out.AutoRating.Stars)
	assert.Equal(t, "Short notice cancellation", out.AutoRating.Reason)
}

func TestEvaluateCancellation_FreeTier(t *testing.T) {
	out := EvaluateCancellation(300, 48)

	assert.Equal(t, TierFree, out.Tier)
	assert.Zero(t, out.PenaltyApplied)
	assert.InDelta(t, 300.0, out.RefundAmount, 0.001)
	assert.Nil(t, out.AutoRating)
}

// The tier boundaries are half-open: exactly 1h is short notice, exactly
// 24h is free.
func TestEvaluateCancellation_Boundaries(t *testing.T) {
	tests := []struct {
		name  string
		hours float64
		tier  CancellationTier
	}{
		{"just under one hour", 0.999, TierLate},
		{"exactly one hour", 1, TierShortNotice},
		{"just under 24 hours", 23.999, TierShortNotice},
		{"exactly 24 hours", 24, TierFree},
		{"already departed", -2, TierLate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := EvaluateCancellation(100, tt.hours)
			assert.Equal(t, tt.tier, out.Tier)
			assert.Equal(t, tt.hours, out.HoursUntilDeparture)
		})
	}
}

func TestEvaluateCancellation_RefundPlusPenaltyEqualsTotal(t *testing.T) {
	for _, hours := range []float64{0.2, 5, 30} {
		out := EvaluateCancellation(137.5, hours)
		assert.InDelta(t, 137.5, out.RefundAmount+out.PenaltyApplied, 0.001)
	}
}
