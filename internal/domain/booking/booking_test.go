package booking

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBooking(t *testing.T) {
	b, err := NewBooking("ride-1", "rider-1", 2, "Main Gate", "window seat", 150)
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, b.Status)
	assert.Equal(t, 2, b.SeatsRequested)
	assert.InDelta(t, 300.0, b.TotalAmount, 0.001)
	require.NotNil(t, b.SpecialRequests)
	assert.Equal(t, "window seat", *b.SpecialRequests)
	assert.NotEmpty(t, b.BookingCode)
}

func TestNewBooking_Validation(t *testing.T) {
	tests := []struct {
		name    string
		rideID  string
		riderID string
		seats   int
		pickup  string
		price   float64
		wantErr error
	}{
		{"missing ride", "", "rider-1", 1, "Gate", 100, ErrRideRequired},
		{"missing rider", "ride-1", " ", 1, "Gate", 100, ErrRiderRequired},
		{"missing pickup", "ride-1", "rider-1", 1, "", 100, ErrPickupRequired},
		{"zero seats", "ride-1", "rider-1", 0, "Gate", 100, ErrSeatsOutOfRange},
		{"too many seats", "ride-1", "rider-1", 5, "Gate", 100, ErrSeatsOutOfRange},
		{"negative price", "ride-1", "rider-1", 1, "Gate", -1, ErrNegativePrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBooking(tt.rideID, tt.riderID, tt.seats, tt.pickup, "", tt.price)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGenerateBookingCode_Format(t *testing.T) {
	code := GenerateBookingCode()
	assert.Regexp(t, regexp.MustCompile(`^BK_\d{8}_\d{6}_[0-9A-F]{4}$`), code)
}

func TestBookingCancel_LateTierUsesLateStatus(t *testing.T) {
	b, err := NewBooking("ride-1", "rider-1", 1, "Gate", "", 100)
	require.NoError(t, err)

	out := EvaluateCancellation(b.TotalAmount, 0.5)
	require.NoError(t, b.Cancel(out, "overslept", time.Now().UTC()))

	assert.Equal(t, StatusCancelledLate, b.Status)
	assert.InDelta(t, 50.0, b.RefundAmount, 0.001)
	assert.InDelta(t, 50.0, b.PenaltyApplied, 0.001)
	require.NotNil(t, b.CancellationReason)
	assert.Equal(t, "overslept", *b.CancellationReason)
	assert.NotNil(t, b.CancelledAt)
}

func TestBookingCancel_Twice(t *testing.T) {
	b, err := NewBooking("ride-1", "rider-1", 1, "Gate", "", 100)
	require.NoError(t, err)

	out := EvaluateCancellation(b.TotalAmount, 48)
	require.NoError(t, b.Cancel(out, "", time.Now().UTC()))
	assert.Equal(t, StatusCancelled, b.Status)

	err = b.Cancel(out, "", time.Now().UTC())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBookingCancellableBy(t *testing.T) {
	b, err := NewBooking("ride-1", "rider-1", 1, "Gate", "", 100)
	require.NoError(t, err)

	assert.NoError(t, b.CancellableBy("rider-1"))
	assert.ErrorIs(t, b.CancellableBy("rider-2"), ErrNotOwnedByRider)

	out := EvaluateCancellation(b.TotalAmount, 48)
	require.NoError(t, b.Cancel(out, "", time.Now().UTC()))
	assert.ErrorIs(t, b.CancellableBy("rider-1"), ErrAlreadyTerminal)
}

func TestBookingComplete_FromCancelled(t *testing.T) {
	b, err := NewBooking("ride-1", "rider-1", 1, "Gate", "", 100)
	require.NoError(t, err)

	out := EvaluateCancellation(b.TotalAmount, 48)
	require.NoError(t, b.Cancel(out, "", time.Now().UTC()))
	assert.ErrorIs(t, b.Complete(), ErrInvalidTransition)
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusCancelledLate, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusRejected, StatusConfirmed, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestStatusCancelled(t *testing.T) {
	assert.True(t, StatusCancelled.Cancelled())
	assert.True(t, StatusCancelledLate.Cancelled())
	assert.False(t, StatusRejected.Cancelled())
	assert.False(t, StatusCompleted.Cancelled())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("  Confirmed ")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, s)

	_, err = ParseStatus("on-hold")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
