package contracts

// Booking event types published to the booking topic exchange.
const (
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
	EventRideCreated      = "ride_created"
	EventRideCompleted    = "ride_completed"
)

// BookingEventMessage announces a booking state change to downstream
// consumers (analytics, reminders).
type BookingEventMessage struct {
	Type           string  `json:"type"`
	BookingID      string  `json:"booking_id"`
	BookingCode    string  `json:"booking_code,omitempty"`
	RideID         string  `json:"ride_id"`
	RiderID        string  `json:"rider_id"`
	SeatsRequested int     `json:"seats_requested"`
	Status         string  `json:"status"`
	RefundAmount   float64 `json:"refund_amount,omitempty"`
	PenaltyApplied float64 `json:"penalty_applied,omitempty"`

	Envelope Envelope `json:"envelope"`
}

// RideEventMessage announces a ride lifecycle change.
type RideEventMessage struct {
	Type     string `json:"type"`
	RideID   string `json:"ride_id"`
	DriverID string `json:"driver_id"`
	Status   string `json:"status"`

	Envelope Envelope `json:"envelope"`
}
