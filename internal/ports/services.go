package ports

import (
	"context"
	"time"

	"unipool/internal/domain/booking"
	"unipool/internal/domain/notification"
	"unipool/internal/domain/rating"
	"unipool/internal/domain/safety"
)

// ----- DTOs for Booking Service -----

// BookRideInput is the validated input required to book seats on a ride.
type BookRideInput struct {
	RideID          string
	RiderID         string
	SeatsRequested  int
	PickupPoint     string
	SpecialRequests string
}

// BookRideResult is returned by BookingService.BookRide().
type BookRideResult struct {
	BookingID   string    `json:"booking_id"`
	BookingCode string    `json:"booking_code"`
	Status      string    `json:"status"`
	Seats       int       `json:"seats"`
	TotalAmount float64   `json:"total_amount"`
	BookingTime time.Time `json:"booking_time"`
}

// CancelBookingInput identifies the booking and the acting rider.
type CancelBookingInput struct {
	BookingID string
	RiderID   string
	Reason    string
}

// CancelBookingResult carries the policy outcome back to the caller.
type CancelBookingResult struct {
	BookingID           string  `json:"booking_id"`
	Status              string  `json:"status"`
	RefundAmount        float64 `json:"refund_amount"`
	PenaltyApplied      float64 `json:"penalty_applied"`
	HoursUntilDeparture float64 `json:"hours_until_departure"`
	CancelledAt         string  `json:"cancelled_at"`
	Message             string  `json:"message"`
}

// SeatAvailability is the pure read over a ride's seat inventory.
type SeatAvailability struct {
	Available      bool `json:"available"`
	RemainingSeats int  `json:"remaining_seats"`
	TotalSeats     int  `json:"total_seats"`
	BookedSeats    int  `json:"booked_seats"`
}

// BookingStats summarizes a rider's booking history.
type BookingStats struct {
	Total         int     `json:"total"`
	Confirmed     int     `json:"confirmed"`
	Cancelled     int     `json:"cancelled"`
	Completed     int     `json:"completed"`
	TotalSpent    float64 `json:"total_spent"`
	TotalRefunded float64 `json:"total_refunded"`
}

// RideSummary is the ride slice embedded in enriched booking listings.
type RideSummary struct {
	RideID        string    `json:"ride_id"`
	Pickup        string    `json:"pickup"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"departure_time"`
	DriverName    string    `json:"driver_name"`
	DriverRating  float64   `json:"driver_rating"`
}

// RiderSummary is the rider slice embedded in a driver's booking listing.
type RiderSummary struct {
	RiderID string  `json:"rider_id"`
	Name    string  `json:"name"`
	Rating  float64 `json:"rating"`
	Phone   string  `json:"phone,omitempty"`
}

// BookingView is one enriched booking row.
type BookingView struct {
	Booking *booking.Booking `json:"booking"`
	Ride    *RideSummary     `json:"ride,omitempty"`
	Rider   *RiderSummary    `json:"rider,omitempty"`
}

// BookingService exposes the boundary for seat inventory and the booking
// state machine.
type BookingService interface {
	BookRide(ctx context.Context, in BookRideInput) (*booking.Booking, error)
	CancelBooking(ctx context.Context, in CancelBookingInput) (CancelBookingResult, error)
	CheckSeatAvailability(ctx context.Context, rideID string, seatsRequested int) (SeatAvailability, error)
	GetUserBookings(ctx context.Context, riderID string, filters BookingFilters) ([]BookingView, error)
	GetRideBookings(ctx context.Context, rideID, driverID string) ([]BookingView, error)
	GetUserBookingStats(ctx context.Context, riderID string) (BookingStats, error)
}

// ----- DTOs for Safety Service -----

// RideSafetyInput is the candidate ride handed to the pre-creation gate.
type RideSafetyInput struct {
	DriverID      string
	DepartureTime time.Time
	Pickup        string
	Destination   string
	PickupLat     float64
	PickupLng     float64
	DestLat       float64
	DestLng       float64
}

// SafetyService gates ride creation and records incidents.
type SafetyService interface {
	ValidateRideSafety(ctx context.Context, in RideSafetyInput) (safety.Report, error)
	RecordNoShow(ctx context.Context, bookingID, userID string, role rating.RoleType) (*safety.Incident, error)
}

// ----- DTOs for Rating Service -----

// AddRatingInput is a peer rating submission.
type AddRatingInput struct {
	RideID      string
	RaterUserID string
	RatedUserID string
	RoleType    string
	Stars       int
	Review      string
}

// RatingStats extends the deterministic fold with ride coverage.
type RatingStats struct {
	TotalRatings     int         `json:"total_ratings"`
	AverageRating    float64     `json:"average_rating"`
	Distribution     map[int]int `json:"rating_distribution"`
	TotalRides       int         `json:"total_rides"`
	RatingPercentage float64     `json:"rating_percentage"`
}

// RatingService exposes the rating feedback loop.
type RatingService interface {
	AddRating(ctx context.Context, in AddRatingInput) (*rating.Rating, error)
	ApplyAutomaticRating(ctx context.Context, userID string, stars int, role rating.RoleType, reason string) (*rating.Rating, error)
	GetUserRatingStats(ctx context.Context, userID string, role *rating.RoleType) (RatingStats, error)
	GetRecentRatings(ctx context.Context, userID string, limit int) ([]rating.Rating, error)
	GetRideRatings(ctx context.Context, rideID string) ([]rating.Rating, error)
}

// ----- DTOs for Notification Service -----

// SendNotificationInput is one outbound notification before validation.
type SendNotificationInput struct {
	Type     string
	Title    string
	Message  string
	Priority notification.Priority
	Data     map[string]any
}

// NotificationReceipt is the persisted record plus its delivery fan-out.
type NotificationReceipt struct {
	Notification    *notification.Notification                          `json:"notification"`
	DeliveryResults map[notification.Channel]notification.ChannelResult `json:"delivery_results"`
}

// BulkItem is one user's outcome inside a bulk send.
type BulkItem struct {
	UserID  string `json:"user_id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BulkResult aggregates a bulk send.
type BulkResult struct {
	Total      int        `json:"total"`
	Successful int        `json:"successful"`
	Failed     int        `json:"failed"`
	Results    []BulkItem `json:"results"`
}

// NotificationService exposes multi-channel notification dispatch.
// SendNotification returns (nil, nil) when quiet hours suppress the send.
type NotificationService interface {
	SendNotification(ctx context.Context, userID string, in SendNotificationInput) (*NotificationReceipt, error)
	SendBulkNotifications(ctx context.Context, userIDs []string, in SendNotificationInput) (BulkResult, error)
	ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*notification.Notification, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// ----- DTOs for Ride Service -----

// CreateRideInput is the validated input required to create a ride.
type CreateRideInput struct {
	DriverID      string
	PickupAddress string
	PickupLat     float64
	PickupLng     float64
	DestAddress   string
	DestLat       float64
	DestLng       float64
	DepartureTime time.Time
	TotalSeats    int
	PricePerSeat  float64
}

// CreateRideResult is returned by RideService.CreateRide().
type CreateRideResult struct {
	RideID        string        `json:"ride_id"`
	Status        string        `json:"status"`
	DepartureTime time.Time     `json:"departure_time"`
	TotalSeats    int           `json:"total_seats"`
	PricePerSeat  float64       `json:"price_per_seat"`
	SafetyReport  safety.Report `json:"safety_report"`
}

// RideService exposes the safety-gated ride lifecycle.
type RideService interface {
	CreateRide(ctx context.Context, in CreateRideInput) (CreateRideResult, error)
	CompleteRide(ctx context.Context, rideID, driverID string) error
}

// ----- DTOs for Admin Service -----

// SystemOverviewResult is a snapshot of platform health for the admin
// dashboard. "Today" windows run midnight-to-midnight UTC.
type SystemOverviewResult struct {
	Timestamp time.Time `json:"timestamp"`
	Metrics   struct {
		ActiveRides           int     `json:"active_rides"`
		RidesToday            int     `json:"rides_today"`
		BookingsToday         int     `json:"bookings_today"`
		ConfirmedRevenueToday float64 `json:"confirmed_revenue_today"`
		CancellationRateToday float64 `json:"cancellation_rate_today"`
		FlaggedUsers          int     `json:"flagged_users"`
		SafetyFlaggedUsers    int     `json:"safety_flagged_users"`
		NoShowsToday          int     `json:"no_shows_today"`
	} `json:"metrics"`
}

// ActiveRideRow is one active ride in the dashboard listing.
type ActiveRideRow struct {
	RideID             string    `json:"ride_id"`
	DriverID           string    `json:"driver_id"`
	PickupAddress      string    `json:"pickup_address"`
	DestinationAddress string    `json:"destination_address"`
	DepartureTime      time.Time `json:"departure_time"`
	TotalSeats         int       `json:"total_seats"`
	AvailableSeats     int       `json:"available_seats"`
	SeatsBooked        int       `json:"seats_booked"`
	ConfirmedBookings  int       `json:"confirmed_bookings"`
}

// ActiveRidesResult is a paginated listing of active rides.
type ActiveRidesResult struct {
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalCount int             `json:"total_count"`
	Rides      []ActiveRideRow `json:"rides"`
}

// AdminService exposes the read-only dashboard surface.
type AdminService interface {
	GetSystemOverview(ctx context.Context) (SystemOverviewResult, error)
	GetActiveRides(ctx context.Context, page, pageSize string) (ActiveRidesResult, error)
}
