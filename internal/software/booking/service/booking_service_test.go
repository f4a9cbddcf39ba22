package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"unipool/internal/domain/booking"
	"unipool/internal/domain/fault"
	"unipool/internal/domain/notification"
	"unipool/internal/domain/rating"
	"unipool/internal/domain/ride"
	"unipool/internal/domain/user"
	"unipool/internal/general/logger"
	"unipool/internal/general/rabbitmq"
	"unipool/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ----- mocks -----

type fakeUOW struct{}

func (fakeUOW) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type MockRideRepo struct {
	mock.Mock
}

func (m *MockRideRepo) Create(ctx context.Context, r *ride.Ride) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRideRepo) FindByID(ctx context.Context, id string) (*ride.Ride, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ride.Ride), args.Error(1)
}

func (m *MockRideRepo) FindByDriverID(ctx context.Context, driverID string) ([]*ride.Ride, error) {
	args := m.Called(ctx, driverID)
	return args.Get(0).([]*ride.Ride), args.Error(1)
}

func (m *MockRideRepo) ReserveSeats(ctx context.Context, rideID string, seats int) (bool, error) {
	args := m.Called(ctx, rideID, seats)
	return args.Bool(0), args.Error(1)
}

func (m *MockRideRepo) ReleaseSeats(ctx context.Context, rideID string, seats int) error {
	args := m.Called(ctx, rideID, seats)
	return args.Error(0)
}

func (m *MockRideRepo) UpdateStatus(ctx context.Context, id string, status ride.Status, ts time.Time) error {
	args := m.Called(ctx, id, status, ts)
	return args.Error(0)
}

func (m *MockRideRepo) CountByDriverAndStatus(ctx context.Context, driverID string, status ride.Status) (int, error) {
	args := m.Called(ctx, driverID, status)
	return args.Int(0), args.Error(1)
}

type MockBookingRepo struct {
	mock.Mock
}

func (m *MockBookingRepo) Create(ctx context.Context, b *booking.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingRepo) FindByID(ctx context.Context, id string) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepo) FindByRideAndRider(ctx context.Context, rideID, riderID string) (*booking.Booking, error) {
	args := m.Called(ctx, rideID, riderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepo) FindByUserID(ctx context.Context, riderID string, filters ports.BookingFilters) ([]*booking.Booking, error) {
	args := m.Called(ctx, riderID, filters)
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingRepo) FindByRideID(ctx context.Context, rideID string) ([]*booking.Booking, error) {
	args := m.Called(ctx, rideID)
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingRepo) ConfirmedForRide(ctx context.Context, rideID string) ([]*booking.Booking, error) {
	args := m.Called(ctx, rideID)
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingRepo) Update(ctx context.Context, b *booking.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingRepo) CountCancelledByRider(ctx context.Context, riderID string) (int, error) {
	args := m.Called(ctx, riderID)
	return args.Int(0), args.Error(1)
}

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) FindByID(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) UpdateAggregate(ctx context.Context, userID string, role rating.RoleType, avg float64, count int) error {
	args := m.Called(ctx, userID, role, avg, count)
	return args.Error(0)
}

func (m *MockUserRepo) UpdateStatus(ctx context.Context, userID string, status user.Status, reason string, at time.Time) error {
	args := m.Called(ctx, userID, status, reason, at)
	return args.Error(0)
}

type MockRatingService struct {
	mock.Mock
}

func (m *MockRatingService) AddRating(ctx context.Context, in ports.AddRatingInput) (*rating.Rating, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rating.Rating), args.Error(1)
}

func (m *MockRatingService) ApplyAutomaticRating(ctx context.Context, userID string, stars int, role rating.RoleType, reason string) (*rating.Rating, error) {
	args := m.Called(ctx, userID, stars, role, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rating.Rating), args.Error(1)
}

func (m *MockRatingService) GetUserRatingStats(ctx context.Context, userID string, role *rating.RoleType) (ports.RatingStats, error) {
	args := m.Called(ctx, userID, role)
	return args.Get(0).(ports.RatingStats), args.Error(1)
}

func (m *MockRatingService) GetRecentRatings(ctx context.Context, userID string, limit int) ([]rating.Rating, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]rating.Rating), args.Error(1)
}

func (m *MockRatingService) GetRideRatings(ctx context.Context, rideID string) ([]rating.Rating, error) {
	args := m.Called(ctx, rideID)
	return args.Get(0).([]rating.Rating), args.Error(1)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) SendNotification(ctx context.Context, userID string, in ports.SendNotificationInput) (*ports.NotificationReceipt, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.NotificationReceipt), args.Error(1)
}

func (m *MockNotificationService) SendBulkNotifications(ctx context.Context, userIDs []string, in ports.SendNotificationInput) (ports.BulkResult, error) {
	args := m.Called(ctx, userIDs, in)
	return args.Get(0).(ports.BulkResult), args.Error(1)
}

func (m *MockNotificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*notification.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly, limit)
	return args.Get(0).([]*notification.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	args := m.Called(ctx, notificationID, userID)
	return args.Error(0)
}

func (m *MockNotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// ----- fixtures -----

func activeRide(total int) *ride.Ride {
	return &ride.Ride{
		ID:             "ride-1",
		DriverID:       "driver-1",
		Pickup:         ride.Location{Address: "Campus Main Gate"},
		Destination:    ride.Location{Address: "Liberty Market"},
		DepartureTime:  time.Now().Add(48 * time.Hour),
		TotalSeats:     total,
		AvailableSeats: total,
		PricePerSeat:   100,
		Status:         ride.StatusActive,
	}
}

func newTestService(rideRepo ports.RideRepository, bookingRepo ports.BookingRepository, rater ports.RatingService, notifier ports.NotificationService) ports.BookingService {
	// zero-value client makes every publish fail fast; publish failures
	// are logged, never propagated
	pub := rabbitmq.NewMQPublisher(&rabbitmq.Client{})
	return NewBookingService(logger.New("test"), fakeUOW{}, rideRepo, bookingRepo, &MockUserRepo{}, rater, notifier, pub, nil)
}

// ----- BookRide -----

func TestBookRide_Success(t *testing.T) {
	rideRepo := &MockRideRepo{}
	bookingRepo := &MockBookingRepo{}
	rater := &MockRatingService{}
	notifier := &MockNotificationService{}

	rideRepo.On("FindByID", mock.Anything, "ride-1").Return(activeRide(3), nil)
	bookingRepo.On("ConfirmedForRide", mock.Anything, "ride-1").Return([]*booking.Booking{}, nil)
	bookingRepo.On("FindByRideAndRider", mock.Anything, "ride-1", "rider-1").Return(nil, nil)
	rideRepo.On("ReserveSeats", mock.Anything, "ride-1", 2).Return(true, nil)
	bookingRepo.On("Create", mock.Anything, mock.AnythingOfType("*booking.Booking")).Return(nil)
	notifier.On("SendNotification", mock.Anything, "rider-1", mock.Anything).Return(nil, nil)
	notifier.On("SendNotification", mock.Anything, "driver-1", mock.Anything).Return(nil, nil)

	svc := newTestService(rideRepo, bookingRepo, rater, notifier)
	b, err := svc.BookRide(context.Background(), ports.BookRideInput{
		RideID:         "ride-1",
		RiderID:        "rider-1",
		SeatsRequested: 2,
		PickupPoint:    "Main Gate",
	})

	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, b.Status)
	assert.Equal(t, 2, b.SeatsRequested)
	assert.InDelta(t, 200.0, b.TotalAmount, 0.001)
	rideRepo.AssertExpectations(t)
	bookingRepo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestBookRide_SeatBounds(t *testing.T) {
	svc := newTestService(&MockRideRepo{}, &MockBookingRepo{}, &MockRatingService{}, &MockNotificationService{})

	for _, seats := range []int{0, 5} {
		_, err := svc.BookRide(context.Background(), ports.BookRideInput{
			RideID: "ride-1", RiderID: "rider-1", SeatsRequested: seats, PickupPoint: "Gate",
		})
		assert.Equal(t, fault.KindValidation, fault.KindOf(err))
	}
}

func TestBookRide_RideNotFound(t *testing.T) {
	rideRepo := &MockRideRepo{}
	rideRepo.On("FindByID", mock.Anything, "missing").Return(nil, nil)

	svc := newTestService(rideRepo, &MockBookingRepo{}, &MockRatingService{}, &MockNotificationService{})
	_, err := svc.BookRide(context.Background(), ports.BookRideInput{
		RideID: "missing", RiderID: "rider-1", SeatsRequested: 1, PickupPoint: "Gate",
	})

	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
}

func TestBookRide_RideNotActive(t *testing.T) {
	r := activeRide(3)
	r.Status = ride.StatusCompleted

	rideRepo := &MockRideRepo{}
	rideRepo.On("FindByID", mock.Anything, "ride-1").Return(r, nil)

	svc := newTestService(rideRepo, &MockBookingRepo{}, &MockRatingService{}, &MockNotificationService{})
	_, err := svc.BookRide(context.Background(), ports.BookRideInput{
		RideID: "ride-1", RiderID: "rider-1", SeatsRequested: 1, PickupPoint: "Gate",
	})

	assert.Equal(t, fault.KindConflict, fault.KindOf(err))
}

func TestBookRide_InsufficientSeats(t *testing.T) {
	rideRepo := &MockRideRepo{}
	bookingRepo := &MockBookingRepo{}

	rideRepo.On("FindByID", mock.Anything, "ride-1").Return(activeRide(3), nil)
	bookingRepo.On("ConfirmedForRide", mock.Anything, "ride-1").Return([]*booking.Booking{
		{SeatsRequested: 2, Status: booking.StatusConfirmed},
	}, nil)

	svc := newTestService(rideRepo, bookingRepo, &MockRatingService{}, &MockNotificationService{})
	_, err := svc.BookRide(context.Background(), ports.BookRideInput{
		RideID: "ride-1", RiderID: "rider-1", SeatsRequested: 2, PickupPoint: "Gate",
	})

	assert.Equal(t, fault.KindCapacity, fault.KindOf(err))
}

func TestBookRide_DuplicateBooking(t *testing.T) {
	rideRepo := &MockRideRepo{}
	bookingRepo := &MockBookingRepo{}

	rideRepo.On("FindByID", mock.Anything, "ride-1").Return(activeRide(3), nil)
	bookingRepo.On("ConfirmedForRide", mock.Anything, "ride-1").Return([]*booking.Booking{}, nil)
	bookingRepo.On("FindByRideAndRider", mock.Anything, "ride-1", "rider-1").Return(&booking.Booking{
		ID: "bk-1", Status: booking.StatusConfirmed,
	}, nil)

	svc := newTestService(rideRepo, bookingRepo, &MockRatingService{}, &MockNotificationService{})
	_, err := svc.BookRide(context.Background(), ports.BookRideInput{
		RideID: "ride-1", RiderID: "rider-1", SeatsRequested: 1, PickupPoint: "Gate",
	})

	assert.Equal(t, fault.KindConflict, fault.KindOf(err))
}

// A cancelled or rejected prior booking does not block rebooking.
func TestBookRide_RebookAfterCancellation(t *testing.T) {
	rideRepo := &MockRideRepo{}
	bookingRepo := &MockBookingRepo{}
	notifier := &MockNotificationService{}

	rideRepo.On("FindByID", mock.Anything, "ride-1").Return(activeRide(3), nil)
	bookingRepo.On("ConfirmedForRide", mock.Anything, "ride-1").Return([]*booking.Booking{}, nil)
	bookingRepo.On("FindByRideAndRider", mock.Anything, "ride-1", "rider-1").Return(&booking.Booking{
		ID: "bk-old", Status: booking.StatusCancelled,
	}, nil)
	rideRepo.On("ReserveSeats", mock.Anything, "ride-1", 1).Return(true, nil)
	bookingRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	notifier.On("SendNotification", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	svc := newTestService(rideRepo, bookingRepo, &MockRatingService{}, notifier)
	b, err := svc.BookRide(context.Background(), ports.BookRideInput{
		RideID: "ride-1", RiderID: "rider-1", SeatsRequested: 1, PickupPoint: "Gate",
	})

	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, b.Status)
}

func TestBookRide_ConcurrentDecrementLost(t *testing.T) {
	rideRepo := &MockRideRepo{}
	bookingRepo := &MockBookingRepo{}

	rideRepo.On("FindByID", mock.Anything, "ride-1").Return(activeRide(3), nil)
	bookingRepo.On("ConfirmedForRide", mock.Anything, "ride-1").Return([]*booking.Booking{}, nil)
	bookingRepo.On("FindByRideAndRider", mock.Anything, "ride-1", "rider-1").Return(nil, nil)
	rideRepo.On("ReserveSeats", mock.Anything, "ride-1", 1).Return(false, nil)

	svc := newTestService(rideRepo, bookingRepo, &MockRatingService{}, &MockNotificationService{})
	_, err := svc.BookRide(context.Background(), ports.BookRideInput{
		RideID: "ride-1", RiderID: "rider-1", SeatsRequested: 1, PickupPoint: "Gate",
	})

	assert.Equal(t, fault.KindCapacity, fault.KindOf(err))
}

// ----- CancelBooking -----

func confirmedBooking(amount float64) *booking.Booking {
	return &booking.Booking{
		ID:             "bk-1",
		RideID:         "ride-1",
		RiderID:        "rider-1",
		SeatsRequested: 1,
		TotalAmount:    amount,
		Status:         booking.StatusConfirmed,
		BookingCode:    "BK_20250310_120000_AB12",
	}
}

func TestCancelBooking_LateTier(t *testing.T) {
	rideRepo := &MockRideRepo{}
	bookingRepo := &MockBookingRepo{}
	rater := &MockRatingService{}
	notifier := &MockNotificationService{}

	r := activeRide(3)
	r.DepartureTime = time.Now().Add(30 * time.Minute)

	bookingRepo.On("FindByID", mock.Anything, "bk-1").Return(confirmedBooking(100), nil)
	rideRepo.On("FindByID", mock.Anything, "ride-1").Return(r, nil)
	bookingRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	rideRepo.On("ReleaseSeats", mock.Anything, "ride-1", 1).Return(nil)
	rater.On("ApplyAutomaticRating", mock.Anything, "rider-1", 2, rating.RoleRider, "Late cancellation").Return(nil, nil)
	notifier.On("SendNotification", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	svc := newTestService(rideRepo, bookingRepo, rater, notifier)
	res, err := svc.CancelBooking(context.Background(), ports.CancelBookingInput{
		BookingID: "bk-1", RiderID: "rider-1", Reason: "overslept",
	})

	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelledLate.String(), res.Status)
	assert.InDelta(t, 50.0, res.RefundAmount, 0.001)
	assert.InDelta(t, 50.0, res.PenaltyApplied, 0.001)
	rater.AssertExpectations(t)
}

func TestCancelBooking_FreeTier(t *testing.T) {
	rideRepo := &MockRideRepo{}
	bookingRepo := &MockBookingRepo{}
	rater := &MockRatingService{}
	notifier := &MockNotificationService{}

	bookingRepo.On("FindByID", mock.Anything, "bk-1").Return(confirmedBooking(100), nil)
	rideRepo.On("FindByID", mock.Anything, "ride-1").Return(activeRide(3), nil)
	bookingRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	rideRepo.On("ReleaseSeats", mock.Anything, "ride-1", 1).Return(nil)
	notifier.On("SendNotification", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	svc := newTestService(rideRepo, bookingRepo, rater, notifier)
	res, err := svc.CancelBooking(context.Background(), ports.CancelBookingInput{
		BookingID: "bk-1", RiderID: "rider-1",
	})

	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled.String(), res.Status)
	assert.InDelta(t, 100.0, res.RefundAmount, 0.001)
	assert.Zero(t, res.PenaltyApplied)
	rater.AssertNotCalled(t, "ApplyAutomaticRating", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelBooking_WrongRider(t *testing.T) {
	bookingRepo := &MockBookingRepo{}
	bookingRepo.On("FindByID", mock.Anything, "bk-1").Return(confirmedBooking(100), nil)

	svc := newTestService(&MockRideRepo{}, bookingRepo, &MockRatingService{}, &MockNotificationService{})
	_, err := svc.CancelBooking(context.Background(), ports.CancelBookingInput{
		BookingID: "bk-1", RiderID: "someone-else",
	})

	assert.Equal(t, fault.KindAuthorization, fault.KindOf(err))
}

func TestCancelBooking_AlreadyTerminal(t *testing.T) {
	b := confirmedBooking(100)
	b.Status = booking.StatusCompleted

	bookingRepo := &MockBookingRepo{}
	bookingRepo.On("FindByID", mock.Anything, "bk-1").Return(b, nil)

	svc := newTestService(&MockRideRepo{}, bookingRepo, &MockRatingService{}, &MockNotificationService{})
	_, err := svc.CancelBooking(context.Background(), ports.CancelBookingInput{
		BookingID: "bk-1", RiderID: "rider-1",
	})

	assert.Equal(t, fault.KindConflict, fault.KindOf(err))
}

// ----- CheckSeatAvailability -----

func TestCheckSeatAvailability_DerivesFromConfirmedBookings(t *testing.T) {
	rideRepo := &MockRideRepo{}
	bookingRepo := &MockBookingRepo{}

	r := activeRide(4)
	r.AvailableSeats = 4 // stale counter, two seats actually booked
	rideRepo.On("FindByID", mock.Anything, "ride-1").Return(r, nil)
	bookingRepo.On("ConfirmedForRide", mock.Anything, "ride-1").Return([]*booking.Booking{
		{SeatsRequested: 2, Status: booking.StatusConfirmed},
	}, nil)

	svc := newTestService(rideRepo, bookingRepo, &MockRatingService{}, &MockNotificationService{})
	avail, err := svc.CheckSeatAvailability(context.Background(), "ride-1", 2)

	require.NoError(t, err)
	assert.True(t, avail.Available)
	assert.Equal(t, 2, avail.RemainingSeats)
	assert.Equal(t, 2, avail.BookedSeats)
	assert.Equal(t, 4, avail.TotalSeats)

	avail, err = svc.CheckSeatAvailability(context.Background(), "ride-1", 3)
	require.NoError(t, err)
	assert.False(t, avail.Available)
}

func TestCheckSeatAvailability_BadInput(t *testing.T) {
	svc := newTestService(&MockRideRepo{}, &MockBookingRepo{}, &MockRatingService{}, &MockNotificationService{})
	_, err := svc.CheckSeatAvailability(context.Background(), "ride-1", 0)
	assert.Equal(t, fault.KindValidation, fault.KindOf(err))
}

// ----- last-seat race -----

// raceRideRepo serializes the conditional decrement the way the SQL
// UPDATE ... WHERE available_seats >= n does.
type raceRideRepo struct {
	mu        sync.Mutex
	ride      *ride.Ride
	remaining int
}

func (f *raceRideRepo) Create(ctx context.Context, r *ride.Ride) error { return nil }
func (f *raceRideRepo) FindByID(ctx context.Context, id string) (*ride.Ride, error) {
	return f.ride, nil
}
func (f *raceRideRepo) FindByDriverID(ctx context.Context, driverID string) ([]*ride.Ride, error) {
	return nil, nil
}
func (f *raceRideRepo) ReserveSeats(ctx context.Context, rideID string, seats int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.remaining < seats {
		return false, nil
	}
	f.remaining -= seats
	return true, nil
}
func (f *raceRideRepo) ReleaseSeats(ctx context.Context, rideID string, seats int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remaining += seats
	return nil
}
func (f *raceRideRepo) UpdateStatus(ctx context.Context, id string, status ride.Status, ts time.Time) error {
	return nil
}
func (f *raceRideRepo) CountByDriverAndStatus(ctx context.Context, driverID string, status ride.Status) (int, error) {
	return 0, nil
}

// raceBookingRepo records created bookings so capacity derives correctly.
type raceBookingRepo struct {
	mu       sync.Mutex
	bookings []*booking.Booking
}

func (f *raceBookingRepo) Create(ctx context.Context, b *booking.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings = append(f.bookings, b)
	return nil
}
func (f *raceBookingRepo) FindByID(ctx context.Context, id string) (*booking.Booking, error) {
	return nil, nil
}
func (f *raceBookingRepo) FindByRideAndRider(ctx context.Context, rideID, riderID string) (*booking.Booking, error) {
	return nil, nil
}
func (f *raceBookingRepo) FindByUserID(ctx context.Context, riderID string, filters ports.BookingFilters) ([]*booking.Booking, error) {
	return nil, nil
}
func (f *raceBookingRepo) FindByRideID(ctx context.Context, rideID string) ([]*booking.Booking, error) {
	return nil, nil
}
func (f *raceBookingRepo) ConfirmedForRide(ctx context.Context, rideID string) ([]*booking.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*booking.Booking, len(f.bookings))
	copy(out, f.bookings)
	return out, nil
}
func (f *raceBookingRepo) Update(ctx context.Context, b *booking.Booking) error { return nil }
func (f *raceBookingRepo) CountCancelledByRider(ctx context.Context, riderID string) (int, error) {
	return 0, nil
}

func TestBookRide_LastSeatRace(t *testing.T) {
	const riders = 8

	r := activeRide(4)
	r.AvailableSeats = 1
	rideRepo := &raceRideRepo{ride: r, remaining: 1}
	bookingRepo := &raceBookingRepo{bookings: []*booking.Booking{
		{SeatsRequested: 3, Status: booking.StatusConfirmed}, // 1 seat left
	}}

	notifier := &MockNotificationService{}
	notifier.On("SendNotification", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	svc := newTestService(rideRepo, bookingRepo, &MockRatingService{}, notifier)

	var wg sync.WaitGroup
	results := make(chan error, riders)
	for i := 0; i < riders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.BookRide(context.Background(), ports.BookRideInput{
				RideID:         "ride-1",
				RiderID:        "rider-" + string(rune('a'+n)),
				SeatsRequested: 1,
				PickupPoint:    "Gate",
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, fault.KindCapacity, fault.KindOf(err))
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one rider wins the last seat")
	assert.Equal(t, 0, rideRepo.remaining)
}
