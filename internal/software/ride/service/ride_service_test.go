package service

import (
	"context"
	"testing"
	"time"

	"unipool/internal/domain/booking"
	"unipool/internal/domain/fault"
	"unipool/internal/domain/notification"
	"unipool/internal/domain/rating"
	"unipool/internal/domain/ride"
	"unipool/internal/domain/safety"
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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingRepo) FindByRideID(ctx context.Context, rideID string) ([]*booking.Booking, error) {
	args := m.Called(ctx, rideID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingRepo) ConfirmedForRide(ctx context.Context, rideID string) ([]*booking.Booking, error) {
	args := m.Called(ctx, rideID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
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

type MockSafetyService struct {
	mock.Mock
}

func (m *MockSafetyService) ValidateRideSafety(ctx context.Context, in ports.RideSafetyInput) (safety.Report, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(safety.Report), args.Error(1)
}

func (m *MockSafetyService) RecordNoShow(ctx context.Context, bookingID, userID string, role rating.RoleType) (*safety.Incident, error) {
	args := m.Called(ctx, bookingID, userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*safety.Incident), args.Error(1)
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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
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

func newRideTestService(rideRepo ports.RideRepository, bookingRepo ports.BookingRepository, safetySvc ports.SafetyService, notifier ports.NotificationService) ports.RideService {
	// zero-value client makes every publish fail fast; publish failures
	// are logged, never propagated
	pub := rabbitmq.NewMQPublisher(&rabbitmq.Client{})
	return NewRideService(logger.New("test"), fakeUOW{}, rideRepo, bookingRepo, safetySvc, notifier, pub)
}

func validCreateInput() ports.CreateRideInput {
	return ports.CreateRideInput{
		DriverID:      "driver-1",
		PickupAddress: "FCC Main Gate",
		PickupLat:     31.5204,
		PickupLng:     74.3587,
		DestAddress:   "Liberty Market",
		DestLat:       31.5102,
		DestLng:       74.3441,
		DepartureTime: time.Now().Add(48 * time.Hour),
		TotalSeats:    3,
		PricePerSeat:  150,
	}
}

func safeReport() safety.Report {
	return safety.Report{IsSafe: true}
}

func unsafeReport() safety.Report {
	return safety.Report{
		IsSafe:          false,
		Warnings:        []string{"departure outside allowed hours"},
		Recommendations: []string{safety.Recommendations[safety.CheckTimeRestriction]},
	}
}

func activeRideFor(driverID string) *ride.Ride {
	return &ride.Ride{
		ID:             "ride-1",
		DriverID:       driverID,
		Pickup:         ride.Location{Address: "FCC Main Gate"},
		Destination:    ride.Location{Address: "Liberty Market"},
		DepartureTime:  time.Now().Add(-1 * time.Hour),
		TotalSeats:     3,
		AvailableSeats: 1,
		PricePerSeat:   150,
		Status:         ride.StatusActive,
	}
}

// ----- CreateRide -----

func TestCreateRide_Success(t *testing.T) {
	rideRepo := &MockRideRepo{}
	bookingRepo := &MockBookingRepo{}
	safetySvc := &MockSafetyService{}
	notifier := &MockNotificationService{}

	safetySvc.On("ValidateRideSafety", mock.Anything, mock.Anything).Return(safeReport(), nil)
	rideRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	notifier.On("SendNotification", mock.Anything, "driver-1", mock.MatchedBy(func(in ports.SendNotificationInput) bool {
		return in.Type == "ride_created"
	})).Return(nil, nil)

	svc := newRideTestService(rideRepo, bookingRepo, safetySvc, notifier)

	res, err := svc.CreateRide(context.Background(), validCreateInput())
	require.NoError(t, err)

	assert.Equal(t, "active", res.Status)
	assert.Equal(t, 3, res.TotalSeats)
	assert.True(t, res.SafetyReport.IsSafe)
	rideRepo.AssertCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateRide_BlockedBySafetyGate(t *testing.T) {
	rideRepo := &MockRideRepo{}
	bookingRepo := &MockBookingRepo{}
	safetySvc := &MockSafetyService{}
	notifier := &MockNotificationService{}

	safetySvc.On("ValidateRideSafety", mock.Anything, mock.Anything).Return(unsafeReport(), nil)

	svc := newRideTestService(rideRepo, bookingRepo, safetySvc, notifier)

	res, err := svc.CreateRide(context.Background(), validCreateInput())
	require.Error(t, err)

	assert.Equal(t, fault.KindValidation, fault.KindOf(err))
	assert.Contains(t, err.Error(), "departure outside allowed hours")
	assert.False(t, res.SafetyReport.IsSafe)
	rideRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "SendNotification", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateRide_InvalidInput(t *testing.T) {
	rideRepo := &MockRideRepo{}
	bookingRepo := &MockBookingRepo{}
	safetySvc := &MockSafetyService{}
	notifier := &MockNotificationService{}

	svc := newRideTestService(rideRepo, bookingRepo, safetySvc, notifier)

	tests := []struct {
		name   string
		mutate func(*ports.CreateRideInput)
	}{
		{"no driver", func(in *ports.CreateRideInput) { in.DriverID = " " }},
		{"too many seats", func(in *ports.CreateRideInput) { in.TotalSeats = 5 }},
		{"departure in past", func(in *ports.CreateRideInput) { in.DepartureTime = time.Now().Add(-time.Hour) }},
		{"negative price", func(in *ports.CreateRideInput) { in.PricePerSeat = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validCreateInput()
			tt.mutate(&in)
			_, err := svc.CreateRide(context.Background(), in)
			require.Error(t, err)
			assert.Equal(t, fault.KindValidation, fault.KindOf(err))
		})
	}
	safetySvc.AssertNotCalled(t, "ValidateRideSafety", mock.Anything, mock.Anything)
}

// ----- CompleteRide -----

func TestCompleteRide_CascadesConfirmedBookings(t *testing.T) {
	rideRepo := &MockRideRepo{}
	bookingRepo := &MockBookingRepo{}
	safetySvc := &MockSafetyService{}
	notifier := &MockNotificationService{}

	confirmed := []*booking.Booking{
		{ID: "bk-1", RideID: "ride-1", RiderID: "rider-1", SeatsRequested: 1, Status: booking.StatusConfirmed},
		{ID: "bk-2", RideID: "ride-1", RiderID: "rider-2", SeatsRequested: 2, Status: booking.StatusConfirmed},
	}

	rideRepo.On("FindByID", mock.Anything, "ride-1").Return(activeRideFor("driver-1"), nil)
	rideRepo.On("UpdateStatus", mock.Anything, "ride-1", ride.StatusCompleted, mock.Anything).Return(nil)
	bookingRepo.On("ConfirmedForRide", mock.Anything, "ride-1").Return(confirmed, nil)
	bookingRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	notifier.On("SendNotification", mock.Anything, mock.Anything, mock.MatchedBy(func(in ports.SendNotificationInput) bool {
		return in.Type == "ride_completed"
	})).Return(nil, nil)

	svc := newRideTestService(rideRepo, bookingRepo, safetySvc, notifier)

	require.NoError(t, svc.CompleteRide(context.Background(), "ride-1", "driver-1"))

	assert.Equal(t, booking.StatusCompleted, confirmed[0].Status)
	assert.Equal(t, booking.StatusCompleted, confirmed[1].Status)
	bookingRepo.AssertNumberOfCalls(t, "Update", 2)
	notifier.AssertNumberOfCalls(t, "SendNotification", 2)
}

func TestCompleteRide_WrongDriver(t *testing.T) {
	rideRepo := &MockRideRepo{}
	bookingRepo := &MockBookingRepo{}
	safetySvc := &MockSafetyService{}
	notifier := &MockNotificationService{}

	rideRepo.On("FindByID", mock.Anything, "ride-1").Return(activeRideFor("driver-1"), nil)

	svc := newRideTestService(rideRepo, bookingRepo, safetySvc, notifier)

	err := svc.CompleteRide(context.Background(), "ride-1", "driver-2")
	require.Error(t, err)
	assert.Equal(t, fault.KindAuthorization, fault.KindOf(err))
	rideRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCompleteRide_NotFound(t *testing.T) {
	rideRepo := &MockRideRepo{}
	bookingRepo := &MockBookingRepo{}
	safetySvc := &MockSafetyService{}
	notifier := &MockNotificationService{}

	rideRepo.On("FindByID", mock.Anything, "missing").Return(nil, nil)

	svc := newRideTestService(rideRepo, bookingRepo, safetySvc, notifier)

	err := svc.CompleteRide(context.Background(), "missing", "driver-1")
	require.Error(t, err)
	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
}

func TestCompleteRide_AlreadyCompleted(t *testing.T) {
	rideRepo := &MockRideRepo{}
	bookingRepo := &MockBookingRepo{}
	safetySvc := &MockSafetyService{}
	notifier := &MockNotificationService{}

	r := activeRideFor("driver-1")
	r.Status = ride.StatusCompleted
	rideRepo.On("FindByID", mock.Anything, "ride-1").Return(r, nil)

	svc := newRideTestService(rideRepo, bookingRepo, safetySvc, notifier)

	err := svc.CompleteRide(context.Background(), "ride-1", "driver-1")
	require.Error(t, err)
	assert.Equal(t, fault.KindConflict, fault.KindOf(err))
}
