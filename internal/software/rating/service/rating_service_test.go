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
	"unipool/internal/domain/user"
	"unipool/internal/general/logger"
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

type MockRatingRepo struct {
	mock.Mock
}

func (m *MockRatingRepo) Create(ctx context.Context, r *rating.Rating) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRatingRepo) FindByRideAndRater(ctx context.Context, rideID, raterUserID string, role rating.RoleType) (*rating.Rating, error) {
	args := m.Called(ctx, rideID, raterUserID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rating.Rating), args.Error(1)
}

func (m *MockRatingRepo) FindByUserID(ctx context.Context, ratedUserID string, role *rating.RoleType) ([]rating.Rating, error) {
	args := m.Called(ctx, ratedUserID, role)
	return args.Get(0).([]rating.Rating), args.Error(1)
}

func (m *MockRatingRepo) FindRecentByUserID(ctx context.Context, ratedUserID string, limit int) ([]rating.Rating, error) {
	args := m.Called(ctx, ratedUserID, limit)
	return args.Get(0).([]rating.Rating), args.Error(1)
}

func (m *MockRatingRepo) FindByRideID(ctx context.Context, rideID string) ([]rating.Rating, error) {
	args := m.Called(ctx, rideID)
	return args.Get(0).([]rating.Rating), args.Error(1)
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

func newRatingTestService(ratingRepo ports.RatingRepository, userRepo ports.UserRepository, rideRepo ports.RideRepository, bookingRepo ports.BookingRepository, notifier ports.NotificationService) ports.RatingService {
	return NewRatingService(logger.New("test"), fakeUOW{}, ratingRepo, userRepo, rideRepo, bookingRepo, notifier)
}

func ratingsOf(stars ...int) []rating.Rating {
	out := make([]rating.Rating, 0, len(stars))
	for _, s := range stars {
		out = append(out, rating.Rating{Stars: s})
	}
	return out
}

func validInput() ports.AddRatingInput {
	return ports.AddRatingInput{
		RideID:      "ride-1",
		RaterUserID: "rider-1",
		RatedUserID: "driver-1",
		RoleType:    "driver",
		Stars:       5,
		Review:      "arrived on time",
	}
}

// ----- AddRating -----

func TestAddRating_Success(t *testing.T) {
	ratingRepo := &MockRatingRepo{}
	userRepo := &MockUserRepo{}
	rideRepo := &MockRideRepo{}
	bookingRepo := &MockBookingRepo{}
	notifier := &MockNotificationService{}

	rideRepo.On("FindByID", mock.Anything, "ride-1").Return(&ride.Ride{ID: "ride-1", DriverID: "driver-1"}, nil)
	bookingRepo.On("FindByRideAndRider", mock.Anything, "ride-1", "rider-1").Return(&booking.Booking{
		ID: "bk-1", Status: booking.StatusCompleted,
	}, nil)
	ratingRepo.On("FindByRideAndRater", mock.Anything, "ride-1", "rider-1", rating.RoleDriver).Return(nil, nil)
	ratingRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	ratingRepo.On("FindByUserID", mock.Anything, "driver-1", mock.Anything).Return(ratingsOf(5, 4, 5), nil)
	userRepo.On("UpdateAggregate", mock.Anything, "driver-1", rating.RoleDriver, 4.67, 3).Return(nil)

	svc := newRatingTestService(ratingRepo, userRepo, rideRepo, bookingRepo, notifier)
	r, err := svc.AddRating(context.Background(), validInput())

	require.NoError(t, err)
	assert.Equal(t, 5, r.Stars)
	assert.False(t, r.IsAutomatic)
	userRepo.AssertExpectations(t)
	notifier.AssertNotCalled(t, "SendNotification", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddRating_Duplicate(t *testing.T) {
	ratingRepo := &MockRatingRepo{}
	ratingRepo.On("FindByRideAndRater", mock.Anything, "ride-1", "rider-1", rating.RoleDriver).Return(&rating.Rating{ID: "rt-1"}, nil)

	svc := newRatingTestService(ratingRepo, &MockUserRepo{}, &MockRideRepo{}, &MockBookingRepo{}, &MockNotificationService{})
	_, err := svc.AddRating(context.Background(), validInput())

	assert.Equal(t, fault.KindConflict, fault.KindOf(err))
}

func TestAddRating_RatedUserNotDriver(t *testing.T) {
	ratingRepo := &MockRatingRepo{}
	rideRepo := &MockRideRepo{}

	ratingRepo.On("FindByRideAndRater", mock.Anything, "ride-1", "rider-1", rating.RoleDriver).Return(nil, nil)
	rideRepo.On("FindByID", mock.Anything, "ride-1").Return(&ride.Ride{ID: "ride-1", DriverID: "someone-else"}, nil)

	svc := newRatingTestService(ratingRepo, &MockUserRepo{}, rideRepo, &MockBookingRepo{}, &MockNotificationService{})
	_, err := svc.AddRating(context.Background(), validInput())

	assert.Equal(t, fault.KindValidation, fault.KindOf(err))
}

func TestAddRating_RaterDidNotParticipate(t *testing.T) {
	ratingRepo := &MockRatingRepo{}
	rideRepo := &MockRideRepo{}
	bookingRepo := &MockBookingRepo{}

	ratingRepo.On("FindByRideAndRater", mock.Anything, "ride-1", "rider-1", rating.RoleDriver).Return(nil, nil)
	rideRepo.On("FindByID", mock.Anything, "ride-1").Return(&ride.Ride{ID: "ride-1", DriverID: "driver-1"}, nil)
	bookingRepo.On("FindByRideAndRider", mock.Anything, "ride-1", "rider-1").Return(nil, nil)

	svc := newRatingTestService(ratingRepo, &MockUserRepo{}, rideRepo, bookingRepo, &MockNotificationService{})
	_, err := svc.AddRating(context.Background(), validInput())

	assert.Equal(t, fault.KindValidation, fault.KindOf(err))
}

// A cancelled booking does not count as participation.
func TestAddRating_CancelledBookingRejected(t *testing.T) {
	ratingRepo := &MockRatingRepo{}
	rideRepo := &MockRideRepo{}
	bookingRepo := &MockBookingRepo{}

	ratingRepo.On("FindByRideAndRater", mock.Anything, "ride-1", "rider-1", rating.RoleDriver).Return(nil, nil)
	rideRepo.On("FindByID", mock.Anything, "ride-1").Return(&ride.Ride{ID: "ride-1", DriverID: "driver-1"}, nil)
	bookingRepo.On("FindByRideAndRider", mock.Anything, "ride-1", "rider-1").Return(&booking.Booking{
		ID: "bk-1", Status: booking.StatusCancelled,
	}, nil)

	svc := newRatingTestService(ratingRepo, &MockUserRepo{}, rideRepo, bookingRepo, &MockNotificationService{})
	_, err := svc.AddRating(context.Background(), validInput())

	assert.Equal(t, fault.KindValidation, fault.KindOf(err))
}

func TestAddRating_BadStars(t *testing.T) {
	svc := newRatingTestService(&MockRatingRepo{}, &MockUserRepo{}, &MockRideRepo{}, &MockBookingRepo{}, &MockNotificationService{})

	in := validInput()
	in.Stars = 6
	_, err := svc.AddRating(context.Background(), in)
	assert.Equal(t, fault.KindValidation, fault.KindOf(err))
}

// ----- feedback loop -----

func TestAddRating_LowRatingWarning(t *testing.T) {
	ratingRepo := &MockRatingRepo{}
	userRepo := &MockUserRepo{}
	rideRepo := &MockRideRepo{}
	bookingRepo := &MockBookingRepo{}
	notifier := &MockNotificationService{}

	rideRepo.On("FindByID", mock.Anything, "ride-1").Return(&ride.Ride{ID: "ride-1", DriverID: "driver-1"}, nil)
	bookingRepo.On("FindByRideAndRider", mock.Anything, "ride-1", "rider-1").Return(&booking.Booking{
		ID: "bk-1", Status: booking.StatusCompleted,
	}, nil)
	ratingRepo.On("FindByRideAndRater", mock.Anything, "ride-1", "rider-1", rating.RoleDriver).Return(nil, nil)
	ratingRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	ratingRepo.On("FindByUserID", mock.Anything, "driver-1", mock.Anything).Return(ratingsOf(2, 5, 5), nil)
	userRepo.On("UpdateAggregate", mock.Anything, "driver-1", rating.RoleDriver, 4.0, 3).Return(nil)
	notifier.On("SendNotification", mock.Anything, "driver-1", mock.MatchedBy(func(in ports.SendNotificationInput) bool {
		return in.Type == "low_rating_warning" && in.Priority == notification.PriorityHigh
	})).Return(nil, nil)

	in := validInput()
	in.Stars = 2

	svc := newRatingTestService(ratingRepo, userRepo, rideRepo, bookingRepo, notifier)
	_, err := svc.AddRating(context.Background(), in)

	require.NoError(t, err)
	notifier.AssertExpectations(t)
	userRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApplyAutomaticRating_FlagsCriticalAverage(t *testing.T) {
	ratingRepo := &MockRatingRepo{}
	userRepo := &MockUserRepo{}
	notifier := &MockNotificationService{}

	// ten ratings averaging 1.9 after the automatic one lands
	history := ratingsOf(2, 2, 2, 2, 2, 2, 2, 2, 2, 1)
	ratingRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	ratingRepo.On("FindByUserID", mock.Anything, "rider-1", mock.Anything).Return(history, nil)
	userRepo.On("UpdateAggregate", mock.Anything, "rider-1", rating.RoleRider, 1.9, 10).Return(nil)
	userRepo.On("UpdateStatus", mock.Anything, "rider-1", user.StatusFlagged, "Average rating 1.90 over 10 ratings", mock.Anything).Return(nil)
	notifier.On("SendNotification", mock.Anything, "rider-1", mock.MatchedBy(func(in ports.SendNotificationInput) bool {
		return in.Type == "low_rating_warning"
	})).Return(nil, nil)
	notifier.On("SendNotification", mock.Anything, "rider-1", mock.MatchedBy(func(in ports.SendNotificationInput) bool {
		return in.Type == "account_flagged" && in.Priority == notification.PriorityCritical
	})).Return(nil, nil)

	svc := newRatingTestService(ratingRepo, userRepo, &MockRideRepo{}, &MockBookingRepo{}, notifier)
	r, err := svc.ApplyAutomaticRating(context.Background(), "rider-1", 1, rating.RoleRider, "No-show for booked ride")

	require.NoError(t, err)
	assert.True(t, r.IsAutomatic)
	assert.Equal(t, rating.SystemRaterID, r.RaterUserID)
	userRepo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

// Nine ratings is under the minimum sample; the account is not flagged
// even with a critical average.
func TestApplyAutomaticRating_SmallSampleNotFlagged(t *testing.T) {
	ratingRepo := &MockRatingRepo{}
	userRepo := &MockUserRepo{}
	notifier := &MockNotificationService{}

	history := ratingsOf(2, 2, 2, 2, 2, 2, 2, 2, 1)
	ratingRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	ratingRepo.On("FindByUserID", mock.Anything, "rider-1", mock.Anything).Return(history, nil)
	userRepo.On("UpdateAggregate", mock.Anything, "rider-1", rating.RoleRider, 1.89, 9).Return(nil)
	notifier.On("SendNotification", mock.Anything, "rider-1", mock.Anything).Return(nil, nil)

	svc := newRatingTestService(ratingRepo, userRepo, &MockRideRepo{}, &MockBookingRepo{}, notifier)
	_, err := svc.ApplyAutomaticRating(context.Background(), "rider-1", 1, rating.RoleRider, "No-show for booked ride")

	require.NoError(t, err)
	userRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// ----- GetRideRatings -----

func TestGetRideRatings_Success(t *testing.T) {
	ratingRepo := &MockRatingRepo{}
	rideRepo := &MockRideRepo{}

	rideRepo.On("FindByID", mock.Anything, "ride-1").Return(&ride.Ride{ID: "ride-1", DriverID: "driver-1"}, nil)
	ratingRepo.On("FindByRideID", mock.Anything, "ride-1").Return(ratingsOf(5, 3), nil)

	svc := newRatingTestService(ratingRepo, &MockUserRepo{}, rideRepo, &MockBookingRepo{}, &MockNotificationService{})
	ratings, err := svc.GetRideRatings(context.Background(), "ride-1")

	require.NoError(t, err)
	assert.Len(t, ratings, 2)
}

func TestGetRideRatings_RideNotFound(t *testing.T) {
	ratingRepo := &MockRatingRepo{}
	rideRepo := &MockRideRepo{}
	rideRepo.On("FindByID", mock.Anything, "ride-9").Return(nil, nil)

	svc := newRatingTestService(ratingRepo, &MockUserRepo{}, rideRepo, &MockBookingRepo{}, &MockNotificationService{})
	_, err := svc.GetRideRatings(context.Background(), "ride-9")

	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
	ratingRepo.AssertNotCalled(t, "FindByRideID", mock.Anything, mock.Anything)
}

func TestGetRideRatings_BlankRideID(t *testing.T) {
	svc := newRatingTestService(&MockRatingRepo{}, &MockUserRepo{}, &MockRideRepo{}, &MockBookingRepo{}, &MockNotificationService{})
	_, err := svc.GetRideRatings(context.Background(), "  ")

	assert.Equal(t, fault.KindValidation, fault.KindOf(err))
}
