package service

import (
	"unipool/internal/general/logger"
	"unipool/internal/ports"
)

// Thresholds for the rating feedback loop.
const (
	lowRatingThreshold = 2.5 // a single rating at or below this warns the user
	criticalAverage    = 2.0 // lifetime average at or below this flags the account
	criticalMinRatings = 10  // only once the sample is large enough

	defaultRecentLimit = 10
)

// Service encapsulates the rating feedback loop and its dependencies.
type ratingService struct {
	logger      *logger.Logger
	uow         ports.UnitOfWork
	ratingRepo  ports.RatingRepository
	userRepo    ports.UserRepository
	rideRepo    ports.RideRepository
	bookingRepo ports.BookingRepository
	notifier    ports.NotificationService
}

// NewRatingService creates a new instance of the RatingService with the provided dependencies.
func NewRatingService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	ratingRepo ports.RatingRepository,
	userRepo ports.UserRepository,
	rideRepo ports.RideRepository,
	bookingRepo ports.BookingRepository,
	notifier ports.NotificationService,
) ports.RatingService {
	return &ratingService{
		logger:      logger,
		uow:         uow,
		ratingRepo:  ratingRepo,
		userRepo:    userRepo,
		rideRepo:    rideRepo,
		bookingRepo: bookingRepo,
		notifier:    notifier,
	}
}
