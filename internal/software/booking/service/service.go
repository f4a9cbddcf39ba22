package service

import (
	"unipool/internal/general/logger"
	"unipool/internal/general/rabbitmq"
	"unipool/internal/general/redis"
	"unipool/internal/ports"
)

// Service encapsulates seat inventory and the booking state machine.
type bookingService struct {
	logger      *logger.Logger
	uow         ports.UnitOfWork
	rideRepo    ports.RideRepository
	bookingRepo ports.BookingRepository
	userRepo    ports.UserRepository
	rater       ports.RatingService
	notifier    ports.NotificationService
	pub         *rabbitmq.MQPublisher
	cache       *redis.Cache // optional, nil disables caching
}

// NewBookingService creates a new instance of the BookingService with the provided dependencies.
func NewBookingService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	rideRepo ports.RideRepository,
	bookingRepo ports.BookingRepository,
	userRepo ports.UserRepository,
	rater ports.RatingService,
	notifier ports.NotificationService,
	pub *rabbitmq.MQPublisher,
	cache *redis.Cache,
) ports.BookingService {
	return &bookingService{
		logger:      logger,
		uow:         uow,
		rideRepo:    rideRepo,
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		rater:       rater,
		notifier:    notifier,
		pub:         pub,
		cache:       cache,
	}
}
