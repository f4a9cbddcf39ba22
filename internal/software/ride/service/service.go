package service

import (
	"unipool/internal/general/logger"
	"unipool/internal/general/rabbitmq"
	"unipool/internal/ports"
)

// Service encapsulates the safety-gated ride lifecycle.
type rideService struct {
	logger      *logger.Logger
	uow         ports.UnitOfWork
	rideRepo    ports.RideRepository
	bookingRepo ports.BookingRepository
	safety      ports.SafetyService
	notifier    ports.NotificationService
	pub         *rabbitmq.MQPublisher
}

// NewRideService creates a new instance of the RideService with the provided dependencies.
func NewRideService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	rideRepo ports.RideRepository,
	bookingRepo ports.BookingRepository,
	safety ports.SafetyService,
	notifier ports.NotificationService,
	pub *rabbitmq.MQPublisher,
) ports.RideService {
	return &rideService{
		logger:      logger,
		uow:         uow,
		rideRepo:    rideRepo,
		bookingRepo: bookingRepo,
		safety:      safety,
		notifier:    notifier,
		pub:         pub,
	}
}
