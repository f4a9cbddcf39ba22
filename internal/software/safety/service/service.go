package service

import (
	"unipool/internal/general/config"
	"unipool/internal/general/logger"
	"unipool/internal/ports"
)

// Policy thresholds not carried in config.
const (
	minDriverRating = 3.0
	maxNoShowRate   = 0.10
	maxCancelRate   = 0.20

	// no-show escalation: warn at cfg NoShowThreshold, flag here
	noShowFlagThreshold = 5
)

// Service encapsulates the safety checks and incident handling.
type safetyService struct {
	logger       *logger.Logger
	cfg          *config.Config
	uow          ports.UnitOfWork
	userRepo     ports.UserRepository
	rideRepo     ports.RideRepository
	bookingRepo  ports.BookingRepository
	incidentRepo ports.IncidentRepository
	rater        ports.RatingService
	notifier     ports.NotificationService
}

// NewSafetyService creates a new instance of the SafetyService with the provided dependencies.
func NewSafetyService(
	logger *logger.Logger,
	cfg *config.Config,
	uow ports.UnitOfWork,
	userRepo ports.UserRepository,
	rideRepo ports.RideRepository,
	bookingRepo ports.BookingRepository,
	incidentRepo ports.IncidentRepository,
	rater ports.RatingService,
	notifier ports.NotificationService,
) ports.SafetyService {
	return &safetyService{
		logger:       logger,
		cfg:          cfg,
		uow:          uow,
		userRepo:     userRepo,
		rideRepo:     rideRepo,
		bookingRepo:  bookingRepo,
		incidentRepo: incidentRepo,
		rater:        rater,
		notifier:     notifier,
	}
}
