package service

import (
	"unipool/internal/general/config"
	"unipool/internal/general/logger"
	"unipool/internal/general/rabbitmq"
	"unipool/internal/general/websocket"
	"unipool/internal/ports"
)

// Service encapsulates notification dispatch logic and dependencies.
type notificationService struct {
	logger    *logger.Logger
	cfg       *config.Config
	uow       ports.UnitOfWork
	notifRepo ports.NotificationRepository
	userRepo  ports.UserRepository
	pub       *rabbitmq.MQPublisher
	gateway   *websocket.Gateway
}

// NewNotificationService creates a new instance of the NotificationService with the provided dependencies.
func NewNotificationService(
	logger *logger.Logger,
	cfg *config.Config,
	uow ports.UnitOfWork,
	notifRepo ports.NotificationRepository,
	userRepo ports.UserRepository,
	pub *rabbitmq.MQPublisher,
	gateway *websocket.Gateway,
) ports.NotificationService {
	return &notificationService{
		logger:    logger,
		cfg:       cfg,
		uow:       uow,
		notifRepo: notifRepo,
		userRepo:  userRepo,
		pub:       pub,
		gateway:   gateway,
	}
}
