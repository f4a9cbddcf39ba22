package service

import (
	"unipool/internal/general/logger"
	"unipool/internal/ports"
)

// Service encapsulates the admin dashboard logic and dependencies.
type adminService struct {
	logger    *logger.Logger
	uow       ports.UnitOfWork
	adminRepo ports.AdminRepository
}

// NewAdminService creates a new instance of the AdminService with the provided dependencies.
func NewAdminService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	adminRepo ports.AdminRepository,
) ports.AdminService {
	return &adminService{
		logger:    logger,
		uow:       uow,
		adminRepo: adminRepo,
	}
}
