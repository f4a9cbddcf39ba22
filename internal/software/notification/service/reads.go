package service

import (
	"context"
	"time"

	"unipool/internal/domain/fault"
	"unipool/internal/domain/notification"
)

// ListForUser returns the user's unexpired notifications, newest first.
func (service *notificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*notification.Notification, error) {
	var list []*notification.Notification
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		list, err = service.notifRepo.FindByUserID(txCtx, userID, unreadOnly, limit)
		return err
	})
	return list, err
}

// MarkRead stamps a notification as read for its owner.
func (service *notificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	var matched bool
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		matched, err = service.notifRepo.MarkRead(txCtx, notificationID, userID, time.Now().UTC())
		return err
	})
	if err != nil {
		return err
	}
	if !matched {
		return fault.NotFoundf("notification %s not found for user %s", notificationID, userID)
	}
	return nil
}

// UnreadCount returns how many unexpired notifications are still unread.
func (service *notificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		count, err = service.notifRepo.UnreadCount(txCtx, userID)
		return err
	})
	return count, err
}
