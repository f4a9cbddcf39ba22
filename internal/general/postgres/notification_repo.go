package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"unipool/internal/domain/notification"
	"unipool/internal/ports"

	"github.com/jackc/pgx/v5"
)

// NotificationRepo persists notifications using pgx and plain SQL.
// Delivery results live in a jsonb column keyed by channel.
type NotificationRepo struct{}

// NewNotificationRepo constructs a new NotificationRepo.
func NewNotificationRepo() ports.NotificationRepository {
	return &NotificationRepo{}
}

// Create inserts a new notification row.
func (repo *NotificationRepo) Create(ctx context.Context, n *notification.Notification) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	dataRaw, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("marshal notification data: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO notifications (
			user_id, type, title, message, priority, data, status, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`,
		n.UserID, n.Type, n.Title, n.Message, n.Priority, dataRaw,
		string(n.Status), n.ExpiresAt,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	return nil
}

// UpdateDelivery stores the per-channel results and the settled status.
func (repo *NotificationRepo) UpdateDelivery(ctx context.Context, n *notification.Notification) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	deliveryRaw, err := json.Marshal(n.Delivery)
	if err != nil {
		return fmt.Errorf("marshal delivery results: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE notifications
		SET status = $2, delivery_results = $3
		WHERE id = $1
	`, n.ID, string(n.Status), deliveryRaw)
	if err != nil {
		return fmt.Errorf("update notification delivery: %w", err)
	}
	return nil
}

// MarkRead stamps a notification read; the user filter keeps riders from
// reading each other's records.
func (repo *NotificationRepo) MarkRead(ctx context.Context, id, userID string, at time.Time) (bool, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return false, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE notifications
		SET status = 'read', read_at = $3
		WHERE id = $1 AND user_id = $2
	`, id, userID, at)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// FindByUserID lists a user's unexpired notifications, newest first.
func (repo *NotificationRepo) FindByUserID(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*notification.Notification, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, type, title, message, priority, data,
		       status, delivery_results, created_at, read_at, expires_at
		FROM notifications
		WHERE user_id = $1 AND expires_at > now()`
	if unreadOnly {
		query += ` AND status <> 'read'`
	}
	query += ` ORDER BY created_at DESC LIMIT $2`

	rows, err := tx.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var out []*notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return out, nil
}

// UnreadCount counts unexpired, unread notifications.
func (repo *NotificationRepo) UnreadCount(ctx context.Context, userID string) (int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE user_id = $1 AND status <> 'read' AND expires_at > now()
	`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}

// ----- scanning helpers -----

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var (
		n            notification.Notification
		priorityText string
		statusText   string
		dataRaw      []byte
		deliveryRaw  []byte
	)
	err := row.Scan(
		&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &priorityText, &dataRaw,
		&statusText, &deliveryRaw, &n.CreatedAt, &n.ReadAt, &n.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	n.Priority = notification.Priority(priorityText)
	n.Status = notification.Status(statusText)

	if len(dataRaw) > 0 {
		if err := json.Unmarshal(dataRaw, &n.Data); err != nil {
			return nil, err
		}
	}
	if len(deliveryRaw) > 0 {
		if err := json.Unmarshal(deliveryRaw, &n.Delivery); err != nil {
			return nil, err
		}
	} else {
		n.Delivery = map[notification.Channel]notification.ChannelResult{}
	}

	return &n, nil
}
