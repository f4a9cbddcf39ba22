package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"unipool/internal/domain/rating"
	"unipool/internal/domain/user"
	"unipool/internal/ports"

	"github.com/jackc/pgx/v5"
)

// UserRepo persists users using pgx and plain SQL.
type UserRepo struct{}

// NewUserRepo constructs a new UserRepo.
func NewUserRepo() ports.UserRepository {
	return &UserRepo{}
}

// FindByID returns one user by id, or (nil, nil) when absent.
func (repo *UserRepo) FindByID(ctx context.Context, id string) (*user.User, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var (
		out        user.User
		statusText string
		prefsRaw   []byte
	)

	err = tx.QueryRow(ctx, `
		SELECT
			id, created_at, updated_at, name, email, phone, status,
			driver_rating_avg, driver_rating_count,
			rider_rating_avg, rider_rating_count,
			preferences, flag_reason, flagged_at
		FROM users
		WHERE id = $1
	`, id).Scan(
		&out.ID, &out.CreatedAt, &out.UpdatedAt, &out.Name, &out.Email, &out.Phone, &statusText,
		&out.Driver.Average, &out.Driver.Count,
		&out.Rider.Average, &out.Rider.Count,
		&prefsRaw, &out.FlagReason, &out.FlaggedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user by id: %w", err)
	}

	out.Status = user.Status(statusText)

	// decode JSONB preferences (nullable but defaults to '{}' in schema)
	if len(prefsRaw) > 0 {
		if err := json.Unmarshal(prefsRaw, &out.Prefs); err != nil {
			return nil, fmt.Errorf("decode user preferences: %w", err)
		}
	}

	return &out, nil
}

// UpdateAggregate stores a freshly folded rating aggregate for one role.
func (repo *UserRepo) UpdateAggregate(ctx context.Context, userID string, role rating.RoleType, avg float64, count int) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	query := `
		UPDATE users
		SET rider_rating_avg = $2, rider_rating_count = $3, updated_at = now()
		WHERE id = $1`
	if role == rating.RoleDriver {
		query = `
		UPDATE users
		SET driver_rating_avg = $2, driver_rating_count = $3, updated_at = now()
		WHERE id = $1`
	}

	if _, err := tx.Exec(ctx, query, userID, avg, count); err != nil {
		return fmt.Errorf("update rating aggregate: %w", err)
	}
	return nil
}

// UpdateStatus flags or restores an account.
func (repo *UserRepo) UpdateStatus(ctx context.Context, userID string, status user.Status, reason string, at time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	var flagReason *string
	var flaggedAt *time.Time
	if status.Flagged() {
		flagReason = &reason
		flaggedAt = &at
	}

	_, err = tx.Exec(ctx, `
		UPDATE users
		SET status = $2, flag_reason = $3, flagged_at = $4, updated_at = now()
		WHERE id = $1
	`, userID, status.String(), flagReason, flaggedAt)
	if err != nil {
		return fmt.Errorf("update user status: %w", err)
	}
	return nil
}
