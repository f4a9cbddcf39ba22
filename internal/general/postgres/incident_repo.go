package postgres

import (
	"context"
	"fmt"

	"unipool/internal/domain/safety"
	"unipool/internal/ports"
)

// IncidentRepo archives safety incidents using pgx and plain SQL.
type IncidentRepo struct{}

// NewIncidentRepo constructs a new IncidentRepo.
func NewIncidentRepo() ports.IncidentRepository {
	return &IncidentRepo{}
}

// Create inserts a new incident row.
func (repo *IncidentRepo) Create(ctx context.Context, inc *safety.Incident) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO safety_incidents (user_id, booking_id, role_type, type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, inc.UserID, inc.BookingID, inc.RoleType, string(inc.Type)).Scan(&inc.ID, &inc.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert safety incident: %w", err)
	}

	return nil
}

// CountByUserAndType counts a user's incidents of one kind.
func (repo *IncidentRepo) CountByUserAndType(ctx context.Context, userID string, kind safety.IncidentType) (int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM safety_incidents WHERE user_id = $1 AND type = $2
	`, userID, string(kind)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count safety incidents: %w", err)
	}
	return n, nil
}
