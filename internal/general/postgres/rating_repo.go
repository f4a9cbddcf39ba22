package postgres

import (
	"context"
	"errors"
	"fmt"

	"unipool/internal/domain/rating"
	"unipool/internal/ports"

	"github.com/jackc/pgx/v5"
)

// RatingRepo persists ratings using pgx and plain SQL. Rating rows are
// insert-only; there is no update path.
type RatingRepo struct{}

// NewRatingRepo constructs a new RatingRepo.
func NewRatingRepo() ports.RatingRepository {
	return &RatingRepo{}
}

const ratingColumns = `
	id, ride_id, rater_user_id, rated_user_id,
	role_type, stars, review, is_automatic, created_at`

// Create inserts a new rating row.
func (repo *RatingRepo) Create(ctx context.Context, r *rating.Rating) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO ratings (
			ride_id, rater_user_id, rated_user_id,
			role_type, stars, review, is_automatic
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`,
		r.RideID, r.RaterUserID, r.RatedUserID,
		r.RoleType.String(), r.Stars, r.Review, r.IsAutomatic,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert rating: %w", err)
	}

	return nil
}

// FindByRideAndRater returns the rating for a (ride, rater, role) triple,
// or (nil, nil) when the rater has not rated yet.
func (repo *RatingRepo) FindByRideAndRater(ctx context.Context, rideID, raterUserID string, role rating.RoleType) (*rating.Rating, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `SELECT`+ratingColumns+`
		FROM ratings
		WHERE ride_id = $1 AND rater_user_id = $2 AND role_type = $3
		LIMIT 1`, rideID, raterUserID, role.String())
	r, err := scanRating(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query rating by ride and rater: %w", err)
	}
	return r, nil
}

// FindByUserID lists ratings received by a user; role narrows to one
// side when non-nil.
func (repo *RatingRepo) FindByUserID(ctx context.Context, ratedUserID string, role *rating.RoleType) ([]rating.Rating, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT` + ratingColumns + ` FROM ratings WHERE rated_user_id = $1`
	args := []any{ratedUserID}
	if role != nil {
		args = append(args, role.String())
		query += " AND role_type = $2"
	}
	query += " ORDER BY created_at"

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ratings by user: %w", err)
	}
	defer rows.Close()

	return collectRatings(rows)
}

// FindRecentByUserID lists the newest ratings received by a user.
func (repo *RatingRepo) FindRecentByUserID(ctx context.Context, ratedUserID string, limit int) ([]rating.Rating, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `SELECT`+ratingColumns+`
		FROM ratings
		WHERE rated_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, ratedUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent ratings: %w", err)
	}
	defer rows.Close()

	return collectRatings(rows)
}

// FindByRideID lists all ratings left on one ride, oldest first.
func (repo *RatingRepo) FindByRideID(ctx context.Context, rideID string) ([]rating.Rating, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `SELECT`+ratingColumns+`
		FROM ratings
		WHERE ride_id = $1
		ORDER BY created_at`, rideID)
	if err != nil {
		return nil, fmt.Errorf("query ratings by ride: %w", err)
	}
	defer rows.Close()

	return collectRatings(rows)
}

// ----- scanning helpers -----

func scanRating(row pgx.Row) (*rating.Rating, error) {
	var (
		r        rating.Rating
		roleText string
	)
	err := row.Scan(
		&r.ID, &r.RideID, &r.RaterUserID, &r.RatedUserID,
		&roleText, &r.Stars, &r.Review, &r.IsAutomatic, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.RoleType = rating.RoleType(roleText)
	return &r, nil
}

func collectRatings(rows pgx.Rows) ([]rating.Rating, error) {
	var ratings []rating.Rating
	for rows.Next() {
		r, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return ratings, nil
}
