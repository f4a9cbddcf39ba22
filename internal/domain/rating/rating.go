package rating

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	MinStars        = 1
	MaxStars        = 5
	MaxReviewLength = 200

	// SystemRaterID authors automatic ratings injected by policy engines.
	SystemRaterID = "system"
)

// Rating is the domain entity corresponding to the `ratings` table.
// Values are immutable once written.
type Rating struct {
	ID          string
	RideID      *string // nil for automatic ratings
	RaterUserID string
	RatedUserID string
	RoleType    RoleType
	Stars       int
	Review      *string
	IsAutomatic bool
	CreatedAt   time.Time
}

var (
	ErrRideRequired    = errors.New("ride id is required")
	ErrRaterRequired   = errors.New("rater user id is required")
	ErrRatedRequired   = errors.New("rated user id is required")
	ErrStarsOutOfRange = fmt.Errorf("rating must be between %d and %d", MinStars, MaxStars)
	ErrReviewTooLong   = fmt.Errorf("review must be %d characters or less", MaxReviewLength)
)

// NewRating builds a peer rating for a ride.
func NewRating(rideID, raterUserID, ratedUserID string, role RoleType, stars int, review string) (*Rating, error) {
	if strings.TrimSpace(rideID) == "" {
		return nil, ErrRideRequired
	}
	if strings.TrimSpace(raterUserID) == "" {
		return nil, ErrRaterRequired
	}
	if strings.TrimSpace(ratedUserID) == "" {
		return nil, ErrRatedRequired
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if stars < MinStars || stars > MaxStars {
		return nil, ErrStarsOutOfRange
	}
	if len(review) > MaxReviewLength {
		return nil, ErrReviewTooLong
	}

	r := &Rating{
		RideID:      &rideID,
		RaterUserID: raterUserID,
		RatedUserID: ratedUserID,
		RoleType:    role,
		Stars:       stars,
		CreatedAt:   time.Now().UTC(),
	}
	if rv := strings.TrimSpace(review); rv != "" {
		r.Review = &rv
	}
	return r, nil
}

// NewAutomaticRating builds a system-authored rating with no parent ride.
// Participation verification does not apply to these.
func NewAutomaticRating(ratedUserID string, role RoleType, stars int, reason string) (*Rating, error) {
	if strings.TrimSpace(ratedUserID) == "" {
		return nil, ErrRatedRequired
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if stars < MinStars || stars > MaxStars {
		return nil, ErrStarsOutOfRange
	}

	review := "Automatic rating: " + strings.TrimSpace(reason)
	return &Rating{
		RaterUserID: SystemRaterID,
		RatedUserID: ratedUserID,
		RoleType:    role,
		Stars:       stars,
		Review:      &review,
		IsAutomatic: true,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Stats is the deterministic fold over all ratings for a (user, role).
type Stats struct {
	TotalRatings  int
	AverageRating float64
	Distribution  map[int]int
}

// ComputeStats folds the given ratings into count, rounded average, and a
// 1..5 star distribution. An empty slice yields a zeroed distribution.
func ComputeStats(ratings []Rating) Stats {
	dist := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	if len(ratings) == 0 {
		return Stats{Distribution: dist}
	}

	sum := 0
	for _, r := range ratings {
		sum += r.Stars
		dist[r.Stars]++
	}
	avg := float64(sum) / float64(len(ratings))

	return Stats{
		TotalRatings:  len(ratings),
		AverageRating: math.Round(avg*100) / 100,
		Distribution:  dist,
	}
}
