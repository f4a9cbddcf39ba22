package user

import (
	"testing"

	"unipool/internal/domain/rating"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveRating_NeutralUntilSampled(t *testing.T) {
	u := &User{}
	u.SetAggregate(rating.RoleDriver, 1.5, 2)

	// two ratings are not a sample yet
	assert.Equal(t, NeutralRating, u.EffectiveRating(rating.RoleDriver))

	u.SetAggregate(rating.RoleDriver, 1.5, 3)
	assert.Equal(t, 1.5, u.EffectiveRating(rating.RoleDriver))
}

func TestEffectiveRating_PerRole(t *testing.T) {
	u := &User{}
	u.SetAggregate(rating.RoleDriver, 4.8, 10)
	u.SetAggregate(rating.RoleRider, 2.1, 5)

	assert.Equal(t, 4.8, u.EffectiveRating(rating.RoleDriver))
	assert.Equal(t, 2.1, u.EffectiveRating(rating.RoleRider))
}

func TestFlag(t *testing.T) {
	u := &User{Status: StatusActive}
	u.Flag(StatusSafetyFlagged, "3 no-show incidents")

	assert.Equal(t, StatusSafetyFlagged, u.Status)
	assert.True(t, u.Status.Flagged())
	assert.NotNil(t, u.FlaggedAt)
	assert.Equal(t, "3 no-show incidents", *u.FlagReason)
}
