package user

import (
	"time"

	"unipool/internal/domain/notification"
	"unipool/internal/domain/rating"
)

// MinRatingsForSample is the minimum number of ratings before an average
// is trusted; below it every policy check reads the neutral value.
const (
	MinRatingsForSample = 3
	NeutralRating       = 3.0
)

// RoleAggregate is the running rating average/count for one role.
type RoleAggregate struct {
	Average float64
	Count   int
}

// Preferences are per-user notification settings, stored as jsonb.
type Preferences struct {
	PushNotifications  bool                     `json:"push_notifications"`
	EmailNotifications bool                     `json:"email_notifications"`
	SMSNotifications   bool                     `json:"sms_notifications"`
	QuietHours         *notification.QuietHours `json:"quiet_hours,omitempty"`
}

// User is the domain entity corresponding to the `users` table.
type User struct {
	ID         string
	Name       string
	Email      string
	Phone      string
	Status     Status
	Driver     RoleAggregate
	Rider      RoleAggregate
	Prefs      Preferences
	FlagReason *string
	FlaggedAt  *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AggregateFor returns the stored aggregate for a role.
func (u *User) AggregateFor(role rating.RoleType) RoleAggregate {
	if role == rating.RoleDriver {
		return u.Driver
	}
	return u.Rider
}

// EffectiveRating is the average used by policy checks: the neutral 3.0
// until the user has enough ratings to form a real sample.
func (u *User) EffectiveRating(role rating.RoleType) float64 {
	agg := u.AggregateFor(role)
	if agg.Count < MinRatingsForSample {
		return NeutralRating
	}
	return agg.Average
}

// SetAggregate stores a freshly folded aggregate for a role.
func (u *User) SetAggregate(role rating.RoleType, avg float64, count int) {
	agg := RoleAggregate{Average: avg, Count: count}
	if role == rating.RoleDriver {
		u.Driver = agg
	} else {
		u.Rider = agg
	}
	u.UpdatedAt = time.Now().UTC()
}

// Flag moves the account into a flagged state with a reason.
func (u *User) Flag(status Status, reason string) {
	now := time.Now().UTC()
	u.Status = status
	u.FlagReason = &reason
	u.FlaggedAt = &now
	u.UpdatedAt = now
}
