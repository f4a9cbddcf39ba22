package booking

// Cancellation tiers keyed by hours-until-departure at cancellation time.
type CancellationTier string

const (
	TierLate        CancellationTier = "late"         // < 1h before departure
	TierShortNotice CancellationTier = "short_notice" // [1h, 24h)
	TierFree        CancellationTier = "free"         // >= 24h
)

// AutoRatingPenalty describes the system-authored rating a cancellation
// tier injects against the rider.
type AutoRatingPenalty struct {
	Stars  int
	Reason string
}

// CancellationOutcome is the pure result of applying the cancellation
// policy to a booking; persisting it and firing the rating side effect is
// the caller's job.
type CancellationOutcome struct {
	Tier                CancellationTier
	PenaltyApplied      float64
	RefundAmount        float64
	HoursUntilDeparture float64
	AutoRating          *AutoRatingPenalty
}

// Penalty percentages per tier.
const (
	latePenaltyFraction        = 0.5
	shortNoticePenaltyFraction = 0.2
)

// EvaluateCancellation is a pure function of the booked amount and the
// time left until departure:
//
//	< 1h      -> 50% penalty, 50% refund, automatic 2-star rating
//	[1h, 24h) -> 20% penalty, 80% refund, automatic 1-star rating
//	>= 24h    -> no penalty, full refund, no rating side effect
func EvaluateCancellation(totalAmount, hoursUntilDeparture float64) CancellationOutcome {
	switch {
	case hoursUntilDeparture < 1:
		return CancellationOutcome{
			Tier:                TierLate,
			PenaltyApplied:      totalAmount * latePenaltyFraction,
			RefundAmount:        totalAmount * (1 - latePenaltyFraction),
			HoursUntilDeparture: hoursUntilDeparture,
			AutoRating:          &AutoRatingPenalty{Stars: 2, Reason: "Late cancellation"},
		}
	case hoursUntilDeparture < 24:
		return CancellationOutcome{
			Tier:                TierShortNotice,
			PenaltyApplied:      totalAmount * shortNoticePenaltyFraction,
			RefundAmount:        totalAmount * (1 - shortNoticePenaltyFraction),
			HoursUntilDeparture: hoursUntilDeparture,
			AutoRating:          &AutoRatingPenalty{Stars: 1, Reason: "Short notice cancellation"},
		}
	default:
		return CancellationOutcome{
			Tier:                TierFree,
			PenaltyApplied:      0,
			RefundAmount:        totalAmount,
			HoursUntilDeparture: hoursUntilDeparture,
		}
	}
}
