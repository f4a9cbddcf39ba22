package service

import (
	"context"
	"fmt"
	"strings"

	"unipool/internal/domain/fault"
	"unipool/internal/domain/rating"
	"unipool/internal/domain/ride"
	"unipool/internal/domain/safety"
	"unipool/internal/domain/user"
	"unipool/internal/ports"
)

// ValidateRideSafety runs the four independent checks against a candidate
// ride and folds them into a report. The ride service calls this before
// persisting anything.
func (service *safetyService) ValidateRideSafety(ctx context.Context, in ports.RideSafetyInput) (safety.Report, error) {
	var checks []safety.Check

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		driver, err := service.userRepo.FindByID(txCtx, in.DriverID)
		if err != nil {
			return err
		}
		if driver == nil {
			return fault.NotFoundf("driver %s not found", in.DriverID)
		}

		history, err := service.loadDriverHistory(txCtx, driver)
		if err != nil {
			return err
		}

		checks = []safety.Check{
			service.checkTimeRestriction(in),
			service.checkDriverSafety(driver, history),
			service.checkLocationSafety(in),
			service.checkSuspiciousPatterns(driver, history),
		}
		return nil
	})
	if err != nil {
		return safety.Report{}, err
	}

	report := safety.BuildReport(checks)

	service.logger.Info(ctx, "ride_safety_validated", "Ride safety checks completed", map[string]any{
		"driver_id": in.DriverID,
		"is_safe":   report.IsSafe,
		"warnings":  len(report.Warnings),
	})

	return report, nil
}

// driverHistory collects the counts the driver-facing checks share.
type driverHistory struct {
	completedRides int
	cancelledRides int
	noShows        int
	cancellations  int
}

func (service *safetyService) loadDriverHistory(ctx context.Context, driver *user.User) (driverHistory, error) {
	var h driverHistory
	var err error

	if h.completedRides, err = service.rideRepo.CountByDriverAndStatus(ctx, driver.ID, ride.StatusCompleted); err != nil {
		return h, err
	}
	if h.cancelledRides, err = service.rideRepo.CountByDriverAndStatus(ctx, driver.ID, ride.StatusCancelled); err != nil {
		return h, err
	}
	if h.noShows, err = service.incidentRepo.CountByUserAndType(ctx, driver.ID, safety.IncidentNoShow); err != nil {
		return h, err
	}
	if h.cancellations, err = service.bookingRepo.CountCancelledByRider(ctx, driver.ID); err != nil {
		return h, err
	}
	return h, nil
}

// checkTimeRestriction enforces the campus operating window on the
// departure hour.
func (service *safetyService) checkTimeRestriction(in ports.RideSafetyInput) safety.Check {
	start := service.cfg.Safety.OperatingHourStart
	end := service.cfg.Safety.OperatingHourEnd
	hour := in.DepartureTime.Hour()

	check := safety.Check{
		Type: safety.CheckTimeRestriction,
		Safe: hour >= start && hour < end,
		Details: map[string]any{
			"departure_hour": hour,
			"allowed_window": fmt.Sprintf("%02d:00-%02d:00", start, end),
		},
	}
	if !check.Safe {
		check.Warning = fmt.Sprintf("Departure at %02d:00 is outside operating hours (%d AM - %d PM)", hour, start, end-12)
	}
	return check
}

// checkDriverSafety verifies the driver's university email, rating, and
// reliability rates.
func (service *safetyService) checkDriverSafety(driver *user.User, h driverHistory) safety.Check {
	details := map[string]any{}
	var problems []string

	if !service.emailDomainAllowed(driver.Email) {
		problems = append(problems, "driver email is not a verified university address")
	}
	details["email_verified"] = service.emailDomainAllowed(driver.Email)

	avg := driver.EffectiveRating(rating.RoleDriver)
	details["driver_rating"] = avg
	if avg < minDriverRating {
		problems = append(problems, fmt.Sprintf("driver rating %.1f is below %.1f", avg, minDriverRating))
	}

	totalRides := h.completedRides + h.cancelledRides
	noShowRate, cancelRate := 0.0, 0.0
	if totalRides > 0 {
		noShowRate = float64(h.noShows) / float64(totalRides)
		cancelRate = float64(h.cancelledRides) / float64(totalRides)
	}
	details["no_show_rate"] = noShowRate
	details["cancel_rate"] = cancelRate
	if noShowRate > maxNoShowRate {
		problems = append(problems, fmt.Sprintf("no-show rate %.0f%% exceeds %.0f%%", noShowRate*100, maxNoShowRate*100))
	}
	if cancelRate > maxCancelRate {
		problems = append(problems, fmt.Sprintf("cancellation rate %.0f%% exceeds %.0f%%", cancelRate*100, maxCancelRate*100))
	}

	check := safety.Check{
		Type:    safety.CheckDriverSafety,
		Safe:    len(problems) == 0,
		Details: details,
	}
	if !check.Safe {
		check.Warning = strings.Join(problems, "; ")
	}
	return check
}

// checkLocationSafety rejects unsafe address keywords and trips beyond
// the service radius.
func (service *safetyService) checkLocationSafety(in ports.RideSafetyInput) safety.Check {
	details := map[string]any{}
	var problems []string

	for _, keyword := range service.cfg.Safety.UnsafeKeywords {
		kw := strings.ToLower(keyword)
		if strings.Contains(strings.ToLower(in.Pickup), kw) {
			problems = append(problems, fmt.Sprintf("pickup location mentions %q", keyword))
		}
		if strings.Contains(strings.ToLower(in.Destination), kw) {
			problems = append(problems, fmt.Sprintf("destination mentions %q", keyword))
		}
	}

	distance := ride.HaversineKM(in.PickupLat, in.PickupLng, in.DestLat, in.DestLng)
	details["trip_distance_km"] = distance
	if distance > service.cfg.Safety.MaxTripDistanceKM {
		problems = append(problems, fmt.Sprintf("trip distance %.1f km exceeds %.0f km limit", distance, service.cfg.Safety.MaxTripDistanceKM))
	}

	check := safety.Check{
		Type:    safety.CheckLocationSafety,
		Safe:    len(problems) == 0,
		Details: details,
	}
	if !check.Safe {
		check.Warning = strings.Join(problems, "; ")
	}
	return check
}

// checkSuspiciousPatterns looks at absolute incident counts and the
// lifetime average.
func (service *safetyService) checkSuspiciousPatterns(driver *user.User, h driverHistory) safety.Check {
	details := map[string]any{
		"no_shows":      h.noShows,
		"cancellations": h.cancellations,
	}
	var problems []string

	if h.noShows >= service.cfg.Safety.NoShowThreshold {
		problems = append(problems, fmt.Sprintf("%d recorded no-shows", h.noShows))
	}
	if h.cancellations >= service.cfg.Safety.CancellationLimit {
		problems = append(problems, fmt.Sprintf("%d cancelled bookings", h.cancellations))
	}

	avg := driver.EffectiveRating(rating.RoleDriver)
	details["average_rating"] = avg
	if avg <= 2.0 {
		problems = append(problems, fmt.Sprintf("average rating %.1f is critically low", avg))
	}

	check := safety.Check{
		Type:    safety.CheckSuspiciousPatterns,
		Safe:    len(problems) == 0,
		Details: details,
	}
	if !check.Safe {
		check.Warning = strings.Join(problems, "; ")
	}
	return check
}

func (service *safetyService) emailDomainAllowed(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	for _, allowed := range service.cfg.Safety.AllowedEmailDomains {
		if domain == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}
