package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"unipool/internal/domain/booking"
	"unipool/internal/domain/user"
	"unipool/internal/general/jwt"
	"unipool/internal/ports"
)

// ----- Handler: GET /users/{user_id}/bookings?status=... -----

func (handler *BookingHTTPHandler) handleUserBookings(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	userID := strings.TrimSpace(r.PathValue("user_id"))
	if userID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing user_id in path", nil)
		return
	}

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}
	// riders only see their own bookings; admins see anyone's
	if claims.Subject != userID && claims.Role != user.RoleAdmin {
		handler.httpError(ctx, w, http.StatusForbidden, "user_id does not match token subject", nil)
		return
	}

	var filters ports.BookingFilters
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := booking.ParseStatus(raw)
		if err != nil {
			handler.httpError(ctx, w, http.StatusBadRequest, "invalid status filter", err)
			return
		}
		filters.Status = &status
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	views, err := handler.svc.GetUserBookings(ctxWithTimeout, userID, filters)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err, "failed to list bookings")
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, map[string]any{
		"bookings": views,
		"count":    len(views),
	})
}

// ----- Handler: GET /rides/{ride_id}/bookings -----

func (handler *BookingHTTPHandler) handleRideBookings(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	rideID := strings.TrimSpace(r.PathValue("ride_id"))
	if rideID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing ride_id in path", nil)
		return
	}

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	views, err := handler.svc.GetRideBookings(ctxWithTimeout, rideID, strings.TrimSpace(claims.Subject))
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err, "failed to list ride bookings")
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, map[string]any{
		"bookings": views,
		"count":    len(views),
	})
}

// ----- Handler: GET /users/{user_id}/bookings/stats -----

func (handler *BookingHTTPHandler) handleBookingStats(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	userID := strings.TrimSpace(r.PathValue("user_id"))
	if userID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing user_id in path", nil)
		return
	}

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}
	if claims.Subject != userID && claims.Role != user.RoleAdmin {
		handler.httpError(ctx, w, http.StatusForbidden, "user_id does not match token subject", nil)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	stats, err := handler.svc.GetUserBookingStats(ctxWithTimeout, userID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err, "failed to compute booking stats")
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, stats)
}
