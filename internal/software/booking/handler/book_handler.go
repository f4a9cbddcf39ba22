package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"unipool/internal/general/jwt"
	"unipool/internal/ports"
)

// --- Request DTO (HTTP boundary) ---

type bookRideRequest struct {
	SeatsRequested  int    `json:"seats_requested"`
	PickupPoint     string `json:"pickup_point"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

// ----- Handler: POST /rides/{ride_id}/bookings -----

func (handler *BookingHTTPHandler) handleBookRide(w http.ResponseWriter, r *http.Request) {
	// generate a context with request ID
	ctx := handler.withReqID(r.Context(), r)

	// check the content type
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return
	}

	// limit body size
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	rideID := strings.TrimSpace(r.PathValue("ride_id"))
	if rideID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing ride_id in path", nil)
		return
	}

	// the booking rider is the token subject
	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}
	riderID := strings.TrimSpace(claims.Subject)
	if riderID == "" {
		handler.httpError(ctx, w, http.StatusUnauthorized, "token has no subject", nil)
		return
	}

	// decode strictly
	var req bookRideRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			handler.httpError(ctx, w, http.StatusRequestEntityTooLarge, "request body too large", err)
			return
		}
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	in := ports.BookRideInput{
		RideID:          rideID,
		RiderID:         riderID,
		SeatsRequested:  req.SeatsRequested,
		PickupPoint:     req.PickupPoint,
		SpecialRequests: req.SpecialRequests,
	}

	// bound service call
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	b, err := handler.svc.BookRide(ctxWithTimeout, in)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err, "failed to book ride")
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusCreated, ports.BookRideResult{
		BookingID:   b.ID,
		BookingCode: b.BookingCode,
		Status:      b.Status.String(),
		Seats:       b.SeatsRequested,
		TotalAmount: b.TotalAmount,
		BookingTime: b.BookingTime,
	})
}
