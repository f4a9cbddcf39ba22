package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"unipool/internal/general/jwt"
	"unipool/internal/ports"
)

type cancelBookingRequest struct {
	Reason string `json:"reason,omitempty"`
}

// ----- Handler: DELETE /bookings/{booking_id} -----

func (handler *BookingHTTPHandler) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	bookingID := strings.TrimSpace(r.PathValue("booking_id"))
	if bookingID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing booking_id in path", nil)
		return
	}
	ctx = handler.logger.WithBookingID(ctx, bookingID)

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}

	// the reason body is optional
	var req cancelBookingRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	in := ports.CancelBookingInput{
		BookingID: bookingID,
		RiderID:   strings.TrimSpace(claims.Subject),
		Reason:    req.Reason,
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := handler.svc.CancelBooking(ctxWithTimeout, in)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err, "failed to cancel booking")
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
