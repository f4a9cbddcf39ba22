package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ----- Handler: GET /rides/{ride_id}/availability?seats=N -----

func (handler *BookingHTTPHandler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	rideID := strings.TrimSpace(r.PathValue("ride_id"))
	if rideID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing ride_id in path", nil)
		return
	}

	seats := 1
	if raw := r.URL.Query().Get("seats"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			handler.httpError(ctx, w, http.StatusBadRequest, "seats must be an integer", err)
			return
		}
		seats = parsed
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.svc.CheckSeatAvailability(ctxWithTimeout, rideID, seats)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err, "failed to check availability")
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
