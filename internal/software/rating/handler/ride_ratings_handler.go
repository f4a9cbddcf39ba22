package handler

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// ----- Handler: GET /rides/{ride_id}/ratings -----

func (handler *RatingHTTPHandler) handleRideRatings(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	rideID := strings.TrimSpace(r.PathValue("ride_id"))
	if rideID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing ride_id in path", nil)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ratings, err := handler.svc.GetRideRatings(ctxWithTimeout, rideID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err, "failed to list ride ratings")
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, map[string]any{
		"ride_id": rideID,
		"ratings": ratings,
		"count":   len(ratings),
	})
}
