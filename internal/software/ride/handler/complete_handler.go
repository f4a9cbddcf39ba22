package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"unipool/internal/general/jwt"
)

// ----- Handler: POST /rides/{ride_id}/complete -----

func (handler *RideHTTPHandler) handleCompleteRide(w http.ResponseWriter, r *http.Request) {
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

	if err := handler.svc.CompleteRide(ctxWithTimeout, rideID, strings.TrimSpace(claims.Subject)); err != nil {
		handler.serviceError(ctxWithTimeout, w, err, "failed to complete ride")
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, map[string]string{
		"ride_id": rideID,
		"status":  "completed",
	})
}
