package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"unipool/internal/ports"
)

// ----- Handler: POST /safety/validate-ride -----

type validateRideRequest struct {
	DriverID      string    `json:"driver_id"`
	DepartureTime time.Time `json:"departure_time"`
	Pickup        struct {
		Address   string  `json:"address"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"pickup"`
	Destination struct {
		Address   string  `json:"address"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"destination"`
}

// handleValidateRide runs the pre-creation safety gate without creating
// anything, so clients can preview a rejection before submitting.
func (handler *SafetyHTTPHandler) handleValidateRide(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req validateRideRequest
	if err := dec.Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.DriverID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "driver_id is required", nil)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	report, err := handler.svc.ValidateRideSafety(ctxWithTimeout, ports.RideSafetyInput{
		DriverID:      req.DriverID,
		DepartureTime: req.DepartureTime,
		Pickup:        req.Pickup.Address,
		Destination:   req.Destination.Address,
		PickupLat:     req.Pickup.Latitude,
		PickupLng:     req.Pickup.Longitude,
		DestLat:       req.Destination.Latitude,
		DestLng:       req.Destination.Longitude,
	})
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err, "failed to validate ride safety")
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, report)
}
