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

type createRideRequest struct {
	Pickup struct {
		Address   string  `json:"address"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"pickup"`
	Destination struct {
		Address   string  `json:"address"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"destination"`
	DepartureTime time.Time `json:"departure_time"`
	TotalSeats    int       `json:"total_seats"`
	PricePerSeat  float64   `json:"price_per_seat"`
}

// ----- Handler: POST /rides -----

func (handler *RideHTTPHandler) handleCreateRide(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}

	var req createRideRequest
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

	in := ports.CreateRideInput{
		DriverID:      strings.TrimSpace(claims.Subject),
		PickupAddress: req.Pickup.Address,
		PickupLat:     req.Pickup.Latitude,
		PickupLng:     req.Pickup.Longitude,
		DestAddress:   req.Destination.Address,
		DestLat:       req.Destination.Latitude,
		DestLng:       req.Destination.Longitude,
		DepartureTime: req.DepartureTime,
		TotalSeats:    req.TotalSeats,
		PricePerSeat:  req.PricePerSeat,
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := handler.svc.CreateRide(ctxWithTimeout, in)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err, "failed to create ride")
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusCreated, res)
}
