package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"unipool/internal/domain/rating"
)

// ----- Handler: POST /safety/no-show -----

type noShowRequest struct {
	BookingID string `json:"booking_id"`
	UserID    string `json:"user_id"`
	RoleType  string `json:"role_type"`
}

func (handler *SafetyHTTPHandler) handleNoShow(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req noShowRequest
	if err := dec.Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.BookingID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "booking_id is required", nil)
		return
	}
	if req.UserID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	incident, err := handler.svc.RecordNoShow(ctxWithTimeout, req.BookingID, req.UserID, rating.RoleType(req.RoleType))
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err, "failed to record no-show")
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusCreated, map[string]any{
		"incident_id": incident.ID,
		"user_id":     incident.UserID,
		"booking_id":  incident.BookingID,
		"type":        string(incident.Type),
		"created_at":  incident.CreatedAt,
	})
}
