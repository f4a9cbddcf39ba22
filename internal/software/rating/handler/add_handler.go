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

type addRatingRequest struct {
	RideID      string `json:"ride_id"`
	RatedUserID string `json:"rated_user_id"`
	RoleType    string `json:"role_type"`
	Stars       int    `json:"stars"`
	Review      string `json:"review,omitempty"`
}

// ----- Handler: POST /ratings -----

func (handler *RatingHTTPHandler) handleAddRating(w http.ResponseWriter, r *http.Request) {
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

	var req addRatingRequest
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

	in := ports.AddRatingInput{
		RideID:      req.RideID,
		RaterUserID: strings.TrimSpace(claims.Subject),
		RatedUserID: req.RatedUserID,
		RoleType:    req.RoleType,
		Stars:       req.Stars,
		Review:      req.Review,
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rating, err := handler.svc.AddRating(ctxWithTimeout, in)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err, "failed to add rating")
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusCreated, map[string]any{
		"rating_id":  rating.ID,
		"stars":      rating.Stars,
		"created_at": rating.CreatedAt,
	})
}
