package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"unipool/internal/domain/rating"
)

// ----- Handler: GET /users/{user_id}/ratings/stats?role=driver -----

func (handler *RatingHTTPHandler) handleRatingStats(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	userID := strings.TrimSpace(r.PathValue("user_id"))
	if userID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing user_id in path", nil)
		return
	}

	var role *rating.RoleType
	if raw := r.URL.Query().Get("role"); raw != "" {
		parsed, err := rating.ParseRole(raw)
		if err != nil {
			handler.httpError(ctx, w, http.StatusBadRequest, "role must be driver or rider", err)
			return
		}
		role = &parsed
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	stats, err := handler.svc.GetUserRatingStats(ctxWithTimeout, userID, role)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err, "failed to compute rating stats")
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, stats)
}

// ----- Handler: GET /users/{user_id}/ratings/recent?limit=N -----

func (handler *RatingHTTPHandler) handleRecentRatings(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	userID := strings.TrimSpace(r.PathValue("user_id"))
	if userID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing user_id in path", nil)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			handler.httpError(ctx, w, http.StatusBadRequest, "limit must be an integer", err)
			return
		}
		limit = parsed
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ratings, err := handler.svc.GetRecentRatings(ctxWithTimeout, userID, limit)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err, "failed to list recent ratings")
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, map[string]any{
		"ratings": ratings,
		"count":   len(ratings),
	})
}
