package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"unipool/internal/domain/fault"
	"unipool/internal/domain/user"
	"unipool/internal/general/jwt"
	"unipool/internal/general/logger"
	"unipool/internal/ports"

	"github.com/jackc/pgx/v5/pgconn"
)

// RatingHTTPHandler adapts HTTP requests to the RatingService.
type RatingHTTPHandler struct {
	svc    ports.RatingService
	logger *logger.Logger
	auth   *jwt.Manager
}

// NewRatingHTTPHandler wires an HTTP handler around the RatingService.
func NewRatingHTTPHandler(svc ports.RatingService, logger *logger.Logger, auth *jwt.Manager) *RatingHTTPHandler {
	return &RatingHTTPHandler{svc: svc, logger: logger, auth: auth}
}

// RegisterRoutes mounts rating endpoints on the provided mux.
func (handler *RatingHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /ratings",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleStudent)(handler.handleAddRating),
	)
	mux.HandleFunc("GET /users/{user_id}/ratings/stats",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleStudent, user.RoleAdmin)(handler.handleRatingStats),
	)
	mux.HandleFunc("GET /users/{user_id}/ratings/recent",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleStudent, user.RoleAdmin)(handler.handleRecentRatings),
	)
	mux.HandleFunc("GET /rides/{ride_id}/ratings",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleStudent, user.RoleAdmin)(handler.handleRideRatings),
	)
}

func (handler *RatingHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	var buf []byte
	var err error

	if data != nil {
		buf, err = json.Marshal(data)
		if err != nil {
			handler.logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
			return
		}
	} else {
		buf = []byte("{}")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

func (handler *RatingHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	if status >= 500 {
		action = "http_internal_error"
	} else if status == http.StatusBadRequest {
		action = "validation_failed"
	}
	handler.logger.Error(ctx, action, msg, err, nil)

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

func (handler *RatingHTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, err error, fallbackMsg string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		handler.httpError(ctx, w, http.StatusInternalServerError, "database error", err)
		return
	}

	switch fault.KindOf(err) {
	case fault.KindValidation:
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
	case fault.KindNotFound:
		handler.httpError(ctx, w, http.StatusNotFound, err.Error(), err)
	case fault.KindConflict, fault.KindCapacity:
		handler.httpError(ctx, w, http.StatusConflict, err.Error(), err)
	case fault.KindAuthorization:
		handler.httpError(ctx, w, http.StatusForbidden, err.Error(), err)
	default:
		handler.httpError(ctx, w, http.StatusInternalServerError, fallbackMsg, err)
	}
}

func (handler *RatingHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		var b [12]byte
		_, _ = rand.Read(b[:])
		reqID = hex.EncodeToString(b[:])
	}
	return handler.logger.WithRequestID(ctx, reqID)
}
