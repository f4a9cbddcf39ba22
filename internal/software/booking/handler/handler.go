package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"unipool/internal/domain/fault"
	"unipool/internal/domain/user"
	"unipool/internal/general/jwt"
	"unipool/internal/general/logger"
	"unipool/internal/ports"

	"github.com/jackc/pgx/v5/pgconn"
)

// BookingHTTPHandler adapts HTTP requests to the BookingService.
type BookingHTTPHandler struct {
	svc    ports.BookingService
	logger *logger.Logger
	auth   *jwt.Manager
}

// NewBookingHTTPHandler wires an HTTP handler around the BookingService.
func NewBookingHTTPHandler(svc ports.BookingService, logger *logger.Logger, auth *jwt.Manager) *BookingHTTPHandler {
	return &BookingHTTPHandler{svc: svc, logger: logger, auth: auth}
}

// RegisterRoutes mounts booking endpoints on the provided mux.
func (handler *BookingHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /rides/{ride_id}/bookings",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleStudent)(handler.handleBookRide),
	)
	mux.HandleFunc("DELETE /bookings/{booking_id}",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleStudent)(handler.handleCancelBooking),
	)
	mux.HandleFunc("GET /rides/{ride_id}/availability",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleStudent, user.RoleAdmin)(handler.handleAvailability),
	)
	mux.HandleFunc("GET /users/{user_id}/bookings",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleStudent, user.RoleAdmin)(handler.handleUserBookings),
	)
	mux.HandleFunc("GET /rides/{ride_id}/bookings",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleStudent)(handler.handleRideBookings),
	)
	mux.HandleFunc("GET /users/{user_id}/bookings/stats",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleStudent, user.RoleAdmin)(handler.handleBookingStats),
	)

	mux.HandleFunc("GET /bookings/health", handler.handleHealth)
	mux.HandleFunc("POST /tokens", handler.handleCreateToken)
}

func (handler *BookingHTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	handler.jsonResponse(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// ----- general helpers -----

type TokenRequest struct {
	UserID string    `json:"user_id"`
	Role   user.Role `json:"role"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Role      user.Role `json:"role"`
}

// handleCreateToken generates JWT tokens for testing
func (handler *BookingHTTPHandler) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	tokenString, claims, err := handler.auth.IssueUserToken(req.UserID, req.Role)
	if err != nil {
		handler.httpError(ctx, w, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}

	handler.logger.Info(ctx, "token_generated", "JWT token generated successfully",
		map[string]any{"user_id": req.UserID, "role": req.Role.String()})

	handler.jsonResponse(ctx, w, http.StatusCreated, TokenResponse{
		Token:     tokenString,
		ExpiresAt: claims.ExpiresAt.Time,
		UserID:    req.UserID,
		Role:      req.Role,
	})
}

// jsonResponse takes any type of data and encode it to HTTP response.
func (handler *BookingHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	// encode to buffer first so we can control status on failure
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

// httpError sends a JSON error response with a message.
func (handler *BookingHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
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

// serviceError maps service-layer error kinds onto HTTP statuses.
func (handler *BookingHTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, err error, fallbackMsg string) {
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
	case fault.KindConflict:
		handler.httpError(ctx, w, http.StatusConflict, err.Error(), err)
	case fault.KindCapacity:
		handler.httpError(ctx, w, http.StatusConflict, err.Error(), err)
	case fault.KindAuthorization:
		handler.httpError(ctx, w, http.StatusForbidden, err.Error(), err)
	default:
		handler.httpError(ctx, w, http.StatusInternalServerError, fallbackMsg, err)
	}
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *BookingHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		reqID = randID()
	}
	return handler.logger.WithRequestID(ctx, reqID)
}

// randID generates a random 24-char hex string suitable for request IDs.
func randID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
