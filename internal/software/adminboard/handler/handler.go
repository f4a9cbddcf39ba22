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

// AdminHTTPHandler adapts HTTP requests to the AdminService.
type AdminHTTPHandler struct {
	svc    ports.AdminService
	logger *logger.Logger
	auth   *jwt.Manager
}

// NewAdminHTTPHandler wires an HTTP handler around the AdminService.
func NewAdminHTTPHandler(svc ports.AdminService, logger *logger.Logger, auth *jwt.Manager) *AdminHTTPHandler {
	return &AdminHTTPHandler{svc: svc, logger: logger, auth: auth}
}

// RegisterRoutes mounts the dashboard endpoints on the provided mux.
// Health is unauthenticated so load balancers can probe it.
func (handler *AdminHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", handler.handleHealth)
	mux.HandleFunc("GET /admin/overview",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleAdmin)(handler.handleOverview),
	)
	mux.HandleFunc("GET /admin/rides/active",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleAdmin)(handler.handleActiveRides),
	)
}

func (handler *AdminHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
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

func (handler *AdminHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
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

func (handler *AdminHTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, err error, fallbackMsg string) {
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
	default:
		handler.httpError(ctx, w, http.StatusInternalServerError, fallbackMsg, err)
	}
}

func (handler *AdminHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		var b [12]byte
		_, _ = rand.Read(b[:])
		reqID = hex.EncodeToString(b[:])
	}
	return handler.logger.WithRequestID(ctx, reqID)
}
