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
	"unipool/internal/general/websocket"
	"unipool/internal/ports"

	"github.com/jackc/pgx/v5/pgconn"
)

// NotificationHTTPHandler adapts HTTP requests to the NotificationService.
type NotificationHTTPHandler struct {
	svc     ports.NotificationService
	logger  *logger.Logger
	auth    *jwt.Manager
	gateway *websocket.Gateway
}

// NewNotificationHTTPHandler wires an HTTP handler around the NotificationService.
func NewNotificationHTTPHandler(svc ports.NotificationService, logger *logger.Logger, auth *jwt.Manager, gateway *websocket.Gateway) *NotificationHTTPHandler {
	return &NotificationHTTPHandler{svc: svc, logger: logger, auth: auth, gateway: gateway}
}

// RegisterRoutes mounts notification endpoints on the provided mux.
func (handler *NotificationHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /notifications",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleAdmin)(handler.handleSend),
	)
	mux.HandleFunc("POST /notifications/bulk",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleAdmin)(handler.handleSendBulk),
	)
	mux.HandleFunc("GET /users/{user_id}/notifications",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleStudent, user.RoleAdmin)(handler.handleList),
	)
	mux.HandleFunc("GET /users/{user_id}/notifications/unread-count",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleStudent, user.RoleAdmin)(handler.handleUnreadCount),
	)
	mux.HandleFunc("POST /notifications/{notification_id}/read",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleStudent, user.RoleAdmin)(handler.handleMarkRead),
	)

	// WebSocket auth happens over the first frame, not middleware
	mux.HandleFunc("GET /ws/notifications/{user_id}", handler.gateway.Connect)
}

func (handler *NotificationHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
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

func (handler *NotificationHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
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

func (handler *NotificationHTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, err error, fallbackMsg string) {
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

func (handler *NotificationHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		var b [12]byte
		_, _ = rand.Read(b[:])
		reqID = hex.EncodeToString(b[:])
	}
	return handler.logger.WithRequestID(ctx, reqID)
}
