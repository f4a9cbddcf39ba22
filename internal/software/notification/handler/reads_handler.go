package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"unipool/internal/domain/notification"
	"unipool/internal/domain/user"
	"unipool/internal/general/jwt"
)

// ----- Handler: GET /users/{user_id}/notifications?unread_only=true&limit=N -----

type notificationView struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Priority  string         `json:"priority"`
	Status    string         `json:"status"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
}

func toView(n *notification.Notification) notificationView {
	return notificationView{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Priority:  string(n.Priority),
		Status:    string(n.Status),
		Data:      n.Data,
		CreatedAt: n.CreatedAt,
		ReadAt:    n.ReadAt,
	}
}

func (handler *NotificationHTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	userID := strings.TrimSpace(r.PathValue("user_id"))
	if userID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing user_id in path", nil)
		return
	}
	if !handler.authorizeSelfOrAdmin(ctx, w, r, userID) {
		return
	}

	unreadOnly := r.URL.Query().Get("unread_only") == "true"
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			handler.httpError(ctx, w, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		limit = n
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	items, err := handler.svc.ListForUser(ctxWithTimeout, userID, unreadOnly, limit)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err, "failed to list notifications")
		return
	}

	views := make([]notificationView, 0, len(items))
	for _, n := range items {
		views = append(views, toView(n))
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, map[string]any{
		"notifications": views,
		"count":         len(views),
	})
}

// ----- Handler: GET /users/{user_id}/notifications/unread-count -----

func (handler *NotificationHTTPHandler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	userID := strings.TrimSpace(r.PathValue("user_id"))
	if userID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing user_id in path", nil)
		return
	}
	if !handler.authorizeSelfOrAdmin(ctx, w, r, userID) {
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := handler.svc.UnreadCount(ctxWithTimeout, userID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err, "failed to count unread notifications")
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, map[string]int{"unread_count": count})
}

// ----- Handler: POST /notifications/{notification_id}/read -----

func (handler *NotificationHTTPHandler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	notificationID := strings.TrimSpace(r.PathValue("notification_id"))
	if notificationID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing notification_id in path", nil)
		return
	}

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := handler.svc.MarkRead(ctxWithTimeout, notificationID, strings.TrimSpace(claims.Subject)); err != nil {
		handler.serviceError(ctxWithTimeout, w, err, "failed to mark notification as read")
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, map[string]string{
		"notification_id": notificationID,
		"status":          string(notification.StatusRead),
	})
}

// authorizeSelfOrAdmin rejects requests where the path user differs from
// the token subject, unless the caller is an admin.
func (handler *NotificationHTTPHandler) authorizeSelfOrAdmin(ctx context.Context, w http.ResponseWriter, r *http.Request, userID string) bool {
	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return false
	}
	if claims.Subject != userID && claims.Role != user.RoleAdmin {
		handler.httpError(ctx, w, http.StatusForbidden, "user_id does not match token subject", nil)
		return false
	}
	return true
}
