package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"unipool/internal/domain/notification"
	"unipool/internal/ports"
)

// ----- Handler: POST /notifications -----

type sendNotificationRequest struct {
	UserID   string         `json:"user_id"`
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Priority string         `json:"priority"`
	Data     map[string]any `json:"data"`
}

func (handler *NotificationHTTPHandler) handleSend(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req sendNotificationRequest
	if err := dec.Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	receipt, err := handler.svc.SendNotification(ctxWithTimeout, req.UserID, ports.SendNotificationInput{
		Type:     req.Type,
		Title:    req.Title,
		Message:  req.Message,
		Priority: notification.Priority(req.Priority),
		Data:     req.Data,
	})
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err, "failed to send notification")
		return
	}
	if receipt == nil {
		// suppressed by quiet hours
		handler.jsonResponse(ctxWithTimeout, w, http.StatusAccepted, map[string]any{
			"suppressed": true,
			"reason":     "quiet hours",
		})
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusCreated, receipt)
}

// ----- Handler: POST /notifications/bulk -----

type bulkNotificationRequest struct {
	UserIDs  []string       `json:"user_ids"`
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Priority string         `json:"priority"`
	Data     map[string]any `json:"data"`
}

func (handler *NotificationHTTPHandler) handleSendBulk(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req bulkNotificationRequest
	if err := dec.Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.UserIDs) == 0 {
		handler.httpError(ctx, w, http.StatusBadRequest, "user_ids is required", nil)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := handler.svc.SendBulkNotifications(ctxWithTimeout, req.UserIDs, ports.SendNotificationInput{
		Type:     req.Type,
		Title:    req.Title,
		Message:  req.Message,
		Priority: notification.Priority(req.Priority),
		Data:     req.Data,
	})
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err, "failed to send bulk notifications")
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, result)
}
