package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"unipool/internal/domain/user"
	"unipool/internal/general/jwt"
	"unipool/internal/general/logger"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout   = 5 * time.Second
	wsCloseAckWindow = 2 * time.Second
	ctrlTimeout      = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Gateway keeps one WebSocket connection per user and pushes in-app
// notifications to whoever is online.
type Gateway struct {
	logger     *logger.Logger
	jwtMgr     *jwt.Manager
	writeLocks sync.Map
	conns      sync.Map // key: userID(string) -> *websocket.Conn
}

// NewGateway creates a notification gateway with JWT auth.
func NewGateway(logger *logger.Logger, jwtMgr *jwt.Manager) *Gateway {
	return &Gateway{
		logger: logger,
		jwtMgr: jwtMgr,
	}
}

// Connect handles WebSocket connections from users with JWT auth.
func (gw *Gateway) Connect(w http.ResponseWriter, r *http.Request) {
	// 1) Upgrade HTTP -> WS
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		gw.logger.Error(r.Context(), "websocket_upgrade_failed", "Failed to upgrade to WebSocket", err, nil)
		return
	}
	// Teardown order (LIFO on return):
	defer conn.Close()               // close the socket last
	defer gw.writeLocks.Delete(conn) // forget per-connection mutex (idempotent)

	// 2) Set auth deadline
	conn.SetReadLimit(1 << 20) // 1 MiB
	if err := conn.SetReadDeadline(time.Now().Add(10 * time.Second)); err != nil {
		gw.logger.Error(r.Context(), "ws_set_deadline_failed", "Failed to set initial read deadline", err, nil)
		gw.sendAuthError(conn, "internal server error")
		return
	}

	// 3) First frame must be the auth message
	msgType, firstFrame, err := conn.ReadMessage()
	if err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			gw.logger.Error(r.Context(), "ws_auth_timeout", "Client disconnected before authentication", err, nil)
		} else {
			gw.logger.Error(r.Context(), "ws_auth_read_failed", "Failed to read auth message", err, nil)
		}
		gw.sendAuthError(conn, "authentication timeout: please send auth message within 10 seconds")
		return
	}

	if msgType != websocket.TextMessage {
		gw.logger.Error(r.Context(), "ws_auth_invalid_format", "Auth message must be text format", nil, nil)
		gw.sendAuthError(conn, "auth message must be in text format")
		return
	}

	res, err := jwt.ValidateWSAuth(firstFrame, gw.jwtMgr, user.RoleStudent, user.RoleAdmin)
	if err != nil {
		gw.logger.Error(r.Context(), "ws_auth_failed", "Invalid auth message or token", err, nil)
		gw.sendAuthError(conn, "authentication failed: invalid token")
		return
	}

	// 4) Path param must match the subject in claims
	if uid := r.PathValue("user_id"); uid != "" && uid != res.Claims.Subject {
		gw.logger.Error(r.Context(), "ws_auth_failed", "User ID mismatch", nil, map[string]any{
			"path_user_id":  uid,
			"token_subject": res.Claims.Subject,
		})
		gw.sendAuthError(conn, "user ID mismatch")
		return
	}
	userID := res.Claims.Subject

	// 5) Send authentication success message
	if err := gw.sendAuthSuccess(conn, userID); err != nil {
		gw.logger.Error(r.Context(), "ws_auth_success_failed", "Failed to send auth success message", err, nil)
		return
	}

	gw.logger.Info(r.Context(), "ws_connected", "Notification WebSocket connected",
		map[string]any{"user_id": userID})

	// 6) Reset read deadline after auth
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(_ string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	// 7) Start ping loop (every 30s) using the per-connection writer lock.
	// The done channel stops the pinger on normal disconnect; ticker.Stop
	// alone never wakes a goroutine blocked on the channel.
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
			}
			mu := gw.lockOf(conn)
			mu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(ctrlTimeout))
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctrlTimeout))
			mu.Unlock()
			if err != nil {
				// Close socket to unblock reader; goroutine exits.
				_ = conn.Close()
				gw.logger.Error(r.Context(), "ws_ping_failed", "Failed to send ping", err, nil)
				return
			}
		}
	}()

	// 8) Register this user for outbound notifications; unregister on exit
	gw.register(userID, conn)
	defer gw.remove(userID, conn)

	// 9) Read loop: the gateway is push-only, clients may only send pings
	for {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				gw.logger.Error(r.Context(), "ws_unexpected_close", "Connection closed unexpectedly", err, map[string]any{
					"user_id": userID,
				})
				gw.wsWriteClose(conn, websocket.CloseInternalServerErr, "internal error")
			} else {
				gw.logger.Info(r.Context(), "ws_connection_closed", "Connection closed normally", map[string]any{
					"user_id": userID,
				})
				gw.wsWriteClose(conn, websocket.CloseNormalClosure, "bye")
			}
			break
		}

		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}

		if err := json.Unmarshal(payload, &msg); err != nil {
			_ = gw.wsWriteMessage(conn, websocket.TextMessage, []byte(`{"type":"error","error":"bad json"}`))
			continue
		}

		switch msg.Type {
		case "ping":
			_ = gw.wsWriteMessage(conn, websocket.TextMessage, []byte(`{"type":"pong"}`))
		default:
			_ = gw.wsWriteMessage(conn, websocket.TextMessage, []byte(`{"type":"error","error":"unknown message type"}`))
		}
	}
}

// Deliver pushes a notification payload to the user. It reports false when the
// user has no live connection.
func (gw *Gateway) Deliver(userID string, msg any) (bool, error) {
	v, ok := gw.conns.Load(userID)
	if !ok {
		return false, nil
	}
	conn := v.(*websocket.Conn)

	payload, err := json.Marshal(map[string]any{
		"type": "notification",
		"data": msg,
	})
	if err != nil {
		return true, err
	}
	return true, gw.wsWriteMessage(conn, websocket.TextMessage, payload)
}

// IsConnected checks if a user currently has a live connection.
func (gw *Gateway) IsConnected(userID string) bool {
	_, ok := gw.conns.Load(userID)
	return ok
}

func (gw *Gateway) register(userID string, conn *websocket.Conn) {
	if old, ok := gw.conns.Load(userID); ok {
		_ = old.(*websocket.Conn).Close()
	}
	gw.conns.Store(userID, conn)
}

// remove unregisters the connection, but only if it is still the current one.
func (gw *Gateway) remove(userID string, conn *websocket.Conn) {
	if v, ok := gw.conns.Load(userID); ok && v.(*websocket.Conn) == conn {
		gw.conns.Delete(userID)
	}
}

func (gw *Gateway) sendAuthError(conn *websocket.Conn, message string) error {
	errorMsg := map[string]interface{}{
		"type":    "auth_error",
		"error":   message,
		"success": false,
	}
	msgBytes, err := json.Marshal(errorMsg)
	if err != nil {
		return err
	}
	return gw.wsWriteMessage(conn, websocket.TextMessage, msgBytes)
}

func (gw *Gateway) sendAuthSuccess(conn *websocket.Conn, userID string) error {
	successMsg := map[string]interface{}{
		"type":      "auth_success",
		"message":   "Authentication successful",
		"success":   true,
		"user_id":   userID,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	msgBytes, err := json.Marshal(successMsg)
	if err != nil {
		return err
	}
	return gw.wsWriteMessage(conn, websocket.TextMessage, msgBytes)
}

// wsWriteClose sends a close control frame with the given code and reason.
func (gw *Gateway) wsWriteClose(conn *websocket.Conn, code int, reason string) {
	mu := gw.lockOf(conn)
	mu.Lock()
	defer mu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(wsCloseAckWindow),
	)
	gw.writeLocks.Delete(conn)
}

// wsWriteMessage sets a short write deadline and writes a message.
func (gw *Gateway) wsWriteMessage(conn *websocket.Conn, mt int, payload []byte) error {
	mu := gw.lockOf(conn)
	mu.Lock()
	defer mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteMessage(mt, payload)
}

// lockOf returns the mutex for a specific connection
func (gw *Gateway) lockOf(conn *websocket.Conn) *sync.Mutex {
	if v, ok := gw.writeLocks.Load(conn); ok {
		if mu, ok := v.(*sync.Mutex); ok && mu != nil {
			return mu
		}
	}
	mu := &sync.Mutex{}
	actual, _ := gw.writeLocks.LoadOrStore(conn, mu)
	return actual.(*sync.Mutex)
}
