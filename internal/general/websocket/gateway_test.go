package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"unipool/internal/domain/user"
	"unipool/internal/general/jwt"
	"unipool/internal/general/logger"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T) (*Gateway, *httptest.Server, string) {
	t.Helper()
	mgr := jwt.NewManager("test-secret", time.Hour)
	gw := NewGateway(logger.New("gateway-test"), mgr)
	srv := httptest.NewServer(http.HandlerFunc(gw.Connect))
	t.Cleanup(srv.Close)

	token, _, err := mgr.IssueUserToken("user-1", user.RoleStudent)
	require.NoError(t, err)
	return gw, srv, token
}

func dialAndAuth(t *testing.T, srv *httptest.Server, token string) *gws.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	frame, _ := json.Marshal(map[string]string{"type": "auth", "token": "Bearer " + token})
	require.NoError(t, conn.WriteMessage(gws.TextMessage, frame))

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var reply struct {
		Type    string `json:"type"`
		Success bool   `json:"success"`
	}
	require.NoError(t, conn.ReadJSON(&reply))
	require.Equal(t, "auth_success", reply.Type)
	require.True(t, reply.Success)
	return conn
}

func closeSession(conn *gws.Conn) {
	_ = conn.WriteMessage(gws.CloseMessage, gws.FormatCloseMessage(gws.CloseNormalClosure, "bye"))
	_ = conn.Close()
}

func TestGateway_DeliverToOnlineUser(t *testing.T) {
	gw, srv, token := newTestGateway(t)
	conn := dialAndAuth(t, srv, token)
	defer closeSession(conn)

	require.Eventually(t, func() bool { return gw.IsConnected("user-1") },
		2*time.Second, 10*time.Millisecond)

	online, err := gw.Deliver("user-1", map[string]string{"title": "Seat confirmed"})
	require.NoError(t, err)
	require.True(t, online)

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var pushed struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&pushed))
	require.Equal(t, "notification", pushed.Type)
	require.Contains(t, string(pushed.Data), "Seat confirmed")
}

func TestGateway_DeliverToOfflineUser(t *testing.T) {
	gw, _, _ := newTestGateway(t)

	online, err := gw.Deliver("nobody", map[string]string{"title": "x"})
	require.NoError(t, err)
	require.False(t, online)
}

func TestGateway_RejectsBadAuthFrame(t *testing.T) {
	_, srv, _ := newTestGateway(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(gws.TextMessage, []byte(`{"type":"auth","token":"Bearer not-a-jwt"}`)))

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var reply struct {
		Type string `json:"type"`
	}
	require.NoError(t, conn.ReadJSON(&reply))
	require.Equal(t, "auth_error", reply.Type)
}

// Every session starts a ping goroutine; it must stop when the session
// ends, not park on the ticker forever.
func TestGateway_PingerExitsAfterDisconnect(t *testing.T) {
	gw, srv, token := newTestGateway(t)

	base := runtime.NumGoroutine()

	for i := 0; i < 5; i++ {
		conn := dialAndAuth(t, srv, token)
		require.Eventually(t, func() bool { return gw.IsConnected("user-1") },
			2*time.Second, 10*time.Millisecond)
		closeSession(conn)
		require.Eventually(t, func() bool { return !gw.IsConnected("user-1") },
			2*time.Second, 10*time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= base+2
	}, 5*time.Second, 50*time.Millisecond)
}
