package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syslogsitsolutions/menulogs/internal/adapter/logger"
	"github.com/syslogsitsolutions/menulogs/internal/adapter/token"
	"github.com/syslogsitsolutions/menulogs/internal/app/realtime"
	"github.com/syslogsitsolutions/menulogs/internal/domain"
)

const testSecret = "handler-test-secret"

type openLocationStore struct{}

func (openLocationStore) HasLocationAccess(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return true, nil
}

func signToken(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	claims := token.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()},
		Role:             role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newTestServer(t *testing.T) (*httptest.Server, *realtime.Registry) {
	t.Helper()
	registry := realtime.NewRegistry()
	router := realtime.NewRouter(registry, openLocationStore{}, nil, logger.Nop())
	handler := NewHandler(router, token.NewVerifier(testSecret), logger.Nop(), 5*time.Second)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, registry
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestHandshakeRequiresToken(t *testing.T) {
	srv, _ := newTestServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandshakeRejectsBadToken(t *testing.T) {
	srv, _ := newTestServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?token=forged", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandshakeAcceptsQueryToken(t *testing.T) {
	srv, registry := newTestServer(t)
	userID := uuid.New()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?token="+signToken(t, userID, "waiter"), nil)
	require.NoError(t, err)
	defer conn.Close()

	waitFor(t, func() bool { return registry.Stats().Connections == 1 })
}

func TestHandshakeAcceptsAuthorizationHeader(t *testing.T) {
	srv, registry := newTestServer(t)
	userID := uuid.New()

	header := http.Header{"Authorization": []string{"Bearer " + signToken(t, userID, "waiter")}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.NoError(t, err)
	defer conn.Close()

	waitFor(t, func() bool { return registry.Stats().Connections == 1 })
}

func TestJoinLocationOverWire(t *testing.T) {
	srv, _ := newTestServer(t)
	locationID := uuid.New()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?token="+signToken(t, uuid.New(), "manager"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(realtime.Command{
		Action:     realtime.ActionJoinLocation,
		LocationID: locationID,
	}))

	// A manager gets both the location ack and the kitchen ack.
	kinds := map[domain.EventKind]bool{}
	for i := 0; i < 2; i++ {
		kinds[readEvent(t, conn).Kind] = true
	}
	assert.True(t, kinds[domain.EventJoinedLocation])
	assert.True(t, kinds[domain.EventJoinedKitchen])
}

func TestMalformedCommandAnswersErrorEvent(t *testing.T) {
	srv, _ := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?token="+signToken(t, uuid.New(), "waiter"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	event := readEvent(t, conn)
	assert.Equal(t, domain.EventError, event.Kind)
}

func TestDisconnectDetaches(t *testing.T) {
	srv, registry := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?token="+signToken(t, uuid.New(), "waiter"), nil)
	require.NoError(t, err)
	waitFor(t, func() bool { return registry.Stats().Connections == 1 })

	conn.Close()
	waitFor(t, func() bool { return registry.Stats().Connections == 0 })
}

func readEvent(t *testing.T, conn *websocket.Conn) domain.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var event domain.Event
	require.NoError(t, json.Unmarshal(raw, &event))
	return event
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
