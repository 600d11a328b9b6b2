package realtime

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/papertrade/internal/engine"
	"github.com/wonny/papertrade/pkg/logger"
)

func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(hub)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(msg, &event))
	return event
}

func TestHub_NotifyRun(t *testing.T) {
	hub := NewHub(logger.Nop())
	conn := dial(t, hub)

	hub.NotifyRun(&engine.RunResult{
		RunID:      uuid.New(),
		StrategyID: uuid.New(),
		Success:    true,
		State:      engine.StateCompleted,
		NetWorth:   decimal.NewFromInt(990100),
		Cash:       decimal.NewFromInt(100),
	})

	event := readEvent(t, conn)
	assert.Equal(t, EventRunCompleted, event["type"])
	data, ok := event["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "990100", data["net_worth"])
	assert.Equal(t, "completed", data["state"])

	hub.NotifyRun(&engine.RunResult{Success: false, ErrorKind: engine.KindBusy})
	event = readEvent(t, conn)
	assert.Equal(t, EventRunFailed, event["type"])
}

func TestHub_DisconnectRemovesSubscriber(t *testing.T) {
	hub := NewHub(logger.Nop())
	conn := dial(t, hub)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Subscribers() == 0 }, time.Second, 5*time.Millisecond)

	// Publishing with nobody connected is a no-op
	hub.Publish("noop", nil)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(logger.Nop())
	dial(t, hub)

	hub.Close()
	assert.Zero(t, hub.Subscribers())
}
