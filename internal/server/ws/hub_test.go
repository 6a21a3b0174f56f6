package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dfelipebr/oddsmirror/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, bus *memory.SignalBus) (*Hub, *websocket.Conn, context.CancelFunc) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(bus, "full", slog.New(slog.DiscardHandler))
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return hub, conn, cancel
}

func TestHub_SendsStatusOnConnect(t *testing.T) {
	bus := memory.NewSignalBus()
	_, conn, cancel := dialHub(t, bus)
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var envelope struct {
		Type    string `json:"type"`
		Payload struct {
			Mode        string `json:"mode"`
			WSConnected bool   `json:"ws_connected"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg, &envelope))
	assert.Equal(t, "service_status", envelope.Type)
	assert.Equal(t, "full", envelope.Payload.Mode)
	assert.True(t, envelope.Payload.WSConnected)
}

func TestHub_BroadcastsBusEvents(t *testing.T) {
	bus := memory.NewSignalBus()
	_, conn, cancel := dialHub(t, bus)
	defer cancel()

	// Drain the status envelope.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.NoError(t, err)

	// Give the hub's bus subscriptions a moment to attach.
	require.Eventually(t, func() bool {
		require.NoError(t, bus.Publish(context.Background(), "prices", []byte(`{"event":"price_update"}`)))
		conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		_, msg, err := conn.ReadMessage()
		return err == nil && strings.Contains(string(msg), "price_update")
	}, 3*time.Second, 50*time.Millisecond)
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	bus := memory.NewSignalBus()
	_, conn, cancel := dialHub(t, bus)
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage() // status envelope
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(subscribeMsg{Action: "unsubscribe", Channels: []string{"trades"}}))

	// Wait for the unsubscribe to land, then verify trade events stop while
	// price events still flow.
	require.Eventually(t, func() bool {
		require.NoError(t, bus.Publish(context.Background(), "trades", []byte(`{"event":"trade_executed"}`)))
		require.NoError(t, bus.Publish(context.Background(), "prices", []byte(`{"event":"price_update"}`)))
		conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		_, msg, err := conn.ReadMessage()
		return err == nil && strings.Contains(string(msg), "price_update")
	}, 3*time.Second, 50*time.Millisecond)
}
