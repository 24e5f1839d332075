package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tirepulse/pkg/contracts/domain"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(nil)
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func connect(t *testing.T, h *Hub, buffer int) *Client {
	t.Helper()
	c := &Client{hub: h, send: make(chan []byte, buffer)}
	h.register <- c
	require.Eventually(t, func() bool { return h.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)
	return c
}

func TestHubBroadcastStage(t *testing.T) {
	h := startHub(t)
	c := connect(t, h, 4)

	h.BroadcastStage("job-1", "report.xlsx", domain.StageParsing)

	select {
	case data := <-c.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, TypeSyncStage, msg.Type)
		assert.False(t, msg.Timestamp.IsZero())

		payload, ok := msg.Payload.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "job-1", payload["job_id"])
		assert.Equal(t, "report.xlsx", payload["file_name"])
		assert.Equal(t, string(domain.StageParsing), payload["stage"])
	case <-time.After(time.Second):
		t.Fatal("no broadcast received")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	h := startHub(t)
	// Zero buffer and no reader: the first fan-out cannot deliver.
	connect(t, h, 0)

	h.BroadcastAlert(&domain.Alert{ID: "a1", Title: "test"})

	assert.Eventually(t, func() bool { return h.ClientCount() == 0 },
		time.Second, 10*time.Millisecond)
}

func TestHubUnregister(t *testing.T) {
	h := startHub(t)
	c := connect(t, h, 4)

	h.unregister <- c
	assert.Eventually(t, func() bool { return h.ClientCount() == 0 },
		time.Second, 10*time.Millisecond)

	// Unregistering twice is harmless.
	h.unregister <- c
	assert.Equal(t, 0, h.ClientCount())
}

func TestHubStopDisconnectsClients(t *testing.T) {
	h := NewHub(nil)
	done := make(chan struct{})
	go func() {
		h.Run()
		close(done)
	}()

	c := &Client{hub: h, send: make(chan []byte, 4)}
	h.register <- c
	require.Eventually(t, func() bool { return h.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	h.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not shut down")
	}

	_, open := <-c.send
	assert.False(t, open, "client send channel is closed on shutdown")
	assert.Equal(t, 0, h.ClientCount())
}
