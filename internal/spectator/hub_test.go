package spectator

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/tankarena/internal/snapshot"
)

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	srv := httptest.NewServer(NewMux(hub))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil {
		resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) snapshot.Snapshot {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var s snapshot.Snapshot
	require.NoError(t, json.Unmarshal(payload, &s))
	return s
}

func TestHub_BroadcastReachesSpectators(t *testing.T) {
	hub, srv := newTestServer(t)
	a := dial(t, srv)
	b := dial(t, srv)

	require.Eventually(t, func() bool { return hub.Subscribers() == 2 }, time.Second, time.Millisecond)

	require.NoError(t, hub.Broadcast(&snapshot.Snapshot{Frame: 3, Tanks: []snapshot.Tank{{Name: "Tank1", State: "PATROL"}}}))

	for _, conn := range []*websocket.Conn{a, b} {
		s := readSnapshot(t, conn)
		assert.Equal(t, uint64(3), s.Frame)
		require.Len(t, s.Tanks, 1)
		assert.Equal(t, "PATROL", s.Tanks[0].State)
	}
	assert.Eventually(t, func() bool { return hub.Sent() == 2 }, time.Second, time.Millisecond)
}

func TestHub_LateJoinerGetsLatest(t *testing.T) {
	hub, srv := newTestServer(t)

	require.NoError(t, hub.Broadcast(&snapshot.Snapshot{Frame: 1}))
	require.NoError(t, hub.Broadcast(&snapshot.Snapshot{Frame: 2}))

	conn := dial(t, srv)
	assert.Equal(t, uint64(2), readSnapshot(t, conn).Frame)
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, 2*time.Second, 5*time.Millisecond)
	assert.NoError(t, hub.Broadcast(&snapshot.Snapshot{Frame: 9}))
}

func TestHub_SlowSpectatorDropped(t *testing.T) {
	hub := NewHub()
	sub := &subscriber{remote: "test", send: make(chan []byte, 1)}
	hub.subs[sub] = struct{}{}

	require.NoError(t, hub.Broadcast(&snapshot.Snapshot{Frame: 1}))
	assert.Equal(t, 1, hub.Subscribers())

	require.NoError(t, hub.Broadcast(&snapshot.Snapshot{Frame: 2}))
	assert.Zero(t, hub.Subscribers())

	_, open := <-sub.send
	assert.True(t, open, "queued frame still delivered")
	_, open = <-sub.send
	assert.False(t, open)
}

func TestMux_SnapshotAndHealth(t *testing.T) {
	hub, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/snapshot")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	require.NoError(t, hub.Broadcast(&snapshot.Snapshot{Frame: 5}))

	resp, err = http.Get(srv.URL + "/snapshot")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"frame":5`)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, float64(0), health["subscribers"])
}
