package net

import (
	"encoding/json"
	"fmt"
	"image"
	stdnet "net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"RosetteBoard/internal/state"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/mdns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blank() state.Snapshot { return image.NewRGBA(image.Rect(0, 0, 4, 4)) }

func line(y float64) state.Action {
	return state.Action{ID: "x", Tool: state.ToolLine, Color: "#000", LineWidth: 2, StartX: 1, StartY: y, EndX: 9, EndY: y}
}

func commit(t *testing.T, st *state.Store, a state.Action) {
	t.Helper()
	_, err := st.Dispatch(state.AddAction{Action: a})
	require.NoError(t, err)
	_, err = st.Dispatch(state.CommitSnapshot{Snapshot: blank()})
	require.NoError(t, err)
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func next(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var m Message
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestHubSyncThenChanges(t *testing.T) {
	st := state.NewStore(state.Reducer{})
	_, err := st.Dispatch(state.InitHistory{Snapshot: blank()})
	require.NoError(t, err)
	commit(t, st, line(1))

	hub := NewHub(st)
	defer hub.Close()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	m := next(t, conn)
	assert.Equal(t, "sync", m.Type)
	assert.Equal(t, state.SessionID(), m.Session)
	assert.Equal(t, 0, m.Index)
	require.NotNil(t, m.Record)
	assert.Equal(t, state.FormatVersion, m.Record.Version)
	assert.Len(t, m.Record.Actions, 1)

	// Viewers are read-only.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"clear"}`)))

	commit(t, st, line(2))
	m = next(t, conn)
	assert.Equal(t, "add", m.Type)
	assert.Equal(t, 1, m.Index)
	require.NotNil(t, m.Action)
	assert.Equal(t, 2.0, m.Action.StartY)

	_, err = st.Dispatch(state.Undo{})
	require.NoError(t, err)
	m = next(t, conn)
	assert.Equal(t, "undo", m.Type)
	assert.Equal(t, 0, m.Index)

	_, err = st.Dispatch(state.UpdateSetting{Key: state.KeyRotationOrder, Value: 7})
	require.NoError(t, err)
	m = next(t, conn)
	assert.Equal(t, "setting", m.Type)
	require.NotNil(t, m.Settings)
	assert.Equal(t, 7, m.Settings.RotationOrder)

	assert.Len(t, st.State().Actions, 2, "incoming frames never reach the store")
}

func TestHubCloseDisconnects(t *testing.T) {
	st := state.NewStore(state.Reducer{})
	hub := NewHub(st)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	assert.Equal(t, "sync", next(t, conn).Type)
	assert.Equal(t, 1, hub.Viewers())

	hub.Close()
	assert.Equal(t, 0, hub.Viewers())
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	// Changes after Close go nowhere.
	_, err = st.Dispatch(state.UpdateSetting{Key: state.KeyShowGuides, Value: true})
	require.NoError(t, err)
}

func TestChangeMessageSkipsBookkeeping(t *testing.T) {
	for _, tr := range []state.Transition{state.AddAction{}, state.InitHistory{}, state.LoadStart{}, state.LoadError{}} {
		_, ok := changeMessage(state.Change{Transition: tr})
		assert.False(t, ok, tr.Kind())
	}
	m, ok := changeMessage(state.Change{Transition: state.RebuildHistory{}, State: state.Initial("")})
	require.True(t, ok)
	assert.Equal(t, "sync", m.Type)
	assert.Empty(t, m.Record.Actions)
}

func TestStartMirror(t *testing.T) {
	st := state.NewStore(state.Reducer{})
	m, err := StartMirror(st, MirrorOptions{})
	require.NoError(t, err)
	defer m.Close()

	assert.NotZero(t, m.Port())
	assert.True(t, strings.HasPrefix(m.URL(), "ws://"))
	assert.True(t, strings.HasSuffix(m.URL(), "/ws"))

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://127.0.0.1:%d/ws", m.Port()), nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, "sync", next(t, conn).Type)
}

func TestPeerOf(t *testing.T) {
	_, ok := peerOf(nil)
	assert.False(t, ok)
	_, ok = peerOf(&mdns.ServiceEntry{Name: "a", Port: 8890})
	assert.False(t, ok, "no IPv4 address")

	p, ok := peerOf(&mdns.ServiceEntry{Name: "studio._rosette._tcp.local.", AddrV4: stdnet.IPv4(192, 168, 1, 7), Port: 8890})
	require.True(t, ok)
	assert.Equal(t, "192.168.1.7:8890", p.Addr)
}
