package net

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"RosetteBoard/internal/state"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 64
)

// Message is one frame sent to viewers.
type Message struct {
	Type     string          `json:"type"`
	Session  string          `json:"session,omitempty"`
	Index    int             `json:"index"`
	Action   *state.Action   `json:"action,omitempty"`
	Settings *state.Settings `json:"settings,omitempty"`
	Record   *state.Record   `json:"record,omitempty"`
}

// Source is the document a Hub mirrors.
type Source interface {
	State() state.State
	Subscribe(fn func(state.Change)) func()
}

type viewer struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub streams committed document changes to websocket viewers. Viewers are
// read-only: anything they send is discarded.
type Hub struct {
	src         Source
	upgrader    websocket.Upgrader
	unsubscribe func()

	viewers map[*viewer]struct{}
	closed  bool
	mu      sync.Mutex
}

func NewHub(src Source) *Hub {
	h := &Hub{
		src:     src,
		viewers: make(map[*viewer]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	h.unsubscribe = src.Subscribe(h.onChange)
	return h
}

// Viewers returns the number of connected viewers.
func (h *Hub) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}

// ServeHTTP upgrades the request and registers the viewer. The first frame
// a viewer receives is always a sync with the committed record.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[mirror] upgrade failed: %v", err)
		return
	}
	v := &viewer{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	data, err := encode(syncMessage(h.src.State()))
	if err != nil {
		h.mu.Unlock()
		log.Printf("[mirror] %v", err)
		conn.Close()
		return
	}
	v.send <- data
	h.viewers[v] = struct{}{}
	h.mu.Unlock()

	log.Printf("[mirror] viewer connected from %s", conn.RemoteAddr())
	go h.writePump(v)
	go h.readPump(v)
}

func (h *Hub) writePump(v *viewer) {
	defer v.conn.Close()
	for data := range v.send {
		v.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := v.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("[mirror] write to %s failed: %v", v.conn.RemoteAddr(), err)
			h.drop(v)
			return
		}
	}
	v.conn.SetWriteDeadline(time.Now().Add(writeWait))
	v.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) readPump(v *viewer) {
	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			h.drop(v)
			return
		}
	}
}

// drop unregisters v and closes its queue. Safe to call more than once.
func (h *Hub) drop(v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.viewers[v]; !ok {
		return
	}
	delete(h.viewers, v)
	close(v.send)
	log.Printf("[mirror] viewer %s left", v.conn.RemoteAddr())
}

func (h *Hub) onChange(c state.Change) {
	msg, ok := changeMessage(c)
	if !ok {
		return
	}
	data, err := encode(msg)
	if err != nil {
		log.Printf("[mirror] %v", err)
		return
	}
	h.broadcast(data)
}

func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for v := range h.viewers {
		select {
		case v.send <- data:
		default:
			log.Printf("[mirror] viewer %s too slow, dropping", v.conn.RemoteAddr())
			delete(h.viewers, v)
			close(v.send)
		}
	}
}

// Close stops mirroring and disconnects every viewer.
func (h *Hub) Close() {
	h.unsubscribe()
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for v := range h.viewers {
		delete(h.viewers, v)
		close(v.send)
	}
}

func syncMessage(s state.State) Message {
	rec := state.NewRecord(s)
	settings := s.Settings
	return Message{Type: "sync", Session: state.SessionID(), Index: s.HistoryIndex, Settings: &settings, Record: &rec}
}

// changeMessage maps a store transition onto the wire. Snapshot bookkeeping
// that does not change the committed drawing is not mirrored, except that a
// rebuilt history resends the whole record.
func changeMessage(c state.Change) (Message, bool) {
	s := c.State
	settings := s.Settings
	switch c.Transition.(type) {
	case state.CommitSnapshot:
		committed := s.Committed()
		if len(committed) == 0 {
			return Message{}, false
		}
		a := committed[len(committed)-1].Clone()
		return Message{Type: "add", Index: s.HistoryIndex, Action: &a}, true
	case state.Undo:
		return Message{Type: "undo", Index: s.HistoryIndex}, true
	case state.Redo:
		return Message{Type: "redo", Index: s.HistoryIndex}, true
	case state.Clear:
		return Message{Type: "clear", Index: s.HistoryIndex, Settings: &settings}, true
	case state.UpdateSetting:
		return Message{Type: "setting", Index: s.HistoryIndex, Settings: &settings}, true
	case state.RebuildHistory:
		return syncMessage(s), true
	}
	return Message{}, false
}

func encode(m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s message: %w", m.Type, err)
	}
	return data, nil
}
