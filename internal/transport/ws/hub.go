package ws

import (
	"encoding/json"
	"sync"

	"promptcraft/internal/logger"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Session message types
const (
	MsgSessionUpdated    MessageType = "session_updated"
	MsgSubmissionStarted MessageType = "submission_started"
	MsgPromptReady       MessageType = "prompt_ready"
	MsgSubmissionFailed  MessageType = "submission_failed"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans session events out to the connections watching that session
type Hub struct {
	sessions map[string]map[*Connection]struct{}

	mu sync.RWMutex

	register   chan registration
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	done       chan struct{}
	closeOnce  sync.Once
	stopped    chan struct{}

	log *logger.Logger
}

// Connection represents a WebSocket connection
type Connection struct {
	SessionID string
	Send      chan []byte
}

// NewConnection creates a connection with a buffered send queue
func NewConnection(sessionID string) *Connection {
	return &Connection{
		SessionID: sessionID,
		Send:      make(chan []byte, 256),
	}
}

// SnapshotFunc loads the state a new subscriber starts from
type SnapshotFunc func() (interface{}, error)

type registration struct {
	conn     *Connection
	snapshot SnapshotFunc
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	SessionID string
	Message   *Message
}

// NewHub creates a new WebSocket hub
func NewHub(log *logger.Logger) *Hub {
	h := &Hub{
		sessions:   make(map[string]map[*Connection]struct{}),
		register:   make(chan registration),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		log:        log.With("component", "ws_hub"),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.stopped)
	for {
		select {
		case reg := <-h.register:
			conn := reg.conn
			if reg.snapshot != nil {
				h.queueSnapshot(conn, reg.snapshot)
			}
			h.mu.Lock()
			if h.sessions[conn.SessionID] == nil {
				h.sessions[conn.SessionID] = make(map[*Connection]struct{})
			}
			h.sessions[conn.SessionID][conn] = struct{}{}
			h.mu.Unlock()
			h.log.Debug("subscriber connected", "session", conn.SessionID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.sessions[conn.SessionID]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.sessions, conn.SessionID)
					}
					h.log.Debug("subscriber disconnected", "session", conn.SessionID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				h.log.Error("failed to encode message", "error", err)
				continue
			}
			h.mu.RLock()
			for conn := range h.sessions[msg.SessionID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for _, conns := range h.sessions {
				for conn := range conns {
					close(conn.Send)
				}
			}
			h.sessions = make(map[string]map[*Connection]struct{})
			h.mu.Unlock()
			return
		}
	}
}

// queueSnapshot runs on the hub goroutine, so any broadcast for the session
// is queued behind the snapshot.
func (h *Hub) queueSnapshot(conn *Connection, snapshot SnapshotFunc) {
	payload, err := snapshot()
	if err != nil {
		h.log.Warn("failed to load snapshot", "session", conn.SessionID, "error", err)
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("failed to encode snapshot", "session", conn.SessionID, "error", err)
		return
	}
	msg, err := json.Marshal(&Message{Type: MsgSessionUpdated, Payload: data})
	if err != nil {
		h.log.Error("failed to encode message", "error", err)
		return
	}
	select {
	case conn.Send <- msg:
	default:
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.Subscribe(conn, nil)
}

// Subscribe adds a connection whose first message is the snapshot. Broadcasts
// made while the snapshot loads follow it.
func (h *Hub) Subscribe(conn *Connection, snapshot SnapshotFunc) {
	select {
	case h.register <- registration{conn: conn, snapshot: snapshot}:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Subscribers returns how many connections watch a session
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// BroadcastToSession sends a message to every subscriber of a session (implements service.Broadcaster)
func (h *Hub) BroadcastToSession(sessionID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("failed to encode payload", "type", msgType, "error", err)
		return
	}
	msg := &BroadcastMessage{
		SessionID: sessionID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// Close stops the hub and closes every subscriber's send queue
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
	<-h.stopped
}
