// Package live distributes dashboard change events over websockets. Clients
// join a per-review room and receive item, comment, assignment and typing
// events as JSON messages.
package live

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/formstudio-io/go-formstudio/components/reviews"
)

const (
	defaultPingPeriod   = 20 * time.Second
	defaultWriteTimeout = time.Minute
	defaultTypingWindow = 3 * time.Second
)

// Event types emitted by the hub itself, on top of the CRUD events the
// reviews component publishes.
const (
	EventPresenceJoin  = "presence.join"
	EventPresenceLeave = "presence.leave"
	EventTyping        = "typing"
	EventTypingStopped = "typing.stopped"
)

// clientMessage is what a connected browser may send upstream.
type clientMessage struct {
	Type   string `json:"type"`
	Author string `json:"author,omitempty"`
}

// Hub tracks websocket sessions per review item and fans events out to the
// room. It satisfies reviews.Broadcaster.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[uuid.UUID]*websocket.Conn

	typingMu sync.Mutex
	typers   map[string]bool
	typing   *Debouncer

	logger         *slog.Logger
	originPatterns []string
	pingPeriod     time.Duration
	writeTimeout   time.Duration
}

// Option mutates hub configuration.
type Option func(*Hub)

// WithLogger overrides the hub logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		if h == nil || logger == nil {
			return
		}
		h.logger = logger
	}
}

// WithOriginPatterns restricts accepted websocket origins.
func WithOriginPatterns(patterns ...string) Option {
	return func(h *Hub) {
		if h == nil {
			return
		}
		h.originPatterns = patterns
	}
}

// WithPingPeriod overrides how often idle connections are pinged.
func WithPingPeriod(d time.Duration) Option {
	return func(h *Hub) {
		if h == nil || d <= 0 {
			return
		}
		h.pingPeriod = d
	}
}

// WithTypingWindow overrides the quiet period after which a typing
// indicator is cleared.
func WithTypingWindow(d time.Duration) Option {
	return func(h *Hub) {
		if h == nil || d <= 0 {
			return
		}
		h.typing = NewDebouncer(d)
	}
}

// NewHub builds a hub ready to accept connections.
func NewHub(fns ...Option) *Hub {
	h := &Hub{
		rooms:          make(map[string]map[uuid.UUID]*websocket.Conn),
		typers:         make(map[string]bool),
		typing:         NewDebouncer(defaultTypingWindow),
		logger:         slog.Default(),
		originPatterns: []string{"*"},
		pingPeriod:     defaultPingPeriod,
		writeTimeout:   defaultWriteTimeout,
	}
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(h)
	}
	return h
}

// ServeHTTP upgrades the request to a websocket and keeps the session in the
// review's room until the peer disconnects. The review id comes from the
// {id} path value.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("id")
	if itemID == "" {
		http.Error(w, "missing review id", http.StatusBadRequest)
		return
	}
	author := r.URL.Query().Get("author")
	if author == "" {
		author = "anonymous"
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Error("open websocket connection", "itemId", itemID, "err", err)
		return
	}
	defer conn.CloseNow()

	sessionID := uuid.New()
	h.join(itemID, sessionID, conn)
	h.Publish(itemID, reviews.Event{Type: EventPresenceJoin, Payload: map[string]string{"author": author}})

	go h.pingLoop(itemID, sessionID, conn)

	h.readLoop(r.Context(), itemID, author, conn)

	h.leave(itemID, sessionID)
	h.Publish(itemID, reviews.Event{Type: EventPresenceLeave, Payload: map[string]string{"author": author}})
	conn.Close(websocket.StatusNormalClosure, "")
}

// Publish fans an event out to every session in the item's room.
func (h *Hub) Publish(itemID string, event reviews.Event) {
	event.ItemID = itemID

	h.mu.RLock()
	sessions := make([]*websocket.Conn, 0, len(h.rooms[itemID]))
	for _, conn := range h.rooms[itemID] {
		sessions = append(sessions, conn)
	}
	h.mu.RUnlock()

	for _, conn := range sessions {
		ctx, cancel := context.WithTimeout(context.Background(), h.writeTimeout)
		if err := wsjson.Write(ctx, conn, event); err != nil {
			h.logger.Error("write event to websocket", "itemId", itemID, "type", event.Type, "err", err)
		}
		cancel()
	}
}

// RoomSize reports how many sessions are subscribed to an item.
func (h *Hub) RoomSize(itemID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[itemID])
}

// Close disconnects every session and drops pending typing timers.
func (h *Hub) Close() {
	h.typing.Stop()

	h.mu.Lock()
	defer h.mu.Unlock()
	for itemID, sessions := range h.rooms {
		for _, conn := range sessions {
			conn.Close(websocket.StatusGoingAway, "hub shutting down")
		}
		delete(h.rooms, itemID)
	}
}

func (h *Hub) join(itemID string, sessionID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions, ok := h.rooms[itemID]
	if !ok {
		sessions = make(map[uuid.UUID]*websocket.Conn)
		h.rooms[itemID] = sessions
	}
	sessions[sessionID] = conn
}

func (h *Hub) leave(itemID string, sessionID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.rooms[itemID], sessionID)
	if len(h.rooms[itemID]) == 0 {
		delete(h.rooms, itemID)
	}
}

func (h *Hub) readLoop(ctx context.Context, itemID, author string, conn *websocket.Conn) {
	for {
		var msg clientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return
		}
		switch msg.Type {
		case EventTyping:
			who := msg.Author
			if who == "" {
				who = author
			}
			h.markTyping(itemID, who)
		}
	}
}

// markTyping broadcasts a typing indicator once per burst. Repeated signals
// from the same author reset the quiet window instead of re-broadcasting;
// after the window elapses a typing.stopped event is sent.
func (h *Hub) markTyping(itemID, author string) {
	key := itemID + "/" + author

	h.typingMu.Lock()
	fresh := !h.typers[key]
	h.typers[key] = true
	h.typingMu.Unlock()

	if fresh {
		h.Publish(itemID, reviews.Event{Type: EventTyping, Payload: map[string]string{"author": author}})
	}

	h.typing.Trigger(key, func() {
		h.typingMu.Lock()
		delete(h.typers, key)
		h.typingMu.Unlock()
		h.Publish(itemID, reviews.Event{Type: EventTypingStopped, Payload: map[string]string{"author": author}})
	})
}

func (h *Hub) pingLoop(itemID string, sessionID uuid.UUID, conn *websocket.Conn) {
	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), h.writeTimeout)
		err := conn.Ping(ctx)
		cancel()
		if err != nil {
			h.logger.Debug("websocket ping failed", "itemId", itemID, "err", err)
			h.leave(itemID, sessionID)
			conn.Close(websocket.StatusNormalClosure, "ping failed, connection closed")
			return
		}
	}
}
