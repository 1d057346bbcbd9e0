package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/goboss33/StoryGenAI-sub001/internal/logging"
)

const (
	hubSendBuffer  = 64
	hubWriteWait   = 10 * time.Second
	hubPongWait    = 60 * time.Second
	hubPingPeriod  = 50 * time.Second
	hubHistorySize = 100
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The server binds to loopback by default; same-host tools connect
		// with arbitrary Origin headers.
		return true
	},
}

// ProgressHub fans stage progress events out to websocket subscribers. It
// implements pipeline.ProgressSink; broadcasting never blocks a stage, slow
// subscribers miss events instead.
type ProgressHub struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[*hubClient]struct{}
	history []ProgressEvent
}

type hubClient struct {
	conn *websocket.Conn
	send chan ProgressEvent
}

// NewProgressHub constructs a hub with an empty subscriber set.
func NewProgressHub(logger *slog.Logger) *ProgressHub {
	return &ProgressHub{
		logger:  logging.NewComponentLogger(logger, "progress-hub"),
		clients: make(map[*hubClient]struct{}),
	}
}

// StageStarted implements pipeline.ProgressSink.
func (h *ProgressHub) StageStarted(stageName string) {
	h.broadcast(ProgressEvent{Type: "stage_started", Stage: stageName, Timestamp: time.Now().UTC()})
}

// StageCompleted implements pipeline.ProgressSink.
func (h *ProgressHub) StageCompleted(stageName string) {
	h.broadcast(ProgressEvent{Type: "stage_completed", Stage: stageName, Timestamp: time.Now().UTC()})
}

// StageFailed implements pipeline.ProgressSink.
func (h *ProgressHub) StageFailed(stageName string, err error) {
	event := ProgressEvent{Type: "stage_failed", Stage: stageName, Timestamp: time.Now().UTC()}
	if err != nil {
		event.Error = err.Error()
	}
	h.broadcast(event)
}

func (h *ProgressHub) broadcast(event ProgressEvent) {
	h.mu.Lock()
	h.history = append(h.history, event)
	if len(h.history) > hubHistorySize {
		h.history = h.history[len(h.history)-hubHistorySize:]
	}
	for client := range h.clients {
		select {
		case client.send <- event:
		default:
			// Slow subscriber; drop the event rather than stall the stage.
		}
	}
	h.mu.Unlock()
}

// History returns the retained tail of recent events.
func (h *ProgressHub) History() []ProgressEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]ProgressEvent, len(h.history))
	copy(out, h.history)
	return out
}

// HandleWS upgrades the request and streams events until the peer goes away.
func (h *ProgressHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", logging.Error(err))
		return
	}
	client := &hubClient{conn: conn, send: make(chan ProgressEvent, hubSendBuffer)}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	go h.writePump(client)
	h.readPump(client)
}

func (h *ProgressHub) writePump(client *hubClient) {
	ticker := time.NewTicker(hubPingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()
	for {
		select {
		case event, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(hubWriteWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := client.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(hubWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *ProgressHub) readPump(client *hubClient) {
	defer h.drop(client)
	_ = client.conn.SetReadDeadline(time.Now().Add(hubPongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(hubPongWait))
	})
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *ProgressHub) drop(client *hubClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
	_ = client.conn.Close()
}
