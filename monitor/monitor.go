// Package monitor streams shown frames and diagnostics to websocket clients.
package monitor

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/ledsync/model"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity Severity       `json:"severity"`
	Code     string         `json:"code"`
	Summary  string         `json:"summary"`
	Detail   string         `json:"detail,omitempty"`
	Evidence map[string]any `json:"evidence,omitempty"`
}

// Message is what clients receive. Type is "hello", "frame" or "diag".
type Message struct {
	Type    string      `json:"type"`
	T       int64       `json:"t"`
	FrameID uint64      `json:"frame_id,omitempty"`
	RGB     []byte      `json:"rgb,omitempty"`
	LEDs    int         `json:"leds,omitempty"`
	Backend string      `json:"backend,omitempty"`
	Diag    *Diagnostic `json:"diag,omitempty"`
}

const writeWait = 200 * time.Millisecond

type Monitor struct {
	mu        sync.Mutex
	backend   string
	leds      int
	frameID   uint64
	startTime time.Time
	lastDiag  *Diagnostic
	clients   map[*websocket.Conn]bool
	upgrader  websocket.Upgrader
}

func New(backend string, leds int) *Monitor {
	return &Monitor{
		backend:   backend,
		leds:      leds,
		startTime: time.Now(),
		clients:   map[*websocket.Conn]bool{},
		upgrader:  websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Handler serves /ws and /health.
func (m *Monitor) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", m.HandleFramesWS)
	mux.HandleFunc("/health", m.HandleHealth)
	return mux
}

// Publish broadcasts a shown frame as red, green, blue bytes per LED.
func (m *Monitor) Publish(f model.Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frameID++
	m.broadcast(Message{Type: "frame", T: time.Now().UnixNano(), FrameID: m.frameID, RGB: f.RGB()})
}

// Report broadcasts a diagnostic and keeps it for /health.
func (m *Monitor) Report(d Diagnostic) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastDiag = &d
	m.broadcast(Message{Type: "diag", T: time.Now().UnixNano(), Diag: &d})
}

// Clients is the number of connected websocket clients.
func (m *Monitor) Clients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

func (m *Monitor) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	hello := Message{Type: "hello", T: time.Now().UnixNano(), LEDs: m.leds, Backend: m.backend}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(hello); err != nil {
		conn.Close()
		return
	}

	m.mu.Lock()
	m.clients[conn] = true
	m.mu.Unlock()

	go func() {
		defer func() {
			m.mu.Lock()
			delete(m.clients, conn)
			m.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (m *Monitor) HandleHealth(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp := map[string]any{
		"frame_id": m.frameID,
		"uptime_s": time.Since(m.startTime).Seconds(),
		"leds":     m.leds,
		"backend":  m.backend,
		"clients":  len(m.clients),
	}
	if m.lastDiag != nil {
		resp["last_diag"] = m.lastDiag
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// broadcast must be called with mu held.
func (m *Monitor) broadcast(msg Message) {
	if len(m.clients) == 0 {
		return
	}
	b, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("type", msg.Type).Msg("marshal monitor message")
		return
	}
	for c := range m.clients {
		c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write monitor message")
		}
	}
}
