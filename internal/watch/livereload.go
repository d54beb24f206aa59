package watch

import (
	"bufio"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// EventHub manages SSE clients for build-completion broadcasts. Payloads are
// pre-serialized JSON; the hub treats them as opaque strings.
type EventHub struct {
	mu      sync.RWMutex
	nextID  int
	clients map[int]*sseClient
	closed  bool
	last    string
}

type sseClient struct {
	id   int
	ch   chan string
	done chan struct{}
}

func NewEventHub() *EventHub {
	return &EventHub{clients: map[int]*sseClient{}}
}

// ServeHTTP implements the SSE endpoint at /events.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "event stream shutting down", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	client := &sseClient{ch: make(chan string, 8), done: make(chan struct{})}
	h.mu.Lock()
	client.id = h.nextID
	h.nextID++
	h.clients[client.id] = client
	current := h.last
	h.mu.Unlock()

	// Initial comment, then replay the most recent build event so a client
	// that connects between builds still sees current state.
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(": connected\n\n"); err != nil {
		slog.Debug("event stream write", "error", err)
		return
	}
	if current != "" {
		if _, err := bw.WriteString("data: " + current + "\n\n"); err != nil {
			slog.Debug("event stream write", "error", err)
			return
		}
	}
	if err := bw.Flush(); err == nil {
		flusher.Flush()
	}

	hb := time.NewTicker(30 * time.Second)
	defer hb.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.removeClient(client.id)
			return
		case <-client.done:
			h.removeClient(client.id)
			return
		case <-hb.C:
			if _, err := bw.WriteString(": ping\n\n"); err == nil {
				bw.Flush()
				flusher.Flush()
			} else {
				slog.Debug("event stream ping write", "error", err)
			}
		case payload := <-client.ch:
			if _, err := bw.WriteString("data: " + payload + "\n\n"); err == nil {
				bw.Flush()
				flusher.Flush()
			} else {
				slog.Debug("event stream broadcast write", "error", err)
			}
		}
	}
}

func (h *EventHub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
	}
}

// Broadcast sends payload to all clients (drops clients whose channels are full).
func (h *EventHub) Broadcast(payload string) {
	h.mu.Lock()
	if h.closed || payload == "" {
		h.mu.Unlock()
		return
	}
	h.last = payload
	snapshot := make([]*sseClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- payload:
		default:
			dropped++
			h.removeClient(c.id)
		}
	}
	slog.Debug("build event broadcast", "clients", len(snapshot), "dropped", dropped)
}

// Shutdown closes all clients and prevents future broadcasts.
func (h *EventHub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	snapshot := make([]*sseClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.clients = map[int]*sseClient{}
	h.mu.Unlock()

	for _, c := range snapshot {
		close(c.done)
	}
}
