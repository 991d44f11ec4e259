package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/govguard/govguard/internal/infra/logger"
	"github.com/govguard/govguard/internal/ports"
)

const clientBuffer = 64

// Streamer fans dashboard events out to Server-Sent Events clients
type Streamer struct {
	clients   map[string]*Client
	mu        sync.RWMutex
	broadcast chan []byte
	heartbeat time.Duration
	logger    logger.Logger
}

// Client represents an SSE client connection
type Client struct {
	ID        string
	Channel   chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// NewStreamer creates a streamer; heartbeat <= 0 means 15 seconds
func NewStreamer(heartbeat time.Duration, log logger.Logger) *Streamer {
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Streamer{
		clients:   make(map[string]*Client),
		broadcast: make(chan []byte, 256),
		heartbeat: heartbeat,
		logger:    log.WithFields(map[string]interface{}{"component": "sse"}),
	}
}

// Start runs the fan-out loop until ctx is done
func (s *Streamer) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.closeAll()
				return
			case message := <-s.broadcast:
				s.fanOut(message)
			case <-ticker.C:
				s.fanOut([]byte(":heartbeat\n\n"))
			}
		}
	}()
}

// Publish queues a dashboard event for every client. It never blocks and
// can be passed directly to DashboardUseCase.Subscribe.
func (s *Streamer) Publish(event ports.Event) {
	frame, err := formatEvent(event.Type, event)
	if err != nil {
		s.logger.Error(context.Background(), "Failed to marshal event", err, map[string]interface{}{"event_type": event.Type})
		return
	}

	select {
	case s.broadcast <- frame:
	default:
		s.logger.Warn(context.Background(), "Broadcast channel is full, dropping event", map[string]interface{}{"event_type": event.Type})
	}
}

// AddClient registers a new client
func (s *Streamer) AddClient(clientID string) *Client {
	client := &Client{
		ID:      clientID,
		Channel: make(chan []byte, clientBuffer),
		done:    make(chan struct{}),
	}

	s.mu.Lock()
	if old, ok := s.clients[clientID]; ok {
		old.close()
	}
	s.clients[clientID] = client
	s.mu.Unlock()
	return client
}

// RemoveClient removes a client and ends its stream
func (s *Streamer) RemoveClient(clientID string) {
	s.mu.Lock()
	if client, ok := s.clients[clientID]; ok {
		client.close()
		delete(s.clients, clientID)
	}
	s.mu.Unlock()
}

// removeClient drops c only while it is still the registered client for its ID,
// so a stream replaced by a reconnect does not evict its successor.
func (s *Streamer) removeClient(c *Client) {
	c.close()
	s.mu.Lock()
	if current, ok := s.clients[c.ID]; ok && current == c {
		delete(s.clients, c.ID)
	}
	s.mu.Unlock()
}

// ClientCount returns the number of connected clients
func (s *Streamer) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// HandleSSE streams events to the caller until it disconnects
func (s *Streamer) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Streams outlive the server write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = uuid.NewString()
	}

	client := s.AddClient(clientID)
	defer s.removeClient(client)

	hello, _ := formatEvent("connected", map[string]interface{}{
		"client_id": clientID,
		"connected": true,
		"timestamp": time.Now().Unix(),
	})
	if _, err := w.Write(hello); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.done:
			return
		case message := <-client.Channel:
			if _, err := w.Write(message); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Streamer) fanOut(message []byte) {
	var slow []*Client

	s.mu.RLock()
	for _, client := range s.clients {
		select {
		case client.Channel <- message:
		default:
			slow = append(slow, client)
		}
	}
	s.mu.RUnlock()

	for _, client := range slow {
		s.logger.Warn(context.Background(), "Dropping slow SSE client", map[string]interface{}{"client_id": client.ID})
		s.removeClient(client)
	}
}

func (s *Streamer) closeAll() {
	s.mu.Lock()
	for id, client := range s.clients {
		client.close()
		delete(s.clients, id)
	}
	s.mu.Unlock()
}

func formatEvent(eventType string, data interface{}) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, payload)), nil
}
