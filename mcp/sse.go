package mcp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foomo/layoutinfer/htmlast"
)

// SSEEvent represents an SSE event structure
type SSEEvent struct {
	ID        string    `json:"id"`
	Event     string    `json:"event"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

func newEvent(event string, data any) SSEEvent {
	return SSEEvent{ID: uuid.NewString(), Event: event, Data: data, Timestamp: time.Now()}
}

// SSEClient represents a connected SSE client
type SSEClient struct {
	ID       string
	events   chan SSEEvent
	done     chan struct{}
	LastSeen time.Time
}

// SSEServerConfig holds configuration for the SSE server
type SSEServerConfig struct {
	KeepaliveInterval time.Duration
	BufferSize        int
}

// DefaultSSEServerConfig returns the default configuration for SSE server
func DefaultSSEServerConfig() *SSEServerConfig {
	return &SSEServerConfig{
		KeepaliveInterval: 30 * time.Second,
		BufferSize:        100,
	}
}

// SSEServer streams the rounds of every build to connected clients. It
// implements collection.Snapshotter.
type SSEServer struct {
	logger       *zap.Logger
	inferer      *Inferer
	config       *SSEServerConfig
	clients      map[string]*SSEClient
	clientsMutex sync.RWMutex
	dropped      int
}

// NewSSEServer creates a new SSE server. Per-request inference streams need
// SetInferer.
func NewSSEServer(logger *zap.Logger, config *SSEServerConfig) *SSEServer {
	if config == nil {
		config = DefaultSSEServerConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SSEServer{
		logger:  logger,
		config:  config,
		clients: make(map[string]*SSEClient),
	}
}

func (s *SSEServer) SetInferer(inferer *Inferer) {
	s.inferer = inferer
}

// Snapshot broadcasts a build round. v is encoded before it is queued.
func (s *SSEServer) Snapshot(name string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("failed to encode round", zap.String("name", name), zap.Error(err))
		return
	}
	s.broadcastEvent(newEvent("round", map[string]any{"name": name, "snapshot": json.RawMessage(raw)}))
}

// broadcastEvent sends an event to all connected clients. Slow clients lose
// events instead of blocking the build.
func (s *SSEServer) broadcastEvent(event SSEEvent) {
	s.clientsMutex.Lock()
	defer s.clientsMutex.Unlock()
	for _, client := range s.clients {
		select {
		case client.events <- event:
		default:
			s.dropped++
			s.logger.Warn("client buffer full, dropping event", zap.String("clientID", client.ID), zap.String("eventID", event.ID))
		}
	}
}

func (s *SSEServer) addClient() *SSEClient {
	client := &SSEClient{
		ID:       uuid.NewString(),
		events:   make(chan SSEEvent, s.config.BufferSize),
		done:     make(chan struct{}),
		LastSeen: time.Now(),
	}
	s.clientsMutex.Lock()
	s.clients[client.ID] = client
	s.clientsMutex.Unlock()
	s.logger.Info("SSE client connected", zap.String("clientID", client.ID))
	return client
}

// removeClient removes a client from the server
func (s *SSEServer) removeClient(clientID string) {
	s.clientsMutex.Lock()
	defer s.clientsMutex.Unlock()

	if client, exists := s.clients[clientID]; exists {
		close(client.done)
		delete(s.clients, clientID)
		s.logger.Info("SSE client disconnected", zap.String("clientID", clientID))
	}
}

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// writeEvent writes one event in SSE framing
func writeEvent(w http.ResponseWriter, flusher http.Flusher, event SSEEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.ID, event.Event, eventJSON); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	flusher.Flush()
	return nil
}

// HandleSSE streams the rounds of every build until the client disconnects.
func (s *SSEServer) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	setSSEHeaders(w)

	client := s.addClient()
	defer s.removeClient(client.ID)

	if err := writeEvent(w, flusher, newEvent("connected", map[string]string{"clientID": client.ID})); err != nil {
		s.logger.Error("failed to send connection event", zap.String("clientID", client.ID), zap.Error(err))
		return
	}

	ticker := time.NewTicker(s.config.KeepaliveInterval)
	defer ticker.Stop()
	for {
		var event SSEEvent
		select {
		case <-r.Context().Done():
			return
		case <-client.done:
			return
		case event = <-client.events:
		case <-ticker.C:
			event = newEvent("keepalive", map[string]any{"timestamp": time.Now()})
		}
		if err := writeEvent(w, flusher, event); err != nil {
			s.logger.Error("failed to send event to client", zap.String("clientID", client.ID), zap.Error(err))
			return
		}
		s.clientsMutex.Lock()
		client.LastSeen = time.Now()
		s.clientsMutex.Unlock()
	}
}

// streamSnapshotter forwards the rounds of a single build into one response.
type streamSnapshotter struct {
	logger  *zap.Logger
	w       http.ResponseWriter
	flusher http.Flusher
}

func (s streamSnapshotter) Snapshot(name string, v any) {
	if err := writeEvent(s.w, s.flusher, newEvent("infer_round", map[string]any{"name": name, "snapshot": v})); err != nil {
		s.logger.Warn("failed to stream round", zap.String("name", name), zap.Error(err))
	}
}

// HandleInferSSE runs one inference and streams its rounds followed by the
// result.
func (s *SSEServer) HandleInferSSE(w http.ResponseWriter, r *http.Request) {
	if s.inferer == nil {
		http.Error(w, "Inference not available", http.StatusServiceUnavailable)
		return
	}
	var request InferLayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if len(request.URLs) < 2 {
		http.Error(w, "at least two urls are required", http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	setSSEHeaders(w)

	stream := streamSnapshotter{logger: s.logger, w: w, flusher: flusher}
	if err := writeEvent(w, flusher, newEvent("infer_start", map[string]any{"urls": request.URLs})); err != nil {
		return
	}
	res, err := s.inferer.Infer(r.Context(), request.URLs, htmlast.Options{
		ContentSelector: request.Selector,
		KeepWhitespace:  request.KeepWhitespace,
	}, stream)
	if err != nil {
		_ = writeEvent(w, flusher, newEvent("infer_error", map[string]string{"error": err.Error()}))
		return
	}
	_ = writeEvent(w, flusher, newEvent("infer_result", res))
	_ = writeEvent(w, flusher, newEvent("infer_complete", map[string]string{"status": "completed"}))
}

// GetConnectedClients returns information about connected clients
func (s *SSEServer) GetConnectedClients() []map[string]any {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()

	clients := make([]map[string]any, 0, len(s.clients))
	for _, client := range s.clients {
		clients = append(clients, map[string]any{
			"id":       client.ID,
			"lastSeen": client.LastSeen,
			"buffered": len(client.events),
		})
	}
	return clients
}

// GetStats returns server statistics
func (s *SSEServer) GetStats() map[string]any {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()

	return map[string]any{
		"connectedClients": len(s.clients),
		"droppedEvents":    s.dropped,
		"serverVersion":    Version,
	}
}
