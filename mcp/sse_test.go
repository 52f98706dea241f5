package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/foomo/layoutinfer/collection"
	"github.com/foomo/layoutinfer/htmlast"
	"github.com/foomo/layoutinfer/metrics"
)

var _ collection.Snapshotter = (*SSEServer)(nil)

// nextEvent reads lines until a complete event and returns its name and data.
func nextEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "" && event != "":
			return event, data
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestSSEServer_Broadcast(t *testing.T) {
	s := NewSSEServer(zaptest.NewLogger(t), &SSEServerConfig{KeepaliveInterval: time.Hour, BufferSize: 1})
	client := s.addClient()

	s.Snapshot("round-001", map[string]any{"round": 1})
	s.Snapshot("round-002", map[string]any{"round": 2})

	event := <-client.events
	assert.Equal(t, "round", event.Event)
	raw, err := json.Marshal(event.Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"round-001","snapshot":{"round":1}}`, string(raw))
	assert.Equal(t, 1, s.GetStats()["droppedEvents"])

	s.removeClient(client.ID)
	assert.Empty(t, s.GetConnectedClients())
}

func TestSSEServer_HandleSSE(t *testing.T) {
	s := NewSSEServer(zaptest.NewLogger(t), nil)
	srv := httptest.NewServer(http.HandlerFunc(s.HandleSSE))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	event, _ := nextEvent(t, r)
	assert.Equal(t, "connected", event)
	require.Len(t, s.GetConnectedClients(), 1)

	s.Snapshot("round-001", map[string]any{"pathname": "/two"})
	event, data := nextEvent(t, r)
	assert.Equal(t, "round", event)
	assert.Contains(t, data, `"pathname":"/two"`)
}

func TestSSEServer_HandleInferSSE(t *testing.T) {
	site := newSite(t)
	s := NewSSEServer(zaptest.NewLogger(t), nil)

	rec := httptest.NewRecorder()
	s.HandleInferSSE(rec, httptest.NewRequest(http.MethodPost, "/mcp/sse/infer", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s.SetInferer(NewInferer(zaptest.NewLogger(t), site.Client(), nil, 2))

	rec = httptest.NewRecorder()
	s.HandleInferSSE(rec, httptest.NewRequest(http.MethodPost, "/mcp/sse/infer", strings.NewReader(`{"urls":["`+site.URL+`/one"]}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, err := json.Marshal(InferLayoutRequest{URLs: []string{site.URL + "/one", site.URL + "/two", site.URL + "/three"}})
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	s.HandleInferSSE(rec, httptest.NewRequest(http.MethodPost, "/mcp/sse/infer", bytes.NewReader(body)))

	var events []string
	r := bufio.NewReader(rec.Body)
	for range 5 {
		event, _ := nextEvent(t, r)
		events = append(events, event)
	}
	assert.Equal(t, []string{"infer_start", "infer_round", "infer_round", "infer_result", "infer_complete"}, events)
}

func TestHTTPServer(t *testing.T) {
	sse := NewSSEServer(zaptest.NewLogger(t), nil)
	h := NewHTTPServer(zaptest.NewLogger(t), NewServer(nil, nil, nil, nil), sse, "/mcp", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("metrics"))
	}))
	assert.Same(t, sse, h.SSEServer())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp/sse/stats", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"connectedClients":0`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, "metrics", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp/sse/clients", nil))
	assert.Contains(t, rec.Body.String(), `"clients":[]`)
}

func TestInferer_Recorder(t *testing.T) {
	site := newSite(t)
	var seen []string
	rec := &countingRecorder{}
	inferer := NewInferer(nil, site.Client(), snapshotFunc(func(name string, _ any) { seen = append(seen, name) }), 1,
		collection.WithRecorder(rec))
	_, err := inferer.Infer(context.Background(), []string{site.URL + "/one", site.URL + "/two"}, htmlast.Options{ContentSelector: "main"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"round-001"}, seen)
	assert.Equal(t, 1, rec.builds)
}

type snapshotFunc func(name string, v any)

func (f snapshotFunc) Snapshot(name string, v any) { f(name, v) }

type countingRecorder struct {
	metrics.NoopRecorder
	builds int
}

func (c *countingRecorder) ObserveBuild(time.Duration, int, error) { c.builds++ }
