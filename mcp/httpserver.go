package mcp

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// httpRequestKey is a custom context key for storing the original HTTP request
type httpRequestKey struct{}

// withHTTPRequest adds the original HTTP request to the context
func withHTTPRequest(ctx context.Context, req *http.Request) context.Context {
	return context.WithValue(ctx, httpRequestKey{}, req)
}

// httpRequestFromContext extracts the original HTTP request from the context
func httpRequestFromContext(ctx context.Context) (*http.Request, bool) {
	req, ok := ctx.Value(httpRequestKey{}).(*http.Request)
	return req, ok
}

// httpContextFunc extracts the original HTTP request and adds it to the context
func httpContextFunc(ctx context.Context, r *http.Request) context.Context {
	return withHTTPRequest(ctx, r)
}

// NewMcpHTTPServer creates the streamable MCP endpoint
func NewMcpHTTPServer(s *server.MCPServer, endpoint string) *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s,
		server.WithEndpointPath(endpoint),
		server.WithHTTPContextFunc(httpContextFunc),
	)
}

// HTTPServer combines the MCP endpoint, the SSE round stream and an optional
// metrics handler.
type HTTPServer struct {
	mux       *http.ServeMux
	sseServer *SSEServer
}

// NewHTTPServer mounts s at endpoint and the SSE handlers below it.
// metrics is mounted at /metrics when not nil.
func NewHTTPServer(logger *zap.Logger, s *server.MCPServer, sseServer *SSEServer, endpoint string, metrics http.Handler) *HTTPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.Handle(endpoint, NewMcpHTTPServer(s, endpoint))

	if sseServer != nil {
		mux.HandleFunc(endpoint+"/sse", sseServer.HandleSSE)
		mux.HandleFunc(endpoint+"/sse/infer", sseServer.HandleInferSSE)
		mux.HandleFunc(endpoint+"/sse/clients", func(w http.ResponseWriter, r *http.Request) {
			clients := sseServer.GetConnectedClients()
			writeJSON(logger, w, map[string]any{
				"connectedClients": len(clients),
				"clients":          clients,
			})
		})
		mux.HandleFunc(endpoint+"/sse/stats", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(logger, w, sseServer.GetStats())
		})
	}
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}

	return &HTTPServer{
		mux:       mux,
		sseServer: sseServer,
	}
}

func writeJSON(logger *zap.Logger, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to write response", zap.Error(err))
	}
}

// ServeHTTP implements http.Handler
func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// SSEServer returns the underlying SSE server for direct access
func (s *HTTPServer) SSEServer() *SSEServer {
	return s.sseServer
}
