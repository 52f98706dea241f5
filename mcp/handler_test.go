package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/foomo/layoutinfer/service/vo"
)

var pages = map[string]string{
	"/one":   `<!DOCTYPE html><html><head><title>One</title></head><body><main><p>First</p></main></body></html>`,
	"/two":   `<!DOCTYPE html><html><head><title>Two</title></head><body><main><p>Second</p></main></body></html>`,
	"/three": `<!DOCTYPE html><html><head><title>Three</title></head><body><main><p>Third</p></main></body></html>`,
}

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		markup, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(markup))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func callRequest(name string, args any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Request: mcp.Request{
			Method: "tools/call",
		},
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

type fakeService struct {
	site *vo.Site
	err  error
	path string
}

func (f *fakeService) InferSite(_ context.Context, path string) (*vo.Site, error) {
	f.path = path
	return f.site, f.err
}

func listTools(t *testing.T, s *server.MCPServer) string {
	t.Helper()
	msg := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	return string(raw)
}

func TestNewServer(t *testing.T) {
	s := NewServer(nil, nil, nil, nil)
	require.NotNil(t, s)

	tools := listTools(t, s)
	assert.Contains(t, tools, `"scrape"`)
	assert.Contains(t, tools, `"inferLayout"`)
	assert.NotContains(t, tools, `"inferSite"`)

	assert.Contains(t, listTools(t, NewServer(nil, nil, nil, &fakeService{})), `"inferSite"`)
}

func TestScrapeHandler(t *testing.T) {
	srv := newSite(t)
	args := ScrapeRequest{URL: srv.URL + "/one", Selector: "main"}

	result, err := getScrapeHandler(zaptest.NewLogger(t), srv.Client())(context.Background(), callRequest("scrape", args), args)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var response ScrapeResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &response))
	assert.Equal(t, "First", response.Markdown)
	assert.Equal(t, "One", response.Summary.Title)
}

func TestScrapeHandlerValidation(t *testing.T) {
	scrapeHandler := getScrapeHandler(zaptest.NewLogger(t), http.DefaultClient)
	for name, args := range map[string]ScrapeRequest{
		"missing url":      {Selector: "body"},
		"missing selector": {URL: "https://example.com"},
	} {
		t.Run(name, func(t *testing.T) {
			result, err := scrapeHandler(context.Background(), callRequest("scrape", args), args)
			require.NoError(t, err)
			assert.True(t, result.IsError)
		})
	}
}

func TestInferLayoutHandler(t *testing.T) {
	srv := newSite(t)
	handler := getInferLayoutHandler(zaptest.NewLogger(t), NewInferer(nil, srv.Client(), nil, 2))
	args := InferLayoutRequest{URLs: []string{srv.URL + "/one", srv.URL + "/two", srv.URL + "/three"}, Selector: "main"}

	result, err := handler(context.Background(), callRequest("inferLayout", args), args)
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var response struct {
		Result struct {
			Pages []struct {
				Pathname string         `json:"pathname"`
				Data     map[string]any `json:"data"`
			} `json:"pages"`
		} `json:"result"`
		Template string `json:"template"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &response))
	require.Len(t, response.Result.Pages, 3)
	assert.Equal(t, "/two", response.Result.Pages[1].Pathname)
	assert.Equal(t, map[string]any{"title": "Two"}, response.Result.Pages[1].Data)
	assert.Contains(t, response.Template, "<title>{{ .Params.title }}</title>")
}

func TestInferLayoutHandlerValidation(t *testing.T) {
	srv := newSite(t)
	handler := getInferLayoutHandler(zaptest.NewLogger(t), NewInferer(nil, srv.Client(), nil, 0))

	args := InferLayoutRequest{URLs: []string{srv.URL + "/one"}}
	result, err := handler(context.Background(), callRequest("inferLayout", args), args)
	require.NoError(t, err)
	assert.True(t, result.IsError)

	args = InferLayoutRequest{URLs: []string{srv.URL + "/one", srv.URL + "/missing"}}
	result, err = handler(context.Background(), callRequest("inferLayout", args), args)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestInferSiteHandler(t *testing.T) {
	svc := &fakeService{site: &vo.Site{Root: vo.PageSummary{Pathname: "/recipes"}}}
	handler := getInferSiteHandler(zaptest.NewLogger(t), svc)

	args := InferSiteRequest{Path: "/recipes"}
	result, err := handler(context.Background(), callRequest("inferSite", args), args)
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "/recipes", svc.path)
	assert.Contains(t, resultText(t, result), `"pathname":"/recipes"`)

	svc.err = fmt.Errorf("contentserver down")
	result, err = handler(context.Background(), callRequest("inferSite", args), args)
	require.NoError(t, err)
	assert.True(t, result.IsError)

	args = InferSiteRequest{}
	result, err = handler(context.Background(), callRequest("inferSite", args), args)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
