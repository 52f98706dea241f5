package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/foomo/layoutinfer/collection"
	"github.com/foomo/layoutinfer/export"
	"github.com/foomo/layoutinfer/htmlast"
	"github.com/foomo/layoutinfer/scrape"
	"github.com/foomo/layoutinfer/service"
	"github.com/foomo/layoutinfer/service/vo"
)

const Version = "0.1.0"

type ScrapeRequest struct {
	URL      string `json:"url"`      // The URL to scrape
	Selector string `json:"selector"` // CSS selector to extract content
}

type ScrapeResponse struct {
	Summary  *vo.PageSummary `json:"summary"`
	Markdown string          `json:"markdown"` // The extracted content in markdown format
}

type InferLayoutRequest struct {
	URLs           []string `json:"urls"`           // Pages sharing one layout
	Selector       string   `json:"selector"`       // Element holding the page body
	KeepWhitespace bool     `json:"keepWhitespace"` // Keep whitespace-only text nodes
}

type InferLayoutResponse struct {
	Result   *collection.Result `json:"result"`
	Template string             `json:"template"` // Hugo base template
}

type InferSiteRequest struct {
	Path string `json:"path"` // Contentserver path of the section root
}

type InferSiteResponse struct {
	Site *vo.Site `json:"site"`
}

// NewServer creates a new MCP server with the scrape, inferLayout and
// inferSite tools
func NewServer(logger *zap.Logger, client *http.Client, inferer *Inferer, serviceInstance service.Service) *server.MCPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		client = http.DefaultClient
	}
	if inferer == nil {
		inferer = NewInferer(logger, client, nil, 0)
	}
	s := server.NewMCPServer(
		"Layout Inference MCP",
		Version,
		server.WithToolCapabilities(false),
	)

	scrapeTool := mcp.NewTool("scrape",
		mcp.WithDescription("Scrape content from a webpage and convert it to markdown"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the webpage to scrape"),
		),
		mcp.WithString("selector",
			mcp.Required(),
			mcp.Description("CSS selector to extract specific content (e.g., '#content', '.article', 'article')"),
		),
	)
	s.AddTool(scrapeTool, mcp.NewTypedToolHandler(getScrapeHandler(logger, client)))

	inferTool := mcp.NewTool("inferLayout",
		mcp.WithDescription("Infer the template shared by several pages and the data of every page"),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("At least two URLs of pages rendered from the same layout"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("selector",
			mcp.Description("CSS selector of the element holding the page body (e.g., '#content', 'main')"),
		),
		mcp.WithBoolean("keepWhitespace",
			mcp.Description("Keep whitespace-only text between elements"),
		),
	)
	s.AddTool(inferTool, mcp.NewTypedToolHandler(getInferLayoutHandler(logger, inferer)))

	// inferSite needs a contentserver
	if serviceInstance != nil {
		inferSiteTool := mcp.NewTool("inferSite",
			mcp.WithDescription("Infer the layout of a contentserver node and its children"),
			mcp.WithString("path",
				mcp.Required(),
				mcp.Description("The contentserver path of the section root"),
			),
		)
		s.AddTool(inferSiteTool, mcp.NewTypedToolHandler(getInferSiteHandler(logger, serviceInstance)))
	}

	return s
}

func getScrapeHandler(logger *zap.Logger, client *http.Client) func(ctx context.Context, request mcp.CallToolRequest, args ScrapeRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args ScrapeRequest) (*mcp.CallToolResult, error) {
		if args.URL == "" {
			return mcp.NewToolResultError("url is required"), nil
		}
		if args.Selector == "" {
			return mcp.NewToolResultError("selector is required"), nil
		}

		summary, markdown, err := scrape.Scrape(ctx, client, args.URL, args.Selector)
		if err != nil {
			logger.Warn("scrape failed", remote(ctx), zap.String("url", args.URL), zap.Error(err))
			return mcp.NewToolResultError(fmt.Sprintf("failed to scrape content: %v", err)), nil
		}
		return jsonResult(ScrapeResponse{
			Summary:  summary,
			Markdown: string(markdown),
		})
	}
}

func getInferLayoutHandler(logger *zap.Logger, inferer *Inferer) func(ctx context.Context, request mcp.CallToolRequest, args InferLayoutRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args InferLayoutRequest) (*mcp.CallToolResult, error) {
		if len(args.URLs) < 2 {
			return mcp.NewToolResultError("at least two urls are required"), nil
		}

		res, err := inferer.Infer(ctx, args.URLs, htmlast.Options{
			ContentSelector: args.Selector,
			KeepWhitespace:  args.KeepWhitespace,
		}, nil)
		if err != nil {
			logger.Warn("layout inference failed", remote(ctx), zap.Strings("urls", args.URLs), zap.Error(err))
			return mcp.NewToolResultError(fmt.Sprintf("failed to infer layout: %v", err)), nil
		}
		tmpl, err := export.Template(res.Layout.Tree)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to render template: %v", err)), nil
		}
		return jsonResult(InferLayoutResponse{Result: res, Template: tmpl})
	}
}

func getInferSiteHandler(logger *zap.Logger, serviceInstance service.Service) func(ctx context.Context, request mcp.CallToolRequest, args InferSiteRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args InferSiteRequest) (*mcp.CallToolResult, error) {
		if args.Path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}

		site, err := serviceInstance.InferSite(ctx, args.Path)
		if err != nil {
			logger.Warn("site inference failed", remote(ctx), zap.String("path", args.Path), zap.Error(err))
			return mcp.NewToolResultError(fmt.Sprintf("failed to infer site: %v", err)), nil
		}
		return jsonResult(InferSiteResponse{Site: site})
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	responseBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseBytes)), nil
}

// remote names the HTTP peer of a tool call. It is empty over stdio.
func remote(ctx context.Context) zap.Field {
	if req, ok := httpRequestFromContext(ctx); ok {
		return zap.String("remote", req.RemoteAddr)
	}
	return zap.Skip()
}
