package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foomo/contentserver/requests"
	"github.com/mark3labs/mcp-go/server"
	prom "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/foomo/layoutinfer/collection"
	"github.com/foomo/layoutinfer/config"
	"github.com/foomo/layoutinfer/debuglog"
	"github.com/foomo/layoutinfer/export"
	"github.com/foomo/layoutinfer/htmlast"
	"github.com/foomo/layoutinfer/mcp"
	"github.com/foomo/layoutinfer/metrics"
	"github.com/foomo/layoutinfer/scrape"
	"github.com/foomo/layoutinfer/service"
	"github.com/foomo/layoutinfer/service/vo"
)

type InferCmd struct {
	Files          []string `arg:"" type:"existingfile" help:"HTML files rendered from one layout"`
	Root           string   `help:"Directory the page pathnames are relative to" type:"existingdir"`
	Selector       string   `short:"s" help:"Element holding the page body (#id, .class or tag)"`
	KeepWhitespace bool     `help:"Keep whitespace-only text between elements"`
	Engine         string   `short:"e" help:"Export engine (hugo or preview)"`
	Output         string   `short:"o" help:"Output directory"`
	JSON           bool     `help:"Print the result as JSON instead of exporting"`
}

func (c *InferCmd) Run(g *Global) error {
	cfg := g.Config
	if c.Selector != "" {
		cfg.Parse.ContentSelector = c.Selector
	}
	if c.KeepWhitespace {
		cfg.Parse.KeepWhitespace = true
	}
	if c.Engine != "" {
		cfg.Export.Engine = config.Engine(c.Engine)
	}
	if c.Output != "" {
		cfg.Export.OutputDir = c.Output
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	docs, err := scrape.Files(ctx, c.Root, c.Files, parseOptions(cfg), cfg.Parse.Concurrency)
	if err != nil {
		return err
	}
	opts := []collection.Option{collection.WithLogger(g.Logger)}
	if cfg.Debug.Dir != "" {
		dir, err := debuglog.NewDir(cfg.Debug.Dir, g.Logger)
		if err != nil {
			return err
		}
		opts = append(opts, collection.WithSnapshotter(dir))
	}
	res, err := collection.NewBuilder(opts...).Build(docs)
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	files, err := engine(cfg.Export.Engine).Export(res)
	if err != nil {
		return err
	}
	if err := export.WriteFiles(cfg.Export.OutputDir, files); err != nil {
		return err
	}
	g.Logger.Info("export written",
		zap.String("engine", string(cfg.Export.Engine)),
		zap.String("dir", cfg.Export.OutputDir),
		zap.Int("files", len(files)),
	)
	return nil
}

type ScrapeCmd struct {
	URL      string `arg:"" help:"Page URL"`
	Selector string `short:"s" help:"Element to convert" default:"body"`
}

func (c *ScrapeCmd) Run(g *Global) error {
	summary, md, err := scrape.Scrape(context.Background(), http.DefaultClient, c.URL, c.Selector)
	if err != nil {
		return err
	}
	g.Logger.Debug("page scraped", zap.String("url", summary.URL), zap.String("title", summary.Title))
	_, err = fmt.Fprintln(os.Stdout, md)
	return err
}

type ServeCmd struct {
	HTTP     bool   `help:"Serve over HTTP instead of stdio"`
	Addr     string `help:"HTTP listen address"`
	Endpoint string `help:"MCP endpoint path"`
	Metrics  bool   `help:"Expose Prometheus metrics at /metrics"`
}

func (c *ServeCmd) Run(g *Global) error {
	cfg := g.Config
	if c.Addr != "" {
		cfg.HTTP.Addr = c.Addr
	}
	if c.Endpoint != "" {
		cfg.HTTP.Endpoint = c.Endpoint
	}
	if c.Metrics {
		cfg.HTTP.Metrics = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := g.Logger.Named("mcp")
	client := &http.Client{Timeout: 30 * time.Second}

	var snapshotters debuglog.Multi
	var sse *mcp.SSEServer
	if c.HTTP {
		sse = mcp.NewSSEServer(logger.Named("sse"), nil)
		snapshotters = append(snapshotters, sse)
	}
	if cfg.Debug.Dir != "" {
		dir, err := debuglog.NewDir(cfg.Debug.Dir, logger)
		if err != nil {
			return err
		}
		snapshotters = append(snapshotters, dir)
	}

	var recorder collection.Recorder = metrics.NoopRecorder{}
	var registry *prom.Registry
	if cfg.HTTP.Metrics {
		registry = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
	}
	builderOpts := []collection.Option{collection.WithRecorder(recorder)}

	inferer := mcp.NewInferer(logger, client, snapshotters, cfg.Parse.Concurrency, builderOpts...)
	var svc service.Service
	if cfg.ContentServer.URL != "" {
		svc = service.NewService(logger.Named("service"), siteSettings(cfg), client,
			collection.NewBuilder(append(builderOpts,
				collection.WithLogger(logger),
				collection.WithSnapshotter(snapshotters),
			)...))
	}
	s := mcp.NewServer(logger, client, inferer, svc)

	if !c.HTTP {
		logger.Info("starting MCP server in stdio mode")
		return server.ServeStdio(s)
	}

	sse.SetInferer(inferer)
	var metricsHandler http.Handler
	if registry != nil {
		metricsHandler = metrics.HTTPHandler(registry)
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           mcp.NewHTTPServer(logger, s, sse, cfg.HTTP.Endpoint, metricsHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errc := make(chan error, 1)
	go func() {
		logger.Info("starting MCP server", zap.String("addr", cfg.HTTP.Addr), zap.String("endpoint", cfg.HTTP.Endpoint))
		errc <- httpServer.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func parseOptions(cfg *config.Config) htmlast.Options {
	return htmlast.Options{
		ContentSelector: cfg.Parse.ContentSelector,
		KeepWhitespace:  cfg.Parse.KeepWhitespace,
	}
}

func engine(e config.Engine) export.Engine {
	if e == config.EnginePreview {
		return export.NewPreview()
	}
	return export.Hugo{}
}

func siteSettings(cfg *config.Config) service.SiteSettings {
	mimeTypes := make([]vo.MimeType, len(cfg.ContentServer.MimeTypes))
	for i, m := range cfg.ContentServer.MimeTypes {
		mimeTypes[i] = vo.MimeType(m)
	}
	return service.SiteSettings{
		Env:              &requests.Env{},
		ContentSelector:  cfg.Parse.ContentSelector,
		KeepWhitespace:   cfg.Parse.KeepWhitespace,
		BaseURL:          cfg.ContentServer.BaseURL,
		ContentServerURL: cfg.ContentServer.URL,
		MimeTypes:        mimeTypes,
		Concurrency:      cfg.Parse.Concurrency,
	}
}
