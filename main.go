package main

import (
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/foomo/layoutinfer/config"
	"github.com/foomo/layoutinfer/mcp"
)

// Global is passed to every command.
type Global struct {
	Config *config.Config
	Logger *zap.Logger
}

type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" type:"path"`
	Verbose bool             `short:"v" help:"Enable debug logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Infer  InferCmd  `cmd:"" help:"Infer the shared layout of local HTML files and export it"`
	Scrape ScrapeCmd `cmd:"" help:"Print the markdown of a page element"`
	Serve  ServeCmd  `cmd:"" help:"Serve the MCP tools over stdio or HTTP"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("layoutinfer"),
		kong.Description("Infer the template and data behind a set of rendered HTML pages."),
		kong.UsageOnError(),
		kong.Vars{"version": mcp.Version},
	)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		// no logger yet
		bootstrap, _ := zap.NewProduction()
		bootstrap.Error("failed to load configuration", zap.Error(err))
		os.Exit(1)
	}
	if cli.Verbose {
		cfg.Log.Level = "debug"
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		ctx.FatalIfErrorf(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := ctx.Run(&Global{Config: cfg, Logger: logger}); err != nil {
		logger.Error("command failed", zap.String("command", ctx.Command()), zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// newLogger writes to stderr so stdout stays free for command output and the
// stdio transport.
func newLogger(c config.Log) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Mode == config.LogModeDevelopment {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
