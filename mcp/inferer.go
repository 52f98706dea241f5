package mcp

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/foomo/layoutinfer/collection"
	"github.com/foomo/layoutinfer/debuglog"
	"github.com/foomo/layoutinfer/htmlast"
	"github.com/foomo/layoutinfer/scrape"
)

// Inferer fetches pages and builds their shared layout.
type Inferer struct {
	logger      *zap.Logger
	client      *http.Client
	snapshotter collection.Snapshotter
	options     []collection.Option
	concurrency int
}

// NewInferer returns an Inferer. Every build reports its rounds to
// snapshotter, which may be nil.
func NewInferer(logger *zap.Logger, client *http.Client, snapshotter collection.Snapshotter, concurrency int, opts ...collection.Option) *Inferer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Inferer{
		logger:      logger,
		client:      client,
		snapshotter: snapshotter,
		options:     opts,
		concurrency: concurrency,
	}
}

// Infer fetches urls and builds them. extra receives the rounds of this
// build only.
func (i *Inferer) Infer(ctx context.Context, urls []string, parse htmlast.Options, extra collection.Snapshotter) (*collection.Result, error) {
	docs, err := scrape.Documents(ctx, i.logger, i.client, urls, parse, i.concurrency)
	if err != nil {
		return nil, err
	}
	opts := append([]collection.Option{collection.WithLogger(i.logger)}, i.options...)
	opts = append(opts, collection.WithSnapshotter(debuglog.Multi{i.snapshotter, extra}))
	return collection.NewBuilder(opts...).Build(docs)
}
