package service

import (
	"context"
	"net/http"
	"strings"

	contentserverclient "github.com/foomo/contentserver/client"
	"github.com/foomo/contentserver/content"
	"github.com/foomo/contentserver/requests"
	"go.uber.org/zap"

	"github.com/foomo/layoutinfer/collection"
	"github.com/foomo/layoutinfer/errors"
	"github.com/foomo/layoutinfer/export"
	"github.com/foomo/layoutinfer/htmlast"
	"github.com/foomo/layoutinfer/scrape"
	"github.com/foomo/layoutinfer/service/vo"
)

type Service interface {
	// InferSite infers the layout shared by the node at path and its
	// children.
	InferSite(ctx context.Context, path string) (*vo.Site, error)
}

// ContentServer is the part of the contentserver client the service uses.
type ContentServer interface {
	GetContent(ctx context.Context, cr *requests.Content) (*content.SiteContent, error)
	GetNodes(ctx context.Context, env *requests.Env, nodes map[string]*requests.Node) (map[string]*content.Node, error)
}

type service struct {
	logger              *zap.Logger
	contentServerClient ContentServer
	httpClient          *http.Client
	siteSettings        SiteSettings
	builder             *collection.Builder
}

type SiteSettings struct {
	Env              *requests.Env
	ContentSelector  string
	KeepWhitespace   bool
	BaseURL          string
	ContentServerURL string
	MimeTypes        []vo.MimeType
	Concurrency      int
}

func (siteSettings SiteSettings) mimeTypes() []string {
	mimeTypes := make([]string, len(siteSettings.MimeTypes))
	for i, mimeType := range siteSettings.MimeTypes {
		mimeTypes[i] = string(mimeType)
	}
	return mimeTypes
}

func NewService(
	logger *zap.Logger,
	siteSettings SiteSettings,
	httpClient *http.Client,
	builder *collection.Builder,
) Service {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	contentServerClient := contentserverclient.New(
		contentserverclient.NewHTTPTransport(
			siteSettings.ContentServerURL,
			contentserverclient.HTTPTransportWithHTTPClient(httpClient),
		))
	return newService(logger, siteSettings, httpClient, contentServerClient, builder)
}

func newService(logger *zap.Logger, siteSettings SiteSettings, httpClient *http.Client, cs ContentServer, builder *collection.Builder) *service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if builder == nil {
		builder = collection.NewBuilder(collection.WithLogger(logger))
	}
	return &service{
		logger:              logger,
		contentServerClient: cs,
		httpClient:          httpClient,
		siteSettings:        siteSettings,
		builder:             builder,
	}
}

// isValidURI checks if a URI is valid for processing
func isValidURI(uri string) bool {
	return uri != "" && strings.HasPrefix(uri, "/")
}

func (s *service) InferSite(ctx context.Context, path string) (*vo.Site, error) {
	siteContent, err := s.contentServerClient.GetContent(ctx, &requests.Content{
		URI:   path,
		Env:   s.siteSettings.Env,
		Nodes: map[string]*requests.Node{},
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to get content").
			WithContext("path", path).
			Build()
	}
	if siteContent.Item == nil {
		return nil, errors.InsufficientInput("content has no item").WithContext("path", path).Build()
	}

	items := []*content.Item{siteContent.Item}
	nodes, err := s.contentServerClient.GetNodes(ctx, s.siteSettings.Env, map[string]*requests.Node{
		siteContent.Item.ID: {
			ID:        siteContent.Item.ID,
			MimeTypes: s.siteSettings.mimeTypes(),
		},
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to get nodes").
			WithContext("id", siteContent.Item.ID).
			Build()
	}
	contentNode, ok := nodes[siteContent.Item.ID]
	if !ok {
		return nil, errors.NewError(errors.CategoryNetwork, "content node not found").
			WithContext("id", siteContent.Item.ID).
			Build()
	}
	for _, id := range contentNode.Index {
		childNode, ok := contentNode.Nodes[id]
		if !ok {
			return nil, errors.NewError(errors.CategoryNetwork, "child node not found").
				WithContext("id", id).
				Build()
		}
		if childNode.Item == nil || !isValidURI(childNode.Item.URI) {
			continue
		}
		items = append(items, childNode.Item)
	}

	urls := make([]string, len(items))
	for i, item := range items {
		urls[i] = s.siteSettings.BaseURL + item.URI
	}
	s.logger.Info("inferring site layout", zap.String("path", path), zap.Int("pages", len(urls)))

	docs, err := scrape.Documents(ctx, s.logger, s.httpClient, urls, htmlast.Options{
		ContentSelector: s.siteSettings.ContentSelector,
		KeepWhitespace:  s.siteSettings.KeepWhitespace,
	}, s.siteSettings.Concurrency)
	if err != nil {
		return nil, err
	}
	for i, item := range items {
		docs[i].Pathname = item.URI
	}

	res, err := s.builder.Build(docs)
	if err != nil {
		return nil, err
	}
	tmpl, err := export.Template(res.Layout.Tree)
	if err != nil {
		return nil, err
	}

	site := &vo.Site{Template: tmpl, Result: res}
	for i, item := range items {
		summary := s.summary(item, urls[i], docs[i])
		if i == 0 {
			site.Root = summary
			continue
		}
		site.Pages = append(site.Pages, summary)
	}
	return site, nil
}

func (s *service) summary(item *content.Item, url string, doc collection.Document) vo.PageSummary {
	return vo.PageSummary{
		URL:            url,
		Pathname:       item.URI,
		ID:             item.ID,
		MimeType:       vo.MimeType(item.MimeType),
		ContentSummary: scrape.Summarize(doc.Nodes),
	}
}
