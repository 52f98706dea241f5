// Package scrape downloads pages and turns them into documents for layout
// inference.
package scrape

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/foomo/layoutinfer/collection"
	"github.com/foomo/layoutinfer/errors"
	"github.com/foomo/layoutinfer/htmlast"
	"github.com/foomo/layoutinfer/service/vo"
)

// Fetch downloads the markup at rawURL.
func Fetch(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to create request").
			WithContext("url", rawURL).
			Build()
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to download HTML").
			WithContext("url", rawURL).
			Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewError(errors.CategoryNetwork, "HTTP request failed").
			WithContext("url", rawURL).
			WithContext("status", resp.StatusCode).
			Build()
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to read response body").
			WithContext("url", rawURL).
			Build()
	}
	return body, nil
}

// Scrape summarizes the page at rawURL and converts the element matched by
// selector to markdown.
func Scrape(ctx context.Context, client *http.Client, rawURL, selector string) (*vo.PageSummary, vo.Markdown, error) {
	body, err := Fetch(ctx, client, rawURL)
	if err != nil {
		return nil, "", err
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, "", errors.WrapError(err, errors.CategoryParse, "failed to parse HTML").
			WithContext("url", rawURL).
			Build()
	}
	selected, err := htmlast.Select(doc, selector)
	if err != nil {
		return nil, "", errors.WrapError(err, errors.CategoryParse, "failed to extract node").
			WithContext("selector", selector).
			Build()
	}
	md, err := htmltomarkdown.ConvertNode(selected)
	if err != nil {
		return nil, "", errors.WrapError(err, errors.CategoryParse, "failed to convert HTML to markdown").Build()
	}

	page, err := htmlast.FromHTML(doc, htmlast.Options{})
	if err != nil {
		return nil, "", err
	}
	summary := &vo.PageSummary{
		URL:            rawURL,
		Pathname:       Pathname(rawURL),
		ContentSummary: Summarize(page.Nodes),
	}
	return summary, vo.Markdown(strings.TrimSpace(string(md))), nil
}

// Document fetches and parses one page.
func Document(ctx context.Context, client *http.Client, rawURL string, opts htmlast.Options) (collection.Document, error) {
	body, err := Fetch(ctx, client, rawURL)
	if err != nil {
		return collection.Document{}, err
	}
	page, err := htmlast.Parse(bytes.NewReader(body), opts)
	if err != nil {
		return collection.Document{}, errors.WrapError(err, errors.CategoryParse, "failed to parse page").
			WithContext("url", rawURL).
			Build()
	}
	return collection.Document{Pathname: Pathname(rawURL), Nodes: page.Nodes, Contents: page.Contents}, nil
}

// Documents fetches urls with at most limit requests in flight and returns
// the documents in the order of urls.
func Documents(ctx context.Context, logger *zap.Logger, client *http.Client, urls []string, opts htmlast.Options, limit int) ([]collection.Document, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	docs := make([]collection.Document, len(urls))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, u := range urls {
		g.Go(func() error {
			doc, err := Document(ctx, client, u, opts)
			if err != nil {
				return err
			}
			logger.Debug("page fetched", zap.String("url", u), zap.Int("nodes", len(doc.Nodes)))
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// Pathname returns the path of rawURL, or rawURL itself when it does not
// parse.
func Pathname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		if err == nil && u.Host != "" {
			return "/"
		}
		return rawURL
	}
	return u.Path
}
