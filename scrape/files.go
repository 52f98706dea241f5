package scrape

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/foomo/layoutinfer/collection"
	"github.com/foomo/layoutinfer/errors"
	"github.com/foomo/layoutinfer/htmlast"
)

// Files parses local HTML files. The pathname of each document is its path
// relative to root.
func Files(ctx context.Context, root string, paths []string, opts htmlast.Options, limit int) ([]collection.Document, error) {
	docs := make([]collection.Document, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := os.Open(p)
			if err != nil {
				return errors.WrapError(err, errors.CategoryFileSystem, "failed to open page").
					WithContext("path", p).
					Build()
			}
			defer f.Close()
			page, err := htmlast.Parse(f, opts)
			if err != nil {
				return errors.WrapError(err, errors.CategoryParse, "failed to parse page").
					WithContext("path", p).
					Build()
			}
			docs[i] = collection.Document{Pathname: relative(root, p), Nodes: page.Nodes, Contents: page.Contents}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func relative(root, p string) string {
	if root != "" {
		if rel, err := filepath.Rel(root, p); err == nil {
			p = rel
		}
	}
	return "/" + filepath.ToSlash(filepath.Clean(p))
}
