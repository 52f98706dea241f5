// Package collection folds the pages of one site into a shared layout and
// one data record per page.
package collection

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/foomo/layoutinfer/ast"
	"github.com/foomo/layoutinfer/data"
	"github.com/foomo/layoutinfer/diff"
	"github.com/foomo/layoutinfer/errors"
	"github.com/foomo/layoutinfer/markdown"
	"github.com/foomo/layoutinfer/naming"
)

// Document is one parsed page.
type Document struct {
	Pathname string
	Nodes    []ast.Node
	// Contents are the nodes extracted by the content selector.
	Contents []ast.Node
}

type Layout struct {
	Tree []ast.Node `json:"tree"`
}

type Page struct {
	Pathname string     `json:"pathname"`
	Data     *data.Data `json:"data"`
	Content  []ast.Node `json:"content,omitempty"`
}

type Result struct {
	Layout Layout `json:"layout"`
	Pages  []Page `json:"pages"`
}

// Snapshotter receives a JSON-serializable view of the build after every
// round. It must not retain or modify v.
type Snapshotter interface {
	Snapshot(name string, v any)
}

// Recorder observes build timings.
type Recorder interface {
	ObserveRound(d time.Duration)
	ObserveBuild(d time.Duration, documents int, err error)
	ObserveVariables(n int)
}

// Builder runs builds. It holds no state between builds.
type Builder struct {
	logger      *zap.Logger
	converter   markdown.Converter
	snapshotter Snapshotter
	recorder    Recorder
}

type Option func(*Builder)

func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

func WithConverter(c markdown.Converter) Option {
	return func(b *Builder) {
		b.converter = c
	}
}

func WithSnapshotter(s Snapshotter) Option {
	return func(b *Builder) {
		b.snapshotter = s
	}
}

func WithRecorder(r Recorder) Option {
	return func(b *Builder) {
		b.recorder = r
	}
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		logger:    zap.NewNop(),
		converter: markdown.HTMLConverter{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build merges docs in order. Pages sharing a pathname are combined into one
// record.
func (b *Builder) Build(docs []Document) (res *Result, err error) {
	start := time.Now()
	defer func() {
		if b.recorder != nil {
			b.recorder.ObserveBuild(time.Since(start), len(docs), err)
		}
	}()

	if len(docs) < 2 {
		return nil, errors.InsufficientInput("at least two documents are required").
			WithContext("documents", len(docs)).
			Build()
	}
	if err := checkRoots(docs); err != nil {
		return nil, err
	}

	vm := naming.NewVariationMap()
	differ := diff.New(vm,
		diff.WithLogger(b.logger.Named("diff")),
		diff.WithConverter(b.converter),
	)

	scopes := make([]*data.Data, len(docs))
	for k := range scopes {
		scopes[k] = data.New()
	}

	layout := docs[0].Nodes
	for k := 1; k < len(docs); k++ {
		roundStart := time.Now()
		layout, err = differ.Diff(data.Group(scopes[:k]), scopes[k], nil, nil, layout, docs[k].Nodes)
		if err != nil {
			b.logger.Error("diff round failed",
				zap.Int("round", k),
				zap.String("pathname", docs[k].Pathname),
				zap.Error(err),
			)
			return nil, err
		}
		if b.recorder != nil {
			b.recorder.ObserveRound(time.Since(roundStart))
		}
		b.logger.Debug("diff round done",
			zap.Int("round", k),
			zap.String("pathname", docs[k].Pathname),
			zap.Int("variables", vm.Len()),
		)
		b.snapshot(k, docs[k].Pathname, layout, scopes[:k+1], vm)
	}

	mapping, err := vm.Names()
	if err != nil {
		return nil, err
	}
	if b.recorder != nil {
		b.recorder.ObserveVariables(vm.Len())
	}

	res = &Result{Layout: Layout{Tree: mapping.Nodes(layout)}}
	index := map[string]int{}
	for k, doc := range docs {
		record := mapping.Data(scopes[k])
		if at, ok := index[doc.Pathname]; ok {
			res.Pages[at].Data = res.Pages[at].Data.Merge(record)
			continue
		}
		index[doc.Pathname] = len(res.Pages)
		res.Pages = append(res.Pages, Page{Pathname: doc.Pathname, Data: record, Content: doc.Contents})
	}

	b.logger.Info("layout inferred",
		zap.Int("documents", len(docs)),
		zap.Int("pages", len(res.Pages)),
		zap.Int("variables", vm.Len()),
		zap.Duration("duration", time.Since(start)),
	)
	return res, nil
}

func (b *Builder) snapshot(round int, pathname string, layout []ast.Node, scopes []*data.Data, vm *naming.VariationMap) {
	if b.snapshotter == nil {
		return
	}
	b.snapshotter.Snapshot(fmt.Sprintf("round-%03d", round), map[string]any{
		"round":      round,
		"pathname":   pathname,
		"layout":     layout,
		"data":       scopes,
		"variations": vm.Snapshot(),
	})
}

// checkRoots requires every document to carry a root element with the same
// name and the same doctype as the first one.
func checkRoots(docs []Document) error {
	doctype, root, err := rootOf(docs[0])
	if err != nil {
		return err
	}
	for _, doc := range docs[1:] {
		dt, r, err := rootOf(doc)
		if err != nil {
			return err
		}
		if dt != doctype {
			return errors.StructuralMismatch("doctype differs").
				WithContext("pathname", doc.Pathname).
				WithContext("expected", doctype).
				WithContext("actual", dt).
				Build()
		}
		if r != root {
			return errors.StructuralMismatch("root element differs").
				WithContext("pathname", doc.Pathname).
				WithContext("expected", root).
				WithContext("actual", r).
				Build()
		}
	}
	return nil
}

func rootOf(doc Document) (string, string, error) {
	doctype, root := "", ""
	for _, n := range doc.Nodes {
		switch t := n.(type) {
		case ast.Doctype:
			if doctype == "" {
				doctype = t.Value
			}
		case ast.Element:
			if root == "" {
				root = t.Name
			}
		}
	}
	if root == "" {
		return "", "", errors.StructuralMismatch("no root element").
			WithContext("pathname", doc.Pathname).
			Build()
	}
	return doctype, root, nil
}
