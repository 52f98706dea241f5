// Package diff aligns two sibling lists and merges them into one templated
// list, recording the values that differ.
//
// The A side is the layout built so far together with the scopes of every
// page already folded into it; the B side is always a raw page.
package diff

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/foomo/layoutinfer/ast"
	"github.com/foomo/layoutinfer/data"
	"github.com/foomo/layoutinfer/equivalency"
	"github.com/foomo/layoutinfer/errors"
	"github.com/foomo/layoutinfer/markdown"
	"github.com/foomo/layoutinfer/naming"
)

// loopExcluded tags never form loops.
var loopExcluded = map[string]bool{
	"br": true, "hr": true, "wbr": true, "source": true, "track": true,
	"meta": true, "link": true, "base": true, "path": true,
	"col": true, "param": true, "area": true, "input": true,
}

// Differ merges page trees. It is not safe for concurrent use: rounds of a
// fold run one after another.
type Differ struct {
	variations *naming.VariationMap
	converter  markdown.Converter
	logger     *zap.Logger
	scorer     equivalency.Scorer
}

type Option func(*Differ)

func WithLogger(l *zap.Logger) Option {
	return func(d *Differ) {
		d.logger = l
	}
}

func WithConverter(c markdown.Converter) Option {
	return func(d *Differ) {
		d.converter = c
	}
}

// New returns a Differ recording generated keys into vm.
func New(vm *naming.VariationMap, opts ...Option) *Differ {
	d := &Differ{
		variations: vm,
		converter:  markdown.HTMLConverter{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.scorer = equivalency.Scorer{OnUnsupported: func(a, b ast.Node) {
		d.logger.Warn("unsupported node pair",
			zap.String("a", fmt.Sprintf("%T", a)),
			zap.String("b", fmt.Sprintf("%T", b)),
		)
	}}
	return d
}

// Variations returns the map keys are recorded into.
func (d *Differ) Variations() *naming.VariationMap {
	return d.variations
}

// Diff merges childrenA and childrenB. Values are written into every scope of
// a and into b, which must share one chain.
func (d *Differ) Diff(a data.Group, b *data.Data, parentsA, parentsB []ast.Element, childrenA, childrenB []ast.Node) ([]ast.Node, error) {
	for _, n := range childrenB {
		if !ast.IsRaw(n) {
			return nil, errors.UnsupportedNodePair("page side must be raw markup").
				WithContext("node", fmt.Sprintf("%T", n)).
				Build()
		}
	}
	return d.diff(a, b, parentsA, parentsB, childrenA, childrenB)
}

func (d *Differ) diff(a data.Group, b *data.Data, pa, pb []ast.Element, ca, cb []ast.Node) ([]ast.Node, error) {
	var out []ast.Node
	i, j := 0, 0
	for i < len(ca) && j < len(cb) {
		x, y := ca[i], cb[j]

		if md, ok := x.(ast.MarkdownVariable); ok {
			if n := markdown.FindRun(cb[j:]); n > 0 {
				text, err := markdown.ToMarkdown(d.converter, cb[j:j+n])
				if err != nil {
					return nil, err
				}
				b.Set(md.Reference.Key(), text)
				d.variations.Observe(b.Chain(), md.Reference.Key(), text)
				out = append(out, x)
				i, j = i+1, j+n
				continue
			}
		}

		remA, remB := len(ca)-i, len(cb)-j
		s := d.scorer.Score(x, y)
		match := s == 1 || s >= equivalency.LoopThreshold && loopable(x, y)
		if !match && s > 0 {
			match = d.isBestMatch(ca, cb, i, j, s)
		}

		if !match {
			if markdown.IsBlock(x) && markdown.IsBlock(y) {
				n, endA, endB, err := d.markdownPair(a, b, pa, pb, ca, cb, i, j)
				if err != nil {
					return nil, err
				}
				out = append(out, n)
				i, j = endA, endB
				continue
			}
			takeA := remA > remB
			if remA == remB {
				takeA = d.bestAlternative(x, cb[j+1:]) <= d.bestAlternative(y, ca[i+1:])
			}
			var (
				n        ast.Node
				consumed int
				err      error
			)
			if takeA {
				n, consumed, err = d.absent(a, b, pa, ca, i)
				i += consumed
			} else {
				n, consumed, err = d.absent(b, a, pb, cb, j)
				j += consumed
			}
			if err != nil {
				return nil, err
			}
			out = append(out, n)
			continue
		}

		if endA, endB, ok := d.loopRun(ca, cb, i, j); ok {
			n, err := d.buildLoop(a, b, pa, pb, ca[i:endA], cb[j:endB])
			if err != nil {
				return nil, err
			}
			out = append(out, n)
			i, j = endA, endB
			continue
		}

		n, err := d.mergeNode(a, b, pa, pb, x, y)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
		i, j = i+1, j+1
	}

	for i < len(ca) {
		n, consumed, err := d.absent(a, b, pa, ca, i)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
		i += consumed
	}
	for j < len(cb) {
		n, consumed, err := d.absent(b, a, pb, cb, j)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
		j += consumed
	}
	return out, nil
}

// isBestMatch reports whether pairing ca[i] with cb[j] at score s is at least
// as good as pairing either node with anything further along the other side.
func (d *Differ) isBestMatch(ca, cb []ast.Node, i, j int, s float64) bool {
	for k := j + 1; k < len(cb); k++ {
		if d.scorer.Score(ca[i], cb[k]) > s {
			return false
		}
	}
	for k := i + 1; k < len(ca); k++ {
		if d.scorer.Score(ca[k], cb[j]) > s {
			return false
		}
	}
	return true
}

func (d *Differ) bestAlternative(n ast.Node, others []ast.Node) float64 {
	best := 0.0
	for _, o := range others {
		best = max(best, d.scorer.Score(n, o))
	}
	return best
}

// setter is a scope that receives values: a single page or a group.
type setter interface {
	Set(key string, v data.Value)
	Has(key string) bool
}

// markdownPair folds the unmatched block runs starting at ca[i] and cb[j]
// into one markdown variable holding the text of each side. It returns the
// ends of both runs.
func (d *Differ) markdownPair(a data.Group, b *data.Data, pa, pb []ast.Element, ca, cb []ast.Node, i, j int) (ast.Node, int, int, error) {
	endA, endB := i+markdown.FindRun(ca[i:]), j+markdown.FindRun(cb[j:])
	textA, err := markdown.ToMarkdown(d.converter, ca[i:endA])
	if err != nil {
		return nil, 0, 0, err
	}
	textB, err := markdown.ToMarkdown(d.converter, cb[j:endB])
	if err != nil {
		return nil, 0, 0, err
	}
	chain := b.Chain()
	key, err := d.uniqueName(chain, a, b, pa, "", "_markdown")
	if err != nil {
		return nil, 0, 0, err
	}
	a.Set(key, textA)
	b.Set(key, textB)
	d.variations.Record(chain, key, naming.KindMarkdown, "", append(lastOf(pa), lastOf(pb)...)...)
	d.variations.Observe(chain, key, textA, textB)
	d.logger.Debug("markdown extracted", zap.String("key", key), zap.Int("nodes", endA-i), zap.Int("other", endB-j))
	return ast.MarkdownVariable{Reference: ast.NewReference(chain, key)}, endA, endB, nil
}

// absent handles nodes[idx], which has no counterpart on the other side. It
// returns the node to emit and how many nodes it consumed. A markdown run is
// always taken whole.
func (d *Differ) absent(present, missing setter, parents []ast.Element, nodes []ast.Node, idx int) (ast.Node, int, error) {
	x := nodes[idx]
	switch t := x.(type) {
	case ast.Text:
		if ast.IsWhitespace(t) {
			return x, 1, nil
		}
	case ast.Conditional:
		missing.Set(t.Reference.Key(), nil)
		return x, 1, nil
	case ast.Loop:
		missing.Set(t.Reference.Key(), []*data.Data{})
		return x, 1, nil
	case ast.Variable:
		missing.Set(t.Reference.Key(), "")
		return x, 1, nil
	case ast.MarkdownVariable:
		missing.Set(t.Reference.Key(), "")
		return x, 1, nil
	case ast.InlineMarkdownVariable:
		missing.Set(t.Reference.Key(), "")
		return x, 1, nil
	}

	chain := d.chainOf(present, missing)
	if n := markdown.FindRun(nodes[idx:]); n > 0 && allRaw(nodes[idx:idx+n]) {
		text, err := markdown.ToMarkdown(d.converter, nodes[idx:idx+n])
		if err != nil {
			return nil, 0, err
		}
		key, err := d.uniqueName(chain, present, missing, parents, "", "_markdown")
		if err != nil {
			return nil, 0, err
		}
		present.Set(key, text)
		missing.Set(key, "")
		d.variations.Record(chain, key, naming.KindMarkdown, "", lastOf(parents)...)
		d.variations.Observe(chain, key, text)
		d.logger.Debug("markdown extracted", zap.String("key", key), zap.Int("nodes", n))
		return ast.MarkdownVariable{Reference: ast.NewReference(chain, key)}, n, nil
	}

	var (
		key string
		err error
	)
	context := parents
	if e, ok := x.(ast.Element); ok {
		context = appendParent(parents, e)
	}
	key, err = d.uniqueName(chain, present, missing, context, "show-", "")
	if err != nil {
		return nil, 0, err
	}
	present.Set(key, true)
	missing.Set(key, nil)
	d.variations.Record(chain, key, naming.KindConditional, "", lastOf(context)...)
	d.logger.Debug("conditional introduced", zap.String("key", key))
	return ast.Conditional{Reference: ast.NewReference(chain, key), Template: x}, 1, nil
}

func (d *Differ) chainOf(scopes ...setter) []string {
	for _, s := range scopes {
		switch t := s.(type) {
		case *data.Data:
			return t.Chain()
		case data.Group:
			if len(t) > 0 {
				return t.Chain()
			}
		}
	}
	return nil
}

// uniqueName returns a key free in every given scope and in the variation
// map.
func (d *Differ) uniqueName(chain []string, a, b setter, parents []ast.Element, prefix, suffix string) (string, error) {
	return data.UniqueName(func(key string) bool {
		if a.Has(key) || b.Has(key) {
			return true
		}
		_, recorded := d.variations.Entry(chain, key)
		return recorded
	}, parents, prefix, suffix)
}

func allRaw(nodes []ast.Node) bool {
	for _, n := range nodes {
		if !ast.IsRaw(n) {
			return false
		}
	}
	return true
}

func appendParent(parents []ast.Element, e ast.Element) []ast.Element {
	return append(slices.Clip(parents), e)
}

func lastOf(parents []ast.Element) []ast.Element {
	if len(parents) == 0 {
		return nil
	}
	return []ast.Element{parents[len(parents)-1]}
}
