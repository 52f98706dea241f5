package diff

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/foomo/layoutinfer/ast"
	"github.com/foomo/layoutinfer/data"
	"github.com/foomo/layoutinfer/errors"
	"github.com/foomo/layoutinfer/markdown"
	"github.com/foomo/layoutinfer/naming"
)

// mergeNode merges two aligned nodes.
func (d *Differ) mergeNode(a data.Group, b *data.Data, pa, pb []ast.Element, x, y ast.Node) (ast.Node, error) {
	chain := b.Chain()
	switch t := x.(type) {
	case ast.Conditional:
		key := t.Reference.Key()
		inner := a.Where(key)
		b.Set(key, true)
		tmpl, err := d.mergeNode(inner, b, pa, pb, t.Template, y)
		if err != nil {
			return nil, err
		}
		return ast.Conditional{Reference: t.Reference, Template: tmpl}, nil

	case ast.Element:
		e, ok := y.(ast.Element)
		if !ok || e.Name != t.Name {
			return nil, errors.StructuralMismatch("aligned elements differ").
				WithContext("a", t.Name).
				WithContext("b", describe(y)).
				Build()
		}
		return d.mergeElement(a, b, pa, pb, t, e)

	case ast.Text:
		yt, ok := y.(ast.Text)
		if !ok {
			return nil, unsupported(x, y)
		}
		va, vb := strings.TrimSpace(t.Value), strings.TrimSpace(yt.Value)
		if va == vb {
			return x, nil
		}
		key, err := d.uniqueName(chain, a, b, pa, "", "")
		if err != nil {
			return nil, err
		}
		a.Set(key, va)
		b.Set(key, vb)
		d.variations.Record(chain, key, naming.KindText, "", append(lastOf(pa), lastOf(pb)...)...)
		d.variations.Observe(chain, key, va, vb)
		return ast.Variable{Reference: ast.NewReference(chain, key)}, nil

	case ast.Variable:
		yt, ok := y.(ast.Text)
		if !ok {
			return nil, unsupported(x, y)
		}
		v := strings.TrimSpace(yt.Value)
		b.Set(t.Reference.Key(), v)
		d.variations.Record(chain, t.Reference.Key(), naming.KindText, "", lastOf(pb)...)
		d.variations.Observe(chain, t.Reference.Key(), v)
		return x, nil

	case ast.InlineMarkdownVariable:
		text, err := markdown.ToMarkdown(d.converter, []ast.Node{y})
		if err != nil {
			return nil, err
		}
		b.Set(t.Reference.Key(), text)
		d.variations.Observe(chain, t.Reference.Key(), text)
		return x, nil

	case ast.Comment, ast.Doctype, ast.CData, ast.Content:
		return x, nil

	case ast.MarkdownVariable, ast.Loop:
		return nil, unsupported(x, y)

	default:
		return nil, unsupported(x, y)
	}
}

func (d *Differ) mergeElement(a data.Group, b *data.Data, pa, pb []ast.Element, x, y ast.Element) (ast.Node, error) {
	attrs, err := d.mergeAttrs(a, b, pa, x, y)
	if err != nil {
		return nil, err
	}
	merged := x.WithAttrs(attrs)

	if markdown.IsInlineContainer(x) {
		children, ok, err := d.mergeInline(a, b, pa, x, y)
		if err != nil {
			return nil, err
		}
		if ok {
			return merged.WithChildren(children), nil
		}
	}

	children, err := d.diff(a, b, appendParent(pa, x), appendParent(pb, y), x.Children, y.Children)
	if err != nil {
		return nil, err
	}
	return merged.WithChildren(children), nil
}

// mergeAttrs keeps the attribute order of x and appends attributes only y
// has.
func (d *Differ) mergeAttrs(a data.Group, b *data.Data, pa []ast.Element, x, y ast.Element) ([]ast.Attribute, error) {
	chain := b.Chain()
	context := appendParent(pa, x)
	out := make([]ast.Attribute, 0, len(x.Attrs)+len(y.Attrs))

	for _, attr := range x.Attrs {
		name := attr.AttrName()
		value, present := y.StaticValue(name)
		switch at := attr.(type) {
		case ast.StaticAttribute:
			if present && value == at.Value {
				out = append(out, at)
				continue
			}
			key, err := d.uniqueName(chain, a, b, context, "", "_"+name)
			if err != nil {
				return nil, err
			}
			a.Set(key, at.Value)
			ref := ast.NewReference(chain, key)
			d.recordAttr(chain, key, name, x, y, at.Value)
			if present {
				b.Set(key, value)
				d.observeAttr(chain, key, name, value)
				out = append(out, ast.VariableAttribute{Name: name, Reference: ref})
			} else {
				b.Set(key, nil)
				out = append(out, ast.ConditionalAttribute{Name: name, Reference: ref})
			}
		case ast.VariableAttribute:
			key := at.Reference.Key()
			if present {
				b.Set(key, value)
				d.observeAttr(chain, key, name, value)
				out = append(out, at)
			} else {
				b.Set(key, nil)
				out = append(out, ast.ConditionalAttribute(at))
			}
		case ast.ConditionalAttribute:
			key := at.Reference.Key()
			if present {
				b.Set(key, value)
				d.observeAttr(chain, key, name, value)
			} else {
				b.Set(key, nil)
			}
			out = append(out, at)
		}
	}

	for _, attr := range y.Attrs {
		name := attr.AttrName()
		if _, ok := x.Attr(name); ok {
			continue
		}
		value, _ := y.StaticValue(name)
		key, err := d.uniqueName(chain, a, b, context, "", "_"+name)
		if err != nil {
			return nil, err
		}
		a.Set(key, nil)
		b.Set(key, value)
		d.recordAttr(chain, key, name, x, y, value)
		out = append(out, ast.ConditionalAttribute{Name: name, Reference: ast.NewReference(chain, key)})
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (d *Differ) recordAttr(chain []string, key, name string, x, y ast.Element, value string) {
	d.variations.Record(chain, key, naming.KindAttribute, name, x, y)
	d.observeAttr(chain, key, name, value)
}

func (d *Differ) observeAttr(chain []string, key, name, value string) {
	d.variations.Observe(chain, key, value)
	if name == "class" {
		d.variations.ObserveClasses(chain, key, value)
	}
}

// mergeInline extracts the children of an inline container as one inline
// markdown value. ok is false when the children are merged node by node.
func (d *Differ) mergeInline(a data.Group, b *data.Data, pa []ast.Element, x, y ast.Element) ([]ast.Node, bool, error) {
	if !markdown.InlineOnly(y.Children) {
		return nil, false, nil
	}
	chain := b.Chain()

	if len(x.Children) == 1 {
		switch t := x.Children[0].(type) {
		case ast.InlineMarkdownVariable:
			text, err := markdown.ToMarkdown(d.converter, y.Children)
			if err != nil {
				return nil, false, err
			}
			b.Set(t.Reference.Key(), text)
			d.variations.Observe(chain, t.Reference.Key(), text)
			return x.Children, true, nil
		case ast.Variable:
			if !markdown.HasMarkup(y.Children) {
				return nil, false, nil
			}
			text, err := markdown.ToMarkdown(d.converter, y.Children)
			if err != nil {
				return nil, false, err
			}
			key := t.Reference.Key()
			b.Set(key, text)
			if e, ok := d.variations.Entry(chain, key); ok {
				e.Kind = naming.KindInlineMarkdown
			}
			d.variations.Observe(chain, key, text)
			return []ast.Node{ast.InlineMarkdownVariable(t)}, true, nil
		}
	}

	if !allRaw(x.Children) || !markdown.InlineOnly(x.Children) {
		return nil, false, nil
	}
	if !markdown.HasMarkup(x.Children) && !markdown.HasMarkup(y.Children) {
		return nil, false, nil
	}
	if ast.EqualNodes(x.Children, y.Children) {
		return nil, false, nil
	}

	textA, err := markdown.ToMarkdown(d.converter, x.Children)
	if err != nil {
		return nil, false, err
	}
	textB, err := markdown.ToMarkdown(d.converter, y.Children)
	if err != nil {
		return nil, false, err
	}
	key, err := d.uniqueName(chain, a, b, appendParent(pa, x), "", "_inline_markdown")
	if err != nil {
		return nil, false, err
	}
	a.Set(key, textA)
	b.Set(key, textB)
	d.variations.Record(chain, key, naming.KindInlineMarkdown, "", x, y)
	d.variations.Observe(chain, key, textA, textB)
	d.logger.Debug("inline markdown extracted", zap.String("key", key))
	return []ast.Node{ast.InlineMarkdownVariable{Reference: ast.NewReference(chain, key)}}, true, nil
}

func unsupported(x, y ast.Node) error {
	return errors.UnsupportedNodePair("no merge rule for node pair").
		WithContext("a", fmt.Sprintf("%T", x)).
		WithContext("b", fmt.Sprintf("%T", y)).
		Build()
}

func describe(n ast.Node) string {
	if e, ok := n.(ast.Element); ok {
		return e.Name
	}
	return fmt.Sprintf("%T", n)
}
