// Package equivalency scores how similar two nodes are, in [0,1].
package equivalency

import (
	"strings"

	"github.com/foomo/layoutinfer/ast"
)

// LoopThreshold is the minimum score at which two elements are treated as
// occurrences of the same repeating template.
const LoopThreshold = 0.89

// Scorer scores node pairs. The zero value is ready to use.
type Scorer struct {
	// OnUnsupported is called for a node pair no rule covers. The pair
	// scores 0.
	OnUnsupported func(a, b ast.Node)
}

// Score scores a and b with the zero Scorer.
func Score(a, b ast.Node) float64 {
	return Scorer{}.Score(a, b)
}

// Score returns the similarity of a and b. Loops and conditionals are
// compared by their templates.
func (s Scorer) Score(a, b ast.Node) float64 {
	a, b = ast.Unwrap(a), ast.Unwrap(b)
	if a == nil || b == nil {
		s.unsupported(a, b)
		return 0
	}

	if isTextual(a) && isSlot(b) || isSlot(a) && isTextual(b) {
		return 1
	}

	switch x := a.(type) {
	case ast.Variable:
		if y, ok := b.(ast.Variable); ok {
			return referenceScore(x.Reference, y.Reference)
		}
		return 0
	case ast.MarkdownVariable:
		if y, ok := b.(ast.MarkdownVariable); ok {
			return referenceScore(x.Reference, y.Reference)
		}
		return 0
	case ast.InlineMarkdownVariable:
		if y, ok := b.(ast.InlineMarkdownVariable); ok {
			return referenceScore(x.Reference, y.Reference)
		}
		return 0
	case ast.Element:
		y, ok := b.(ast.Element)
		if !ok || x.Name != y.Name {
			return 0
		}
		return (1 + s.AttrScore(x, y) + s.ChildScore(x.Children, y.Children)) / 3
	case ast.Content:
		if _, ok := b.(ast.Content); ok {
			return 1
		}
		return 0
	case ast.Text:
		if y, ok := b.(ast.Text); ok {
			return literalScore(strings.TrimSpace(x.Value), strings.TrimSpace(y.Value))
		}
		return 0
	case ast.Comment:
		if y, ok := b.(ast.Comment); ok {
			return literalScore(x.Value, y.Value)
		}
		return 0
	case ast.Doctype:
		if y, ok := b.(ast.Doctype); ok {
			return literalScore(x.Value, y.Value)
		}
		return 0
	case ast.CData:
		if y, ok := b.(ast.CData); ok {
			return literalScore(x.Value, y.Value)
		}
		return 0
	default:
		s.unsupported(a, b)
		return 0
	}
}

// AttrScore compares the attribute sets of two elements.
func (s Scorer) AttrScore(a, b ast.Element) float64 {
	var num, den float64
	for _, attr := range a.Attrs {
		other, ok := b.Attr(attr.AttrName())
		if !ok {
			den++
			continue
		}
		if isBooleanPair(attr, other) {
			num += 2
			den += 2
			continue
		}
		den += 2
		num += 1 + attrValueScore(attr, other)
	}
	for _, attr := range b.Attrs {
		if _, ok := a.Attr(attr.AttrName()); !ok {
			den++
		}
	}
	if den == 0 {
		return 1
	}
	return num / den
}

// ChildScore compares two child lists position by position.
func (s Scorer) ChildScore(a, b []ast.Node) float64 {
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}
	var sum float64
	for i := range min(len(a), len(b)) {
		sum += s.Score(a[i], b[i])
	}
	return sum / float64(longest)
}

func (s Scorer) unsupported(a, b ast.Node) {
	if s.OnUnsupported != nil {
		s.OnUnsupported(a, b)
	}
}

func isTextual(n ast.Node) bool {
	_, ok := n.(ast.Text)
	return ok
}

func isSlot(n ast.Node) bool {
	switch n.(type) {
	case ast.Variable, ast.InlineMarkdownVariable:
		return true
	}
	return false
}

func referenceScore(a, b ast.Reference) float64 {
	if a.Equal(b) {
		return 1
	}
	return 0.5
}

func literalScore(a, b string) float64 {
	return (1 + TextScore(a, b)) / 2
}

var booleanAttrs = map[string]bool{
	"allowfullscreen": true, "async": true, "autofocus": true, "autoplay": true,
	"checked": true, "controls": true, "default": true, "defer": true,
	"disabled": true, "hidden": true, "inert": true, "itemscope": true,
	"loop": true, "multiple": true, "muted": true, "nomodule": true,
	"novalidate": true, "open": true, "playsinline": true, "readonly": true,
	"required": true, "reversed": true, "selected": true,
}

func isBooleanPair(a, b ast.Attribute) bool {
	x, ok := a.(ast.StaticAttribute)
	if !ok {
		return false
	}
	y, ok := b.(ast.StaticAttribute)
	if !ok {
		return false
	}
	return booleanAttrs[x.Name] || x.Value == "" && y.Value == ""
}

func attrValueScore(a, b ast.Attribute) float64 {
	x, xStatic := a.(ast.StaticAttribute)
	y, yStatic := b.(ast.StaticAttribute)
	switch {
	case xStatic && yStatic:
		if x.Name == "class" {
			return ClassListScore(ast.SplitClasses(x.Value), ast.SplitClasses(y.Value))
		}
		return TextScore(x.Value, y.Value)
	case xStatic || yStatic:
		return 1
	default:
		return referenceScore(attrReference(a), attrReference(b))
	}
}

func attrReference(a ast.Attribute) ast.Reference {
	switch t := a.(type) {
	case ast.VariableAttribute:
		return t.Reference
	case ast.ConditionalAttribute:
		return t.Reference
	}
	return nil
}
