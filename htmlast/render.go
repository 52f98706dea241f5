package htmlast

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/foomo/layoutinfer/ast"
	"github.com/foomo/layoutinfer/errors"
)

// Render serializes literal nodes back to markup. Template nodes have no
// literal form and fail with an unsupported_node_pair error.
func Render(nodes []ast.Node) (string, error) {
	var buf bytes.Buffer
	for _, n := range nodes {
		h, err := ToHTML(n)
		if err != nil {
			return "", err
		}
		if err := html.Render(&buf, h); err != nil {
			return "", fmt.Errorf("failed to render HTML: %w", err)
		}
	}
	return buf.String(), nil
}

// ToHTML converts a literal node into an html.Node tree.
func ToHTML(n ast.Node) (*html.Node, error) {
	switch t := n.(type) {
	case ast.Text:
		return &html.Node{Type: html.TextNode, Data: t.Value}, nil
	case ast.Comment:
		return &html.Node{Type: html.CommentNode, Data: t.Value}, nil
	case ast.Doctype:
		return &html.Node{Type: html.DoctypeNode, Data: t.Value}, nil
	case ast.CData:
		return &html.Node{Type: html.RawNode, Data: "<![CDATA[" + t.Value + "]]>"}, nil
	case ast.Element:
		e := &html.Node{Type: html.ElementNode, Data: t.Name, DataAtom: atom.Lookup([]byte(t.Name))}
		for _, a := range t.Attrs {
			s, ok := a.(ast.StaticAttribute)
			if !ok {
				return nil, errors.UnsupportedNodePair("attribute has no literal value").
					WithContext("element", t.Name).
					WithContext("attribute", a.AttrName()).
					Build()
			}
			e.Attr = append(e.Attr, htmlAttr(s))
		}
		for _, c := range t.Children {
			child, err := ToHTML(c)
			if err != nil {
				return nil, err
			}
			e.AppendChild(child)
		}
		return e, nil
	case ast.Variable, ast.MarkdownVariable, ast.InlineMarkdownVariable, ast.Conditional, ast.Loop, ast.Content:
		return nil, errors.UnsupportedNodePair("node has no render rule").
			WithContext("node", fmt.Sprintf("%T", n)).
			Build()
	default:
		return nil, errors.UnsupportedNodePair("unknown node").
			WithContext("node", fmt.Sprintf("%T", n)).
			Build()
	}
}

func htmlAttr(a ast.StaticAttribute) html.Attribute {
	if ns, key, ok := strings.Cut(a.Name, ":"); ok && (ns == "xlink" || ns == "xml" || ns == "xmlns") {
		return html.Attribute{Namespace: ns, Key: key, Val: a.Value}
	}
	return html.Attribute{Key: a.Name, Val: a.Value}
}
