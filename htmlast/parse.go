// Package htmlast converts between HTML markup and the ast node tree.
package htmlast

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/foomo/layoutinfer/ast"
	"github.com/foomo/layoutinfer/errors"
)

// Options control parsing.
type Options struct {
	// ContentSelector picks the element whose children are the page body.
	// They are replaced by ast.Content and returned separately.
	ContentSelector string
	// KeepWhitespace keeps whitespace-only text nodes between elements.
	KeepWhitespace bool
}

// Page is a parsed document.
type Page struct {
	Nodes    []ast.Node
	Contents []ast.Node
}

// Parse reads a full HTML document.
func Parse(r io.Reader, opts Options) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryParse, "failed to parse HTML").Build()
	}
	return FromHTML(doc, opts)
}

// ParseString is Parse for in-memory markup.
func ParseString(markup string, opts Options) (*Page, error) {
	return Parse(strings.NewReader(markup), opts)
}

// FromHTML converts an already parsed document.
func FromHTML(doc *html.Node, opts Options) (*Page, error) {
	c := converter{keepWhitespace: opts.KeepWhitespace}
	if opts.ContentSelector != "" {
		target, err := Select(doc, opts.ContentSelector)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryParse, "content selector did not match").
				WithContext("selector", opts.ContentSelector).
				Build()
		}
		c.content = target
	}
	page := &Page{Nodes: c.children(doc)}
	page.Contents = c.contents
	return page, nil
}

// ParseFragment parses markup in the context of a <div>.
func ParseFragment(markup string) ([]ast.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryParse, "failed to parse HTML fragment").Build()
	}
	c := converter{keepWhitespace: true}
	var out []ast.Node
	for _, n := range nodes {
		if conv, ok := c.node(n); ok {
			out = append(out, conv)
		}
	}
	return out, nil
}

type converter struct {
	keepWhitespace bool
	content        *html.Node
	contents       []ast.Node
}

func (c *converter) children(n *html.Node) []ast.Node {
	var out []ast.Node
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if conv, ok := c.node(child); ok {
			out = append(out, conv)
		}
	}
	return out
}

func (c *converter) node(n *html.Node) (ast.Node, bool) {
	switch n.Type {
	case html.DoctypeNode:
		return ast.Doctype{Value: n.Data}, true
	case html.CommentNode:
		return ast.Comment{Value: n.Data}, true
	case html.TextNode, html.RawNode:
		if !c.keepWhitespace && strings.TrimSpace(n.Data) == "" && !preservesWhitespace(n.Parent) {
			return nil, false
		}
		return ast.Text{Value: n.Data}, true
	case html.ElementNode:
		e := ast.Element{Name: n.Data, Attrs: attributes(n)}
		if n == c.content {
			c.contents = c.children(n)
			e.Children = []ast.Node{ast.Content{}}
			return e, true
		}
		e.Children = c.children(n)
		return e, true
	case html.DocumentNode:
		return nil, false
	}
	return nil, false
}

func attributes(n *html.Node) []ast.Attribute {
	if len(n.Attr) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(n.Attr))
	attrs := make([]ast.Attribute, 0, len(n.Attr))
	for _, a := range n.Attr {
		name := a.Key
		if a.Namespace != "" {
			name = a.Namespace + ":" + a.Key
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		attrs = append(attrs, ast.StaticAttribute{Name: name, Value: a.Val})
	}
	return attrs
}

func preservesWhitespace(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Pre, atom.Textarea, atom.Script, atom.Style:
				return true
			}
		}
	}
	return false
}
