package export

import (
	"bytes"
	"fmt"
	"path"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/foomo/layoutinfer/ast"
	"github.com/foomo/layoutinfer/collection"
	"github.com/foomo/layoutinfer/data"
	"github.com/foomo/layoutinfer/errors"
	"github.com/foomo/layoutinfer/htmlast"
)

// Preview instantiates the layout with every page's data back to HTML.
type Preview struct {
	md goldmark.Markdown
}

func NewPreview() *Preview {
	return &Preview{md: goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)}
}

func (p *Preview) Export(res *collection.Result) ([]File, error) {
	files := make([]File, 0, len(res.Pages))
	for _, page := range res.Pages {
		nodes, err := p.Instantiate(res.Layout.Tree, page)
		if err != nil {
			return nil, err
		}
		markup, err := htmlast.Render(nodes)
		if err != nil {
			return nil, err
		}
		name, _ := pagePath(page.Pathname)
		files = append(files, File{Path: path.Join(name, "index.html"), Data: []byte(markup)})
	}
	return files, nil
}

// Instantiate replaces every template node of tree with the values of page.
func (p *Preview) Instantiate(tree []ast.Node, page collection.Page) ([]ast.Node, error) {
	scope := page.Data
	if scope == nil {
		scope = data.New()
	}
	return p.nodes(tree, scope, page.Content)
}

func (p *Preview) nodes(nodes []ast.Node, d *data.Data, content []ast.Node) ([]ast.Node, error) {
	var out []ast.Node
	for _, n := range nodes {
		inst, err := p.node(n, d, content)
		if err != nil {
			return nil, err
		}
		out = append(out, inst...)
	}
	return out, nil
}

func (p *Preview) node(n ast.Node, d *data.Data, content []ast.Node) ([]ast.Node, error) {
	switch t := n.(type) {
	case ast.Text, ast.Comment, ast.Doctype, ast.CData:
		return []ast.Node{n}, nil
	case ast.Element:
		attrs, err := p.attrs(t, d)
		if err != nil {
			return nil, err
		}
		children, err := p.nodes(t.Children, d, content)
		if err != nil {
			return nil, err
		}
		return []ast.Node{ast.Element{Name: t.Name, Attrs: attrs, Children: children}}, nil
	case ast.Variable:
		s, err := stringValue(d, t.Reference)
		if err != nil || s == "" {
			return nil, err
		}
		return []ast.Node{ast.Text{Value: s}}, nil
	case ast.MarkdownVariable:
		s, err := stringValue(d, t.Reference)
		if err != nil || s == "" {
			return nil, err
		}
		return p.markdown(s, false)
	case ast.InlineMarkdownVariable:
		s, err := stringValue(d, t.Reference)
		if err != nil || s == "" {
			return nil, err
		}
		return p.markdown(s, true)
	case ast.Conditional:
		if v, _ := d.Get(t.Reference.Key()); v != true {
			return nil, nil
		}
		return p.node(t.Template, d, content)
	case ast.Loop:
		var out []ast.Node
		for _, item := range d.Items(t.Reference.Key()) {
			inst, err := p.node(t.Template, item, content)
			if err != nil {
				return nil, err
			}
			out = append(out, inst...)
		}
		return out, nil
	case ast.Content:
		return content, nil
	default:
		return nil, errors.NewError(errors.CategoryExport, "node has no preview form").
			WithContext("node", fmt.Sprintf("%T", n)).
			Build()
	}
}

func (p *Preview) attrs(e ast.Element, d *data.Data) ([]ast.Attribute, error) {
	var out []ast.Attribute
	for _, a := range e.Attrs {
		switch at := a.(type) {
		case ast.StaticAttribute:
			out = append(out, at)
		case ast.VariableAttribute:
			s, err := stringValue(d, at.Reference)
			if err != nil {
				return nil, err
			}
			out = append(out, ast.StaticAttribute{Name: at.Name, Value: s})
		case ast.ConditionalAttribute:
			if v, _ := d.Get(at.Reference.Key()); v != nil {
				s, err := stringValue(d, at.Reference)
				if err != nil {
					return nil, err
				}
				out = append(out, ast.StaticAttribute{Name: at.Name, Value: s})
			}
		}
	}
	return out, nil
}

// markdown renders src to nodes. Inline content loses the paragraph goldmark
// wraps it in.
func (p *Preview) markdown(src string, inline bool) ([]ast.Node, error) {
	var buf bytes.Buffer
	if err := p.md.Convert([]byte(src), &buf); err != nil {
		return nil, errors.WrapError(err, errors.CategoryExport, "failed to render markdown").Build()
	}
	nodes, err := htmlast.ParseFragment(buf.String())
	if err != nil {
		return nil, err
	}
	var out []ast.Node
	for _, n := range nodes {
		if !ast.IsWhitespace(n) {
			out = append(out, n)
		}
	}
	if inline && len(out) == 1 {
		if e, ok := out[0].(ast.Element); ok && e.Name == "p" {
			return e.Children, nil
		}
	}
	return out, nil
}

func stringValue(d *data.Data, ref ast.Reference) (string, error) {
	v, _ := d.Get(ref.Key())
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	default:
		return "", errors.NewError(errors.CategoryExport, "value is not a string").
			WithContext("reference", ref.String()).
			WithContext("type", fmt.Sprintf("%T", v)).
			Build()
	}
}
