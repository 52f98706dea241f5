package export

import (
	"fmt"
	"html"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/foomo/layoutinfer/ast"
	"github.com/foomo/layoutinfer/collection"
	"github.com/foomo/layoutinfer/errors"
	"github.com/foomo/layoutinfer/markdown"
)

const mainTemplate = "{{ define \"main\" }}{{ .Content }}{{ end }}\n"

// Hugo exports the layout as a Hugo base template and every page as a
// content file whose front matter carries the page data.
type Hugo struct {
	Converter markdown.Converter
}

func (h Hugo) Export(res *collection.Result) ([]File, error) {
	tmpl, err := Template(res.Layout.Tree)
	if err != nil {
		return nil, err
	}
	files := []File{
		{Path: "layouts/_default/baseof.html", Data: []byte(tmpl)},
		{Path: "layouts/_default/single.html", Data: []byte(mainTemplate)},
		{Path: "layouts/_default/list.html", Data: []byte(mainTemplate)},
	}
	for _, page := range res.Pages {
		f, err := h.page(page)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func (h Hugo) page(page collection.Page) (File, error) {
	fm, err := yaml.Marshal(page.Data.Map())
	if err != nil {
		return File{}, errors.WrapError(err, errors.CategoryExport, "failed to marshal front matter").
			WithContext("pathname", page.Pathname).
			Build()
	}
	body := ""
	if len(page.Content) > 0 {
		if body, err = markdown.ToMarkdown(h.Converter, page.Content); err != nil {
			return File{}, err
		}
	}
	name, index := pagePath(page.Pathname)
	file := name + ".md"
	if index {
		file = path.Join(name, "_index.md")
	}
	return File{
		Path: path.Join("content", file),
		Data: fmt.Appendf(nil, "---\n%s---\n\n%s\n", fm, body),
	}, nil
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true, "img": true,
	"input": true, "link": true, "meta": true, "param": true, "source": true, "track": true, "wbr": true,
}

// Template renders a layout tree as a Go template in Hugo's dialect. Values
// of the page root are read from .Params; inside a range the dot is the
// current item.
func Template(tree []ast.Node) (string, error) {
	var w templateWriter
	for _, n := range tree {
		if err := w.node(n, false); err != nil {
			return "", err
		}
	}
	return w.String(), nil
}

type templateWriter struct {
	strings.Builder
}

func (w *templateWriter) node(n ast.Node, rawText bool) error {
	switch t := n.(type) {
	case ast.Text:
		if rawText {
			w.WriteString(delims(t.Value))
		} else {
			w.WriteString(delims(html.EscapeString(t.Value)))
		}
	case ast.Comment:
		w.WriteString("<!--" + delims(t.Value) + "-->")
	case ast.Doctype:
		w.WriteString("<!DOCTYPE " + t.Value + ">")
	case ast.CData:
		w.WriteString("<![CDATA[" + delims(t.Value) + "]]>")
	case ast.Element:
		return w.element(t)
	case ast.Variable:
		w.WriteString("{{ " + param(t.Reference) + " }}")
	case ast.MarkdownVariable:
		w.WriteString("{{ " + param(t.Reference) + " | markdownify }}")
	case ast.InlineMarkdownVariable:
		w.WriteString("{{ " + param(t.Reference) + " | markdownify }}")
	case ast.Conditional:
		w.WriteString("{{ if " + param(t.Reference) + " }}")
		if err := w.node(t.Template, rawText); err != nil {
			return err
		}
		w.WriteString("{{ end }}")
	case ast.Loop:
		w.WriteString("{{ range " + param(t.Reference) + " }}")
		if err := w.node(t.Template, rawText); err != nil {
			return err
		}
		w.WriteString("{{ end }}")
	case ast.Content:
		w.WriteString(`{{ block "main" . }}{{ .Content }}{{ end }}`)
	default:
		return errors.NewError(errors.CategoryExport, "node has no template form").
			WithContext("node", fmt.Sprintf("%T", n)).
			Build()
	}
	return nil
}

func (w *templateWriter) element(e ast.Element) error {
	w.WriteString("<" + e.Name)
	for _, a := range e.Attrs {
		switch at := a.(type) {
		case ast.StaticAttribute:
			w.WriteString(" " + at.Name + `="` + delims(html.EscapeString(at.Value)) + `"`)
		case ast.VariableAttribute:
			w.WriteString(" " + at.Name + `="{{ ` + param(at.Reference) + ` }}"`)
		case ast.ConditionalAttribute:
			w.WriteString("{{ with " + param(at.Reference) + " }} " + at.Name + `="{{ . }}"{{ end }}`)
		}
	}
	w.WriteString(">")
	if voidElements[e.Name] {
		return nil
	}
	raw := e.Name == "script" || e.Name == "style"
	for _, c := range e.Children {
		if err := w.node(c, raw); err != nil {
			return err
		}
	}
	w.WriteString("</" + e.Name + ">")
	return nil
}

func param(ref ast.Reference) string {
	if len(ref.Chain()) == 0 {
		return ".Params." + ref.Key()
	}
	return "." + ref.Key()
}

// delims keeps literal template delimiters out of the action syntax.
func delims(s string) string {
	return strings.ReplaceAll(s, "{{", `{{ "{{" }}`)
}
