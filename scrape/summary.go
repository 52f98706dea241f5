package scrape

import (
	"strings"

	"github.com/foomo/layoutinfer/ast"
	"github.com/foomo/layoutinfer/service/vo"
)

// Summarize reads the title, meta description and meta keywords of a
// parsed page.
func Summarize(nodes []ast.Node) vo.ContentSummary {
	var s vo.ContentSummary
	var walk func([]ast.Node)
	walk = func(nodes []ast.Node) {
		for _, n := range nodes {
			e, ok := n.(ast.Element)
			if !ok {
				continue
			}
			switch e.Name {
			case "title":
				if s.Title == "" {
					s.Title = strings.TrimSpace(textOf(e.Children))
				}
			case "meta":
				name, _ := e.StaticValue("name")
				content, _ := e.StaticValue("content")
				switch strings.ToLower(name) {
				case "description":
					if s.Description == "" {
						s.Description = content
					}
				case "keywords":
					if s.Keywords == nil {
						s.Keywords = keywords(content)
					}
				}
			}
			walk(e.Children)
		}
	}
	walk(nodes)
	return s
}

func keywords(content string) []string {
	var out []string
	for _, k := range strings.Split(content, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func textOf(nodes []ast.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		switch t := n.(type) {
		case ast.Text:
			b.WriteString(t.Value)
		case ast.Element:
			b.WriteString(textOf(t.Children))
		}
	}
	return b.String()
}
