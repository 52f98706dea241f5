// Package markdown decides which runs of nodes can be stored as markdown text
// and converts them.
package markdown

import (
	"github.com/foomo/layoutinfer/ast"
)

var blockTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "img": true, "ul": true, "ol": true,
}

var inlineTags = map[string]bool{
	"a": true, "em": true, "strong": true, "img": true, "br": true, "sup": true, "sub": true,
}

var allowedAttrs = map[string]map[string]bool{
	"img": {"src": true, "alt": true, "title": true},
	"a":   {"href": true, "title": true},
}

// inlineContainers are block elements whose children may be extracted as
// inline markdown.
var inlineContainers = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "td": true, "th": true, "dt": true, "dd": true,
	"figcaption": true, "blockquote": true, "caption": true,
}

// IsBlock reports whether n is a markdown-safe block element.
func IsBlock(n ast.Node) bool {
	e, ok := n.(ast.Element)
	if !ok || !blockTags[e.Name] || !attrsAllowed(e) {
		return false
	}
	switch e.Name {
	case "img":
		return len(e.Children) == 0
	case "ul", "ol":
		for _, c := range e.Children {
			if ast.IsWhitespace(c) {
				continue
			}
			li, ok := c.(ast.Element)
			if !ok || li.Name != "li" || len(li.Attrs) > 0 || !InlineOnly(li.Children) {
				return false
			}
		}
		return true
	default:
		return InlineOnly(e.Children)
	}
}

// IsInline reports whether n is text or a markdown-safe inline element.
func IsInline(n ast.Node) bool {
	switch t := n.(type) {
	case ast.Text:
		return true
	case ast.Element:
		if !inlineTags[t.Name] || !attrsAllowed(t) {
			return false
		}
		return InlineOnly(t.Children)
	}
	return false
}

// InlineOnly reports whether every node is inline content.
func InlineOnly(nodes []ast.Node) bool {
	for _, n := range nodes {
		if !IsInline(n) {
			return false
		}
	}
	return true
}

// HasMarkup reports whether nodes contain at least one element.
func HasMarkup(nodes []ast.Node) bool {
	for _, n := range nodes {
		if _, ok := n.(ast.Element); ok {
			return true
		}
	}
	return false
}

// IsInlineContainer reports whether the children of e may become inline
// markdown.
func IsInlineContainer(e ast.Element) bool {
	return inlineContainers[e.Name]
}

// FindRun returns the length of the leading run of markdown-safe blocks in
// siblings. Whitespace between blocks belongs to the run; trailing
// whitespace does not. Zero means there is no run.
func FindRun(siblings []ast.Node) int {
	end := 0
	for i, n := range siblings {
		if ast.IsWhitespace(n) {
			continue
		}
		if !IsBlock(n) {
			break
		}
		end = i + 1
	}
	return end
}

func attrsAllowed(e ast.Element) bool {
	for _, a := range e.Attrs {
		if _, ok := a.(ast.StaticAttribute); !ok {
			return false
		}
		if !allowedAttrs[e.Name][a.AttrName()] {
			return false
		}
	}
	return true
}
