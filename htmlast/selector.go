package htmlast

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// Select finds the first node matching a simple selector: "#id", ".class"
// or a tag name.
func Select(doc *html.Node, selector string) (*html.Node, error) {
	selector = strings.TrimSpace(selector)
	switch {
	case selector == "":
		return nil, fmt.Errorf("empty selector")
	case strings.HasPrefix(selector, "#"):
		return findNodeByID(doc, strings.TrimPrefix(selector, "#"))
	case strings.HasPrefix(selector, "."):
		return findNodeByClass(doc, strings.TrimPrefix(selector, "."))
	default:
		return findNodeByTag(doc, selector)
	}
}

func findNodeByID(n *html.Node, id string) (*html.Node, error) {
	if found := find(n, func(n *html.Node) bool { return attr(n, "id") == id }); found != nil {
		return found, nil
	}
	return nil, fmt.Errorf("element with id '%s' not found", id)
}

func findNodeByClass(n *html.Node, class string) (*html.Node, error) {
	match := func(n *html.Node) bool {
		return slices.Contains(strings.Fields(attr(n, "class")), class)
	}
	if found := find(n, match); found != nil {
		return found, nil
	}
	return nil, fmt.Errorf("element with class '%s' not found", class)
}

func findNodeByTag(n *html.Node, tag string) (*html.Node, error) {
	if found := find(n, func(n *html.Node) bool { return n.Data == tag }); found != nil {
		return found, nil
	}
	return nil, fmt.Errorf("element with tag '%s' not found", tag)
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
