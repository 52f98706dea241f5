package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foomo/layoutinfer/ast"
)

func text(v string) ast.Text { return ast.Text{Value: v} }

func el(name string, children ...ast.Node) ast.Element {
	return ast.Element{Name: name, Children: children}
}

func withAttr(e ast.Element, name, value string) ast.Element {
	e.Attrs = append(e.Attrs, ast.StaticAttribute{Name: name, Value: value})
	return e
}

func TestIsBlock(t *testing.T) {
	tests := []struct {
		name string
		node ast.Node
		want bool
	}{
		{"heading", el("h1", text("Title")), true},
		{"paragraph with inline", el("p", text("a "), el("strong", text("b"))), true},
		{"image", withAttr(el("img"), "src", "/a.png"), true},
		{"image with class", withAttr(el("img"), "class", "hero"), false},
		{"list", el("ul", el("li", text("one")), text("\n"), el("li", el("em", text("two")))), true},
		{"list with div", el("ul", el("li", el("div"))), false},
		{"paragraph with span", el("p", el("span", text("x"))), false},
		{"div", el("div", text("x")), false},
		{"text", text("x"), false},
		{"link with href", el("p", withAttr(el("a", text("x")), "href", "/")), true},
		{"link with target", el("p", withAttr(el("a", text("x")), "target", "_blank")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBlock(tt.node))
		})
	}
}

func TestFindRun(t *testing.T) {
	tests := []struct {
		name     string
		siblings []ast.Node
		want     int
	}{
		{"empty", nil, 0},
		{"heading and paragraph", []ast.Node{el("h1", text("a")), text("\n"), el("p", text("b"))}, 3},
		{"trailing whitespace", []ast.Node{el("h2", text("a")), text(" ")}, 1},
		{"stopped by text", []ast.Node{el("p", text("a")), text("loose"), el("p", text("b"))}, 1},
		{"stopped by div", []ast.Node{el("p", text("a")), el("div"), el("p", text("b"))}, 1},
		{"leading div", []ast.Node{el("div"), el("p", text("b"))}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindRun(tt.siblings))
		})
	}
}

func TestInlineOnly(t *testing.T) {
	assert.True(t, InlineOnly([]ast.Node{text("a"), el("br"), el("sup", text("2"))}))
	assert.False(t, InlineOnly([]ast.Node{text("a"), el("p")}))
	assert.True(t, HasMarkup([]ast.Node{text("a"), el("em")}))
	assert.False(t, HasMarkup([]ast.Node{text("a")}))
	assert.True(t, IsInlineContainer(el("li")))
	assert.False(t, IsInlineContainer(el("div")))
}

func TestToMarkdown(t *testing.T) {
	md, err := ToMarkdown(HTMLConverter{}, []ast.Node{
		el("h1", text("Welcome")),
		el("p", text("Some "), el("strong", text("bold")), text(" text")),
	})
	require.NoError(t, err)
	assert.Contains(t, md, "# Welcome")
	assert.Contains(t, md, "**bold**")
}

func TestToMarkdown_CustomConverter(t *testing.T) {
	var got string
	conv := ConverterFunc(func(markup string) (string, error) {
		got = markup
		return "  out \n", nil
	})
	md, err := ToMarkdown(conv, []ast.Node{el("p", text("x"))})
	require.NoError(t, err)
	assert.Equal(t, "<p>x</p>", got)
	assert.Equal(t, "out", md)
}
