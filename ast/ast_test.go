package ast

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func el(name string, attrs []Attribute, children ...Node) Element {
	return Element{Name: name, Attrs: attrs, Children: children}
}

func static(kv ...string) []Attribute {
	var attrs []Attribute
	for i := 0; i+1 < len(kv); i += 2 {
		attrs = append(attrs, StaticAttribute{Name: kv[i], Value: kv[i+1]})
	}
	return attrs
}

func TestSignature(t *testing.T) {
	tests := []struct {
		name string
		in   Element
		want string
	}{
		{"meta name", el("meta", static("name", "description", "content", "x")), "meta_description"},
		{"meta property wins over charset order", el("meta", static("charset", "utf-8", "property", "og:title")), "meta_og:title"},
		{"meta charset", el("meta", static("charset", "UTF-8")), "meta_utf-8"},
		{"bare meta", el("meta", nil), "meta"},
		{"link rel", el("link", static("rel", "stylesheet", "href", "/a.css")), "link_stylesheet"},
		{"id", el("section", static("id", "intro", "class", "big")), "intro"},
		{"classes sorted and deduplicated", el("li", static("class", "badge-green badge badge")), "li_badge_badge-green"},
		{"tag", el("div", nil), "div"},
		{"variable class is not static", el("li", []Attribute{VariableAttribute{Name: "class", Reference: Reference{"c"}}}), "li"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Signature(tt.in))
		})
	}
}

func TestEqualAndIsRaw(t *testing.T) {
	a := el("div", static("class", "x"), Text{Value: "hi"})
	b := el("div", static("class", "x"), Text{Value: "hi"})
	require.True(t, Equal(a, b))
	require.True(t, IsRaw(a))

	c := el("div", static("class", "x"), Variable{Reference: Reference{"div"}})
	require.False(t, Equal(a, c))
	require.False(t, IsRaw(c))
	require.False(t, IsRaw(el("div", []Attribute{VariableAttribute{Name: "class", Reference: Reference{"k"}}})))
}

func TestKeysAndRebase(t *testing.T) {
	tree := el("li", []Attribute{VariableAttribute{Name: "class", Reference: Reference{"li_class"}}},
		Variable{Reference: Reference{"li"}},
		Loop{Reference: Reference{"span_items"}, Template: el("span", nil, Variable{Reference: Reference{"span_items", "span"}})},
		Variable{Reference: Reference{"other_items", "x"}},
	)

	require.Equal(t, []string{"li_class", "li", "span_items", "other_items"}, Keys(tree, nil))
	require.Equal(t, []string{"span"}, Keys(tree, []string{"span_items"}))

	moved := Rebase(tree, nil, []string{"ul_items"})
	require.Equal(t, []string{"ul_items"}, Keys(moved, nil))
	require.Equal(t, []string{"li_class", "li", "span_items", "other_items"}, Keys(moved, []string{"ul_items"}))

	loop := moved.(Element).Children[1].(Loop)
	require.Equal(t, Reference{"ul_items", "span_items"}, loop.Reference)
	require.Equal(t, Reference{"ul_items", "span_items", "span"}, loop.Template.(Element).Children[0].(Variable).Reference)
}

func TestUnwrap(t *testing.T) {
	inner := el("p", nil)
	n := Conditional{Reference: Reference{"show"}, Template: Loop{Reference: Reference{"p_items"}, Template: inner}}
	require.True(t, Equal(inner, Unwrap(n)))
	require.Equal(t, "p", SignatureOf(n, "fallback"))
	require.Equal(t, "fallback", SignatureOf(Text{Value: "x"}, "fallback"))
}

func TestMarshalJSON(t *testing.T) {
	tree := []Node{
		Doctype{Value: "html"},
		el("p", static("class", "lead"), Variable{Reference: Reference{"p"}}),
		Conditional{Reference: Reference{"show-hr"}, Template: el("hr", nil)},
	}
	out, err := json.Marshal(tree)
	require.NoError(t, err)
	require.JSONEq(t, `[
		{"type":"doctype","value":"html"},
		{"type":"element","name":"p","attrs":[{"type":"static","name":"class","value":"lead"}],"children":[{"type":"variable","reference":["p"]}]},
		{"type":"conditional","reference":["show-hr"],"template":{"type":"element","name":"hr"}}
	]`, string(out))
}
