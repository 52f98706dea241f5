// Package ast defines the node tree every stage of layout inference works on.
//
// Node and Attribute are closed: only the types declared here implement them.
// Nodes are values and are never mutated after construction; helpers that
// change a node return a copy.
package ast

import "strings"

// Node is one node of a page or layout tree.
type Node interface {
	node()
}

// Reference is the scope path of an extracted value: the chain of scope
// names from the document root followed by the key inside the innermost
// scope.
type Reference []string

// Key returns the key within the innermost scope.
func (r Reference) Key() string {
	if len(r) == 0 {
		return ""
	}
	return r[len(r)-1]
}

// Chain returns the scope chain the key lives in.
func (r Reference) Chain() []string {
	if len(r) == 0 {
		return nil
	}
	return r[:len(r)-1]
}

func (r Reference) String() string {
	return strings.Join(r, ".")
}

// Equal reports whether both references name the same path.
func (r Reference) Equal(o Reference) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if r[i] != o[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether r lives in the chain prefix or below it.
func (r Reference) HasPrefix(prefix []string) bool {
	if len(prefix) >= len(r) {
		return false
	}
	for i := range prefix {
		if r[i] != prefix[i] {
			return false
		}
	}
	return true
}

// NewReference joins a chain and a key into a fresh Reference.
func NewReference(chain []string, key string) Reference {
	ref := make(Reference, 0, len(chain)+1)
	ref = append(ref, chain...)
	return append(ref, key)
}

type Text struct {
	Value string
}

type Doctype struct {
	Value string
}

type Comment struct {
	Value string
}

type CData struct {
	Value string
}

// Element is an HTML element with ordered, uniquely named attributes.
type Element struct {
	Name     string
	Attrs    []Attribute
	Children []Node
}

// Variable is a single extracted text value.
type Variable struct {
	Reference Reference
}

// MarkdownVariable is a run of block content extracted as markdown text.
type MarkdownVariable struct {
	Reference Reference
}

// InlineMarkdownVariable is inline content extracted as markdown text.
type InlineMarkdownVariable struct {
	Reference Reference
}

// Conditional is a subtree present in only some pages.
type Conditional struct {
	Reference Reference
	Template  Node
}

// Loop is a subtree repeated a variable number of times.
type Loop struct {
	Reference Reference
	Template  Node
}

// Content marks where the page body is injected.
type Content struct{}

func (Text) node()                   {}
func (Doctype) node()                {}
func (Comment) node()                {}
func (CData) node()                  {}
func (Element) node()                {}
func (Variable) node()               {}
func (MarkdownVariable) node()       {}
func (InlineMarkdownVariable) node() {}
func (Conditional) node()            {}
func (Loop) node()                   {}
func (Content) node()                {}

// Attribute is one attribute of an Element.
type Attribute interface {
	AttrName() string
	attribute()
}

type StaticAttribute struct {
	Name  string
	Value string
}

// VariableAttribute is an attribute whose value differs between pages.
type VariableAttribute struct {
	Name      string
	Reference Reference
}

// ConditionalAttribute is an attribute present in only some pages. Its value
// is null where the attribute is absent.
type ConditionalAttribute struct {
	Name      string
	Reference Reference
}

func (a StaticAttribute) AttrName() string      { return a.Name }
func (a VariableAttribute) AttrName() string    { return a.Name }
func (a ConditionalAttribute) AttrName() string { return a.Name }

func (StaticAttribute) attribute()      {}
func (VariableAttribute) attribute()    {}
func (ConditionalAttribute) attribute() {}

// Attr returns the attribute with the given name.
func (e Element) Attr(name string) (Attribute, bool) {
	for _, a := range e.Attrs {
		if a.AttrName() == name {
			return a, true
		}
	}
	return nil, false
}

// StaticValue returns the value of a static attribute.
func (e Element) StaticValue(name string) (string, bool) {
	a, ok := e.Attr(name)
	if !ok {
		return "", false
	}
	s, ok := a.(StaticAttribute)
	if !ok {
		return "", false
	}
	return s.Value, true
}

// WithChildren returns a copy of e with the given children.
func (e Element) WithChildren(children []Node) Element {
	return Element{Name: e.Name, Attrs: e.Attrs, Children: children}
}

// WithAttrs returns a copy of e with the given attributes.
func (e Element) WithAttrs(attrs []Attribute) Element {
	return Element{Name: e.Name, Attrs: attrs, Children: e.Children}
}

// IsWhitespace reports whether n is a text node holding only whitespace.
func IsWhitespace(n Node) bool {
	t, ok := n.(Text)
	return ok && strings.TrimSpace(t.Value) == ""
}

// Unwrap returns the template of a Conditional or Loop, repeatedly, and n
// itself for every other node.
func Unwrap(n Node) Node {
	for {
		switch t := n.(type) {
		case Conditional:
			n = t.Template
		case Loop:
			n = t.Template
		default:
			return n
		}
	}
}

// ClassList returns the static class tokens of e, sorted and deduplicated.
func ClassList(e Element) []string {
	v, ok := e.StaticValue("class")
	if !ok {
		return nil
	}
	return SplitClasses(v)
}
