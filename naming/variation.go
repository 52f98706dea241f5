// Package naming records where generated keys come from and turns them into
// readable, unique names once every document is merged.
package naming

import (
	"slices"
	"strings"

	"github.com/foomo/layoutinfer/ast"
)

// Kind is the construct a generated key belongs to.
type Kind string

const (
	KindText           Kind = "text"
	KindAttribute      Kind = "attribute"
	KindConditional    Kind = "conditional"
	KindLoop           Kind = "loop"
	KindMarkdown       Kind = "markdown"
	KindInlineMarkdown Kind = "inline_markdown"
)

// Suffix is the literal name part of structural keys.
func (k Kind) Suffix() string {
	switch k {
	case KindLoop:
		return "items"
	case KindMarkdown:
		return "markdown"
	case KindInlineMarkdown:
		return "inline_markdown"
	}
	return ""
}

// maxValues bounds the concrete values kept per entry.
const maxValues = 32

// Entry is the static context of one generated key.
type Entry struct {
	Key  string `json:"key"`
	Kind Kind   `json:"kind"`
	Tag  string `json:"tag,omitempty"`
	ID   string `json:"id,omitempty"`
	// Base is the meta/link signature of the element, if any.
	Base string `json:"base,omitempty"`
	Attr string `json:"attr,omitempty"`
	// Classes are the class tokens every observed element carried.
	Classes []string `json:"classes,omitempty"`
	Values  []string `json:"values,omitempty"`

	observed bool
	// classesVaried is set once two observed elements carried different
	// class lists.
	classesVaried bool
}

func (e *Entry) describe(el ast.Element) {
	if e.Tag == "" {
		e.Tag = el.Name
	}
	if e.ID == "" {
		if id, ok := el.StaticValue("id"); ok {
			e.ID = strings.TrimSpace(id)
		}
	}
	if e.Base == "" && (el.Name == "meta" || el.Name == "link") {
		if sig := ast.Signature(el); sig != el.Name {
			e.Base = sig
		}
	}
	classes := ast.ClassList(el)
	if _, static := el.StaticValue("class"); !static {
		if _, present := el.Attr("class"); present {
			// variable class: its tokens are observed through the attribute values
			return
		}
	}
	if !e.observed {
		e.Classes = classes
		e.observed = true
		return
	}
	if len(classes) != len(e.Classes) || slices.ContainsFunc(e.Classes, func(c string) bool {
		return !slices.Contains(classes, c)
	}) {
		e.classesVaried = true
	}
	e.Classes = slices.DeleteFunc(e.Classes, func(c string) bool {
		return !slices.Contains(classes, c)
	})
}

func (e *Entry) observe(v string) {
	v = strings.TrimSpace(v)
	if v == "" || len(e.Values) >= maxValues || slices.Contains(e.Values, v) {
		return
	}
	e.Values = append(e.Values, v)
}

type scope struct {
	chain   []string
	order   []string
	entries map[string]*Entry
}

// VariationMap records every generated key per scope. It is owned by a
// single build and is not safe for concurrent use.
type VariationMap struct {
	scopes map[string]*scope
}

func NewVariationMap() *VariationMap {
	return &VariationMap{scopes: map[string]*scope{}}
}

// ScopeKey identifies a chain inside the map.
func ScopeKey(chain []string) string {
	return strings.Join(chain, "\x00")
}

func (m *VariationMap) scope(chain []string) *scope {
	k := ScopeKey(chain)
	s, ok := m.scopes[k]
	if !ok {
		s = &scope{chain: slices.Clone(chain), entries: map[string]*Entry{}}
		m.scopes[k] = s
	}
	return s
}

// Record registers key in chain, or refines an existing entry, with the
// elements that produced it.
func (m *VariationMap) Record(chain []string, key string, kind Kind, attr string, elements ...ast.Element) *Entry {
	s := m.scope(chain)
	e, ok := s.entries[key]
	if !ok {
		e = &Entry{Key: key, Kind: kind, Attr: attr}
		s.entries[key] = e
		s.order = append(s.order, key)
	}
	for _, el := range elements {
		e.describe(el)
	}
	return e
}

// Observe adds concrete values seen for key. Only strings are kept.
func (m *VariationMap) Observe(chain []string, key string, values ...any) {
	e, ok := m.scope(chain).entries[key]
	if !ok {
		return
	}
	for _, v := range values {
		if s, ok := v.(string); ok {
			e.observe(s)
		}
	}
}

// ObserveClasses narrows the stable classes of key by one observed class
// attribute value.
func (m *VariationMap) ObserveClasses(chain []string, key string, value string) {
	e, ok := m.scope(chain).entries[key]
	if !ok {
		return
	}
	e.describe(ast.Element{Name: e.Tag, Attrs: []ast.Attribute{ast.StaticAttribute{Name: "class", Value: value}}})
}

// Entry looks up the entry of key in chain.
func (m *VariationMap) Entry(chain []string, key string) (*Entry, bool) {
	s, ok := m.scopes[ScopeKey(chain)]
	if !ok {
		return nil, false
	}
	e, ok := s.entries[key]
	return e, ok
}

// Entries returns the entries of chain in recording order.
func (m *VariationMap) Entries(chain []string) []*Entry {
	s, ok := m.scopes[ScopeKey(chain)]
	if !ok {
		return nil
	}
	out := make([]*Entry, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.entries[k])
	}
	return out
}

// Move relocates key from one chain to another, together with every scope
// nested below it.
func (m *VariationMap) Move(from []string, key string, to []string) {
	src, ok := m.scopes[ScopeKey(from)]
	if !ok {
		return
	}
	e, ok := src.entries[key]
	if !ok {
		return
	}
	delete(src.entries, key)
	src.order = slices.DeleteFunc(src.order, func(k string) bool { return k == key })

	dst := m.scope(to)
	if _, exists := dst.entries[key]; !exists {
		dst.order = append(dst.order, key)
	}
	dst.entries[key] = e

	prefix := append(slices.Clone(from), key)
	target := append(slices.Clone(to), key)
	var nested []*scope
	for _, s := range m.scopes {
		if hasChainPrefix(s.chain, prefix) {
			nested = append(nested, s)
		}
	}
	for _, s := range nested {
		delete(m.scopes, ScopeKey(s.chain))
		s.chain = append(slices.Clone(target), s.chain[len(prefix):]...)
		m.scopes[ScopeKey(s.chain)] = s
	}
}

// Len returns the number of recorded keys.
func (m *VariationMap) Len() int {
	n := 0
	for _, s := range m.scopes {
		n += len(s.entries)
	}
	return n
}

// Snapshot returns the entries keyed by dotted scope path, for debugging.
func (m *VariationMap) Snapshot() map[string][]Entry {
	out := make(map[string][]Entry, len(m.scopes))
	for _, s := range m.scopes {
		entries := make([]Entry, 0, len(s.order))
		for _, k := range s.order {
			entries = append(entries, *s.entries[k])
		}
		out[strings.Join(s.chain, ".")] = entries
	}
	return out
}

func hasChainPrefix(chain, prefix []string) bool {
	if len(chain) < len(prefix) {
		return false
	}
	return slices.Equal(chain[:len(prefix)], prefix)
}
