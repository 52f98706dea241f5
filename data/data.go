// Package data holds the values extracted from pages, one scope per document
// root and per loop item.
package data

import (
	"encoding/json"
	"slices"
)

// Value is one of: string, bool, nil, *Data (a nested map) or []*Data (loop
// items).
type Value = any

// Data is a scope of extracted values. The chain records the nesting path
// from the document root; the root chain is empty.
type Data struct {
	chain  []string
	keys   []string
	values map[string]Value
}

// New returns an empty root scope.
func New() *Data {
	return &Data{values: map[string]Value{}}
}

func newScope(chain []string) *Data {
	return &Data{chain: slices.Clone(chain), values: map[string]Value{}}
}

// Chain returns the nesting path of the scope.
func (d *Data) Chain() []string {
	return slices.Clone(d.chain)
}

// Set stores v under key, keeping the position of an existing key.
func (d *Data) Set(key string, v Value) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

func (d *Data) Get(key string) (Value, bool) {
	v, ok := d.values[key]
	return v, ok
}

func (d *Data) Has(key string) bool {
	_, ok := d.values[key]
	return ok
}

func (d *Data) Delete(key string) {
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	d.keys = slices.DeleteFunc(d.keys, func(k string) bool { return k == key })
}

// Keys returns the keys in insertion order.
func (d *Data) Keys() []string {
	return slices.Clone(d.keys)
}

func (d *Data) Len() int {
	return len(d.keys)
}

// Items returns the loop items stored under key.
func (d *Data) Items(key string) []*Data {
	items, _ := d.values[key].([]*Data)
	return items
}

// CreateSubscope returns a fresh empty scope nested under key. The parent is
// not modified.
func (d *Data) CreateSubscope(key string) *Data {
	return newScope(append(slices.Clone(d.chain), key))
}

// Clone deep-copies the scope.
func (d *Data) Clone() *Data {
	out := newScope(d.chain)
	for _, k := range d.keys {
		out.Set(k, cloneValue(d.values[k]))
	}
	return out
}

// Merge returns a new scope with the chain of d holding every value of d and
// every key of other that d lacks. Nested maps present on both sides merge
// recursively; on any other conflict d wins. Item lists are never merged, only
// copied when absent.
func (d *Data) Merge(other *Data) *Data {
	out := d.Clone()
	if other == nil {
		return out
	}
	for _, k := range other.keys {
		ov := other.values[k]
		sv, ok := out.values[k]
		if !ok {
			out.Set(k, rechainValue(cloneValue(ov), append(slices.Clone(out.chain), k)))
			continue
		}
		sm, sIsMap := sv.(*Data)
		om, oIsMap := ov.(*Data)
		if sIsMap && oIsMap {
			out.values[k] = sm.Merge(om)
		}
	}
	return out
}

// Move transfers the value under key into to, updating the chains of
// nested scopes.
func (d *Data) Move(key string, to *Data) {
	v, ok := d.values[key]
	if !ok {
		return
	}
	d.Delete(key)
	to.Set(key, rechainValue(v, append(slices.Clone(to.chain), key)))
}

// Map converts the scope into plain maps and slices.
func (d *Data) Map() map[string]any {
	out := make(map[string]any, len(d.keys))
	for _, k := range d.keys {
		out[k] = plainValue(d.values[k])
	}
	return out
}

func (d *Data) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Map())
}

func (d *Data) rechain(chain []string) {
	d.chain = slices.Clone(chain)
	for _, k := range d.keys {
		d.values[k] = rechainValue(d.values[k], append(slices.Clone(chain), k))
	}
}

func rechainValue(v Value, chain []string) Value {
	switch t := v.(type) {
	case *Data:
		t.rechain(chain)
	case []*Data:
		for _, item := range t {
			item.rechain(chain)
		}
	}
	return v
}

func cloneValue(v Value) Value {
	switch t := v.(type) {
	case *Data:
		return t.Clone()
	case []*Data:
		out := make([]*Data, len(t))
		for i, item := range t {
			out[i] = item.Clone()
		}
		return out
	default:
		return v
	}
}

func plainValue(v Value) any {
	switch t := v.(type) {
	case *Data:
		return t.Map()
	case []*Data:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = item.Map()
		}
		return out
	default:
		return v
	}
}

// Rename returns a copy of d with every key passed through fn. fn receives
// the original chain of the scope that holds the key.
func (d *Data) Rename(fn func(chain []string, key string) string) *Data {
	chain := make([]string, len(d.chain))
	for i, k := range d.chain {
		chain[i] = fn(d.chain[:i], k)
	}
	return d.renameInto(chain, fn)
}

func (d *Data) renameInto(chain []string, fn func(chain []string, key string) string) *Data {
	out := newScope(chain)
	for _, k := range d.keys {
		name := fn(d.chain, k)
		inner := append(slices.Clone(chain), name)
		switch v := d.values[k].(type) {
		case *Data:
			out.Set(name, v.renameInto(inner, fn))
		case []*Data:
			items := make([]*Data, len(v))
			for i, item := range v {
				items[i] = item.renameInto(inner, fn)
			}
			out.Set(name, items)
		default:
			out.Set(name, v)
		}
	}
	return out
}
