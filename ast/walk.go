package ast

// Equal reports whether two trees are structurally identical.
func Equal(a, b Node) bool {
	switch x := a.(type) {
	case Text:
		y, ok := b.(Text)
		return ok && x == y
	case Doctype:
		y, ok := b.(Doctype)
		return ok && x == y
	case Comment:
		y, ok := b.(Comment)
		return ok && x == y
	case CData:
		y, ok := b.(CData)
		return ok && x == y
	case Content:
		_, ok := b.(Content)
		return ok
	case Variable:
		y, ok := b.(Variable)
		return ok && x.Reference.Equal(y.Reference)
	case MarkdownVariable:
		y, ok := b.(MarkdownVariable)
		return ok && x.Reference.Equal(y.Reference)
	case InlineMarkdownVariable:
		y, ok := b.(InlineMarkdownVariable)
		return ok && x.Reference.Equal(y.Reference)
	case Conditional:
		y, ok := b.(Conditional)
		return ok && x.Reference.Equal(y.Reference) && Equal(x.Template, y.Template)
	case Loop:
		y, ok := b.(Loop)
		return ok && x.Reference.Equal(y.Reference) && Equal(x.Template, y.Template)
	case Element:
		y, ok := b.(Element)
		if !ok || x.Name != y.Name || len(x.Attrs) != len(y.Attrs) {
			return false
		}
		for i := range x.Attrs {
			if !equalAttr(x.Attrs[i], y.Attrs[i]) {
				return false
			}
		}
		return EqualNodes(x.Children, y.Children)
	default:
		return false
	}
}

// EqualNodes compares two node lists pairwise.
func EqualNodes(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalAttr(a, b Attribute) bool {
	switch x := a.(type) {
	case StaticAttribute:
		y, ok := b.(StaticAttribute)
		return ok && x == y
	case VariableAttribute:
		y, ok := b.(VariableAttribute)
		return ok && x.Name == y.Name && x.Reference.Equal(y.Reference)
	case ConditionalAttribute:
		y, ok := b.(ConditionalAttribute)
		return ok && x.Name == y.Name && x.Reference.Equal(y.Reference)
	default:
		return false
	}
}

// IsRaw reports whether n is plain page content: no extracted values
// anywhere in the subtree.
func IsRaw(n Node) bool {
	switch t := n.(type) {
	case Text, Doctype, Comment, CData, Content:
		return true
	case Element:
		for _, a := range t.Attrs {
			if _, ok := a.(StaticAttribute); !ok {
				return false
			}
		}
		for _, c := range t.Children {
			if !IsRaw(c) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// MapReferences returns a copy of n with every reference passed through fn.
func MapReferences(n Node, fn func(Reference) Reference) Node {
	switch t := n.(type) {
	case Variable:
		return Variable{Reference: fn(t.Reference)}
	case MarkdownVariable:
		return MarkdownVariable{Reference: fn(t.Reference)}
	case InlineMarkdownVariable:
		return InlineMarkdownVariable{Reference: fn(t.Reference)}
	case Conditional:
		return Conditional{Reference: fn(t.Reference), Template: MapReferences(t.Template, fn)}
	case Loop:
		return Loop{Reference: fn(t.Reference), Template: MapReferences(t.Template, fn)}
	case Element:
		var attrs []Attribute
		if t.Attrs != nil {
			attrs = make([]Attribute, len(t.Attrs))
		}
		for i, a := range t.Attrs {
			switch at := a.(type) {
			case VariableAttribute:
				attrs[i] = VariableAttribute{Name: at.Name, Reference: fn(at.Reference)}
			case ConditionalAttribute:
				attrs[i] = ConditionalAttribute{Name: at.Name, Reference: fn(at.Reference)}
			default:
				attrs[i] = a
			}
		}
		return Element{Name: t.Name, Attrs: attrs, Children: MapReferencesAll(t.Children, fn)}
	default:
		return n
	}
}

// MapReferencesAll applies MapReferences to every node of a list.
func MapReferencesAll(nodes []Node, fn func(Reference) Reference) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, c := range nodes {
		out[i] = MapReferences(c, fn)
	}
	return out
}

// Keys lists, in first-seen order, the keys of chain that references in n
// pass through. A reference [chain..., k, ...] contributes k.
func Keys(n Node, chain []string) []string {
	var keys []string
	seen := map[string]bool{}
	MapReferences(n, func(r Reference) Reference {
		if r.HasPrefix(chain) {
			k := r[len(chain)]
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
		return r
	})
	return keys
}

// Rebase moves every reference below from so that it lives below to.
func Rebase(n Node, from, to []string) Node {
	return MapReferences(n, func(r Reference) Reference {
		if !r.HasPrefix(from) {
			return r
		}
		out := make(Reference, 0, len(to)+len(r)-len(from))
		out = append(out, to...)
		return append(out, r[len(from):]...)
	})
}
