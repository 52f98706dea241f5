package data

// Group is a set of scopes sharing one chain that receive the same values.
// The layout side of a merge is the group of every document folded into
// the layout so far.
type Group []*Data

// Chain returns the chain shared by the members.
func (g Group) Chain() []string {
	if len(g) == 0 {
		return nil
	}
	return g[0].Chain()
}

// Set stores v in every member. Nested values are copied per member.
func (g Group) Set(key string, v Value) {
	for i, d := range g {
		if i == 0 {
			d.Set(key, v)
			continue
		}
		d.Set(key, cloneValue(v))
	}
}

// Has reports whether any member holds key.
func (g Group) Has(key string) bool {
	for _, d := range g {
		if d.Has(key) {
			return true
		}
	}
	return false
}

func (g Group) Delete(key string) {
	for _, d := range g {
		d.Delete(key)
	}
}

// Items flattens the loop items stored under key in every member.
func (g Group) Items(key string) Group {
	var out Group
	for _, d := range g {
		out = append(out, d.Items(key)...)
	}
	return out
}

// Subscopes creates one fresh scope under key per member, in member order.
func (g Group) Subscopes(key string) Group {
	out := make(Group, len(g))
	for i, d := range g {
		out[i] = d.CreateSubscope(key)
	}
	return out
}

// AppendItems appends items[i] to the item list of member i under key.
func (g Group) AppendItems(key string, items Group) {
	for i, d := range g {
		d.Set(key, append(d.Items(key), items[i]))
	}
}

// Where returns the members whose value under key is true.
func (g Group) Where(key string) Group {
	var out Group
	for _, d := range g {
		if v, _ := d.Get(key); v == true {
			out = append(out, d)
		}
	}
	return out
}
