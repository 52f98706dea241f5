package naming

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/foomo/layoutinfer/ast"
	"github.com/foomo/layoutinfer/data"
	"github.com/foomo/layoutinfer/errors"
)

var semanticWords = map[string]string{
	"h1": "heading", "h2": "heading", "h3": "heading",
	"h4": "heading", "h5": "heading", "h6": "heading",
	"p":      "paragraph",
	"a":      "link",
	"img":    "image",
	"title":  "title",
	"nav":    "navigation",
	"button": "button",
	"time":   "date",
}

// Candidates lists display names for an entry, most descriptive first.
func Candidates(e *Entry) []string {
	suffix := e.Kind.Suffix()
	tail := ""
	switch {
	case e.Kind == KindAttribute:
		tail = "_" + e.Attr
	case suffix != "":
		tail = "_" + suffix
	}

	var raw []string
	if e.Base != "" {
		raw = append(raw, e.Base+tail)
	}
	// classes that survived a changing class list outrank the id, classes
	// that never changed come after it
	stable, static := e.Classes, []string(nil)
	if !e.classesVaried {
		stable, static = nil, e.Classes
	}
	for _, c := range stable {
		raw = append(raw, c+tail)
	}
	if e.ID != "" {
		raw = append(raw, e.ID+tail)
	}
	for _, c := range static {
		raw = append(raw, c+tail)
	}
	if w, ok := semanticWords[e.Tag]; ok {
		raw = append(raw, w+tail)
	}
	if e.Kind == KindAttribute {
		raw = append(raw, e.Attr)
	}
	if suffix != "" {
		raw = append(raw, suffix)
	}
	if e.Tag != "" {
		raw = append(raw, e.Tag+tail)
	}
	raw = append(raw, e.Key)

	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if n := Normalize(r); n != "" && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

// Normalize folds a candidate to [a-z0-9_]: diacritics are stripped, every
// other character becomes an underscore and a leading digit gets a "v"
// prefix.
func Normalize(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	underscore := false
	for _, r := range folded {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	out := strings.TrimRight(b.String(), "_")
	if out != "" && out[0] >= '0' && out[0] <= '9' {
		out = "v" + out
	}
	return out
}

// Mapping maps scope key and internal key to display name.
type Mapping map[string]map[string]string

// Name returns the display name of key in the scope chain, which uses
// internal keys. Unknown keys keep their name.
func (m Mapping) Name(chain []string, key string) string {
	if name, ok := m[ScopeKey(chain)][key]; ok {
		return name
	}
	return key
}

// Reference renames every component of r.
func (m Mapping) Reference(r ast.Reference) ast.Reference {
	out := make(ast.Reference, len(r))
	for i, k := range r {
		out[i] = m.Name(r[:i], k)
	}
	return out
}

// Nodes renames every reference in a tree.
func (m Mapping) Nodes(nodes []ast.Node) []ast.Node {
	return ast.MapReferencesAll(nodes, m.Reference)
}

// Data renames every key of a page record.
func (m Mapping) Data(d *data.Data) *data.Data {
	return d.Rename(m.Name)
}

// Names assigns display names scope by scope, outermost first. Within a
// scope the entries with the fewest candidates choose first; a name is never
// reused in its scope nor equal to the name of the scope itself.
func (m *VariationMap) Names() (Mapping, error) {
	scopes := make([]*scope, 0, len(m.scopes))
	for _, s := range m.scopes {
		scopes = append(scopes, s)
	}
	slices.SortFunc(scopes, func(a, b *scope) int {
		if c := cmp.Compare(len(a.chain), len(b.chain)); c != 0 {
			return c
		}
		return cmp.Compare(ScopeKey(a.chain), ScopeKey(b.chain))
	})

	mapping := Mapping{}
	for _, s := range scopes {
		parent := ""
		if len(s.chain) > 0 {
			parent = mapping.Name(s.chain[:len(s.chain)-1], s.chain[len(s.chain)-1])
		}
		names, err := assign(s, parent)
		if err != nil {
			return nil, err
		}
		mapping[ScopeKey(s.chain)] = names
	}
	return mapping, nil
}

func assign(s *scope, parent string) (map[string]string, error) {
	type candidate struct {
		key   string
		names []string
	}
	list := make([]candidate, 0, len(s.order))
	for _, k := range s.order {
		list = append(list, candidate{key: k, names: Candidates(s.entries[k])})
	}
	slices.SortFunc(list, func(a, b candidate) int {
		if c := cmp.Compare(len(a.names), len(b.names)); c != 0 {
			return c
		}
		return cmp.Compare(a.key, b.key)
	})

	taken := map[string]bool{}
	free := func(n string) bool { return !taken[n] && n != parent }
	out := make(map[string]string, len(list))
	for _, c := range list {
		name, err := pick(c.names, free)
		if err != nil {
			return nil, errors.NameExhaustion("no display name available").
				WithContext("key", c.key).
				WithContext("scope", strings.Join(s.chain, ".")).
				Build()
		}
		taken[name] = true
		out[c.key] = name
	}
	return out, nil
}

func pick(names []string, free func(string) bool) (string, error) {
	for _, n := range names {
		if free(n) {
			return n, nil
		}
	}
	base := "value"
	if len(names) > 0 {
		base = names[0]
	}
	for i := 2; i < data.MaxNameAttempts+2; i++ {
		if n := fmt.Sprintf("%s_%d", base, i); free(n) {
			return n, nil
		}
	}
	return "", fmt.Errorf("exhausted suffixes for %q", base)
}
