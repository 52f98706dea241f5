package diff

import (
	"slices"

	"go.uber.org/zap"

	"github.com/foomo/layoutinfer/ast"
	"github.com/foomo/layoutinfer/data"
	"github.com/foomo/layoutinfer/equivalency"
	"github.com/foomo/layoutinfer/naming"
)

// loopable reports whether both nodes are elements that may repeat. A
// loopable pair at or above the loop threshold matches without lookahead.
func loopable(x, y ast.Node) bool {
	ex, okA := ast.Unwrap(x).(ast.Element)
	ey, okB := y.(ast.Element)
	return okA && okB && !loopExcluded[ex.Name] && !loopExcluded[ey.Name]
}

// loopRun decides whether the matched pair ca[i], cb[j] starts a loop and
// returns the exclusive ends of the runs on both sides.
func (d *Differ) loopRun(ca, cb []ast.Node, i, j int) (int, int, bool) {
	if !loopable(ca[i], cb[j]) {
		return 0, 0, false
	}
	endA := d.findRepeatedIndex(ca, i, true)
	endB := d.findRepeatedIndex(cb, j, false)
	if isLoop(ca[i]) {
		return endA, endB, true
	}
	runA, runB := elements(ca[i:endA]), elements(cb[j:endB])
	if len(runA) == 1 && len(runB) == 1 {
		return 0, 0, false
	}
	if ast.EqualNodes(runA, runB) {
		// identical repetitions stay literal
		return 0, 0, false
	}
	return endA, endB, true
}

// findRepeatedIndex returns the exclusive end of the run of siblings after
// start that score at least LoopThreshold against nodes[start]. Whitespace
// between members belongs to the run. With rawOnly, members after the first
// must be raw markup.
func (d *Differ) findRepeatedIndex(nodes []ast.Node, start int, rawOnly bool) int {
	ref := nodes[start]
	end := start + 1
	for k := start + 1; k < len(nodes); k++ {
		n := nodes[k]
		if ast.IsWhitespace(n) {
			continue
		}
		if rawOnly && !ast.IsRaw(n) {
			break
		}
		if d.scorer.Score(ref, n) < equivalency.LoopThreshold {
			break
		}
		end = k + 1
	}
	return end
}

// buildLoop folds every element of both runs into one loop template. Each
// element becomes one item scope below the loop key.
func (d *Differ) buildLoop(a data.Group, b *data.Data, pa, pb []ast.Element, runA, runB []ast.Node) (ast.Node, error) {
	chain := b.Chain()
	first := runA[0]
	group := a

	var cond *ast.Conditional
	if c, ok := first.(ast.Conditional); ok {
		cond = &c
		b.Set(c.Reference.Key(), true)
		group = a.Where(c.Reference.Key())
		first = c.Template
	}

	var (
		loopKey string
		tmpl    ast.Node
		items   data.Group
	)
	if l, ok := first.(ast.Loop); ok {
		loopKey = l.Reference.Key()
		tmpl = l.Template
		items = group.Items(loopKey)
	} else {
		key, err := d.uniqueName(chain, a, b, pa, "", "_items")
		if err != nil {
			return nil, err
		}
		loopKey = key
		d.variations.Record(chain, loopKey, naming.KindLoop, "", append(lastOf(pa), lastOf(pb)...)...)
		tmpl, items = d.relocate(group, chain, loopKey, first)
		for _, m := range a {
			if !m.Has(loopKey) {
				m.Set(loopKey, []*data.Data{})
			}
		}
	}

	for _, n := range elements(runA[1:]) {
		if len(group) == 0 {
			break
		}
		item := group[0].CreateSubscope(loopKey)
		var err error
		if tmpl, err = d.mergeNode(items, item, pa, pa, tmpl, n); err != nil {
			return nil, err
		}
		for k, m := range group {
			it := item
			if k > 0 {
				it = item.Clone()
			}
			m.Set(loopKey, append(m.Items(loopKey), it))
			items = append(items, it)
		}
	}

	var pageItems []*data.Data
	for _, n := range elements(runB) {
		item := b.CreateSubscope(loopKey)
		var err error
		if tmpl, err = d.mergeNode(items, item, pa, pb, tmpl, n); err != nil {
			return nil, err
		}
		items = append(items, item)
		pageItems = append(pageItems, item)
	}
	b.Set(loopKey, pageItems)

	d.logger.Debug("loop built",
		zap.String("key", loopKey),
		zap.Int("items", len(items)),
	)

	var out ast.Node = ast.Loop{Reference: ast.NewReference(chain, loopKey), Template: tmpl}
	if cond != nil {
		out = ast.Conditional{Reference: cond.Reference, Template: out}
	}
	return out, nil
}

// relocate turns first into the first item of a new loop under loopKey.
// Values the node already references move from each member into its item
// scope and the references are rebased onto the loop chain.
func (d *Differ) relocate(group data.Group, chain []string, loopKey string, first ast.Node) (ast.Node, data.Group) {
	items := make(data.Group, len(group))
	if ast.IsRaw(first) {
		for k, m := range group {
			items[k] = m.CreateSubscope(loopKey)
			m.Set(loopKey, []*data.Data{items[k]})
		}
		return first, items
	}

	keys := ast.Keys(first, chain)
	loopChain := append(slices.Clone(chain), loopKey)
	for k, m := range group {
		item := m.CreateSubscope(loopKey)
		for _, key := range keys {
			m.Move(key, item)
		}
		m.Set(loopKey, []*data.Data{item})
		items[k] = item
	}
	for _, key := range keys {
		d.variations.Move(chain, key, loopChain)
	}
	return ast.Rebase(first, chain, loopChain), items
}

func isLoop(n ast.Node) bool {
	if c, ok := n.(ast.Conditional); ok {
		n = c.Template
	}
	_, ok := n.(ast.Loop)
	return ok
}

func elements(nodes []ast.Node) []ast.Node {
	out := make([]ast.Node, 0, len(nodes))
	for _, n := range nodes {
		if !ast.IsWhitespace(n) {
			out = append(out, n)
		}
	}
	return out
}
