package collection

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foomo/layoutinfer/ast"
	"github.com/foomo/layoutinfer/errors"
	"github.com/foomo/layoutinfer/htmlast"
)

const (
	home    = `<!DOCTYPE html><html><head><title>Home</title><meta name="description" content="Welcome"></head><body><div>Primary</div></body></html>`
	about   = `<!DOCTYPE html><html><head><title>About</title></head><body><div>Secondary</div></body></html>`
	contact = `<!DOCTYPE html><html><head><title>Contact</title><meta name="description" content="Reach us"></head><body><div>Tertiary</div></body></html>`

	post   = `<!DOCTYPE html><html><head><title>Blog</title></head><body><article><h1>Alpha</h1><p>Intro</p></article><ul><li>Item 1</li><li>Item 2</li></ul><aside>Note</aside></body></html>`
	draft  = `<!DOCTYPE html><html><head><title>Blog</title></head><body><article></article><ul><li>Item 3</li></ul></body></html>`
	teaser = `<!DOCTYPE html><html><head><title>Blog</title></head><body><article><h2>Gamma</h2></article><ul><li>Item 4</li><li>Item 5</li><li>Item 6</li></ul></body></html>`
)

func doc(t *testing.T, pathname, markup string) Document {
	t.Helper()
	p, err := htmlast.ParseString(markup, htmlast.Options{})
	require.NoError(t, err)
	return Document{Pathname: pathname, Nodes: p.Nodes, Contents: p.Contents}
}

// shape drops reference names so trees can be compared up to naming.
func shape(nodes []ast.Node) []ast.Node {
	return ast.MapReferencesAll(nodes, func(r ast.Reference) ast.Reference {
		return make(ast.Reference, len(r))
	})
}

type snapshots struct {
	names []string
}

func (s *snapshots) Snapshot(name string, v any) {
	s.names = append(s.names, name)
}

type recorder struct {
	rounds    int
	builds    int
	variables int
	err       error
}

func (r *recorder) ObserveRound(time.Duration) { r.rounds++ }
func (r *recorder) ObserveBuild(_ time.Duration, _ int, err error) {
	r.builds++
	r.err = err
}
func (r *recorder) ObserveVariables(n int) { r.variables = n }

func TestBuild(t *testing.T) {
	snaps, rec := &snapshots{}, &recorder{}
	res, err := NewBuilder(WithSnapshotter(snaps), WithRecorder(rec)).Build([]Document{
		doc(t, "/", home),
		doc(t, "/about", about),
		doc(t, "/contact", contact),
	})
	require.NoError(t, err)

	require.Len(t, res.Layout.Tree, 2)
	html := res.Layout.Tree[1].(ast.Element)
	head := html.Children[0].(ast.Element)
	assert.Equal(t, ast.Variable{Reference: ast.Reference{"title"}}, head.Children[0].(ast.Element).Children[0])
	cond := head.Children[1].(ast.Conditional)
	assert.Equal(t, ast.Reference{"meta_description"}, cond.Reference)

	require.Len(t, res.Pages, 3)
	assert.Equal(t, "/about", res.Pages[1].Pathname)
	assert.Equal(t, map[string]any{
		"title":            "About",
		"meta_description": nil,
		"div":              "Secondary",
	}, res.Pages[1].Data.Map())
	assert.Equal(t, map[string]any{
		"title":                    "Contact",
		"meta_description":         true,
		"meta_description_content": "Reach us",
		"div":                      "Tertiary",
	}, res.Pages[2].Data.Map())

	assert.Equal(t, []string{"round-001", "round-002"}, snaps.names)
	assert.Equal(t, 2, rec.rounds)
	assert.Equal(t, 1, rec.builds)
	assert.NoError(t, rec.err)
	assert.Equal(t, 4, rec.variables)
}

func TestBuild_OrderIndependent(t *testing.T) {
	a, b, c := doc(t, "/", home), doc(t, "/about", about), doc(t, "/contact", contact)
	abc, err := NewBuilder().Build([]Document{a, b, c})
	require.NoError(t, err)
	acb, err := NewBuilder().Build([]Document{a, c, b})
	require.NoError(t, err)
	assert.True(t, ast.EqualNodes(shape(abc.Layout.Tree), shape(acb.Layout.Tree)))
}

func TestBuild_Identical(t *testing.T) {
	res, err := NewBuilder().Build([]Document{doc(t, "/a", home), doc(t, "/b", home)})
	require.NoError(t, err)
	assert.True(t, ast.EqualNodes(doc(t, "/a", home).Nodes, res.Layout.Tree))
	assert.Zero(t, res.Pages[0].Data.Len())
}

func TestBuild_DuplicatePathname(t *testing.T) {
	res, err := NewBuilder().Build([]Document{
		doc(t, "/", home),
		doc(t, "/about", about),
		doc(t, "/", contact),
	})
	require.NoError(t, err)
	require.Len(t, res.Pages, 2)
	assert.Equal(t, "Home", res.Pages[0].Data.Map()["title"])
	assert.Equal(t, "Welcome", res.Pages[0].Data.Map()["meta_description_content"])
}

func TestBuild_Errors(t *testing.T) {
	t.Run("insufficient input", func(t *testing.T) {
		_, err := NewBuilder().Build([]Document{doc(t, "/", home)})
		require.ErrorIs(t, err, errors.ErrInsufficientInput)
	})
	t.Run("doctype mismatch", func(t *testing.T) {
		_, err := NewBuilder().Build([]Document{
			doc(t, "/", home),
			{Pathname: "/x", Nodes: []ast.Node{ast.Doctype{Value: "xhtml"}, ast.Element{Name: "html"}}},
		})
		require.ErrorIs(t, err, errors.ErrStructuralMismatch)
	})
	t.Run("no root element", func(t *testing.T) {
		_, err := NewBuilder().Build([]Document{
			doc(t, "/", home),
			{Pathname: "/x", Nodes: []ast.Node{ast.Doctype{Value: "html"}}},
		})
		require.ErrorIs(t, err, errors.ErrStructuralMismatch)
	})
	t.Run("recorder sees failure", func(t *testing.T) {
		rec := &recorder{}
		_, err := NewBuilder(WithRecorder(rec)).Build(nil)
		require.Error(t, err)
		assert.Equal(t, 1, rec.builds)
		assert.ErrorIs(t, rec.err, errors.ErrInsufficientInput)
	})
}

// blog returns post, draft and teaser in the given order.
func blog(t *testing.T, order ...string) []Document {
	t.Helper()
	pages := map[string]string{"/post": post, "/draft": draft, "/teaser": teaser}
	docs := make([]Document, len(order))
	for i, pathname := range order {
		docs[i] = doc(t, pathname, pages[pathname])
	}
	return docs
}

type blogKeys struct {
	markdown, items, aside string
}

func keysOf(t *testing.T, res *Result) blogKeys {
	t.Helper()
	html := res.Layout.Tree[1].(ast.Element)
	body := html.Children[1].(ast.Element)
	require.Len(t, body.Children, 3)

	article := body.Children[0].(ast.Element)
	require.Len(t, article.Children, 1)
	md, ok := article.Children[0].(ast.MarkdownVariable)
	require.True(t, ok, "article holds %T", article.Children[0])

	list := body.Children[1].(ast.Element)
	require.Len(t, list.Children, 1)
	loop, ok := list.Children[0].(ast.Loop)
	require.True(t, ok, "list holds %T", list.Children[0])

	aside, ok := body.Children[2].(ast.Conditional)
	require.True(t, ok, "body ends with %T", body.Children[2])

	return blogKeys{markdown: md.Reference.Key(), items: loop.Reference.Key(), aside: aside.Reference.Key()}
}

func pagesByPathname(res *Result) map[string]map[string]any {
	out := map[string]map[string]any{}
	for _, p := range res.Pages {
		out[p.Pathname] = p.Data.Map()
	}
	return out
}

func TestBuild_OrderIndependentStructures(t *testing.T) {
	ref, err := NewBuilder().Build(blog(t, "/post", "/draft", "/teaser"))
	require.NoError(t, err)
	keysOf(t, ref)

	orders := [][]string{
		{"/post", "/teaser", "/draft"},
		{"/draft", "/post", "/teaser"},
		{"/draft", "/teaser", "/post"},
		{"/teaser", "/post", "/draft"},
		{"/teaser", "/draft", "/post"},
	}
	for _, order := range orders {
		t.Run(strings.Join(order, ","), func(t *testing.T) {
			res, err := NewBuilder().Build(blog(t, order...))
			require.NoError(t, err)
			assert.True(t, ast.EqualNodes(shape(ref.Layout.Tree), shape(res.Layout.Tree)))

			keys := keysOf(t, res)
			pages := pagesByPathname(res)
			assert.Contains(t, pages["/post"][keys.markdown], "# Alpha")
			assert.Contains(t, pages["/post"][keys.markdown], "Intro")
			assert.Equal(t, "", pages["/draft"][keys.markdown])
			assert.Contains(t, pages["/teaser"][keys.markdown], "## Gamma")

			assert.Len(t, pages["/post"][keys.items], 2)
			assert.Len(t, pages["/draft"][keys.items], 1)
			assert.Len(t, pages["/teaser"][keys.items], 3)

			assert.Equal(t, true, pages["/post"][keys.aside])
			assert.Nil(t, pages["/draft"][keys.aside])
			assert.Nil(t, pages["/teaser"][keys.aside])
		})
	}
}

func TestBuild_SelfMergeIdempotent(t *testing.T) {
	res, err := NewBuilder().Build(blog(t, "/post", "/draft", "/teaser"))
	require.NoError(t, err)

	docs := append(blog(t, "/post", "/draft", "/teaser"), doc(t, "/post-copy", post))
	again, err := NewBuilder().Build(docs)
	require.NoError(t, err)

	assert.True(t, ast.EqualNodes(shape(res.Layout.Tree), shape(again.Layout.Tree)))
	pages := pagesByPathname(again)
	assert.Equal(t, pages["/post"], pages["/post-copy"])
}
