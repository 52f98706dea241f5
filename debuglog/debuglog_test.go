package debuglog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foomo/layoutinfer/collection"
	"github.com/foomo/layoutinfer/htmlast"
)

type names []string

func (n *names) Snapshot(name string, _ any) {
	*n = append(*n, name)
}

func TestDir_Snapshot(t *testing.T) {
	root := t.TempDir()
	dir, err := NewDir(root, nil)
	require.NoError(t, err)
	assert.Equal(t, root, filepath.Dir(dir.Path()))

	dir.Snapshot("round-001", map[string]any{"round": 1, "pathname": "/about"})

	raw, err := os.ReadFile(filepath.Join(dir.Path(), "round-001.json"))
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "/about", got["pathname"])

	dump, err := os.ReadFile(filepath.Join(dir.Path(), "round-001.dump"))
	require.NoError(t, err)
	assert.Contains(t, string(dump), `"/about"`)
}

func TestDir_UnencodableSnapshot(t *testing.T) {
	dir, err := NewDir(t.TempDir(), nil)
	require.NoError(t, err)
	dir.Snapshot("bad", map[string]any{"ch": make(chan int)})

	_, err = os.Stat(filepath.Join(dir.Path(), "bad.json"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir.Path(), "bad.dump"))
	assert.NoError(t, err)
}

func TestDir_Build(t *testing.T) {
	dir, err := NewDir(t.TempDir(), nil)
	require.NoError(t, err)
	var seen names

	docs := make([]collection.Document, 0, 2)
	for k, markup := range []string{
		`<html><body><p>One</p></body></html>`,
		`<html><body><p>Two</p></body></html>`,
	} {
		p, err := htmlast.ParseString(markup, htmlast.Options{})
		require.NoError(t, err)
		docs = append(docs, collection.Document{Pathname: []string{"/one", "/two"}[k], Nodes: p.Nodes})
	}
	_, err = collection.NewBuilder(collection.WithSnapshotter(Multi{dir, nil, &seen})).Build(docs)
	require.NoError(t, err)

	assert.Equal(t, names{"round-001"}, seen)
	assert.FileExists(t, filepath.Join(dir.Path(), "round-001.json"))
}
