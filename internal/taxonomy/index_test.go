package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/any-hub/pagetree/internal/logging"
	"github.com/any-hub/pagetree/internal/pages"
	"github.com/any-hub/pagetree/internal/scheme"
)

func buildStore(t *testing.T, files map[string]string) *pages.Store {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
	}
	registry := scheme.NewRegistry()
	off := false
	_, err := registry.Override("hidden", scheme.Overrides{Taxonomy: &off})
	require.NoError(t, err)
	store, err := pages.NewStore(pages.Options{Root: root, Schemes: registry, Logger: logging.Discard()})
	require.NoError(t, err)
	return store
}

func TestFindAndOr(t *testing.T) {
	store := buildStore(t, map[string]string{
		"1-a/default.md": "---\ntaxonomy:\n  tag: [Go, web]\n  category: guide\n---\n",
		"2-b/default.md": "---\ntaxonomy:\n  tag: go\n---\n",
		"3-c/default.md": "---\ntaxonomy:\n  tag: [web]\n---\n",
		"4-d/hidden.md":  "---\ntaxonomy:\n  tag: [go]\n---\n",
		"5-e/default.md": "---\ntitle: untagged\n---\n",
	})
	all, err := store.RetrievePages("", false)
	require.NoError(t, err)
	idx := Build(all)

	assert.Equal(t, []string{"/a", "/b"}, idx.Find(map[string][]string{"tag": {"go"}}, And).Routes())
	assert.Equal(t, []string{"/a"}, idx.Find(map[string][]string{"tag": {"go", "web"}}, And).Routes())
	assert.Equal(t, []string{"/a", "/b", "/c"}, idx.Find(map[string][]string{"tag": {"go", "web"}}, Or).Routes())
	assert.Equal(t, []string{"/a"}, idx.Find(map[string][]string{"tag": {"web"}, "category": {"GUIDE"}}, And).Routes())
	assert.Zero(t, idx.Find(map[string][]string{"tag": {"rust"}}, And).Len())
	assert.Zero(t, idx.Find(nil, And).Len())

	assert.Equal(t, uint64(2), idx.Count("tag", "web"))
	assert.Equal(t, map[string][]string{"tag": {"go", "web"}, "category": {"guide"}}, idx.Taxonomies())
}
