package pages

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/any-hub/pagetree/internal/logging"
)

// writeTree 按 相对路径 -> 内容 写出目录树。
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
	}
}

func newTestStore(t *testing.T, files map[string]string, mutate ...func(*Options)) *Store {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, files)
	opts := Options{
		Root:           root,
		Ext:            ".md",
		IndexRoute:     "/home",
		ErrorRoute:     "/error",
		DisallowedExts: []string{".php", ".exe"},
		Logger:         logging.Discard(),
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	store, err := NewStore(opts)
	require.NoError(t, err)
	return store
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func titled(title string) string {
	return "---\ntitle: " + title + "\n---\n"
}

// basicSite 是多数用例共用的目录结构。
func basicSite() map[string]string {
	return map[string]string{
		"1-home/default.md":            titled("Home") + "Welcome home.\n",
		"2-about/default.md":           titled("About") + "Who we are.\n",
		"2-about/photo.jpg":            "jpg",
		"2-about/photo.jpg.meta.yaml":  "alt: photo",
		"2-about/script.php":           "<?php",
		"2-about/1-team/default.md":    titled("Team") + "The team.\n",
		"2-about/2-history/default.md": titled("History") + "Founded long ago.\n",
		"3-error/error.md":             titled("Oops"),
		"_drafts/4-secret/default.md":  titled("Secret"),
		"notes/default.md":             titled("Notes"),
	}
}
