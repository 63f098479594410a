package router

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/any-hub/pagetree/internal/logging"
	"github.com/any-hub/pagetree/internal/pages"
)

func TestRoutePatternParams(t *testing.T) {
	route := NewRoute("blog-page", "/blog/{slug:aln}/page/{n:num}/", "GET")
	assert.Equal(t, Idle, route.State())

	params, ok := route.Match("/blog/hello-world/page/2/")
	require.True(t, ok)
	assert.Equal(t, Compiled, route.State())
	assert.Equal(t, Params{{Name: "slug", Value: "hello-world"}, {Name: "n", Value: "2"}}, params)
	assert.Equal(t, map[string]string{"slug": "hello-world", "n": "2"}, params.Map())

	_, ok = route.Match("/blog/hello-world/page/two")
	assert.False(t, ok)
	_, ok = route.Match("/blog/hello_world/page/2")
	assert.False(t, ok, "aln 不接受下划线")
	_, ok = route.Match("/prefix/blog/hello/page/2")
	assert.False(t, ok, "模式锚定整个路径")
}

func TestRouteShortcutsAndInlineRegex(t *testing.T) {
	all := NewRoute("api", "/-/api/pages/{route:all}")
	params, ok := all.Match("/-/api/pages/about/team")
	require.True(t, ok)
	assert.Equal(t, "about/team", params.Get("route"))

	plain := NewRoute("user", "/users/{name}")
	params, ok = plain.Match("/users/ada/")
	require.True(t, ok)
	assert.Equal(t, "ada", params.Get("name"))
	_, ok = plain.Match("/users/ada/posts")
	assert.False(t, ok)

	inline := NewRoute("year", "/archive/{year:[0-9]{4}}")
	params, ok = inline.Match("/archive/2024")
	require.True(t, ok)
	assert.Equal(t, "2024", params.Get("year"))
	_, ok = inline.Match("/archive/24")
	assert.False(t, ok)

	assert.Error(t, NewRoute("bad", "/x/{a}/{a}").Compile())
	assert.Error(t, NewRoute("bad", "/x/{a:(b)}").Compile())
	assert.Error(t, NewRoute("bad", "/x/{a:[}").Compile())
}

func TestCompileNormalizesOnlyLiterals(t *testing.T) {
	wildcard := NewRoute("wild", "/files/{p:a/./b}")
	params, ok := wildcard.Match("/files/a/x/b")
	require.True(t, ok, "内联正则中的 . 是任意字符，不能被当作路径段清理掉")
	assert.Equal(t, "a/x/b", params.Get("p"))

	re, names, err := compile("/mirror/{p:x//y}")
	require.NoError(t, err)
	assert.Equal(t, []string{"p"}, names)
	assert.Contains(t, re.String(), "(?P<p>x//y)")

	messy := NewRoute("docs", "//docs/./guide/../{section}/")
	params, ok = messy.Match("/docs/intro")
	require.True(t, ok, "字面部分仍按路由规则规范化")
	assert.Equal(t, "intro", params.Get("section"))
}

func TestRouterFiltersBeforeMatching(t *testing.T) {
	r := New()
	post := r.MustAdd(NewRoute("save", "/-/api/pages/{route:all}", "POST"))
	xhr := NewRoute("children", "/-/api/children/{route:all}", "GET")
	xhr.Types = []RequestType{TypeXHR}
	r.MustAdd(xhr)
	catchAll := r.MustAdd(NewRoute("any", "/{route:all}"))

	res := r.Match("POST", TypeHTTP, "/-/api/pages/about")
	assert.Equal(t, Matched, res.State)
	assert.Same(t, post, res.Route)

	res = r.Match("GET", TypeHTTP, "/-/api/pages/about")
	assert.Same(t, catchAll, res.Route, "方法不符的路由被跳过")

	res = r.Match("GET", TypeHTTP, "/-/api/children/about")
	assert.Same(t, catchAll, res.Route, "非 XHR 请求跳过 XHR 路由")
	res = r.Match("get", TypeXHR, "/-/api/children/about")
	assert.Same(t, xhr, res.Route)
	assert.Equal(t, "about", res.Params.Get("route"))

	empty := New()
	res = empty.Match("GET", TypeHTTP, "/")
	assert.Equal(t, Unmatched, res.State)
	assert.Nil(t, res.Route)

	assert.Equal(t, TypeXHR, RequestTypeOf("xmlhttprequest"))
	assert.Equal(t, TypeHTTP, RequestTypeOf(""))
	assert.Len(t, r.Routes(), 3)
}

func newStore(t *testing.T) *pages.Store {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"1-home/default.md":            "---\ntitle: Home\n---\n",
		"2-blog/blog.md":               "---\ntitle: Blog\n---\n",
		"2-blog/hello/item.md":         "---\ntitle: Hello\ndate: 2024-01-01\n---\n",
		"3-company/1-about/default.md": "---\ntitle: About\n---\n",
	}
	for rel, body := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
	}
	store, err := pages.NewStore(pages.Options{Root: root, Logger: logging.Discard()})
	require.NoError(t, err)
	return store
}

func TestResolveStripsParamsAndUsesAliases(t *testing.T) {
	store := newStore(t)
	r := New()
	r.SetAliases(map[string]string{"/about-us/": "/company/about"})

	res, err := r.Resolve(store, "/blog/page:2/tag:go/tag:web")
	require.NoError(t, err)
	require.NotNil(t, res.Page)
	assert.Equal(t, "/blog", res.Route)
	assert.Equal(t, 2, res.PageNum)
	assert.Equal(t, map[string][]string{"tag": {"go", "web"}}, res.Params)

	res, err = r.Resolve(store, "/about-us")
	require.NoError(t, err)
	require.NotNil(t, res.Page)
	assert.Equal(t, "/about-us", res.Route)
	assert.Equal(t, "/company/about", res.Target)
	assert.Equal(t, "About", res.Page.Title())

	res, err = r.Resolve(store, "/")
	require.NoError(t, err)
	require.NotNil(t, res.Page)
	assert.Equal(t, "Home", res.Page.Title())
	assert.Equal(t, 1, res.PageNum)

	res, err = r.Resolve(store, "/blog/page:zero")
	require.NoError(t, err)
	assert.Equal(t, 1, res.PageNum)
	assert.Equal(t, []string{"zero"}, res.Params["page"])

	res, err = r.Resolve(store, "/nowhere")
	require.NoError(t, err)
	assert.Nil(t, res.Page)

	target, ok := r.Alias("/about-us")
	require.True(t, ok)
	assert.Equal(t, "/company/about", target)
	assert.Equal(t, map[string]string{"/about-us": "/company/about"}, r.Aliases())
}
