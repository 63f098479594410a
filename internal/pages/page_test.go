package pages

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/any-hub/pagetree/internal/scheme"
)

func TestAttributeMergePrecedence(t *testing.T) {
	registry := scheme.NewRegistry()
	registry.MustRegister(scheme.Scheme{
		Template: "doc",
		Defaults: map[string]interface{}{"author": "editorial", "layout": "wide"},
		Options:  scheme.Options{AllowChildren: true},
	})
	store := newTestStore(t, map[string]string{
		"1-guide/doc.md": "---\ntitle: Guide\nlayout: narrow\nslug: hacked\nroute: /hacked\nnum: 99\nmeta:\n  author:\n    name: Ada\n---\nGuide body\n",
	}, func(o *Options) { o.Schemes = registry })

	p, err := store.RetrievePage("1-guide")
	require.NoError(t, err)
	assert.Equal(t, "doc", p.Template())
	assert.Equal(t, "editorial", p.Text("author"))
	assert.Equal(t, "narrow", p.Text("layout"))
	assert.Equal(t, "guide", p.Slug(), "front matter 中的 slug 必须被忽略")
	assert.Equal(t, "/guide", p.Route())
	n, _ := p.Num()
	assert.Equal(t, 1, n)
	assert.Contains(t, p.Content(), "Guide body")
	assert.Equal(t, p.Content(), p.Text("content"))

	name, ok := p.Value("meta.author.name")
	require.True(t, ok)
	assert.Equal(t, "Ada", name)
	_, ok = p.Value("meta.missing")
	assert.False(t, ok)

	assert.NotContains(t, p.Header(), "slug")
	assert.NotContains(t, p.Header(), "num")
}

func TestDefaultsPolicy(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"1-home/default.md":            titled("Home"),
		"plain/default.md":             titled("Plain"),
		"shown/default.md":             "---\nvisible: true\nroutable: false\n---\n",
		"2-blog/blog.md":               titled("Blog"),
		"2-blog/first-post/item.md":    "---\ntitle: First\ndate: 2024-03-05\n---\n",
		"2-blog/7-second-post/item.md": "---\ntitle: Second\ndate: 2024-05-01\n---\n",
	})

	home, err := store.FindPage("/")
	require.NoError(t, err)
	assert.True(t, home.Visible())
	assert.True(t, home.Routable())
	assert.True(t, home.Cacheable())
	assert.True(t, home.Orderable())

	plain, err := store.FindPage("/plain")
	require.NoError(t, err)
	_, hasNum := plain.Num()
	assert.False(t, hasNum)
	assert.False(t, plain.Visible())
	assert.False(t, plain.Orderable())

	shown, err := store.FindPage("/shown")
	require.NoError(t, err)
	assert.True(t, shown.Visible())
	assert.False(t, shown.Routable())

	post, err := store.FindPage("/blog/first-post")
	require.NoError(t, err)
	n, ok := post.Num()
	require.True(t, ok)
	assert.Equal(t, 20240305, n)
	assert.True(t, post.Visible())
	assert.False(t, post.Orderable(), "按日期排序的页面不可手工排序")

	second, err := store.FindPage("/blog/second-post")
	require.NoError(t, err)
	n, _ = second.Num()
	assert.Equal(t, 20240501, n, "日期排序下 num 来自日期字段而非目录前缀")

	blog, err := store.FindPage("/blog")
	require.NoError(t, err)
	assert.Equal(t, []string{"/blog/second-post", "/blog/first-post"}, blog.Children().Routes())

	synthetic := &Page{traversal: traversal{store: store}, attrs: map[string]interface{}{}}
	assert.False(t, synthetic.Routable())
	assert.False(t, synthetic.Cacheable())
}

func TestDateNumFallsBackToFileModTime(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"post/item.md": titled("Undated"),
	})
	p, err := store.RetrievePage("post")
	require.NoError(t, err)
	n, ok := p.Num()
	require.True(t, ok)
	assert.Equal(t, dateNum(p.ModTime()), n)
}

func TestPublishedWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local)
	store := newTestStore(t, map[string]string{
		"future/default.md":  "---\npublish_date: 2025-07-01\n---\n",
		"expired/default.md": "---\nunpublish_date: 2025-05-01\n---\n",
		"draft/default.md":   "---\npublished: false\n---\n",
		"current/default.md": "---\npublish_date: 2025-01-01\n---\n",
	}, func(o *Options) { o.Now = func() time.Time { return now } })

	published, err := store.RetrievePages("", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"/current"}, published.Published().Routes())
}

func TestTitleAndSummaryFallbacks(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"about-us/default.md": "---\n---\n# Heading\n\nSome **bold** text &amp; more.\n",
		"explicit/default.md": "---\nsummary: Short one\n---\nIgnored body\n",
	})
	p, err := store.FindPage("/about-us")
	require.NoError(t, err)
	assert.Equal(t, "About Us", p.Title())
	assert.Equal(t, "Heading Some bold text & more.", p.Summary())

	explicit, err := store.FindPage("/explicit")
	require.NoError(t, err)
	assert.Equal(t, "Short one", explicit.Summary())
}

func TestTaxonomyAttribute(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"post/default.md": "---\ntaxonomy:\n  tag: [go, web]\n  category: guide\n---\n",
	})
	p, err := store.FindPage("/post")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"tag": {"go", "web"}, "category": {"guide"}}, p.Taxonomy())
}

func TestIDDerivedFromPath(t *testing.T) {
	store := newTestStore(t, basicSite())
	about, err := store.FindPage("/about")
	require.NoError(t, err)
	team, err := store.FindPage("/about/team")
	require.NoError(t, err)
	assert.NotEqual(t, about.ID(), team.ID())

	other := newTestStore(t, basicSite())
	again, err := other.FindPage("/about")
	require.NoError(t, err)
	assert.Equal(t, about.ID(), again.ID(), "相同相对路径的 id 在不同 Store 中一致")
	assert.NotEmpty(t, about.IDString())
}

func TestSetRejectsInvalidValuesWithoutPartialChanges(t *testing.T) {
	store := newTestStore(t, basicSite(), func(o *Options) {
		o.Languages = []string{"en", "fr"}
		o.DefaultLanguage = "en"
	})
	team, err := store.FindPage("/about/team")
	require.NoError(t, err)
	before := team.Attributes()

	cases := []struct {
		name string
		fn   func() error
	}{
		{"非法 slug", func() error { return team.SetSlug("Bad Slug") }},
		{"数字前缀 slug", func() error { return team.SetSlug("3-team") }},
		{"重复路由", func() error { return team.SetSlug("history") }},
		{"route 不可写", func() error { return team.Set("route", "/x") }},
		{"parent 不可写", func() error { return team.Set("parent", "/x") }},
		{"slug 类型错误", func() error { return team.Set("slug", 42) }},
		{"num 非整数", func() error { return team.Set("num", "abc") }},
		{"负数 num", func() error { return team.SetNum(-1) }},
		{"非法语言", func() error { return team.SetLanguage("not a language!") }},
		{"未启用语言", func() error { return team.SetLanguage("de") }},
		{"非法模板", func() error { return team.SetTemplate("../evil") }},
		{"未注册模板", func() error { return team.SetTemplate("readme") }},
	}
	for _, tc := range cases {
		err := tc.fn()
		require.Error(t, err, tc.name)
		assert.ErrorIs(t, err, ErrInvalidValue, tc.name)
		assert.Equal(t, KindInvalidValue, KindOf(err), tc.name)
	}

	assert.Equal(t, "team", team.Slug())
	assert.Equal(t, "/about/team", team.Route())
	assert.Equal(t, before, team.Attributes())
	assert.Equal(t, "", team.Language())
}

func TestSetNumRejectedForDateOrderedPages(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"post/item.md": "---\ndate: 2024-01-01\n---\n",
	})
	p, err := store.RetrievePage("post")
	require.NoError(t, err)
	err = p.SetNum(3)
	assert.ErrorIs(t, err, ErrInvalidValue)
	n, _ := p.Num()
	assert.Equal(t, 20240101, n)

	require.NoError(t, p.Set("date", "2024-02-02"))
	n, _ = p.Num()
	assert.Equal(t, 20240202, n)
}

func TestUnsetRestoresSchemeDefault(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"draft/default.md": "---\npublished: false\n---\n",
	})
	p, err := store.RetrievePage("draft")
	require.NoError(t, err)
	assert.False(t, p.Published())
	p.Unset("published")
	assert.True(t, p.Published())
}
