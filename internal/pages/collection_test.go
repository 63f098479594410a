package pages

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/any-hub/pagetree/internal/scheme"
)

func numberedSite(n int) map[string]string {
	files := make(map[string]string, n)
	for i := 1; i <= n; i++ {
		files[fmt.Sprintf("%d-page-%d/default.md", i, i)] = titled(fmt.Sprintf("Page %d", i))
	}
	return files
}

func TestPaginate(t *testing.T) {
	store := newTestStore(t, numberedSite(7))
	all := store.Site().Children()
	require.Equal(t, 7, all.Len())

	second := all.Paginate(3, 2)
	desc := second.Pagination()
	require.NotNil(t, desc)
	assert.Equal(t, []string{"/page-4", "/page-5", "/page-6"}, second.Routes())
	assert.Equal(t, Pagination{Page: 2, PageSize: 3, Total: 7, Pages: 3, Offset: 3, Length: 3, First: 1, Last: 3, Prev: 1, Next: 3}, *desc)

	last := all.Paginate(3, 99)
	assert.Equal(t, 3, last.Pagination().Page)
	assert.Equal(t, 1, last.Len())
	assert.Zero(t, last.Pagination().Next)

	first := all.Paginate(3, 0)
	assert.Zero(t, first.Pagination().Prev)
	assert.Nil(t, all.Pagination(), "分页不修改原集合")

	empty := NewCollection().Paginate(10, 1)
	assert.Equal(t, 1, empty.Pagination().Pages)
	assert.Zero(t, empty.Len())
}

func TestSortNaturalAndMissingValues(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"a/default.md": "---\ntitle: item 10\nweight: 3\n---\n",
		"b/default.md": "---\ntitle: Item 2\nweight: 1\n---\n",
		"c/default.md": "---\ntitle: item 1\n---\n",
	})
	all, err := store.RetrievePages("", false)
	require.NoError(t, err)

	natural := all.Sort("title", scheme.OrderAsc, true)
	assert.Equal(t, []string{"/c", "/b", "/a"}, natural.Routes())

	byWeight := all.Sort("weight", scheme.OrderDesc, false)
	assert.Equal(t, []string{"/a", "/b", "/c"}, byWeight.Routes(), "缺少排序键的页面排在最后")

	assert.Equal(t, []string{"/a", "/b", "/c"}, all.Routes(), "排序返回新集合")
	assert.Equal(t, []string{"/c", "/b", "/a"}, all.Reverse().Routes())
}

func TestGroupByAndFilters(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"1-a/default.md": "---\ncategory: news\n---\n",
		"2-b/default.md": "---\ncategory: blog\n---\n",
		"3-c/default.md": "---\ncategory: news\n---\n",
		"d/item.md":      "---\ndate: 2024-01-01\n---\n",
		"e/default.md":   "---\nrouting: none\n---\n",
	})
	all, err := store.RetrievePages("", false)
	require.NoError(t, err)

	groups := all.GroupBy("category")
	require.Len(t, groups, 3)
	assert.Equal(t, "news", groups[0].Key)
	assert.Equal(t, []string{"/a", "/c"}, groups[0].Pages.Routes())
	assert.Equal(t, "blog", groups[1].Key)
	assert.Equal(t, "", groups[2].Key)

	assert.Equal(t, []string{"/d"}, all.OfTemplate("ITEM").Routes())
	assert.Equal(t, 4, all.Visible().Len(), "没有 num 的 e 不可见")
	assert.Equal(t, 5, all.Routable().Len())
	assert.Same(t, all.At(0), all.First())
	assert.Same(t, all.At(4), all.Last())
	assert.Nil(t, all.At(5))
}

func TestErrorKinds(t *testing.T) {
	err := invalidValue("set", "2-about", "bad %s", "slug")
	assert.True(t, errors.Is(err, ErrInvalidValue))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, KindInvalidValue, KindOf(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
	assert.Contains(t, err.Error(), "invalid_value")
	assert.Contains(t, err.Error(), "2-about")
	assert.Equal(t, "precondition_failed", KindPreconditionFailed.String())
}

func TestRouteHelpers(t *testing.T) {
	assert.Equal(t, "/", NormalizeRoute(""))
	assert.Equal(t, "/", NormalizeRoute("/"))
	assert.Equal(t, "/blog/post", NormalizeRoute("blog//post/"))
	assert.Equal(t, "about", StripNumPrefix("03-about"))
	assert.Equal(t, "3-", StripNumPrefix("3-"))
	assert.Equal(t, "about", StripNumPrefix("about"))
	assert.Equal(t, "/about/team", routeFromPath("2-about/1-team"))

	n := 7
	assert.Equal(t, "007-x", folderName(&n, 3, "x"))
	assert.Equal(t, "7-x", folderName(&n, 0, "x"))
	assert.Equal(t, "x", folderName(nil, 2, "x"))
}
