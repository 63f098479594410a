package pages

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchSingleTitleMatch(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"1-home/default.md":     titled("Home") + "Welcome to our shop.\n",
		"2-products/default.md": titled("Product catalog") + "Everything we sell.\n",
		"3-contact/default.md":  titled("Contact") + "Write to us.\n",
	})
	all := store.Site().Descendants()

	result := all.Search("catalog", SearchOptions{})
	require.Equal(t, 1, result.Len())
	assert.Equal(t, "/products", result.First().Route())
}

func TestSearchRanksByWeightedFields(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"a/default.md": titled("Notes") + "A story about gardens.\n",
		"b/default.md": titled("Gardens") + "Planting guide.\n",
		"c/default.md": "---\ntitle: Misc\nauthor: gardens collective\n---\nUnrelated.\n",
		"d/default.md": titled("Nothing") + "Nothing here.\n",
	})
	all, err := store.RetrievePages("", false)
	require.NoError(t, err)

	result := all.Search("Gardens", SearchOptions{})
	assert.Equal(t, []string{"/b", "/a", "/c"}, result.Routes())
}

func TestSearchMonotonicInTitleOccurrences(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"once/default.md":   titled("harbor") + "Same body.\n",
		"thrice/default.md": titled("harbor harbor harbor") + "Same body.\n",
	})
	once, err := store.RetrievePage("once")
	require.NoError(t, err)
	thrice, err := store.RetrievePage("thrice")
	require.NoError(t, err)

	for _, query := range []string{"harbor", "harbor lights"} {
		assert.GreaterOrEqual(t, Score(thrice, query, SearchOptions{}), Score(once, query, SearchOptions{}), query)
	}
	assert.Greater(t, Score(thrice, "harbor", SearchOptions{}), Score(once, "harbor", SearchOptions{}))
}

func TestSearchShortQueriesAndStopWords(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"a/default.md": titled("The cat") + "the cat sat\n",
	})
	all, err := store.RetrievePages("", false)
	require.NoError(t, err)

	assert.Zero(t, all.Search("cat", SearchOptions{}).Len(), "短于最小长度的查询返回空集合")
	assert.Equal(t, 1, all.Search("cat", SearchOptions{MinLength: 3}).Len())

	// 停用词与过短的词不参与关键词匹配，完整查询也不出现时得分为 0
	assert.Zero(t, all.Search("with the dog", SearchOptions{StopWords: []string{"with", "the"}}).Len())
	assert.Equal(t, 1, all.Search("with the cats cat", SearchOptions{MinLength: 3, StopWords: []string{"with", "the"}}).Len())
}

func TestSearchDecodesEntities(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"a/default.md": titled("Fish &amp; Chips") + strings.Repeat("filler ", 3) + "\n",
	})
	all, err := store.RetrievePages("", false)
	require.NoError(t, err)
	assert.Equal(t, 1, all.Search("fish & chips", SearchOptions{}).Len())
}
