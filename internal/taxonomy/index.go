// Package taxonomy 基于页面 front matter 中的 taxonomy 映射建立倒排索引，
// 每个 (分类, 取值) 对应一张以页面序号为元素的 roaring bitmap。
package taxonomy

import (
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring"

	"github.com/any-hub/pagetree/internal/pages"
)

// Operator 决定多个条件之间的组合方式。
type Operator string

const (
	And Operator = "and"
	Or  Operator = "or"
)

// Index 是一个集合上的分类索引，只在构建它的请求内有效。
type Index struct {
	pages []*pages.Page
	terms map[string]map[string]*roaring.Bitmap
}

// Build 为集合建立索引，scheme 关闭 taxonomy 的页面不参与。
func Build(c *pages.Collection) *Index {
	idx := &Index{terms: make(map[string]map[string]*roaring.Bitmap)}
	for _, p := range c.Pages() {
		if !p.Scheme().Options.Taxonomy {
			continue
		}
		ordinal := uint32(len(idx.pages))
		idx.pages = append(idx.pages, p)
		for key, values := range p.Taxonomy() {
			key = normalize(key)
			byValue, ok := idx.terms[key]
			if !ok {
				byValue = make(map[string]*roaring.Bitmap)
				idx.terms[key] = byValue
			}
			for _, v := range values {
				v = normalize(v)
				bm, ok := byValue[v]
				if !ok {
					bm = roaring.New()
					byValue[v] = bm
				}
				bm.Add(ordinal)
			}
		}
	}
	return idx
}

// Find 返回满足条件的页面，保持原集合顺序。And 要求每个 (分类, 取值) 都命中，
// Or 只需命中其一。条件为空时返回空集合。
func (i *Index) Find(query map[string][]string, op Operator) *pages.Collection {
	var result *roaring.Bitmap
	for key, values := range query {
		for _, v := range values {
			bm := i.lookup(key, v)
			switch {
			case result == nil:
				result = bm.Clone()
			case op == Or:
				result.Or(bm)
			default:
				result.And(bm)
			}
		}
	}
	if result == nil {
		return pages.NewCollection()
	}
	items := make([]*pages.Page, 0, result.GetCardinality())
	it := result.Iterator()
	for it.HasNext() {
		items = append(items, i.pages[it.Next()])
	}
	return pages.NewCollection(items...)
}

// Count 返回某个取值下的页面数量。
func (i *Index) Count(key, value string) uint64 {
	return i.lookup(key, value).GetCardinality()
}

// Taxonomies 返回所有分类及其排序后的取值。
func (i *Index) Taxonomies() map[string][]string {
	out := make(map[string][]string, len(i.terms))
	for key, byValue := range i.terms {
		values := make([]string, 0, len(byValue))
		for v := range byValue {
			values = append(values, v)
		}
		sort.Strings(values)
		out[key] = values
	}
	return out
}

func (i *Index) lookup(key, value string) *roaring.Bitmap {
	if byValue, ok := i.terms[normalize(key)]; ok {
		if bm, ok := byValue[normalize(value)]; ok {
			return bm
		}
	}
	return roaring.New()
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
