package pages

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/any-hub/pagetree/internal/scheme"
)

// Collection 是页面引用的有序序列。页面归 Store 所有，集合操作总是返回新集合。
type Collection struct {
	items      []*Page
	pagination *Pagination
}

// Pagination 描述一页数据在完整集合中的位置，页码从 1 开始，0 表示不存在。
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
	Pages    int `json:"pages"`
	Offset   int `json:"offset"`
	Length   int `json:"length"`
	First    int `json:"first"`
	Last     int `json:"last"`
	Prev     int `json:"prev"`
	Next     int `json:"next"`
}

// Group 是 GroupBy 的一组结果。
type Group struct {
	Key   string
	Pages *Collection
}

// NewCollection 以给定页面创建集合。
func NewCollection(items ...*Page) *Collection {
	return &Collection{items: append([]*Page(nil), items...)}
}

// Len 返回页面数量。
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Pages 返回页面切片的副本。
func (c *Collection) Pages() []*Page {
	if c == nil {
		return nil
	}
	return append([]*Page(nil), c.items...)
}

// At 返回第 i 个页面，越界返回 nil。
func (c *Collection) At(i int) *Page {
	if c == nil || i < 0 || i >= len(c.items) {
		return nil
	}
	return c.items[i]
}

// First 返回第一个页面。
func (c *Collection) First() *Page {
	return c.At(0)
}

// Last 返回最后一个页面。
func (c *Collection) Last() *Page {
	return c.At(c.Len() - 1)
}

// Contains 按引用判断页面是否在集合中。
func (c *Collection) Contains(p *Page) bool {
	for _, item := range c.items {
		if item == p {
			return true
		}
	}
	return false
}

// Routes 返回集合中页面的路由。
func (c *Collection) Routes() []string {
	out := make([]string, 0, c.Len())
	for _, p := range c.items {
		out = append(out, p.Route())
	}
	return out
}

// Pagination 返回 Paginate 附带的分页描述，未分页时为 nil。
func (c *Collection) Pagination() *Pagination {
	return c.pagination
}

// Filter 返回满足 keep 的页面。
func (c *Collection) Filter(keep func(*Page) bool) *Collection {
	out := &Collection{}
	for _, p := range c.items {
		if keep(p) {
			out.items = append(out.items, p)
		}
	}
	return out
}

// Visible 过滤出可见页面。
func (c *Collection) Visible() *Collection {
	return c.Filter((*Page).Visible)
}

// Routable 过滤出可路由页面。
func (c *Collection) Routable() *Collection {
	return c.Filter((*Page).Routable)
}

// Published 过滤出已发布页面。
func (c *Collection) Published() *Collection {
	return c.Filter((*Page).Published)
}

// OfTemplate 过滤出指定模板的页面。
func (c *Collection) OfTemplate(template string) *Collection {
	template = strings.ToLower(template)
	return c.Filter(func(p *Page) bool { return p.template == template })
}

// Reverse 返回逆序集合。
func (c *Collection) Reverse() *Collection {
	out := &Collection{items: make([]*Page, len(c.items))}
	for i, p := range c.items {
		out.items[len(c.items)-1-i] = p
	}
	return out
}

// Sort 按 key 稳定排序。natural 为 true 时字符串使用数字感知、大小写不敏感的比较。
// 缺少该键的页面排在最后。
func (c *Collection) Sort(key string, dir scheme.OrderDir, natural bool) *Collection {
	out := NewCollection(c.items...)
	var coll *collate.Collator
	if natural {
		coll = collate.New(language.Und, collate.IgnoreCase, collate.Numeric)
	}
	values := make(map[*Page]interface{}, len(out.items))
	for _, p := range out.items {
		values[p] = sortValue(p, key)
	}
	sort.SliceStable(out.items, func(i, j int) bool {
		a, b := values[out.items[i]], values[out.items[j]]
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		cmp := compareValues(a, b, coll)
		if dir == scheme.OrderDesc {
			return cmp > 0
		}
		return cmp < 0
	})
	return out
}

// Paginate 截取第 page 页（从 1 开始），结果附带分页描述。page 越界时取最近的有效页。
func (c *Collection) Paginate(size, page int) *Collection {
	total := c.Len()
	if size <= 0 {
		size = total
		if size == 0 {
			size = 1
		}
	}
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	offset := (page - 1) * size
	end := offset + size
	if end > total {
		end = total
	}
	if offset > total {
		offset = total
	}
	desc := &Pagination{
		Page:     page,
		PageSize: size,
		Total:    total,
		Pages:    pages,
		Offset:   offset,
		Length:   end - offset,
		First:    1,
		Last:     pages,
	}
	if page > 1 {
		desc.Prev = page - 1
	}
	if page < pages {
		desc.Next = page + 1
	}
	return &Collection{items: append([]*Page(nil), c.items[offset:end]...), pagination: desc}
}

// GroupBy 按 key 的取值分组，组按首次出现的顺序排列；缺少该键的页面归入空键组。
func (c *Collection) GroupBy(key string) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, p := range c.items {
		k := ""
		if v := sortValue(p, key); v != nil {
			k = groupKey(v)
		}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k, Pages: &Collection{}})
		}
		groups[i].Pages.items = append(groups[i].Pages.items, p)
	}
	return groups
}

func groupKey(v interface{}) string {
	if t, ok := v.(time.Time); ok {
		return t.Format("2006-01-02")
	}
	return fmt.Sprint(v)
}

// sortValue 取排序键的值，固定字段走访问器，其余按属性路径读取。
func sortValue(p *Page, key string) interface{} {
	switch key {
	case "title":
		return p.Title()
	case "slug":
		return p.slug
	case "route":
		return p.Route()
	case "path", "folder":
		return p.dir
	case "template":
		return p.template
	case "num":
		if n, ok := p.Num(); ok {
			return n
		}
		return nil
	case "date":
		if d := p.Date(); !d.IsZero() {
			return d
		}
		return nil
	case "modified":
		return p.fileMod
	}
	v, ok := p.Value(key)
	if !ok {
		return nil
	}
	if t, ok := parseTime(v); ok {
		return t
	}
	return v
}

func compareValues(a, b interface{}, coll *collate.Collator) int {
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt)
		}
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	if coll != nil {
		return coll.CompareString(as, bs)
	}
	return strings.Compare(as, bs)
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float64:
		return t, true
	case float32:
		return float64(t), true
	}
	return 0, false
}

// order 按 dir 对应节点的 scheme 排序子页面：default 按 num（日期排序的子页面其 num 即日期），
// date 按日期字段，title 与 folder 按自然序。
func (s *Store) order(dir string, items *Collection) *Collection {
	sch := s.opts.Schemes.Lookup(scheme.DefaultTemplate())
	if dir != "" {
		if owner, ok := s.nodes[dir]; ok {
			sch = owner.scheme
		}
	}
	switch sch.Options.OrderBy {
	case scheme.OrderTitle:
		return items.Sort("title", sch.Options.OrderDir, true)
	case scheme.OrderFolder:
		return items.Sort("slug", sch.Options.OrderDir, true)
	case scheme.OrderDate:
		return items.Sort("date", sch.Options.OrderDir, false)
	default:
		return items.Sort("num", sch.Options.OrderDir, false)
	}
}
