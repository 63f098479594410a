package router

import (
	"strconv"
	"strings"

	"github.com/any-hub/pagetree/internal/pages"
)

// PageFinder 由 ContentStore 实现。
type PageFinder interface {
	FindPage(route string) (*pages.Page, error)
}

// Resolution 描述页面路由解析结果。
type Resolution struct {
	// Route 是剥离参数段后的规范化路由。
	Route string
	// Target 是别名替换后实际查找的路由。
	Target string
	// Page 为 nil 表示未找到。
	Page *pages.Page
	// PageNum 来自 /page:N 段，缺省为 1。
	PageNum int
	// Params 收集其它 name:value 段，例如 tag:go。
	Params map[string][]string
}

// Resolve 规范化请求路由，剥离 /page:N 与 /name:value 参数段，查询别名后交给 finder。
func (r *Router) Resolve(finder PageFinder, raw string) (Resolution, error) {
	res := Resolution{PageNum: 1, Params: map[string][]string{}}
	var kept []string
	for _, seg := range strings.Split(strings.Trim(pages.NormalizeRoute(raw), "/"), "/") {
		if seg == "" {
			continue
		}
		name, value, ok := strings.Cut(seg, ":")
		if !ok || name == "" || value == "" {
			kept = append(kept, seg)
			continue
		}
		if name == "page" {
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				res.PageNum = n
				continue
			}
		}
		res.Params[name] = append(res.Params[name], value)
	}
	res.Route = pages.NormalizeRoute(strings.Join(kept, "/"))
	res.Target = res.Route
	if target, ok := r.Alias(res.Route); ok {
		res.Target = target
	}
	page, err := finder.FindPage(res.Target)
	if err != nil {
		return res, err
	}
	res.Page = page
	return res, nil
}
