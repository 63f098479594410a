package pages

import (
	"github.com/any-hub/pagetree/internal/scheme"
)

// Site 是零层级的根节点：与页面共享遍历能力，但没有父节点，也不对应内容文件。
type Site struct {
	traversal
}

// Route 总是返回 "/"。
func (s *Site) Route() string {
	return "/"
}

// Root 返回内容根目录的绝对路径。
func (s *Site) Root() string {
	return s.store.root
}

// Languages 返回配置的语言列表。
func (s *Site) Languages() []string {
	return append([]string(nil), s.store.opts.Languages...)
}

// DefaultLanguage 返回默认语言。
func (s *Site) DefaultLanguage() string {
	return s.store.opts.DefaultLanguage
}

// Scheme 返回根目录排序使用的 default scheme。
func (s *Site) Scheme() scheme.Scheme {
	return s.store.opts.Schemes.Lookup(scheme.DefaultTemplate())
}

// Index 返回首页。
func (s *Site) Index() (*Page, error) {
	return s.store.FindPage("/")
}

// ErrorPage 返回错误页。
func (s *Site) ErrorPage() (*Page, error) {
	return s.store.FindPage(s.store.opts.ErrorRoute)
}

// Routes 返回所有可路由页面的路由到页面映射。
func (s *Site) Routes() map[string]*Page {
	out := make(map[string]*Page)
	for _, p := range s.Descendants().Routable().Pages() {
		out[p.Route()] = p
	}
	return out
}
