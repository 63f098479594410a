package router

import (
	"fmt"
	"sync"

	"github.com/any-hub/pagetree/internal/pages"
)

// Result 是一次匹配的结果，未命中时 State 为 Unmatched、Route 为 nil。
type Result struct {
	State  State
	Route  *Route
	Params Params
}

// Router 按注册顺序匹配路由，第一个命中的路由胜出。注册在启动阶段完成，匹配可并发进行。
type Router struct {
	mu      sync.RWMutex
	routes  []*Route
	aliases map[string]string
}

// New 创建空路由器。
func New() *Router {
	return &Router{aliases: make(map[string]string)}
}

// Add 注册路由并立即校验模式。
func (r *Router) Add(route *Route) error {
	if route == nil {
		return fmt.Errorf("route is nil")
	}
	if err := route.Compile(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
	return nil
}

// MustAdd 在注册失败时 panic。
func (r *Router) MustAdd(route *Route) *Route {
	if err := r.Add(route); err != nil {
		panic(err)
	}
	return route
}

// Routes 返回已注册路由的副本。
func (r *Router) Routes() []*Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Route(nil), r.routes...)
}

// Match 先按方法与请求类型过滤，再对剩余路由做正则匹配。
func (r *Router) Match(method string, typ RequestType, path string) Result {
	r.mu.RLock()
	routes := r.routes
	r.mu.RUnlock()

	normalized := pages.NormalizeRoute(path)
	for _, route := range routes {
		if !route.Accepts(method, typ) {
			continue
		}
		if params, ok := route.Match(normalized); ok {
			return Result{State: Matched, Route: route, Params: params}
		}
	}
	return Result{State: Unmatched}
}

// SetAliases 替换别名表，键与值都会被规范化。
func (r *Router) SetAliases(aliases map[string]string) {
	next := make(map[string]string, len(aliases))
	for from, to := range aliases {
		next[pages.NormalizeRoute(from)] = pages.NormalizeRoute(to)
	}
	r.mu.Lock()
	r.aliases = next
	r.mu.Unlock()
}

// Alias 返回别名指向的路由。
func (r *Router) Alias(route string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	target, ok := r.aliases[pages.NormalizeRoute(route)]
	return target, ok
}

// Aliases 返回别名表副本。
func (r *Router) Aliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.aliases))
	for k, v := range r.aliases {
		out[k] = v
	}
	return out
}
