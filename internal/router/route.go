// Package router 编译路由模式并将请求路径匹配到注册的路由，同时负责把页面路由中的
// 分页与参数段剥离后交给 ContentStore 查找页面。
package router

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/any-hub/pagetree/internal/pages"
)

// RequestType 区分普通请求与 XHR 请求。
type RequestType string

const (
	TypeHTTP RequestType = "http"
	TypeXHR  RequestType = "xhr"
)

// RequestTypeOf 根据 X-Requested-With 头判断请求类型。
func RequestTypeOf(requestedWith string) RequestType {
	if strings.EqualFold(strings.TrimSpace(requestedWith), "XMLHttpRequest") {
		return TypeXHR
	}
	return TypeHTTP
}

// State 描述路由或匹配结果所处的阶段：Idle -> Compiled -> Matched | Unmatched。
type State int

const (
	Idle State = iota
	Compiled
	Matched
	Unmatched
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Compiled:
		return "compiled"
	case Matched:
		return "matched"
	case Unmatched:
		return "unmatched"
	default:
		return "unknown"
	}
}

// 具名简写对应的正则片段，其它写法按内联正则处理。
var shortcuts = map[string]string{
	"num": `\d+`,
	"aln": `[0-9A-Za-z-]+`,
	"all": `.*`,
}

const defaultFragment = `[^/]+`

// placeholderPattern 匹配规范化前替换 token 用的占位符。
var placeholderPattern = regexp.MustCompile("\x00([0-9]+)\x00")

var tokenPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)(?::([^{}]*(?:\{[^{}]*\}[^{}]*)*))?\}`)

// Param 是一个按出现顺序记录的命名参数。
type Param struct {
	Name  string
	Value string
}

// Params 是有序的参数列表。
type Params []Param

// Get 返回参数值。
func (p Params) Get(name string) string {
	for _, item := range p {
		if item.Name == name {
			return item.Value
		}
	}
	return ""
}

// Map 以 map 形式返回参数。
func (p Params) Map() map[string]string {
	out := make(map[string]string, len(p))
	for _, item := range p {
		out[item.Name] = item.Value
	}
	return out
}

// Route 是一条路由定义。模式在首次匹配时编译，之后复用。
type Route struct {
	Name    string
	Pattern string
	// Methods 为空表示接受任意方法。
	Methods []string
	// Types 为空表示接受任意请求类型。
	Types []RequestType

	once  sync.Once
	re    *regexp.Regexp
	names []string
	err   error
	state atomic.Int32
}

// NewRoute 创建路由。
func NewRoute(name, pattern string, methods ...string) *Route {
	upper := make([]string, 0, len(methods))
	for _, m := range methods {
		upper = append(upper, strings.ToUpper(m))
	}
	return &Route{Name: name, Pattern: pattern, Methods: upper}
}

// Compile 将模式编译为锚定的正则，重复调用只编译一次。
func (r *Route) Compile() error {
	r.once.Do(func() {
		r.re, r.names, r.err = compile(r.Pattern)
		if r.err == nil {
			r.state.Store(int32(Compiled))
		}
	})
	return r.err
}

// State 返回路由是否已编译。
func (r *Route) State() State {
	return State(r.state.Load())
}

// Regexp 返回编译后的正则，未编译时为 nil。
func (r *Route) Regexp() *regexp.Regexp {
	return r.re
}

// Accepts 判断方法与请求类型是否适用于本路由，不涉及正则匹配。
func (r *Route) Accepts(method string, typ RequestType) bool {
	if len(r.Methods) > 0 {
		ok := false
		for _, m := range r.Methods {
			if m == strings.ToUpper(method) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(r.Types) > 0 {
		for _, t := range r.Types {
			if t == typ {
				return true
			}
		}
		return false
	}
	return true
}

// Match 匹配规范化后的请求路径。
func (r *Route) Match(path string) (Params, bool) {
	if err := r.Compile(); err != nil {
		return nil, false
	}
	m := r.re.FindStringSubmatch(pages.NormalizeRoute(path))
	if m == nil {
		return nil, false
	}
	params := make(Params, 0, len(r.names))
	for i, name := range r.names {
		params = append(params, Param{Name: name, Value: m[i+1]})
	}
	return params, true
}

// compile 只规范化 token 之间的字面部分，内联正则原样保留。
func compile(pattern string) (*regexp.Regexp, []string, error) {
	tokens := tokenPattern.FindAllStringSubmatch(pattern, -1)
	i := 0
	masked := tokenPattern.ReplaceAllStringFunc(pattern, func(string) string {
		i++
		return fmt.Sprintf("\x00%d\x00", i-1)
	})
	normalized := pages.NormalizeRoute(masked)

	var (
		b     strings.Builder
		names []string
		last  int
	)
	b.WriteString("^")
	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(normalized, -1) {
		b.WriteString(regexp.QuoteMeta(normalized[last:loc[0]]))
		idx, _ := strconv.Atoi(normalized[loc[2]:loc[3]])
		name, expr := tokens[idx][1], tokens[idx][2]
		fragment := defaultFragment
		if mapped, ok := shortcuts[expr]; ok {
			fragment = mapped
		} else if expr != "" {
			fragment = expr
		}
		for _, existing := range names {
			if existing == name {
				return nil, nil, fmt.Errorf("duplicate parameter %q in %s", name, pattern)
			}
		}
		names = append(names, name)
		fmt.Fprintf(&b, "(?P<%s>%s)", name, fragment)
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(normalized[last:]))
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, nil, fmt.Errorf("compile %s: %w", pattern, err)
	}
	if re.NumSubexp() != len(names) {
		return nil, nil, fmt.Errorf("pattern %s: inline regex must not contain capture groups", pattern)
	}
	return re, names, nil
}
