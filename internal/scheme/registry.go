package scheme

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

const defaultTemplate = "default"

// Registry 保存模板名到 scheme 的映射。页面加载期间只读，启动阶段写入。
type Registry struct {
	mu      sync.RWMutex
	schemes map[string]Scheme
}

// NewRegistry 创建注册表并注册内置 scheme。
func NewRegistry() *Registry {
	r := &Registry{schemes: make(map[string]Scheme)}
	for _, s := range builtinSchemes() {
		r.mustRegister(s)
	}
	return r
}

// Register 将 scheme 加入注册表，重复模板名会返回错误。
func (r *Registry) Register(s Scheme) error {
	return r.register(s, false)
}

// MustRegister 在注册失败时 panic，适合启动阶段调用。
func (r *Registry) MustRegister(s Scheme) {
	r.mustRegister(s)
}

// Override 合并覆盖项：模板已存在时在原 scheme 基础上应用，否则以 default 为基础新建。
func (r *Registry) Override(template string, o Overrides) (Scheme, error) {
	key := normalizeKey(template)
	if key == "" {
		return Scheme{}, fmt.Errorf("scheme template is required")
	}
	base, ok := r.Resolve(key)
	if !ok {
		base = r.Lookup(defaultTemplate)
		base.Template = key
		base.Description = ""
	}
	merged := Apply(base, o)
	if err := r.register(merged, true); err != nil {
		return Scheme{}, err
	}
	return merged, nil
}

// Resolve 返回指定模板的 scheme。
func (r *Registry) Resolve(template string) (Scheme, bool) {
	if template == "" {
		return Scheme{}, false
	}
	key := normalizeKey(template)

	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemes[key]
	return s, ok
}

// Lookup 返回模板对应的 scheme，未注册的模板回退到 default。
func (r *Registry) Lookup(template string) Scheme {
	if s, ok := r.Resolve(template); ok {
		return s
	}
	s, _ := r.Resolve(defaultTemplate)
	return s
}

// List 返回按模板名排序的 scheme 列表。
func (r *Registry) List() []Scheme {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.schemes) == 0 {
		return nil
	}

	keys := make([]string, 0, len(r.schemes))
	for key := range r.schemes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make([]Scheme, 0, len(keys))
	for _, key := range keys {
		result = append(result, r.schemes[key])
	}
	return result
}

// Keys 返回所有已注册模板名，供诊断端使用。
func (r *Registry) Keys() []string {
	items := r.List()
	result := make([]string, len(items))
	for i, s := range items {
		result[i] = s.Template
	}
	return result
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func (r *Registry) register(s Scheme, replace bool) error {
	key := normalizeKey(s.Template)
	if key == "" {
		return fmt.Errorf("scheme template is required")
	}
	s.Template = key
	s = normalize(s)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemes[key]; exists && !replace {
		return fmt.Errorf("scheme %s already registered", key)
	}
	r.schemes[key] = s
	return nil
}

func (r *Registry) mustRegister(s Scheme) {
	if err := r.register(s, false); err != nil {
		panic(err)
	}
}
