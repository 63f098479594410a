package pages

import (
	"errors"
	"strings"
	"sync"
)

// Hooks 描述模板级别的生命周期扩展点，未设置的回调会被跳过。
type Hooks struct {
	Loaded      func(p *Page)
	BeforeSave  func(p *Page) error
	AfterSave   func(p *Page)
	AfterDelete func(p *Page)
}

// ErrDuplicateHook 表示同一模板已注册过 Hooks。
var ErrDuplicateHook = errors.New("hook already registered")

// HookRegistry 按模板名保存 Hooks，可在多个请求的 Store 之间共享。
type HookRegistry struct {
	entries sync.Map
}

// NewHookRegistry 创建空的注册表。
func NewHookRegistry() *HookRegistry {
	return &HookRegistry{}
}

// Register 为模板注册 Hooks，重复注册返回 ErrDuplicateHook。
func (r *HookRegistry) Register(template string, hooks Hooks) error {
	key := normalizeTemplate(template)
	if key == "" {
		return errors.New("template required")
	}
	if _, loaded := r.entries.LoadOrStore(key, hooks); loaded {
		return ErrDuplicateHook
	}
	return nil
}

// MustRegister 在注册失败时 panic。
func (r *HookRegistry) MustRegister(template string, hooks Hooks) {
	if err := r.Register(template, hooks); err != nil {
		panic(err)
	}
}

// Fetch 返回模板对应的 Hooks。
func (r *HookRegistry) Fetch(template string) (Hooks, bool) {
	if r == nil {
		return Hooks{}, false
	}
	key := normalizeTemplate(template)
	if key == "" {
		return Hooks{}, false
	}
	if value, ok := r.entries.Load(key); ok {
		if hooks, ok := value.(Hooks); ok {
			return hooks, true
		}
	}
	return Hooks{}, false
}

// Status 返回模板的 Hooks 注册状态。
func (r *HookRegistry) Status(template string) string {
	if _, ok := r.Fetch(template); ok {
		return "registered"
	}
	return "missing"
}

// Snapshot 返回一组模板的注册状态，诊断端使用。
func (r *HookRegistry) Snapshot(templates []string) map[string]string {
	out := make(map[string]string, len(templates))
	for _, t := range templates {
		if key := normalizeTemplate(t); key != "" {
			out[key] = r.Status(key)
		}
	}
	return out
}

func normalizeTemplate(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
