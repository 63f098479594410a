package config

import (
	"fmt"

	"github.com/any-hub/pagetree/internal/scheme"
)

// SchemeRegistry 构建 scheme 注册表：先注册内置 scheme，再按配置顺序应用 [[Scheme]] 覆盖。
// 假定 Validate 已经通过。
func (c *Config) SchemeRegistry() (*scheme.Registry, error) {
	registry := scheme.NewRegistry()
	for _, sc := range c.Schemes {
		if _, err := registry.Override(sc.Template, sc.Overrides()); err != nil {
			return nil, fmt.Errorf("%s: %w", schemeField(sc.Template, "Template"), err)
		}
	}
	return registry, nil
}

// Overrides 将配置条目映射为 scheme 覆盖项。
func (s SchemeConfig) Overrides() scheme.Overrides {
	orderBy, _ := scheme.ParseOrderMode(s.OrderBy)
	orderDir, _ := scheme.ParseOrderDir(s.OrderDir)
	o := scheme.Overrides{
		Description:   s.Description,
		DateField:     s.DateField,
		Pagination:    s.Pagination,
		Taxonomy:      s.Taxonomy,
		AllowChildren: s.AllowChildren,
		Required:      s.Required,
		Defaults:      s.Defaults,
	}
	if s.OrderBy != "" {
		o.OrderBy = orderBy
	}
	if s.OrderDir != "" {
		o.OrderDir = orderDir
	}
	return o
}
