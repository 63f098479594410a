package scheme

// Overrides 描述来自配置文件的 scheme 覆盖项，nil 字段表示沿用基础值。
type Overrides struct {
	Description   string
	OrderBy       OrderMode
	OrderDir      OrderDir
	DateField     string
	Pagination    *bool
	Taxonomy      *bool
	AllowChildren *bool
	Required      []string
	Defaults      map[string]interface{}
}

// Apply 将覆盖项合并到基础 scheme 上；Defaults 按键合并，覆盖项优先。
func Apply(base Scheme, o Overrides) Scheme {
	out := base
	out.Defaults = base.CloneDefaults()
	out.Required = append([]string(nil), base.Required...)

	if o.Description != "" {
		out.Description = o.Description
	}
	if o.OrderBy != "" {
		out.Options.OrderBy = o.OrderBy
	}
	if o.OrderDir != "" {
		out.Options.OrderDir = o.OrderDir
	}
	if o.DateField != "" {
		out.Options.DateField = o.DateField
	}
	if o.Pagination != nil {
		out.Options.Pagination = *o.Pagination
	}
	if o.Taxonomy != nil {
		out.Options.Taxonomy = *o.Taxonomy
	}
	if o.AllowChildren != nil {
		out.Options.AllowChildren = *o.AllowChildren
	}
	if len(o.Required) > 0 {
		out.Required = append([]string(nil), o.Required...)
	}
	for k, v := range o.Defaults {
		out.Defaults[k] = cloneValue(v)
	}
	return normalize(out)
}

func normalize(s Scheme) Scheme {
	if s.Options.OrderBy == "" {
		s.Options.OrderBy = OrderDefault
	}
	if s.Options.OrderDir == "" {
		s.Options.OrderDir = OrderAsc
	}
	if s.Options.OrderBy == OrderDate && s.Options.DateField == "" {
		s.Options.DateField = "date"
	}
	if s.Defaults == nil {
		s.Defaults = map[string]interface{}{}
	}
	return s
}
