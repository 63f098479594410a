package scheme

// builtinSchemes 返回随程序内置的 scheme：default 作为所有未知模板的回退，
// blog/item 演示日期排序与分页，error 页面不允许子页面。
func builtinSchemes() []Scheme {
	return []Scheme{
		{
			Template:    defaultTemplate,
			Description: "Generic page",
			Defaults: map[string]interface{}{
				"published": true,
			},
			Options: Options{
				OrderBy:       OrderDefault,
				OrderDir:      OrderAsc,
				Taxonomy:      true,
				AllowChildren: true,
			},
		},
		{
			Template:    "blog",
			Description: "Listing page whose children are dated posts",
			Defaults: map[string]interface{}{
				"published": true,
			},
			Options: Options{
				OrderBy:       OrderDefault,
				OrderDir:      OrderDesc,
				Pagination:    true,
				Taxonomy:      true,
				AllowChildren: true,
			},
		},
		{
			Template:    "item",
			Description: "Dated post ordered by its date field",
			Defaults: map[string]interface{}{
				"published": true,
			},
			Options: Options{
				OrderBy:       OrderDate,
				OrderDir:      OrderDesc,
				DateField:     "date",
				Taxonomy:      true,
				AllowChildren: true,
			},
		},
		{
			Template:    "error",
			Description: "Error page, never deletable and never routable by listing",
			Defaults: map[string]interface{}{
				"published": true,
			},
			Options: Options{
				OrderBy:  OrderDefault,
				OrderDir: OrderAsc,
			},
		},
	}
}
