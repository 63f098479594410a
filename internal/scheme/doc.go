// Package scheme 维护"模板 → scheme"注册表。每个 scheme 描述一种页面模板的默认字段值
// 以及排序、分页、分类等选项；页面加载时按内容文件名推导出的模板名解析 scheme，
// 找不到时统一回退到内置的 default scheme。
//
// 内置 scheme 在 NewRegistry 中注册；配置文件中的 [[Scheme]] 条目通过 Override
// 合并到同名内置 scheme 上，或作为新模板追加。
package scheme
