// Package content 处理页面内容文件本身：文件名约定 {template}[.{lang}].{ext}、
// front matter 的解析与序列化，以及用于搜索的纯文本摘要。
package content
