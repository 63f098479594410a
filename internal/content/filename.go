package content

import (
	"regexp"
	"sort"
	"strings"
)

// FileName 描述内容文件名拆分后的模板与语言部分。
type FileName struct {
	Template string
	Lang     string
}

// String 以给定扩展名拼回文件名。
func (f FileName) String(ext string) string {
	if f.Lang == "" {
		return f.Template + ext
	}
	return f.Template + "." + f.Lang + ext
}

var basePattern = regexp.MustCompile(`^([A-Za-z0-9_-]+)(?:\.([A-Za-z]{2,3}(?:-[A-Za-z0-9]{2,8})?))?$`)

// Matcher 识别某个扩展名下的内容文件。
type Matcher struct {
	ext string
	re  *regexp.Regexp
}

// NewMatcher 为扩展名（含前导点）构建匹配器，扩展名大小写不敏感。
func NewMatcher(ext string) *Matcher {
	ext = strings.ToLower(ext)
	return &Matcher{ext: ext, re: basePattern}
}

// Ext 返回匹配器使用的扩展名。
func (m *Matcher) Ext() string {
	return m.ext
}

// Parse 判断 name 是否为内容文件，并拆出模板与语言。
func (m *Matcher) Parse(name string) (FileName, bool) {
	if len(name) <= len(m.ext) || !strings.EqualFold(name[len(name)-len(m.ext):], m.ext) {
		return FileName{}, false
	}
	match := m.re.FindStringSubmatch(name[:len(name)-len(m.ext)])
	if match == nil {
		return FileName{}, false
	}
	return FileName{Template: strings.ToLower(match[1]), Lang: match[2]}, true
}

// GroupByLang 将内容文件按语言分组，返回分组以及排序后的语言键（"" 表示默认语言）。
func GroupByLang(files []FileName) (map[string][]FileName, []string) {
	groups := make(map[string][]FileName)
	for _, f := range files {
		groups[f.Lang] = append(groups[f.Lang], f)
	}
	keys := make([]string, 0, len(groups))
	for k, items := range groups {
		keys = append(keys, k)
		sort.Slice(items, func(i, j int) bool { return items[i].Template < items[j].Template })
	}
	sort.Strings(keys)
	return groups, keys
}
