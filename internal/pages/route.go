package pages

import (
	"path"
	"regexp"
	"strconv"
	"strings"
)

var numPrefix = regexp.MustCompile(`^(\d+)-`)

// NormalizeRoute 规范化路由：保证以 / 开头，折叠重复斜杠，去掉末尾斜杠（根路由除外）。
func NormalizeRoute(route string) string {
	route = strings.TrimSpace(route)
	if route == "" {
		return "/"
	}
	return path.Clean("/" + route)
}

// StripNumPrefix 去掉目录名前的数字排序前缀，"3-about" 返回 "about"。
func StripNumPrefix(name string) string {
	if loc := numPrefix.FindStringIndex(name); loc != nil && loc[1] < len(name) {
		return name[loc[1]:]
	}
	return name
}

// parseNumPrefix 返回目录名中的数字前缀及其位宽（用于保留补零格式）。
func parseNumPrefix(name string) (int, int, bool) {
	m := numPrefix.FindStringSubmatch(name)
	if m == nil || len(m[0]) == len(name) {
		return 0, 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	return n, len(m[1]), true
}

// folderName 根据 num 与 slug 生成目录名，width 大于实际位数时补零。
func folderName(num *int, width int, slug string) string {
	if num == nil {
		return slug
	}
	digits := strconv.Itoa(*num)
	if pad := width - len(digits); pad > 0 {
		digits = strings.Repeat("0", pad) + digits
	}
	return digits + "-" + slug
}

// routeFromPath 将内容相对路径转换为路由，每一段去掉数字前缀。
func routeFromPath(rel string) string {
	if rel == "" {
		return "/"
	}
	segments := strings.Split(rel, "/")
	for i, seg := range segments {
		segments[i] = StripNumPrefix(seg)
	}
	return "/" + strings.Join(segments, "/")
}

func splitRoute(route string) []string {
	route = strings.Trim(NormalizeRoute(route), "/")
	if route == "" {
		return nil
	}
	return strings.Split(route, "/")
}

// hiddenEntry 判断目录项是否被排除在遍历之外：下划线开头为非内容目录，点开头为隐藏文件。
func hiddenEntry(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")
}
