package content

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Document 是解析后的内容文件：front matter 与正文。
type Document struct {
	Header map[string]interface{}
	Body   string
}

// Parse 解析内容文件。没有 front matter 时整个文件都是正文。
func Parse(data []byte) (Document, error) {
	header := map[string]interface{}{}
	rest, err := frontmatter.Parse(bytes.NewReader(data), &header)
	if err != nil {
		return Document{}, fmt.Errorf("parse front matter: %w", err)
	}
	return Document{Header: Normalize(header), Body: string(rest)}, nil
}

// Serialize 按 `---\n{yaml}---\n{body}` 输出内容文件，键按字典序排列以保证写回稳定。
func Serialize(header map[string]interface{}, body string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	if len(header) > 0 {
		encoded, err := yaml.Marshal(header)
		if err != nil {
			return nil, fmt.Errorf("encode front matter: %w", err)
		}
		buf.Write(encoded)
	}
	buf.WriteString(delimiter + "\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}

// Normalize 把 YAML v2 解出的 map[interface{}]interface{} 统一为 map[string]interface{}，
// 方便后续 JSON 输出与路径查询。
func Normalize(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = normalizeValue(item)
		}
		return out
	case map[string]interface{}:
		return Normalize(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = normalizeValue(item)
		}
		return out
	case []string:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = item
		}
		return out
	default:
		return v
	}
}

// StringList 将 front matter 中的标量或列表统一为字符串切片（分类字段常见两种写法）。
func StringList(v interface{}) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return []string{t}
	case []string:
		return append([]string(nil), t...)
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return []string{fmt.Sprint(t)}
	}
}
