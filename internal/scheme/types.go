package scheme

import (
	"fmt"
	"reflect"
	"strings"
)

// OrderMode 描述子页面的排序方式。date 模式下 num 由日期字段推导。
type OrderMode string

const (
	OrderDefault OrderMode = "default"
	OrderDate    OrderMode = "date"
	OrderTitle   OrderMode = "title"
	OrderFolder  OrderMode = "folder"
)

// OrderDir 描述排序方向。
type OrderDir string

const (
	OrderAsc  OrderDir = "asc"
	OrderDesc OrderDir = "desc"
)

// ParseOrderMode 将配置值标准化为 OrderMode，空值回退 default。
func ParseOrderMode(raw string) (OrderMode, error) {
	switch mode := OrderMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "":
		return OrderDefault, nil
	case OrderDefault, OrderDate, OrderTitle, OrderFolder:
		return mode, nil
	default:
		return "", fmt.Errorf("不支持的排序方式: %s", raw)
	}
}

// ParseOrderDir 将配置值标准化为 OrderDir，空值回退 asc。
func ParseOrderDir(raw string) (OrderDir, error) {
	switch dir := OrderDir(strings.ToLower(strings.TrimSpace(raw))); dir {
	case "":
		return OrderAsc, nil
	case OrderAsc, OrderDesc:
		return dir, nil
	default:
		return "", fmt.Errorf("不支持的排序方向: %s", raw)
	}
}

// Options 描述 scheme 对页面行为的约束。
type Options struct {
	OrderBy       OrderMode
	OrderDir      OrderDir
	DateField     string
	Pagination    bool
	Taxonomy      bool
	AllowChildren bool
}

// Scheme 记录一个模板的默认字段与选项，供页面加载、写回与集合排序使用。
type Scheme struct {
	Template    string
	Description string
	Defaults    map[string]interface{}
	Required    []string
	Options     Options
}

// DefaultTemplate 返回内置 default scheme 的模板名。
func DefaultTemplate() string {
	return defaultTemplate
}

// Default 返回指定字段的默认值。
func (s Scheme) Default(key string) (interface{}, bool) {
	if s.Defaults == nil {
		return nil, false
	}
	v, ok := s.Defaults[key]
	return v, ok
}

// IsDefault 判断 value 是否与 scheme 默认值相同，写回内容文件时据此省略字段。
func (s Scheme) IsDefault(key string, value interface{}) bool {
	def, ok := s.Default(key)
	if !ok {
		return false
	}
	return EqualValues(def, value)
}

// CloneDefaults 深拷贝默认值，避免页面修改污染注册表。
func (s Scheme) CloneDefaults() map[string]interface{} {
	out := make(map[string]interface{}, len(s.Defaults))
	for k, v := range s.Defaults {
		out[k] = cloneValue(v)
	}
	return out
}

// DateOrdered 表示 num 是否由日期推导。
func (s Scheme) DateOrdered() bool {
	return s.Options.OrderBy == OrderDate
}

// EqualValues 比较两个来自 YAML/TOML 的值。不同解码器对数字类型的选择不一致
// （int、int64、float64），因此数字之间按格式化后的文本比较；字符串与布尔不与数字相等。
func EqualValues(a, b interface{}) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	if isNumber(a) && isNumber(b) {
		return fmt.Sprint(a) == fmt.Sprint(b)
	}
	switch av := a.(type) {
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !EqualValues(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, present := bv[k]
			if !present || !EqualValues(v, w) {
				return false
			}
		}
		return true
	}
	return false
}

func isNumber(v interface{}) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			out[k] = cloneValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
