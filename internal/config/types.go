package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if seconds, err := time.ParseDuration(raw); err == nil {
		*d = Duration(seconds)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// GlobalConfig 描述全局运行时行为：监听端口、日志、内容目录与响应缓存。
type GlobalConfig struct {
	ListenPort      int      `mapstructure:"ListenPort"`
	LogLevel        string   `mapstructure:"LogLevel"`
	LogFilePath     string   `mapstructure:"LogFilePath"`
	LogMaxSize      int      `mapstructure:"LogMaxSize"`
	LogMaxBackups   int      `mapstructure:"LogMaxBackups"`
	LogCompress     bool     `mapstructure:"LogCompress"`
	ContentPath     string   `mapstructure:"ContentPath"`
	ContentExt      string   `mapstructure:"ContentExt"`
	Languages       []string `mapstructure:"Languages"`
	DefaultLanguage string   `mapstructure:"DefaultLanguage"`
	IndexRoute      string   `mapstructure:"IndexRoute"`
	ErrorRoute      string   `mapstructure:"ErrorRoute"`
	CacheDriver     string   `mapstructure:"CacheDriver"`
	CachePath       string   `mapstructure:"CachePath"`
	CacheTTL        Duration `mapstructure:"CacheTTL"`
	WatchContent    bool     `mapstructure:"WatchContent"`
	SearchMinLength int      `mapstructure:"SearchMinLength"`
	StopWords       []string `mapstructure:"StopWords"`
	DisallowedExts  []string `mapstructure:"DisallowedExts"`
	PageSize        int      `mapstructure:"PageSize"`
}

// SchemeConfig 允许在配置文件中为某个模板声明默认字段与排序/分页选项。
// 指针字段为空时沿用内置 scheme 的取值。
type SchemeConfig struct {
	Template      string                 `mapstructure:"Template"`
	Description   string                 `mapstructure:"Description"`
	OrderBy       string                 `mapstructure:"OrderBy"`
	OrderDir      string                 `mapstructure:"OrderDir"`
	DateField     string                 `mapstructure:"DateField"`
	Pagination    *bool                  `mapstructure:"Pagination"`
	Taxonomy      *bool                  `mapstructure:"Taxonomy"`
	AllowChildren *bool                  `mapstructure:"AllowChildren"`
	Required      []string               `mapstructure:"Required"`
	Defaults      map[string]interface{} `mapstructure:"Defaults"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global  GlobalConfig      `mapstructure:",squash"`
	Aliases map[string]string `mapstructure:"Aliases"`
	Schemes []SchemeConfig    `mapstructure:"Scheme"`
}

// CacheEnabled 表示是否启用响应缓存；CacheDriver 为 none 时关闭。
func (g GlobalConfig) CacheEnabled() bool {
	return g.CacheDriver != CacheDriverNone
}
