package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// DefaultStopWords 是搜索时默认丢弃的英文停用词。
var DefaultStopWords = []string{
	"a", "an", "and", "are", "as", "at", "be", "but", "by", "for", "from", "has", "have",
	"in", "into", "is", "it", "its", "of", "on", "or", "that", "the", "their", "this",
	"to", "was", "were", "will", "with",
}

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	if err := rejectStorageKeys(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	cfg.Aliases = normalizeAliases(cfg.Aliases)
	for i := range cfg.Schemes {
		applySchemeDefaults(&cfg.Schemes[i])
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	absContent, err := filepath.Abs(cfg.Global.ContentPath)
	if err != nil {
		return nil, fmt.Errorf("无法解析内容目录: %w", err)
	}
	cfg.Global.ContentPath = absContent

	if cfg.Global.CachePath != "" {
		absCache, err := filepath.Abs(cfg.Global.CachePath)
		if err != nil {
			return nil, fmt.Errorf("无法解析缓存目录: %w", err)
		}
		cfg.Global.CachePath = absCache
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 5000)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("ContentPath", "./content")
	v.SetDefault("ContentExt", ".md")
	v.SetDefault("IndexRoute", "/home")
	v.SetDefault("ErrorRoute", "/error")
	v.SetDefault("CacheDriver", CacheDriverFile)
	v.SetDefault("CachePath", "./cache")
	v.SetDefault("CacheTTL", "1h")
	v.SetDefault("WatchContent", false)
	v.SetDefault("SearchMinLength", 4)
	v.SetDefault("DisallowedExts", []string{".php", ".exe", ".sh"})
	v.SetDefault("PageSize", 10)
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = 5000
	}
	if g.ContentExt == "" {
		g.ContentExt = ".md"
	}
	g.ContentExt = strings.ToLower(strings.TrimSpace(g.ContentExt))
	if g.CacheTTL.DurationValue() == 0 {
		g.CacheTTL = Duration(time.Hour)
	}
	g.CacheDriver = strings.ToLower(strings.TrimSpace(g.CacheDriver))
	if g.CacheDriver == "" {
		g.CacheDriver = CacheDriverFile
	}
	if g.SearchMinLength <= 0 {
		g.SearchMinLength = 4
	}
	if len(g.StopWords) == 0 {
		g.StopWords = append([]string(nil), DefaultStopWords...)
	}
	if g.PageSize <= 0 {
		g.PageSize = 10
	}
	for i, lang := range g.Languages {
		g.Languages[i] = strings.TrimSpace(lang)
	}
	if g.DefaultLanguage == "" && len(g.Languages) > 0 {
		g.DefaultLanguage = g.Languages[0]
	}
	for i, ext := range g.DisallowedExts {
		g.DisallowedExts[i] = strings.ToLower(strings.TrimSpace(ext))
	}
}

func applySchemeDefaults(s *SchemeConfig) {
	s.Template = strings.ToLower(strings.TrimSpace(s.Template))
	s.OrderBy = strings.ToLower(strings.TrimSpace(s.OrderBy))
	s.OrderDir = strings.ToLower(strings.TrimSpace(s.OrderDir))
	if s.Defaults == nil {
		s.Defaults = map[string]interface{}{}
	}
}

// normalizeAliases 去除别名两侧空白并统一去掉尾部斜杠，与路由归一化规则保持一致。
func normalizeAliases(raw map[string]string) map[string]string {
	if len(raw) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(raw))
	for from, to := range raw {
		out[trimRoute(from)] = trimRoute(to)
	}
	return out
}

func trimRoute(route string) string {
	route = strings.TrimSpace(route)
	if len(route) > 1 {
		route = strings.TrimSuffix(route, "/")
	}
	return route
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}

// rejectStorageKeys 拒绝旧版 StoragePath 写法，提示改用 CachePath。
func rejectStorageKeys(v *viper.Viper) error {
	if v.IsSet("StoragePath") {
		return newFieldError("Global.StoragePath", "字段已弃用，请改用 CachePath")
	}

	raw := v.Get("Scheme")
	schemes, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	for idx, entry := range schemes {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		defaults, ok := lookupFold(m, "Defaults").(map[string]interface{})
		if !ok {
			continue
		}
		for _, key := range []string{"route", "slug", "num"} {
			if lookupFold(defaults, key) == nil {
				continue
			}
			name := fmt.Sprintf("#%d", idx)
			if rawName, ok := lookupFold(m, "Template").(string); ok && rawName != "" {
				name = rawName
			}
			return newFieldError(schemeField(name, "Defaults."+key), "派生字段不能设置默认值")
		}
	}
	return nil
}

// lookupFold 按大小写不敏感的方式读取 map 键，兼容 viper 对嵌套表键名的处理差异。
func lookupFold(m map[string]interface{}, key string) interface{} {
	if v, ok := m[key]; ok {
		return v
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return nil
}
