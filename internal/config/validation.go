package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/any-hub/pagetree/internal/scheme"
)

// 响应缓存驱动。
const (
	CacheDriverFile   = "file"
	CacheDriverMemory = "memory"
	CacheDriverSQLite = "sqlite"
	CacheDriverNone   = "none"
)

var supportedCacheDrivers = map[string]struct{}{
	CacheDriverFile:   {},
	CacheDriverMemory: {},
	CacheDriverSQLite: {},
	CacheDriverNone:   {},
}

const supportedCacheDriverList = "file|memory|sqlite|none"

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if strings.TrimSpace(g.ContentPath) == "" {
		return newFieldError("Global.ContentPath", "不能为空")
	}
	if !strings.HasPrefix(g.ContentExt, ".") || len(g.ContentExt) < 2 {
		return newFieldError("Global.ContentExt", "必须以 . 开头")
	}
	if _, ok := supportedCacheDrivers[g.CacheDriver]; !ok {
		return newFieldError("Global.CacheDriver", "仅支持 "+supportedCacheDriverList)
	}
	if (g.CacheDriver == CacheDriverFile || g.CacheDriver == CacheDriverSQLite) && g.CachePath == "" {
		return newFieldError("Global.CachePath", "file/sqlite 驱动需要缓存目录")
	}
	if g.CacheTTL.DurationValue() <= 0 {
		return newFieldError("Global.CacheTTL", "必须大于 0")
	}
	if g.SearchMinLength <= 0 {
		return newFieldError("Global.SearchMinLength", "必须大于 0")
	}
	if g.PageSize <= 0 {
		return newFieldError("Global.PageSize", "必须大于 0")
	}
	if err := validateRoute(g.IndexRoute); err != nil {
		return fmt.Errorf("Global.IndexRoute: %w", err)
	}
	if err := validateRoute(g.ErrorRoute); err != nil {
		return fmt.Errorf("Global.ErrorRoute: %w", err)
	}

	for _, lang := range g.Languages {
		if err := ValidateLanguage(lang); err != nil {
			return newFieldError("Global.Languages", err.Error())
		}
	}
	if g.DefaultLanguage != "" {
		if err := ValidateLanguage(g.DefaultLanguage); err != nil {
			return newFieldError("Global.DefaultLanguage", err.Error())
		}
		if len(g.Languages) > 0 && !containsString(g.Languages, g.DefaultLanguage) {
			return newFieldError("Global.DefaultLanguage", "必须出现在 Languages 中")
		}
	}
	for _, ext := range g.DisallowedExts {
		if !strings.HasPrefix(ext, ".") {
			return newFieldError("Global.DisallowedExts", fmt.Sprintf("%s 必须以 . 开头", ext))
		}
	}

	for from, to := range c.Aliases {
		if err := validateRoute(from); err != nil {
			return fmt.Errorf("Aliases[%s]: %w", from, err)
		}
		if err := validateRoute(to); err != nil {
			return fmt.Errorf("Aliases[%s]: %w", from, err)
		}
		if from == to {
			return newFieldError(fmt.Sprintf("Aliases[%s]", from), "不能指向自身")
		}
	}

	seen := map[string]struct{}{}
	for i := range c.Schemes {
		s := &c.Schemes[i]
		if s.Template == "" {
			return newFieldError("Scheme[].Template", "不能为空")
		}
		if _, exists := seen[s.Template]; exists {
			return newFieldError(schemeField(s.Template, "Template"), "重复")
		}
		seen[s.Template] = struct{}{}

		if _, err := scheme.ParseOrderMode(s.OrderBy); err != nil {
			return newFieldError(schemeField(s.Template, "OrderBy"), "仅支持 default/date/title/folder")
		}
		if _, err := scheme.ParseOrderDir(s.OrderDir); err != nil {
			return newFieldError(schemeField(s.Template, "OrderDir"), "仅支持 asc/desc")
		}
	}

	return nil
}

// ValidateLanguage 校验语言代码是否为合法的 BCP 47 标签。
func ValidateLanguage(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return errors.New("语言代码不能为空")
	}
	if _, err := language.Parse(code); err != nil {
		return fmt.Errorf("非法语言代码 %s: %w", code, err)
	}
	return nil
}

func validateRoute(route string) error {
	if route == "" {
		return errors.New("路由不能为空")
	}
	if !strings.HasPrefix(route, "/") {
		return errors.New("路由必须以 / 开头")
	}
	if strings.Contains(route, " ") {
		return errors.New("路由不允许包含空格")
	}
	return nil
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}

// EffectiveCacheTTL 返回响应缓存条目的 TTL。
func (c *Config) EffectiveCacheTTL() time.Duration {
	return c.Global.CacheTTL.DurationValue()
}
