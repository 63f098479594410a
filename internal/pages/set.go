package pages

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/any-hub/pagetree/internal/scheme"
)

var (
	slugPattern     = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	templatePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

func validateSlug(slug string) error {
	if !slugPattern.MatchString(slug) || numPrefix.MatchString(slug) {
		return invalidValue("set", "", "invalid slug %q", slug)
	}
	return nil
}

// validateTemplate 要求模板已注册，否则写出的内容文件在加载时会被忽略。
func validateTemplate(schemes *scheme.Registry, template string) error {
	if !templatePattern.MatchString(strings.ToLower(template)) {
		return invalidValue("set", "", "invalid template %q", template)
	}
	if _, ok := schemes.Resolve(template); !ok {
		return invalidValue("set", "", "unknown template %q", template)
	}
	return nil
}

// SetSlug 修改 slug，与兄弟页面冲突时返回 InvalidValue 且不修改任何状态。
func (p *Page) SetSlug(slug string) error {
	if err := validateSlug(slug); err != nil {
		return err
	}
	if slug == p.slug {
		return nil
	}
	if err := p.checkSiblingSlug(slug); err != nil {
		return err
	}
	p.slug = slug
	p.attrs["slug"] = slug
	return nil
}

// checkSiblingSlug 直接列出父目录，父目录自身没有内容文件时同样能发现冲突。
func (p *Page) checkSiblingSlug(slug string) error {
	siblings, err := p.store.siblingsOf(p.parentPath(), p.dir)
	if err != nil {
		return err
	}
	for _, sibling := range siblings.Pages() {
		if sibling != p && sibling.slug == slug {
			return invalidValue("set", p.dir, "route %s already exists", sibling.RawRoute())
		}
	}
	return nil
}

// SetNum 修改排序序号。日期排序的页面由日期推导 num，不允许手工设置。
func (p *Page) SetNum(n int) error {
	if n < 0 {
		return invalidValue("set", p.dir, "num must not be negative")
	}
	if p.scheme.DateOrdered() {
		return invalidValue("set", p.dir, "num is derived from %s", p.scheme.Options.DateField)
	}
	p.folderNum = &n
	p.num = &n
	return nil
}

// ClearNum 去掉排序序号，页面将不再出现在导航中。
func (p *Page) ClearNum() {
	p.folderNum = nil
	if !p.scheme.DateOrdered() {
		p.num = nil
	}
}

// SetTemplate 切换模板，scheme 随之改变；保存时同一语言的旧内容文件会被删除。
func (p *Page) SetTemplate(template string) error {
	if err := validateTemplate(p.store.opts.Schemes, template); err != nil {
		return err
	}
	template = strings.ToLower(template)
	p.template = template
	p.scheme = p.store.opts.Schemes.Lookup(template)
	p.file.Template = template
	p.attrs["template"] = template
	p.deriveNum()
	return nil
}

// SetLanguage 切换写回的语言变体，code 为空表示默认语言。
func (p *Page) SetLanguage(code string) error {
	code = strings.TrimSpace(code)
	if code != "" {
		if _, err := language.Parse(code); err != nil {
			return invalidValue("set", p.dir, "invalid language %q", code)
		}
		if langs := p.store.opts.Languages; len(langs) > 0 && !containsFold(langs, code) {
			return invalidValue("set", p.dir, "language %q is not enabled", code)
		}
	}
	if code == p.store.opts.DefaultLanguage && !p.hasVariant(code) {
		code = ""
	}
	p.file.Lang = code
	return nil
}

func (p *Page) hasVariant(code string) bool {
	for _, lang := range p.langs {
		if lang == code {
			return true
		}
	}
	return false
}

// SetContent 替换正文。
func (p *Page) SetContent(body string) {
	p.body = body
	p.attrs["content"] = body
	p.summary = nil
}

// Set 修改一个属性。派生键经过对应的校验，route 与 parent 不可直接设置。
func (p *Page) Set(key string, value interface{}) error {
	switch key {
	case "route", "parent":
		return invalidValue("set", p.dir, "%s is derived from the directory layout", key)
	case "slug":
		s, ok := value.(string)
		if !ok {
			return invalidValue("set", p.dir, "slug must be a string")
		}
		return p.SetSlug(s)
	case "num":
		n, err := toInt(value)
		if err != nil {
			return invalidValue("set", p.dir, "num: %v", err)
		}
		return p.SetNum(n)
	case "template":
		s, ok := value.(string)
		if !ok {
			return invalidValue("set", p.dir, "template must be a string")
		}
		return p.SetTemplate(s)
	case "content":
		s, ok := value.(string)
		if !ok {
			return invalidValue("set", p.dir, "content must be a string")
		}
		p.SetContent(s)
		return nil
	case "":
		return invalidValue("set", p.dir, "empty key")
	}
	p.attrs[key] = cloneValue(value)
	p.header[key] = cloneValue(value)
	if key == "summary" {
		p.summary = nil
	}
	if key == p.scheme.Options.DateField && p.scheme.DateOrdered() {
		p.deriveNum()
	}
	return nil
}

// Unset 删除属性，scheme 中有默认值时恢复默认值。
func (p *Page) Unset(key string) {
	if _, derived := derivedKeys[key]; derived {
		return
	}
	delete(p.header, key)
	delete(p.attrs, key)
	if def, ok := p.scheme.Default(key); ok {
		p.attrs[key] = cloneValue(def)
	}
	if key == "summary" {
		p.summary = nil
	}
}

func toInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		if t != float64(int(t)) {
			return 0, fmt.Errorf("%v is not an integer", t)
		}
		return int(t), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(t))
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}
