package pages

import (
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/ohler55/ojg/jp"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/any-hub/pagetree/internal/content"
	"github.com/any-hub/pagetree/internal/scheme"
)

// 由目录结构推导、不从 front matter 读取也不写回的键。
var derivedKeys = map[string]struct{}{
	"slug":     {},
	"route":    {},
	"num":      {},
	"parent":   {},
	"template": {},
	"content":  {},
}

// Media 是页面目录中与内容文件同处的普通文件。
type Media struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modified"`
}

// Page 是内容目录树中的一个页面节点。属性由 scheme 默认值、构造数据、front matter
// 与正文依次合并而成；route/slug/num 始终由目录结构推导。
type Page struct {
	traversal

	// file 是写回时使用的内容文件名，diskFile 是加载时磁盘上的文件名。
	file      content.FileName
	diskFile  content.FileName
	hasFile   bool
	fileMod   time.Time
	langs     []string
	template  string
	scheme    scheme.Scheme
	header    map[string]interface{}
	attrs     map[string]interface{}
	body      string
	slug      string
	num       *int
	folderNum *int
	numWidth  int
	media     []Media
	summary   *string
}

// ID 返回由相对路径推导的 64 位标识，适合作为界面中的唯一 id。
func (p *Page) ID() uint64 {
	key := p.dir
	if key == "" {
		key = path.Join(p.parentDir, p.slug)
	}
	return xxhash.Sum64String(key)
}

// IDString 以十六进制返回 ID。
func (p *Page) IDString() string {
	return strconv.FormatUint(p.ID(), 16)
}

// Path 返回相对内容根的目录，未保存的页面为空。
func (p *Page) Path() string {
	return p.dir
}

// FilePath 返回页面目录的绝对路径，未保存的页面为空。
func (p *Page) FilePath() string {
	if p.dir == "" {
		return ""
	}
	return p.store.abs(p.dir)
}

// Exists 表示页面目录是否已落盘。
func (p *Page) Exists() bool {
	return p.dir != ""
}

// HasContentFile 表示目录中是否找到了内容文件。
func (p *Page) HasContentFile() bool {
	return p.hasFile
}

// ContentFile 返回内容文件的绝对路径。
func (p *Page) ContentFile() string {
	if !p.hasFile || p.dir == "" {
		return ""
	}
	return filepath.Join(p.FilePath(), p.file.String(p.store.matcher.Ext()))
}

// RawRoute 返回未做首页替换的路由，例如首页返回 "/home"。
func (p *Page) RawRoute() string {
	if p.slug == "" {
		return ""
	}
	return NormalizeRoute(path.Join(routeFromPath(p.parentPath()), p.slug))
}

// Route 返回页面的对外路由，首页为 "/"。
func (p *Page) Route() string {
	raw := p.RawRoute()
	if raw != "" && raw == NormalizeRoute(p.store.opts.IndexRoute) {
		return "/"
	}
	return raw
}

// IsIndex 表示是否为配置的首页。
func (p *Page) IsIndex() bool {
	return p.RawRoute() == NormalizeRoute(p.store.opts.IndexRoute)
}

// IsError 表示是否为配置的错误页。
func (p *Page) IsError() bool {
	return p.RawRoute() == NormalizeRoute(p.store.opts.ErrorRoute)
}

// Slug 返回目录名去掉数字前缀后的部分。
func (p *Page) Slug() string {
	return p.slug
}

// Num 返回排序序号，没有时 ok 为 false。
func (p *Page) Num() (int, bool) {
	if p.num == nil {
		return 0, false
	}
	return *p.num, true
}

// Template 返回内容文件决定的模板名。
func (p *Page) Template() string {
	return p.template
}

// Scheme 返回模板对应的 scheme。
func (p *Page) Scheme() scheme.Scheme {
	return p.scheme
}

// Language 返回当前选中的内容文件语言，默认语言为空串。
func (p *Page) Language() string {
	return p.file.Lang
}

// Translations 返回目录中存在的全部语言变体。
func (p *Page) Translations() []string {
	return append([]string(nil), p.langs...)
}

// Title 返回 title 字段，缺失时由 slug 推导。
func (p *Page) Title() string {
	if title, ok := p.attrs["title"].(string); ok && strings.TrimSpace(title) != "" {
		return title
	}
	return cases.Title(language.English).String(strings.NewReplacer("-", " ", "_", " ").Replace(p.slug))
}

// Content 返回内容文件正文。
func (p *Page) Content() string {
	return p.body
}

// Summary 返回 summary 字段，缺失时截取正文纯文本。
func (p *Page) Summary() string {
	if p.summary != nil {
		return *p.summary
	}
	text := ""
	if v, ok := p.attrs["summary"].(string); ok && strings.TrimSpace(v) != "" {
		text = v
	} else if s, err := content.Summary(p.body, content.DefaultSummarySize); err == nil {
		text = s
	}
	p.summary = &text
	return text
}

// Get 返回合并后的属性值。
func (p *Page) Get(key string) (interface{}, bool) {
	v, ok := p.attrs[key]
	return v, ok
}

// Text 以字符串形式返回属性值。
func (p *Page) Text(key string) string {
	v, ok := p.attrs[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Value 按点号路径读取嵌套属性，例如 "author.name" 或 "taxonomy.tag[0]"。
func (p *Page) Value(expr string) (interface{}, bool) {
	if v, ok := p.attrs[expr]; ok {
		return v, true
	}
	x, err := jp.ParseString("$." + expr)
	if err != nil {
		return nil, false
	}
	v := x.First(p.attrs)
	return v, v != nil
}

// Header 返回原始 front matter 的副本。
func (p *Page) Header() map[string]interface{} {
	return cloneMap(p.header)
}

// Attributes 返回合并属性的副本。
func (p *Page) Attributes() map[string]interface{} {
	return cloneMap(p.attrs)
}

// ModTime 返回内容文件的修改时间。
func (p *Page) ModTime() time.Time {
	return p.fileMod
}

// Date 返回 scheme 日期字段（缺省 date）解析出的时间，缺失时回退内容文件 mtime。
func (p *Page) Date() time.Time {
	field := p.scheme.Options.DateField
	if field == "" {
		field = "date"
	}
	if t, ok := parseTime(p.attrs[field]); ok {
		return t
	}
	return p.fileMod
}

// Media 返回页面目录下的普通文件。
func (p *Page) Media() []Media {
	return append([]Media(nil), p.media...)
}

// Taxonomy 返回 taxonomy 字段，值统一为字符串切片。
func (p *Page) Taxonomy() map[string][]string {
	raw, ok := p.attrs["taxonomy"].(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string][]string, len(raw))
	for k, v := range raw {
		if values := content.StringList(v); len(values) > 0 {
			out[k] = values
		}
	}
	return out
}

// Routable 表示页面能否通过路由访问：没有路由时恒为 false，否则 routable 字段可关闭。
func (p *Page) Routable() bool {
	if p.RawRoute() == "" {
		return false
	}
	return p.flag("routable", true)
}

// Cacheable 表示渲染结果能否进入响应缓存。
func (p *Page) Cacheable() bool {
	if p.RawRoute() == "" {
		return false
	}
	return p.flag("cacheable", true)
}

// Visible 表示是否出现在导航列表中，默认取决于是否有 num。
func (p *Page) Visible() bool {
	return p.flag("visible", p.num != nil)
}

// Orderable 表示能否手工调整顺序：需要 num 且 scheme 不按日期排序。
func (p *Page) Orderable() bool {
	return p.num != nil && !p.scheme.DateOrdered()
}

// AllowChildren 由 scheme 决定。
func (p *Page) AllowChildren() bool {
	return p.scheme.Options.AllowChildren
}

// Published 综合 published 字段与 publish_date/unpublish_date。
func (p *Page) Published() bool {
	if !p.flag("published", true) {
		return false
	}
	now := p.store.opts.Now()
	if t, ok := parseTime(p.attrs["publish_date"]); ok && now.Before(t) {
		return false
	}
	if t, ok := parseTime(p.attrs["unpublish_date"]); ok && !now.Before(t) {
		return false
	}
	return true
}

func (p *Page) flag(key string, fallback bool) bool {
	v, ok := p.attrs[key]
	if !ok || v == nil {
		return fallback
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b
		}
	case int:
		return t != 0
	}
	return fallback
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
}

func parseTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		raw := strings.TrimSpace(t)
		if raw == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// dateNum 将时间格式化为 YYYYMMDD 整数。
func dateNum(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

func cloneMap(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return cloneMap(t)
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
