package pages

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/util"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/pagetree/internal/content"
	"github.com/any-hub/pagetree/internal/scheme"
)

const metaSidecarSuffix = ".meta.yaml"

// load 从磁盘构建 rel 对应的页面。目录不存在或不是目录时得到一个没有内容文件的页面。
func (s *Store) load(rel string, data map[string]interface{}) (*Page, error) {
	p := &Page{traversal: traversal{store: s, dir: rel}}
	p.slug = StripNumPrefix(path.Base(rel))
	if n, width, ok := parseNumPrefix(path.Base(rel)); ok {
		p.folderNum = &n
		p.numWidth = width
	}

	var files []content.FileName
	entries, err := s.fs.ReadDir(rel)
	if err != nil {
		if ferr := readError("load", s.abs(rel), err); ferr != nil {
			return nil, ferr
		}
		entries = nil
	}
	mods := make(map[string]int, len(entries))
	for i, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if f, ok := s.matcher.Parse(name); ok {
			// 模板未注册的同扩展名文件（如 README.md）不算内容文件，也不作为媒体
			if _, known := s.opts.Schemes.Resolve(f.Template); known {
				files = append(files, f)
				mods[f.String(s.matcher.Ext())] = i
			}
			continue
		}
		if s.mediaAllowed(name) {
			p.media = append(p.media, Media{
				Name:    name,
				Path:    filepath.Join(s.abs(rel), name),
				Size:    entry.Size(),
				ModTime: entry.ModTime(),
			})
		}
	}

	header := map[string]interface{}{}
	template := scheme.DefaultTemplate()
	if len(files) > 0 {
		groups, langs := content.GroupByLang(files)
		p.langs = langs
		chosen := langs[0]
		if _, ok := groups[s.lang]; ok {
			chosen = s.lang
		}
		p.file = groups[chosen][0]
		p.diskFile = p.file
		p.hasFile = true
		template = p.file.Template

		name := p.file.String(s.matcher.Ext())
		p.fileMod = entries[mods[name]].ModTime()
		raw, err := util.ReadFile(s.fs, path.Join(rel, name))
		if err != nil {
			if ferr := readError("load", s.abs(rel), err); ferr != nil {
				return nil, ferr
			}
		}
		doc, err := content.Parse(raw)
		if err != nil {
			s.logger.WithFields(logrus.Fields{"action": "page_load", "path": rel}).WithError(err).Warn("front matter ignored")
			doc = content.Document{Header: map[string]interface{}{}, Body: string(raw)}
		}
		header = doc.Header
		p.body = doc.Body
	}
	for key := range header {
		if key == "slug" || key == "route" || key == "num" {
			delete(header, key)
		}
	}

	p.template = template
	p.scheme = s.opts.Schemes.Lookup(template)
	p.header = header
	p.attrs = p.scheme.CloneDefaults()
	for k, v := range data {
		p.attrs[k] = cloneValue(v)
	}
	for k, v := range header {
		p.attrs[k] = v
	}
	if p.hasFile {
		p.attrs["content"] = p.body
	}
	p.initFields()
	p.deriveNum()

	if hooks, ok := s.opts.Hooks.Fetch(p.template); ok && hooks.Loaded != nil {
		hooks.Loaded(p)
	}
	return p, nil
}

// initFields 强制写入 slug/parent/template 并校验必填字段。加载阶段只记录告警。
func (p *Page) initFields() {
	p.attrs["slug"] = p.slug
	p.attrs["template"] = p.template
	p.attrs["parent"] = routeFromPath(p.parentPath())
	if !p.hasFile {
		return
	}
	for _, missing := range p.missingRequired() {
		p.store.logger.WithFields(logrus.Fields{
			"action":   "page_validate",
			"path":     p.dir,
			"template": p.template,
			"field":    missing,
		}).Warn("required field missing")
	}
}

func (p *Page) missingRequired() []string {
	var missing []string
	for _, key := range p.scheme.Required {
		v, ok := p.attrs[key]
		if !ok || v == nil {
			missing = append(missing, key)
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// mediaAllowed 过滤隐藏文件、元数据旁路文件与禁止的扩展名。
func (s *Store) mediaAllowed(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasSuffix(strings.ToLower(name), metaSidecarSuffix) {
		return false
	}
	ext := strings.ToLower(path.Ext(name))
	for _, disallowed := range s.opts.DisallowedExts {
		if ext == strings.ToLower(disallowed) {
			return false
		}
	}
	return true
}

// NewPage 在 parent 下创建一个尚未落盘的页面。默认排序下 num 取兄弟页面最大值加一，
// 日期排序下取当天日期。
func (s *Store) NewPage(parent Node, slug, template string, data map[string]interface{}) (*Page, error) {
	if parent == nil {
		return nil, preconditionFailed("new", "", "parent is required")
	}
	if err := validateSlug(slug); err != nil {
		return nil, err
	}
	if template == "" {
		template = scheme.DefaultTemplate()
	}
	if err := validateTemplate(s.opts.Schemes, template); err != nil {
		return nil, err
	}
	siblings, err := s.siblingsOf(parent.Dir(), "")
	if err != nil {
		return nil, err
	}
	for _, sibling := range siblings.Pages() {
		if sibling.slug == slug {
			return nil, invalidValue("new", sibling.dir, "route %s already exists", sibling.RawRoute())
		}
	}

	p := &Page{traversal: traversal{store: s, parentDir: parent.Dir()}}
	p.slug = slug
	p.template = strings.ToLower(template)
	p.scheme = s.opts.Schemes.Lookup(p.template)
	p.header = map[string]interface{}{}
	p.file = content.FileName{Template: p.template}
	if s.lang != "" && s.lang != s.opts.DefaultLanguage {
		p.file.Lang = s.lang
	}
	p.attrs = p.scheme.CloneDefaults()
	for k, v := range data {
		if _, derived := derivedKeys[k]; derived {
			continue
		}
		p.attrs[k] = cloneValue(v)
		p.header[k] = cloneValue(v)
	}
	p.attrs["content"] = ""
	p.initFields()

	if p.scheme.DateOrdered() {
		date := p.Date()
		if date.IsZero() {
			date = s.opts.Now()
		}
		n := dateNum(date)
		p.num = &n
	} else {
		next := 1
		for _, sibling := range siblings.Pages() {
			if n, ok := sibling.Num(); ok && n >= next {
				next = n + 1
			}
			if sibling.numWidth > p.numWidth {
				p.numWidth = sibling.numWidth
			}
		}
		p.folderNum = &next
		p.num = &next
	}
	return p, nil
}

// deriveNum 计算 num：日期排序取日期字段（回退内容文件 mtime）的 YYYYMMDD，否则取目录前缀。
func (p *Page) deriveNum() {
	if p.scheme.DateOrdered() {
		if date := p.Date(); !date.IsZero() {
			n := dateNum(date)
			p.num = &n
			return
		}
	}
	p.num = p.folderNum
}
