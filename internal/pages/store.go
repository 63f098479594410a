package pages

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/any-hub/pagetree/internal/content"
	"github.com/any-hub/pagetree/internal/scheme"
)

// Options 描述一个 Store 所需的站点配置。
type Options struct {
	// Root 是内容根目录的绝对路径。
	Root string
	// FS 可替换底层文件系统，为空时以 Root 创建 osfs。
	FS              billy.Filesystem
	Ext             string
	Languages       []string
	DefaultLanguage string
	// Language 是本次请求的活动语言，为空时使用 DefaultLanguage。
	Language       string
	IndexRoute     string
	ErrorRoute     string
	DisallowedExts []string
	Schemes        *scheme.Registry
	Hooks          *HookRegistry
	Logger         logrus.FieldLogger
	Now            func() time.Time
}

// Store 是单次请求内的页面记忆表，同一路径始终对应同一个 *Page。非并发安全。
type Store struct {
	fs       billy.Filesystem
	root     string
	opts     Options
	matcher  *content.Matcher
	lang     string
	site     *Site
	nodes    map[string]*Page
	routes   map[string]string
	logger   logrus.FieldLogger
	collator *collate.Collator
}

// NewStore 基于内容根目录创建 Store。
func NewStore(opts Options) (*Store, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fsError("open", opts.Root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fsError("open", root, err)
	}
	if !info.IsDir() {
		return nil, preconditionFailed("open", root, "content root is not a directory")
	}
	opts.Root = root
	if opts.FS == nil {
		opts.FS = osfs.New(root, osfs.WithBoundOS())
	}
	if opts.Ext == "" {
		opts.Ext = ".md"
	}
	if opts.IndexRoute == "" {
		opts.IndexRoute = "/home"
	}
	if opts.ErrorRoute == "" {
		opts.ErrorRoute = "/error"
	}
	if opts.Schemes == nil {
		opts.Schemes = scheme.NewRegistry()
	}
	if opts.Hooks == nil {
		opts.Hooks = NewHookRegistry()
	}
	if opts.Logger == nil {
		logger := logrus.New()
		logger.SetOutput(os.Stderr)
		opts.Logger = logger
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	lang := opts.Language
	if lang == "" {
		lang = opts.DefaultLanguage
	}

	s := &Store{
		fs:       opts.FS,
		root:     root,
		opts:     opts,
		matcher:  content.NewMatcher(opts.Ext),
		lang:     lang,
		nodes:    make(map[string]*Page),
		routes:   make(map[string]string),
		logger:   opts.Logger,
		collator: collate.New(language.Und, collate.IgnoreCase, collate.Numeric),
	}
	s.site = &Site{traversal: traversal{store: s, root: true}}
	return s, nil
}

// Site 返回根节点。
func (s *Store) Site() *Site {
	return s.site
}

// Root 返回内容根目录的绝对路径。
func (s *Store) Root() string {
	return s.root
}

// Language 返回活动语言。
func (s *Store) Language() string {
	return s.lang
}

// Schemes 返回 scheme 注册表。
func (s *Store) Schemes() *scheme.Registry {
	return s.opts.Schemes
}

// RetrievePage 返回 dir 对应的页面，首次访问时从磁盘加载。目录不存在时返回
// HasContentFile() 为 false 的页面；只有权限等文件系统错误才会返回 error。
func (s *Store) RetrievePage(dir string) (*Page, error) {
	rel := s.rel(dir)
	if rel == "" {
		return nil, invalidValue("retrieve", s.root, "content root is the site, not a page")
	}
	if p, ok := s.nodes[rel]; ok {
		return p, nil
	}
	p, err := s.load(rel, nil)
	if err != nil {
		return nil, err
	}
	s.remember(p)
	return p, nil
}

// RetrievePages 列出 dir 下带内容文件的子页面，跳过 _ 开头的目录，按相对路径自然序排列。
func (s *Store) RetrievePages(dir string, recursive bool) (*Collection, error) {
	var items []*Page
	if err := s.collect(s.rel(dir), recursive, &items); err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return s.comparePaths(items[i].dir, items[j].dir) < 0
	})
	return NewCollection(items...), nil
}

func (s *Store) collect(rel string, recursive bool, out *[]*Page) error {
	entries, err := s.fs.ReadDir(s.fsPath(rel))
	if err != nil {
		return readError("list", s.abs(rel), err)
	}
	for _, entry := range entries {
		if !entry.IsDir() || hiddenEntry(entry.Name()) {
			continue
		}
		child := path.Join(rel, entry.Name())
		p, err := s.RetrievePage(child)
		if err != nil {
			return err
		}
		if p.HasContentFile() {
			*out = append(*out, p)
		}
		if recursive {
			if err := s.collect(child, true, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// FindPage 按路由逐段查找页面：每一段匹配去掉数字前缀后的目录名，任一段失败即返回 nil。
// 路由 "/" 返回配置的首页。
func (s *Store) FindPage(route string) (*Page, error) {
	route = NormalizeRoute(route)
	if route == "/" {
		route = NormalizeRoute(s.opts.IndexRoute)
	}
	if rel, ok := s.routes[route]; ok {
		if p, ok := s.nodes[rel]; ok && p.HasContentFile() {
			return p, nil
		}
	}

	dir := ""
	for _, seg := range splitRoute(route) {
		entries, err := s.fs.ReadDir(s.fsPath(dir))
		if err != nil {
			return nil, readError("find", s.abs(dir), err)
		}
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() && !hiddenEntry(entry.Name()) {
				names = append(names, entry.Name())
			}
		}
		sort.Slice(names, func(i, j int) bool { return s.collator.CompareString(names[i], names[j]) < 0 })
		next := ""
		for _, name := range names {
			if StripNumPrefix(name) == seg {
				next = name
				break
			}
		}
		if next == "" {
			return nil, nil
		}
		dir = path.Join(dir, next)
	}
	if dir == "" {
		return nil, nil
	}
	p, err := s.RetrievePage(dir)
	if err != nil {
		return nil, err
	}
	if !p.HasContentFile() {
		return nil, nil
	}
	return p, nil
}

// Reload 丢弃 dir 对应的节点并从磁盘重新构建，返回新实例。
func (s *Store) Reload(dir string) (*Page, error) {
	rel := s.rel(dir)
	s.forget(rel)
	return s.RetrievePage(rel)
}

// remember 将页面写入记忆表并登记路由，路由冲突时保留先登记的页面。
func (s *Store) remember(p *Page) {
	s.nodes[p.dir] = p
	if !p.HasContentFile() {
		return
	}
	route := p.RawRoute()
	if existing, ok := s.routes[route]; ok && existing != p.dir {
		s.logger.WithFields(logrus.Fields{
			"action":   "route_conflict",
			"route":    route,
			"path":     p.dir,
			"existing": existing,
		}).Warn("duplicate route ignored")
		return
	}
	s.routes[route] = p.dir
}

// forget 移除节点及其所有后代的记忆，路径变化或删除后调用。
func (s *Store) forget(rel string) {
	prefix := rel + "/"
	for key := range s.nodes {
		if key == rel || strings.HasPrefix(key, prefix) {
			delete(s.nodes, key)
		}
	}
	for route, key := range s.routes {
		if key == rel || strings.HasPrefix(key, prefix) {
			delete(s.routes, route)
		}
	}
}

// rel 将调用方传入的路径转换为相对内容根的 slash 路径，根目录为 ""。
func (s *Store) rel(dir string) string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return ""
	}
	if filepath.IsAbs(dir) {
		if r, err := filepath.Rel(s.root, dir); err == nil && !strings.HasPrefix(r, "..") {
			dir = filepath.ToSlash(r)
		}
	}
	cleaned := path.Clean("/" + filepath.ToSlash(dir))
	return strings.TrimPrefix(cleaned, "/")
}

// fsPath 返回 billy 使用的路径，根目录用 "."。
func (s *Store) fsPath(rel string) string {
	if rel == "" {
		return "."
	}
	return rel
}

func (s *Store) abs(rel string) string {
	if rel == "" {
		return s.root
	}
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// comparePaths 按段比较相对路径，段内使用数字感知、大小写不敏感的自然序。
func (s *Store) comparePaths(a, b string) int {
	as := strings.Split(a, "/")
	bs := strings.Split(b, "/")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := s.collator.CompareString(as[i], bs[i]); c != 0 {
			return c
		}
		if c := strings.Compare(as[i], bs[i]); c != 0 {
			return c
		}
	}
	return len(as) - len(bs)
}

// Touch 更新内容根目录的 mtime，作为全站缓存版本戳。
func (s *Store) Touch() error {
	return TouchRoot(s.fs, s.root, s.opts.Now())
}

// TouchRoot 更新 root 的 mtime。billy 文件系统支持 Change 时走 Chtimes，否则直接操作 OS 路径。
func TouchRoot(fs billy.Filesystem, root string, now time.Time) error {
	if changer, ok := fs.(billy.Change); ok {
		if err := changer.Chtimes(".", now, now); err == nil {
			return nil
		}
	}
	if err := os.Chtimes(root, now, now); err != nil {
		return fsError("touch", root, err)
	}
	return nil
}

// Watermark 返回内容根目录的 mtime（Unix 纳秒），缓存命中前需与缓存时间比较。
func Watermark(root string) (int64, error) {
	info, err := os.Stat(root)
	if err != nil {
		return 0, fsError("stat", root, err)
	}
	return info.ModTime().UnixNano(), nil
}
