package pages

import (
	"path"
)

// Traversable 是页面与站点根共有的树遍历能力。
type Traversable interface {
	Parent() Node
	Children() *Collection
	HasChildren() bool
	Descendants() *Collection
	Siblings() *Collection
}

// Node 是页面树上的任意节点：*Page 或 *Site。
type Node interface {
	Traversable
	IsSite() bool
	Dir() string
	Route() string
}

// traversal 为 Page 与 Site 提供同一份遍历实现，节点只需给出自己的目录。
type traversal struct {
	store *Store
	// dir 是节点相对内容根的目录，未保存的页面为空。
	dir string
	// parentDir 仅用于未保存的页面，记录其挂载位置。
	parentDir string
	root      bool
}

// Dir 返回节点相对内容根的目录。
func (t traversal) Dir() string {
	return t.dir
}

// IsSite 表示是否为站点根。
func (t traversal) IsSite() bool {
	return t.root
}

func (t traversal) persisted() bool {
	return t.root || t.dir != ""
}

// Parent 返回父节点，站点根返回 nil，顶层页面返回站点根。
// 父目录没有内容文件时向上取最近的带内容文件的祖先，一直没有则返回站点根。
func (t traversal) Parent() Node {
	if t.root {
		return nil
	}
	for dir := t.parentPath(); dir != ""; dir = parentOf(dir) {
		p, err := t.store.RetrievePage(dir)
		if err != nil {
			t.store.logger.WithError(err).WithField("path", dir).Warn("load parent failed")
			return nil
		}
		if p.HasContentFile() {
			return p
		}
	}
	return t.store.site
}

// parentPath 返回父目录的相对路径，尚未落盘的页面取创建时指定的父目录。
func (t traversal) parentPath() string {
	if t.dir == "" {
		return t.parentDir
	}
	return parentOf(t.dir)
}

func parentOf(dir string) string {
	parent := path.Dir(dir)
	if parent == "." || parent == "/" {
		return ""
	}
	return parent
}

// Children 返回直接子页面，按本节点 scheme 的排序方式排列。
func (t traversal) Children() *Collection {
	if !t.persisted() {
		return NewCollection()
	}
	items, err := t.store.RetrievePages(t.dir, false)
	if err != nil {
		t.store.logger.WithError(err).WithField("path", t.dir).Warn("list children failed")
		return NewCollection()
	}
	return t.store.order(t.dir, items)
}

// HasChildren 表示是否存在带内容文件的子目录。
func (t traversal) HasChildren() bool {
	if !t.persisted() {
		return false
	}
	items, err := t.store.RetrievePages(t.dir, false)
	// 读取失败按有子页面处理，删除保护不会因此放行
	return err != nil || items.Len() > 0
}

// Descendants 返回所有后代页面，按相对路径自然序排列。
func (t traversal) Descendants() *Collection {
	if !t.persisted() {
		return NewCollection()
	}
	items, err := t.store.RetrievePages(t.dir, true)
	if err != nil {
		t.store.logger.WithError(err).WithField("path", t.dir).Warn("list descendants failed")
		return NewCollection()
	}
	return items
}

// Siblings 返回同一目录下的其它页面，按该目录对应节点的 scheme 排序。
func (t traversal) Siblings() *Collection {
	if t.root {
		return NewCollection()
	}
	items, err := t.store.siblingsOf(t.parentPath(), t.dir)
	if err != nil {
		t.store.logger.WithError(err).WithField("path", t.dir).Warn("list siblings failed")
		return NewCollection()
	}
	return items
}

// siblingsOf 列出 parentDir 下除 self 以外的页面，不要求 parentDir 自身有内容文件。
func (s *Store) siblingsOf(parentDir, self string) (*Collection, error) {
	if parentDir != "" {
		// 先载入父目录节点，排序依赖它的 scheme
		if _, err := s.RetrievePage(parentDir); err != nil {
			return nil, err
		}
	}
	items, err := s.RetrievePages(parentDir, false)
	if err != nil {
		return nil, err
	}
	if self != "" {
		items = items.Filter(func(p *Page) bool { return p.dir != self })
	}
	return s.order(parentDir, items), nil
}

// Ancestors 返回从父页面到顶层页面的祖先链，不含站点根。
func (t traversal) Ancestors() *Collection {
	var items []*Page
	for node := t.Parent(); node != nil && !node.IsSite(); node = node.Parent() {
		if p, ok := node.(*Page); ok {
			items = append(items, p)
		}
	}
	return NewCollection(items...)
}
