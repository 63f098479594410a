package pages

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/util"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/pagetree/internal/content"
)

// Save 将页面写回磁盘并返回重新加载后的新实例。目录名随 num/slug 变化时整个目录被移动，
// 模板变化时旧内容文件被删除；内容没有变化时不写盘并返回自身。
func (p *Page) Save() (*Page, error) {
	return p.store.write(p, false)
}

// Duplicate 以 slug-copy、slug-copy-2 …… 的第一个可用 slug 复制整个页面目录。
func (p *Page) Duplicate() (*Page, error) {
	return p.store.write(p, true)
}

// Delete 删除页面。存在子页面、首页与错误页不可删除。多语言页面在 allLanguages 为 false
// 时只删除当前语言的内容文件。
func (p *Page) Delete(allLanguages bool) error {
	return p.store.delete(p, allLanguages)
}

// Reload 丢弃所有派生状态，从磁盘重新构建并返回新实例。
func (p *Page) Reload() (*Page, error) {
	if p.dir == "" {
		return nil, preconditionFailed("reload", "", "page is not saved")
	}
	return p.store.Reload(p.dir)
}

// FrontMatter 返回写回时使用的 front matter：原 front matter 与当前属性合并，去掉派生键
// 以及与 scheme 默认值相同的键。
func (p *Page) FrontMatter() map[string]interface{} {
	out := cloneMap(p.header)
	for k, v := range p.attrs {
		out[k] = cloneValue(v)
	}
	for k := range derivedKeys {
		delete(out, k)
	}
	for k, v := range out {
		if p.scheme.IsDefault(k, v) {
			delete(out, k)
		}
	}
	return out
}

func (s *Store) write(p *Page, duplicate bool) (*Page, error) {
	op := "save"
	if duplicate {
		op = "duplicate"
	}
	if duplicate && p.dir == "" {
		return nil, preconditionFailed(op, "", "page is not saved")
	}
	parentDir := p.parentPath()
	if parentDir != "" {
		info, err := s.fs.Stat(parentDir)
		if err != nil || !info.IsDir() {
			return nil, preconditionFailed(op, parentDir, "parent has no content path")
		}
	}
	if p.slug == "" {
		return nil, preconditionFailed(op, p.dir, "page has no slug")
	}

	hooks, _ := s.opts.Hooks.Fetch(p.template)
	if hooks.BeforeSave != nil {
		if err := hooks.BeforeSave(p); err != nil {
			return nil, err
		}
	}

	slug := p.slug
	if duplicate {
		unique, err := s.uniqueSlug(p)
		if err != nil {
			return nil, err
		}
		slug = unique
	} else if err := p.checkSiblingSlug(slug); err != nil {
		return nil, err
	}
	target := path.Join(parentDir, folderName(p.folderNum, p.numWidth, slug))
	ext := s.matcher.Ext()
	fileName := p.file.String(ext)

	data, err := content.Serialize(p.FrontMatter(), p.body)
	if err != nil {
		return nil, invalidValue(op, p.dir, "%v", err)
	}
	if !duplicate && target == p.dir && p.hasFile && p.diskFile == p.file {
		existing, err := util.ReadFile(s.fs, path.Join(p.dir, fileName))
		if err == nil && bytes.Equal(existing, data) {
			return p, nil
		}
	}

	switch {
	case p.dir == "":
		if err := s.fs.MkdirAll(target, 0o755); err != nil {
			return nil, fsError(op, s.abs(target), err)
		}
	case duplicate:
		if s.exists(target) {
			return nil, invalidValue(op, target, "destination already exists")
		}
		if err := s.copyTree(p.dir, target); err != nil {
			return nil, fsError(op, s.abs(target), err)
		}
	case target != p.dir:
		if s.exists(target) {
			return nil, invalidValue(op, target, "destination already exists")
		}
		if err := s.fs.Rename(p.dir, target); err != nil {
			return nil, fsError(op, s.abs(target), err)
		}
	}
	// 只有同一语言下换模板才替换旧文件，其它语言变体保持不动
	if p.hasFile && p.diskFile.Lang == p.file.Lang && p.diskFile.Template != p.file.Template {
		old := path.Join(target, p.diskFile.String(ext))
		if err := s.fs.Remove(old); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fsError(op, s.abs(old), err)
		}
	}
	if err := s.writeFile(target, fileName, data); err != nil {
		return nil, fsError(op, s.abs(target), err)
	}

	if !duplicate && p.dir != "" {
		s.forget(p.dir)
	}
	s.forget(target)
	saved, err := s.RetrievePage(target)
	if err != nil {
		return nil, err
	}
	if err := s.Touch(); err != nil {
		return nil, err
	}
	if hooks.AfterSave != nil {
		hooks.AfterSave(saved)
	}
	s.logger.WithFields(logrus.Fields{
		"action":   op,
		"route":    saved.Route(),
		"path":     saved.dir,
		"template": saved.template,
	}).Info("page written")
	return saved, nil
}

func (s *Store) delete(p *Page, allLanguages bool) error {
	const op = "delete"
	if p.dir == "" {
		return preconditionFailed(op, "", "page is not saved")
	}
	if p.IsIndex() || p.IsError() {
		return preconditionFailed(op, p.dir, "%s cannot be deleted", p.RawRoute())
	}
	if p.HasChildren() {
		return preconditionFailed(op, p.dir, "page has children")
	}

	if len(p.langs) > 1 && !allLanguages && p.hasFile {
		file := path.Join(p.dir, p.diskFile.String(s.matcher.Ext()))
		if err := s.fs.Remove(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fsError(op, s.abs(file), err)
		}
	} else if err := util.RemoveAll(s.fs, p.dir); err != nil {
		return fsError(op, p.FilePath(), err)
	}

	s.forget(p.dir)
	if err := s.Touch(); err != nil {
		return err
	}
	if hooks, ok := s.opts.Hooks.Fetch(p.template); ok && hooks.AfterDelete != nil {
		hooks.AfterDelete(p)
	}
	s.logger.WithFields(logrus.Fields{
		"action":        op,
		"route":         p.RawRoute(),
		"path":          p.dir,
		"all_languages": allLanguages,
	}).Info("page deleted")
	return nil
}

// uniqueSlug 依次尝试 slug-copy、slug-copy-2 ……，直到与兄弟页面和已有目录都不冲突。
func (s *Store) uniqueSlug(p *Page) (string, error) {
	parentDir := p.parentPath()
	siblings, err := s.siblingsOf(parentDir, "")
	if err != nil {
		return "", err
	}
	taken := map[string]struct{}{p.slug: {}}
	for _, sibling := range siblings.Pages() {
		taken[sibling.slug] = struct{}{}
	}
	free := func(slug string) bool {
		if _, ok := taken[slug]; ok {
			return false
		}
		return !s.exists(path.Join(parentDir, folderName(p.folderNum, p.numWidth, slug)))
	}
	candidate := p.slug + "-copy"
	for i := 2; !free(candidate); i++ {
		candidate = fmt.Sprintf("%s-copy-%d", p.slug, i)
	}
	return candidate, nil
}

func (s *Store) exists(rel string) bool {
	_, err := s.fs.Stat(rel)
	return err == nil
}

// writeFile 先写入同目录下的临时文件再重命名，读者不会看到写了一半的内容文件。
func (s *Store) writeFile(dir, name string, data []byte) error {
	tmp := path.Join(dir, fmt.Sprintf(".%s.%d.tmp", name, s.opts.Now().UnixNano()))
	f, err := s.fs.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = s.fs.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(tmp)
		return err
	}
	if err := s.fs.Rename(tmp, path.Join(dir, name)); err != nil {
		_ = s.fs.Remove(tmp)
		return err
	}
	return nil
}

// copyTree 复制整个页面目录，同目录下的媒体文件随页面一起复制。
func (s *Store) copyTree(src, dst string) error {
	return util.Walk(s.fs, src, func(current string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(filepath.ToSlash(current), src)
		target := path.Join(dst, rel)
		if info.IsDir() {
			return s.fs.MkdirAll(target, info.Mode().Perm()|0o700)
		}
		data, err := util.ReadFile(s.fs, current)
		if err != nil {
			return err
		}
		return util.WriteFile(s.fs, target, data, info.Mode().Perm())
	})
}
