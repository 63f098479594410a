// Package watch 监听内容目录的外部修改，并刷新内容根目录的 mtime 水位线，
// 使响应缓存也能感知手工编辑。
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-git/go-billy/v5"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/pagetree/internal/pages"
)

// DefaultDebounce 是连续事件合并为一次 touch 的等待时间。
const DefaultDebounce = 500 * time.Millisecond

// Options 配置 Watcher。
type Options struct {
	Root     string
	FS       billy.Filesystem
	Debounce time.Duration
	Logger   logrus.FieldLogger
	// OnTouch 在每次成功 touch 后调用，可为 nil。
	OnTouch func(time.Time)
	Now     func() time.Time
}

// Watcher 递归监听内容根目录。
type Watcher struct {
	opts    Options
	watcher *fsnotify.Watcher
}

// New 创建 watcher 并为根目录下的所有目录注册监听。
func New(opts Options) (*Watcher, error) {
	if opts.Root == "" {
		return nil, errors.New("watch: root is required")
	}
	if opts.FS == nil {
		return nil, errors.New("watch: filesystem is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		logger := logrus.New()
		logger.SetOutput(os.Stderr)
		opts.Logger = logger
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{opts: opts, watcher: fw}
	if err := w.addTree(opts.Root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// Run 处理事件直到 ctx 结束，结束时关闭底层 watcher。
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) && isDir(event.Name) {
				if err := w.addTree(event.Name); err != nil {
					w.opts.Logger.WithError(err).WithField("path", event.Name).Warn("watch_add_failed")
				}
			}
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.opts.Debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.touch()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.WithError(err).Warn("watch_error")
		}
	}
}

func (w *Watcher) touch() {
	now := w.opts.Now()
	if err := pages.TouchRoot(w.opts.FS, w.opts.Root, now); err != nil {
		w.opts.Logger.WithError(err).Error("watch_touch_failed")
		return
	}
	w.opts.Logger.WithField("root", w.opts.Root).Debug("content_root_touched")
	if w.opts.OnTouch != nil {
		w.opts.OnTouch(now)
	}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			w.opts.Logger.WithError(err).WithField("path", path).Warn("watch_walk_failed")
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.opts.Root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// relevant 忽略 Chmod，touch 根目录本身会产生该事件。
func relevant(event fsnotify.Event) bool {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
