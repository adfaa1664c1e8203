package seed

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/lk2023060901/school-assistant-backend/internal/pkg/logger"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher 监听种子文件变化并触发重新导入
// 编辑器保存文件时可能产生多个事件，因此做了防抖处理
type Watcher struct {
	path     string
	debounce time.Duration
	reload   func(ctx context.Context) error
	logger   *logger.Logger
}

// NewWatcher 创建文件监听器
func NewWatcher(path string, debounce time.Duration, reload func(ctx context.Context) error, lgr *logger.Logger) *Watcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if lgr == nil {
		lgr = logger.L()
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		reload:   reload,
		logger:   lgr.Named("seed-watcher"),
	}
}

// Run 阻塞运行直到 ctx 结束
// 监听父目录而不是文件本身，这样原子重命名也能被捕获
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.logger.Info("watching knowledge seed", zap.String("path", w.path))

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			if err := w.reload(ctx); err != nil {
				w.logger.Error("failed to reload knowledge seed", zap.Error(err))
				continue
			}
			w.logger.Info("knowledge seed reloaded")

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("seed watcher error", zap.Error(err))
		}
	}
}
