package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 100 * time.Millisecond

// BestiaryWatcher reloads the bestiary file when it changes on disk.
type BestiaryWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	onLoad  func(*Bestiary)
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
	logger  *zap.Logger
}

// WatchBestiary watches the directory holding path and calls onLoad with
// every successfully parsed revision. Broken revisions are logged and
// skipped; the previous catalogue stays in effect.
func WatchBestiary(path string, onLoad func(*Bestiary), logger *zap.Logger) (*BestiaryWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Editors replace files by rename, so watch the directory.
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, err
	}
	bw := &BestiaryWatcher{
		watcher: w,
		path:    filepath.Clean(path),
		onLoad:  onLoad,
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
		logger:  logger,
	}
	go bw.run()
	return bw, nil
}

// Close stops watching and waits for the watch loop to exit.
func (bw *BestiaryWatcher) Close() error {
	var err error
	bw.once.Do(func() {
		close(bw.closeCh)
		err = bw.watcher.Close()
		<-bw.done
	})
	return err
}

func (bw *BestiaryWatcher) run() {
	defer close(bw.done)
	// Saves often arrive as several events; reload once they settle.
	pending := time.NewTimer(reloadDebounce)
	pending.Stop()
	defer pending.Stop()
	for {
		select {
		case event, ok := <-bw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != bw.path {
				continue
			}
			pending.Reset(reloadDebounce)
		case <-pending.C:
			bw.reload()
		case err, ok := <-bw.watcher.Errors:
			if !ok {
				return
			}
			bw.logger.Warn("bestiary watch error", zap.Error(err))
		case <-bw.closeCh:
			return
		}
	}
}

func (bw *BestiaryWatcher) reload() {
	b, err := LoadBestiary(bw.path)
	if err != nil {
		bw.logger.Warn("bestiary reload failed; keeping previous", zap.String("path", bw.path), zap.Error(err))
		return
	}
	bw.logger.Info("bestiary reloaded", zap.String("path", bw.path), zap.Int("species", len(b.Species)))
	bw.onLoad(b)
}
