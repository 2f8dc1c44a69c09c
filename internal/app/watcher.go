package app

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// SceneWatcher reports when the open scene file is rewritten by another
// program. Writes made through the session are ignored by resetting the
// baseline after each save.
type SceneWatcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	baseline time.Time
	debounce time.Duration
	timer    *time.Timer
	onChange func(path string) // Called from a background goroutine
	stopCh   chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// NewSceneWatcher creates a watcher. Events closer together than debounce
// are reported once.
func NewSceneWatcher(debounce time.Duration) (*SceneWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	sw := &SceneWatcher{
		watcher:  w,
		debounce: debounce,
		stopCh:   make(chan struct{}),
	}
	go sw.loop()
	return sw, nil
}

// OnChange sets the callback for external modifications.
func (sw *SceneWatcher) OnChange(fn func(path string)) {
	sw.mu.Lock()
	sw.onChange = fn
	sw.mu.Unlock()
}

// Watch switches to path. The directory is watched rather than the file
// because editors often replace files by rename. An empty path stops
// watching.
func (sw *SceneWatcher) Watch(path string) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.path != "" {
		_ = sw.watcher.Remove(filepath.Dir(sw.path))
	}
	sw.path = path
	if path == "" {
		return nil
	}
	sw.resetBaselineLocked()
	return sw.watcher.Add(filepath.Dir(path))
}

// ResetBaseline accepts the file's current state as known.
func (sw *SceneWatcher) ResetBaseline() {
	sw.mu.Lock()
	sw.resetBaselineLocked()
	sw.mu.Unlock()
}

func (sw *SceneWatcher) resetBaselineLocked() {
	if info, err := os.Stat(sw.path); err == nil {
		sw.baseline = info.ModTime()
	}
}

// Close stops watching. Calling it again is a no-op.
func (sw *SceneWatcher) Close() error {
	sw.closeOnce.Do(func() {
		close(sw.stopCh)
		sw.mu.Lock()
		if sw.timer != nil {
			sw.timer.Stop()
		}
		sw.mu.Unlock()
		sw.closeErr = sw.watcher.Close()
	})
	return sw.closeErr
}

func (sw *SceneWatcher) loop() {
	for {
		select {
		case <-sw.stopCh:
			return
		case ev, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			sw.mu.Lock()
			match := sw.path != "" && filepath.Clean(ev.Name) == filepath.Clean(sw.path)
			if match {
				if sw.timer != nil {
					sw.timer.Stop()
				}
				sw.timer = time.AfterFunc(sw.debounce, sw.check)
			}
			sw.mu.Unlock()
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			logrus.WithError(err).Warn("Scene watcher error")
		}
	}
}

// check fires the callback once per newer modification time.
func (sw *SceneWatcher) check() {
	sw.mu.Lock()
	path := sw.path
	info, err := os.Stat(path)
	if err != nil || !info.ModTime().After(sw.baseline) {
		sw.mu.Unlock()
		return
	}
	sw.baseline = info.ModTime()
	fn := sw.onChange
	sw.mu.Unlock()

	logrus.WithField("path", path).Info("Scene changed on disk")
	if fn != nil {
		fn(path)
	}
}
