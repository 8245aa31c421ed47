package reminder

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher calls onChange when the file backing the collection is written
// by another process. Bursts of events are debounced.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func()
	watcher  *fsnotify.Watcher
	logger   *zap.Logger

	timerMu sync.Mutex
	timer   *time.Timer

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewWatcher watches the directory containing path. Atomic replaces
// (rename over the file) are only visible at the directory level.
func NewWatcher(path string, debounce time.Duration, onChange func(), logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		onChange: onChange,
		watcher:  fw,
		logger:   logger.Named("watcher"),
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.logger.Info("Watching reminder storage", zap.String("path", w.path))

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop stops watching and cancels a pending callback.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
	w.wg.Wait()

	w.timerMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timerMu.Unlock()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) schedule() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.logger.Debug("Reminder storage changed", zap.String("path", w.path))
		w.onChange()
	})
}
