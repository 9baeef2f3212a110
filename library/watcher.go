package library

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/ldcs/errors"
	"github.com/teranos/ldcs/logger"
)

// DefaultDebounce collapses the burst of events an editor save produces
const DefaultDebounce = 200 * time.Millisecond

// Watcher calls a function whenever a file is written. The parent
// directory is watched so editors that replace the file are still seen.
type Watcher struct {
	path     string
	onChange func(path string)
	debounce time.Duration
	logger   *zap.SugaredLogger

	fsw   *fsnotify.Watcher
	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher watches path. A nil logger uses the "ldcs.watch" component logger.
func NewWatcher(path string, debounce time.Duration, onChange func(path string), log *zap.SugaredLogger) (*Watcher, error) {
	if log == nil {
		log = logger.ComponentLogger("ldcs.watch")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve %s", path)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", filepath.Dir(abs))
	}

	return &Watcher{
		path:     abs,
		onChange: onChange,
		debounce: debounce,
		logger:   log,
		fsw:      fsw,
	}, nil
}

// Run delivers change notifications until ctx is done
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.logger.Debugw("file changed", logger.FieldFile, event.Name, "op", event.Op.String())
			w.schedule()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnw("watch error", logger.FieldError, err.Error())
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() { w.onChange(w.path) })
}

func (w *Watcher) stop() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	w.fsw.Close()
}
