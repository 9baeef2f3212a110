package am

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/ldcs/errors"
	"github.com/teranos/ldcs/logger"
)

// DefaultReloadDebounce is the quiet period after a change before reloading
const DefaultReloadDebounce = 500 * time.Millisecond

// ownWriteWindow is how long events are ignored after SetValue writes the file
const ownWriteWindow = time.Second

// ReloadCallback receives a reloaded configuration that passed validation
type ReloadCallback func(*Config) error

// ConfigWatcher reloads the configuration when an am.toml changes. The
// parent directory is watched so editors that replace the file are seen.
type ConfigWatcher struct {
	path     string
	debounce time.Duration
	logger   *zap.SugaredLogger
	fsw      *fsnotify.Watcher

	ownWriteUntil atomic.Int64 // unix nanos

	mu        sync.Mutex
	callbacks []ReloadCallback
	timer     *time.Timer
}

var (
	globalWatcher   *ConfigWatcher
	globalWatcherMu sync.Mutex
)

// NewConfigWatcher watches one config file. A nil logger uses the
// "ldcs.am" component logger.
func NewConfigWatcher(path string, log *zap.SugaredLogger) (*ConfigWatcher, error) {
	if log == nil {
		log = logger.ComponentLogger("ldcs.am")
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
		return nil, errors.Wrapf(err, "failed to watch config directory %s", filepath.Dir(abs))
	}

	return &ConfigWatcher{
		path:     abs,
		debounce: DefaultReloadDebounce,
		logger:   log,
		fsw:      fsw,
	}, nil
}

// OnReload registers a callback run after every successful reload
func (cw *ConfigWatcher) OnReload(callback ReloadCallback) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.callbacks = append(cw.callbacks, callback)
}

// MarkOwnWrite ignores changes for a short window, covering the events
// one write by this process produces
func (cw *ConfigWatcher) MarkOwnWrite() {
	cw.ownWriteUntil.Store(time.Now().Add(ownWriteWindow).UnixNano())
}

func (cw *ConfigWatcher) isOwnWrite() bool {
	return time.Now().UnixNano() < cw.ownWriteUntil.Load()
}

// Run reloads on change until ctx is done
func (cw *ConfigWatcher) Run(ctx context.Context) error {
	defer cw.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-cw.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != cw.path || isBackupFile(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if cw.isOwnWrite() {
				cw.logger.Debugw("ignoring own config write", logger.FieldFile, event.Name)
				continue
			}
			cw.logger.Infow("config changed", logger.FieldFile, event.Name, "op", event.Op.String())
			cw.scheduleReload()

		case err, ok := <-cw.fsw.Errors:
			if !ok {
				return nil
			}
			cw.logger.Warnw("config watch error", logger.FieldError, err.Error())
		}
	}
}

func (cw *ConfigWatcher) scheduleReload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.timer != nil {
		cw.timer.Stop()
	}
	cw.timer = time.AfterFunc(cw.debounce, func() {
		if err := cw.reload(); err != nil {
			cw.logger.Warnw("config reload rejected, keeping previous settings",
				logger.FieldFile, cw.path, logger.FieldError, err.Error())
		}
	})
}

// reload re-reads every config layer; callbacks see only valid configs
func (cw *ConfigWatcher) reload() error {
	Reset()
	cfg, err := Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cw.logger.Infow("config reloaded", logger.FieldFile, cw.path)

	cw.mu.Lock()
	callbacks := append([]ReloadCallback(nil), cw.callbacks...)
	cw.mu.Unlock()

	for _, callback := range callbacks {
		if err := callback(cfg); err != nil {
			cw.logger.Warnw("config reload callback failed", logger.FieldError, err.Error())
		}
	}
	return nil
}

func (cw *ConfigWatcher) stop() {
	cw.mu.Lock()
	if cw.timer != nil {
		cw.timer.Stop()
	}
	cw.mu.Unlock()
	cw.fsw.Close()
}

// isBackupFile reports whether path is a rotated am.toml backup
func isBackupFile(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ConfigFileName+".back")
}

// SetGlobalWatcher sets the watcher that SetValue marks before writing
func SetGlobalWatcher(watcher *ConfigWatcher) {
	globalWatcherMu.Lock()
	defer globalWatcherMu.Unlock()
	globalWatcher = watcher
}
