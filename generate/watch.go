package generate

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/cxxbind/errors"
	"github.com/teranos/cxxbind/logger"
)

// RunFunc performs one generation run
type RunFunc func(ctx context.Context) (*Result, error)

// Watcher re-runs generation whenever one of the loaded interface files
// changes. Directories are watched rather than files so editors that
// replace a file on save are still seen.
type Watcher struct {
	run      RunFunc
	fs       *fsnotify.Watcher
	limiter  *rate.Limiter
	debounce time.Duration
	logger   *zap.SugaredLogger

	files map[string]bool
	dirs  map[string]bool
}

// NewWatcher creates a watcher for the given interface files. Runs start
// debounce after the last change and at most once per minInterval.
func NewWatcher(files []string, run RunFunc, debounce, minInterval time.Duration, log *zap.SugaredLogger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	w := &Watcher{
		run:      run,
		fs:       fs,
		limiter:  rate.NewLimiter(limit, 1),
		debounce: debounce,
		logger:   log,
		files:    map[string]bool{},
		dirs:     map[string]bool{},
	}
	if err := w.track(files); err != nil {
		fs.Close()
		return nil, err
	}
	return w, nil
}

// track adds files to the watched set
func (w *Watcher) track(files []string) error {
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return errors.Wrapf(err, "failed to resolve %s", f)
		}
		w.files[abs] = true
		dir := filepath.Dir(abs)
		if w.dirs[dir] {
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			return errors.Wrapf(err, "failed to watch %s", dir)
		}
		w.dirs[dir] = true
	}
	return nil
}

// Watch runs once and then again after every change until ctx is done.
// Failed runs are logged and the watch continues.
func (w *Watcher) Watch(ctx context.Context) error {
	defer w.fs.Close()

	w.runOnce(ctx)

	pending := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Infow("Interface file changed",
				logger.FieldFile, event.Name,
				"op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnw("Watcher error", logger.FieldError, err)

		case <-pending:
			if err := w.limiter.Wait(ctx); err != nil {
				return nil
			}
			w.runOnce(ctx)
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context) {
	result, err := w.run(ctx)
	if err != nil {
		w.logger.Errorw("Generation failed", logger.FieldError, err)
		return
	}
	// Imports may have changed
	if err := w.track(result.Interfaces); err != nil {
		w.logger.Warnw("Could not watch interface files", logger.FieldError, err)
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	return w.files[filepath.Clean(event.Name)]
}
