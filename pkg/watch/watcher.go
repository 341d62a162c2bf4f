/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: watcher.go
Description: File watcher that re-guesses a file's encoding whenever it changes. Events
are debounced per file and ignored when size and modification time are unchanged.
*/

package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kleascm/encguess/pkg/core"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is the quiet period after the last event before a file is
// processed
const DefaultDebounce = 300 * time.Millisecond

// Processor guesses the encoding of a file
type Processor interface {
	Process(ctx context.Context, file string) (*core.Result, error)
}

// Watcher monitors files and runs a Processor on every change
type Watcher struct {
	watcher   *fsnotify.Watcher
	processor Processor
	files     map[string]*fileState
	mu        sync.RWMutex
	debounce  time.Duration
	logger    logrus.FieldLogger

	// OnResult receives each run's outcome. It is called from timer goroutines.
	OnResult func(path string, result *core.Result, err error)
}

type fileState struct {
	lastModified time.Time
	size         int64
	processing   bool
	pending      bool
}

// NewWatcher creates a watcher feeding changes to processor
func NewWatcher(processor Processor, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		watcher:   fsWatcher,
		processor: processor,
		files:     make(map[string]*fileState),
		debounce:  debounce,
		logger:    logrus.StandardLogger(),
	}, nil
}

// SetLogger replaces the watcher logger
func (w *Watcher) SetLogger(logger logrus.FieldLogger) {
	if logger != nil {
		w.logger = logger
	}
}

// Watch adds a regular file to the watch list
func (w *Watcher) Watch(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	stat, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	if !stat.Mode().IsRegular() {
		return fmt.Errorf("%s: %w", path, core.ErrNotRegularFile)
	}

	w.mu.Lock()
	w.files[absPath] = &fileState{lastModified: stat.ModTime(), size: stat.Size()}
	w.mu.Unlock()

	// editors replace files by rename, so the directory is watched
	if err := w.watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	w.logger.WithField("file", absPath).Debug("Watching file")
	return nil
}

// Files returns the watched paths
func (w *Watcher) Files() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	files := make([]string, 0, len(w.files))
	for path := range w.files {
		files = append(files, path)
	}
	return files
}

// Run starts the watch loop. Blocks until ctx is cancelled or the watcher is
// closed, then waits for in-flight runs.
func (w *Watcher) Run(ctx context.Context) error {
	timers := make(map[string]*time.Timer)
	var timerMu sync.Mutex
	var inflight sync.WaitGroup

	defer func() {
		timerMu.Lock()
		for _, t := range timers {
			if t.Stop() {
				inflight.Done()
			}
		}
		timerMu.Unlock()
		inflight.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			absPath, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			w.mu.RLock()
			state, watched := w.files[absPath]
			w.mu.RUnlock()
			if !watched {
				continue
			}

			timerMu.Lock()
			if t, exists := timers[absPath]; exists && t.Stop() {
				inflight.Done()
			}
			inflight.Add(1)
			timers[absPath] = time.AfterFunc(w.debounce, func() {
				defer inflight.Done()
				w.handleChange(ctx, absPath, state)
			})
			timerMu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("Watcher error")
		}
	}
}

// handleChange guesses path unless a run is already in flight, in which case
// the change is queued and guessed once that run finishes
func (w *Watcher) handleChange(ctx context.Context, path string, state *fileState) {
	w.mu.Lock()
	if state.processing {
		state.pending = true
		w.mu.Unlock()
		return
	}
	state.processing = true
	w.mu.Unlock()

	for {
		w.guess(ctx, path, state)

		w.mu.Lock()
		if !state.pending || ctx.Err() != nil {
			state.processing = false
			state.pending = false
			w.mu.Unlock()
			return
		}
		state.pending = false
		w.mu.Unlock()
	}
}

func (w *Watcher) guess(ctx context.Context, path string, state *fileState) {
	stat, err := os.Stat(path)
	if err != nil {
		w.report(path, nil, err)
		return
	}

	w.mu.Lock()
	unchanged := stat.ModTime().Equal(state.lastModified) && stat.Size() == state.size
	state.lastModified = stat.ModTime()
	state.size = stat.Size()
	w.mu.Unlock()
	if unchanged {
		return
	}

	result, err := w.processor.Process(ctx, path)
	w.report(path, result, err)
}

func (w *Watcher) report(path string, result *core.Result, err error) {
	if err != nil {
		w.logger.WithField("file", path).WithError(err).Warn("Failed to guess encoding")
	}
	if w.OnResult != nil {
		w.OnResult(path, result, err)
	}
}

// Close stops the watcher
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
