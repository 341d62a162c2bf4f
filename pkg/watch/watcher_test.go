/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: watcher_test.go
Description: Tests for re-guessing watched files on change.
*/

package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kleascm/encguess/pkg/charset"
	"github.com/kleascm/encguess/pkg/core"
	"github.com/kleascm/encguess/pkg/guessers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	path   string
	result *core.Result
	err    error
}

func TestWatcherReguessesOnChange(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(file, []byte("plain"), 0644))

	q, err := core.NewGuesserQueue(core.DefaultQueueConfig(), guessers.CoreBOM(), guessers.ASCII(), guessers.UTF())
	require.NoError(t, err)

	w, err := NewWatcher(q, 50*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	events := make(chan event, 8)
	w.OnResult = func(path string, result *core.Result, err error) {
		events <- event{path, result, err}
	}
	require.NoError(t, w.Watch(file))
	assert.Len(t, w.Files(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give the watcher a moment to start draining events
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(file, []byte("\xef\xbb\xbfnow with a byte order mark"), 0644))

	select {
	case e := <-events:
		require.NoError(t, e.err)
		assert.Equal(t, charset.UTF8, e.result.Label)
		assert.True(t, e.result.ShortCircuited)
	case <-time.After(5 * time.Second):
		t.Fatal("no result after change")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchRejectsDirectories(t *testing.T) {
	w, err := NewWatcher(nil, 0)
	require.NoError(t, err)
	defer w.Close()

	assert.ErrorIs(t, w.Watch(t.TempDir()), core.ErrNotRegularFile)
	assert.Error(t, w.Watch(filepath.Join(t.TempDir(), "missing")))
	assert.Empty(t, w.Files())
}

// gatedProcessor blocks its first run until released
type gatedProcessor struct {
	mu      sync.Mutex
	sizes   []int64
	started chan struct{}
	release chan struct{}
}

func (p *gatedProcessor) Process(ctx context.Context, file string) (*core.Result, error) {
	stat, err := os.Stat(file)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.sizes = append(p.sizes, stat.Size())
	first := len(p.sizes) == 1
	p.mu.Unlock()

	if first {
		close(p.started)
		<-p.release
	}
	return &core.Result{File: file}, nil
}

func TestWatcherQueuesChangeDuringRun(t *testing.T) {
	file := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(file, []byte("a"), 0644))

	processor := &gatedProcessor{started: make(chan struct{}), release: make(chan struct{})}
	w, err := NewWatcher(processor, 0)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch(file))

	path := w.Files()[0]
	state := w.files[path]

	require.NoError(t, os.WriteFile(file, []byte("ab"), 0644))
	done := make(chan struct{})
	go func() {
		w.handleChange(context.Background(), path, state)
		close(done)
	}()

	select {
	case <-processor.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first run did not start")
	}

	// a change while the first run is busy returns at once and is queued
	require.NoError(t, os.WriteFile(file, []byte("abc"), 0644))
	w.handleChange(context.Background(), path, state)
	close(processor.release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("queued run did not finish")
	}

	processor.mu.Lock()
	defer processor.mu.Unlock()
	assert.Equal(t, []int64{2, 3}, processor.sizes)
	assert.False(t, state.processing)
	assert.False(t, state.pending)
}
