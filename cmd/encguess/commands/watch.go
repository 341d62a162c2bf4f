/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: watch.go
Description: Watch command implementation for encguess. Re-guesses files whenever they
change until interrupted.
*/

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/kleascm/encguess/pkg/core"
	"github.com/kleascm/encguess/pkg/watch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunWatch watches every file argument
func RunWatch(cmd *cobra.Command, args []string) error {
	// Load configuration first
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup logging
	logger, err := SetupLogging()
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logger.Close()

	queue, err := buildQueue(logger)
	if err != nil {
		return err
	}

	watcher, err := watch.NewWatcher(queue, viper.GetDuration("watch.debounce"))
	if err != nil {
		return err
	}
	defer watcher.Close()
	watcher.SetLogger(logger.GetLogger())

	out := cmd.OutOrStdout()
	var mu sync.Mutex
	watcher.OnResult = func(path string, result *core.Result, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			fmt.Fprintf(out, "%s: ❌ %v\n", path, err)
			return
		}
		fmt.Fprintln(out, result.String())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for _, file := range args {
		if err := watcher.Watch(file); err != nil {
			return err
		}
		// initial guess so the current state is visible before any change
		path, err := core.ResolveRegular(file)
		if err == nil {
			var result *core.Result
			result, err = queue.Process(ctx, path)
			if result != nil {
				result.File = file
			}
			watcher.OnResult(file, result, err)
		}
	}

	fmt.Fprintf(out, "👀 Watching %d file(s), press Ctrl+C to stop\n", len(args))
	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Fprintln(out, "\n🛑 Stopped watching")
	return nil
}
