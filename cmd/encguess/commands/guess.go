/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: guess.go
Description: Guess command implementation for encguess. Runs the configured guesser
queue over one or more files, with a progress bar for batches, optional per-guesser
traces and JSON output.
*/

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kleascm/encguess/pkg/core"
	"github.com/kleascm/encguess/pkg/monitoring"
	"github.com/kleascm/encguess/pkg/utils"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// guessOutput is the JSON shape of one file's outcome
type guessOutput struct {
	File           string      `json:"file"`
	Label          string      `json:"label,omitempty"`
	Confidence     float64     `json:"confidence"`
	ShortCircuited bool        `json:"short_circuited"`
	RunID          string      `json:"run_id,omitempty"`
	Steps          []core.Step `json:"steps,omitempty"`
	Error          string      `json:"error,omitempty"`
}

// guessReport is the content of a --report-dir file
type guessReport struct {
	Stats   *core.BatchStats          `json:"stats"`
	Metrics *monitoring.GlobalMetrics `json:"metrics"`
	Results []guessOutput             `json:"results"`
}

// RunGuess guesses the encoding of every file argument
func RunGuess(cmd *cobra.Command, args []string) error {
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
	collector := monitoring.NewMetricsCollector(logger.GetLogger())
	if threshold := viper.GetDuration("guess.slow_guesser"); threshold > 0 {
		collector.SetAlertThresholds(monitoring.AlertThresholds{SlowGuesser: threshold})
	}
	queue.AddReporter(collector)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	asJSON := viper.GetBool("guess.json")
	trace := viper.GetBool("guess.trace")

	var bar *progressbar.ProgressBar
	if len(args) > 1 && !asJSON {
		bar = showProgress(int64(len(args)), "🔍 Guessing")
	}

	items, stats, err := queue.GuessBatch(ctx, args, core.BatchOptions{
		Workers:  viper.GetInt("batch.workers"),
		FailFast: viper.GetBool("batch.fail_fast"),
		OnDone: func(string, *core.Result, error) {
			if bar != nil {
				bar.Add(1)
			}
		},
	})
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}
	logger.LogBatch(stats.Files, stats.Found, stats.Unknown, stats.Failed, stats.Duration)

	if dir := viper.GetString("guess.report_dir"); dir != "" {
		path, err := utils.WriteMetricsResult(dir, "guess", Version, guessReport{
			Stats:   stats,
			Metrics: collector.GetGlobalMetrics(),
			Results: toOutputs(items, true),
		})
		if err != nil {
			return err
		}
		logger.Info("Report written", map[string]interface{}{"path": path})
	}

	out := cmd.OutOrStdout()
	if asJSON {
		if err := writeJSON(out, items, trace); err != nil {
			return err
		}
	} else {
		for _, item := range items {
			printItem(out, item, trace)
		}
		if len(items) > 1 {
			fmt.Fprintf(out, "\n📊 %d files: %d guessed, %d unknown, %d failed in %s\n",
				stats.Files, stats.Found, stats.Unknown, stats.Failed, formatDuration(stats.Duration))
		}
	}

	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", stats.Failed, stats.Files)
	}
	return nil
}

// showProgress creates the batch progress bar on stderr
func showProgress(total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "",
			BarEnd:        "",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func printItem(out io.Writer, item core.BatchItem, trace bool) {
	if item.Err != nil {
		fmt.Fprintf(out, "%s: ❌ %v\n", item.File, item.Err)
		return
	}
	fmt.Fprintln(out, item.Result.String())
	if !trace {
		return
	}

	for _, step := range item.Result.Steps {
		guess := "-"
		if step.Guess != nil {
			guess = step.Guess.String()
		}
		fmt.Fprintf(out, "   %-12s %-9s %-20s %-14s total=%.2f %s\n",
			step.Guesser, step.Kind, guess, step.Outcome, step.Total, formatDuration(step.Duration))
	}
	for _, name := range item.Result.Skipped {
		fmt.Fprintf(out, "   %-12s unavailable\n", name)
	}
	if item.Result.ShortCircuited {
		fmt.Fprintln(out, "   ⚡ stop threshold reached")
	}
}

func writeJSON(out io.Writer, items []core.BatchItem, trace bool) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(toOutputs(items, trace)); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

func toOutputs(items []core.BatchItem, trace bool) []guessOutput {
	results := make([]guessOutput, 0, len(items))
	for _, item := range items {
		o := guessOutput{File: item.File}
		if item.Err != nil {
			o.Error = item.Err.Error()
		} else {
			o.Label = string(item.Result.Label)
			o.Confidence = item.Result.Confidence
			o.ShortCircuited = item.Result.ShortCircuited
			o.RunID = item.Result.RunID
			if trace {
				o.Steps = item.Result.Steps
			}
		}
		results = append(results, o)
	}
	return results
}
